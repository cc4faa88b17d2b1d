package models

import (
	"time"

	"gorm.io/gorm"
)

// 订单状态
const (
	OrderStatusCreated   = "created"   // 已创建待支付
	OrderStatusPaid      = "paid"      // 已支付
	OrderStatusClosed    = "closed"    // 已关闭
	OrderStatusRefunding = "refunding" // 退款中
	OrderStatusRefunded  = "refunded"  // 已退款
)

// Order 页面付费解锁订单
type Order struct {
	ID         uint           `gorm:"primarykey" json:"id"`                        // 主键
	OrderNo    string         `gorm:"uniqueIndex;not null" json:"order_no"`        // 订单编号（对网关即 out_trade_no）
	PageID     uint           `gorm:"index;not null" json:"page_id"`               // 页面ID
	Subject    string         `gorm:"type:varchar(128);not null" json:"subject"`   // 商品描述
	Amount     Money          `gorm:"type:decimal(20,2);not null" json:"amount"`   // 订单金额（元）
	Currency   string         `gorm:"type:varchar(10);not null" json:"currency"`   // 币种
	OpenID     string         `gorm:"index;not null" json:"openid"`                // 付款方标识
	Status     string         `gorm:"index;not null" json:"status"`                // 订单状态
	ClientIP   string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"` // 下单客户端IP
	ExpiresAt  *time.Time     `gorm:"index" json:"expires_at"`                     // 过期时间
	PaidAt     *time.Time     `gorm:"index" json:"paid_at"`                        // 支付时间
	ClosedAt   *time.Time     `gorm:"index" json:"closed_at"`                      // 关闭时间
	RefundedAt *time.Time     `gorm:"index" json:"refunded_at"`                    // 退款完成时间
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                     // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间

	Page     *Page     `gorm:"foreignKey:PageID" json:"page,omitempty"`      // 关联页面
	Payments []Payment `gorm:"foreignKey:OrderID" json:"payments,omitempty"` // 支付记录
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// IsPayable 订单当前是否可发起支付
func (o *Order) IsPayable(now time.Time) bool {
	if o.Status != OrderStatusCreated {
		return false
	}
	if o.ExpiresAt != nil && now.After(*o.ExpiresAt) {
		return false
	}
	return true
}
