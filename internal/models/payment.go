package models

import (
	"time"

	"gorm.io/gorm"
)

// 支付状态
const (
	PaymentStatusPending  = "pending"  // 已下单待支付
	PaymentStatusPaid     = "paid"     // 已支付
	PaymentStatusClosed   = "closed"   // 已关闭
	PaymentStatusFailed   = "failed"   // 下单失败
	PaymentStatusRefunded = "refunded" // 已全额退款
)

// Payment 单次支付尝试记录
type Payment struct {
	ID              uint           `gorm:"primarykey" json:"id"`                      // 主键
	OrderID         uint           `gorm:"index;not null" json:"order_id"`            // 订单ID
	ChannelID       uint           `gorm:"index;not null" json:"channel_id"`          // 支付渠道ID
	Amount          Money          `gorm:"type:decimal(20,2);not null" json:"amount"` // 支付金额（元）
	Currency        string         `gorm:"type:varchar(10);not null" json:"currency"` // 币种
	Status          string         `gorm:"index;not null" json:"status"`              // 支付状态
	PrepayID        string         `gorm:"type:varchar(128)" json:"prepay_id"`        // 网关预支付标识
	TransactionID   string         `gorm:"index" json:"transaction_id"`               // 网关流水号
	ClientParams    JSON           `gorm:"type:json" json:"client_params"`            // 前端调起参数
	CallbackPayload JSON           `gorm:"type:json" json:"callback_payload"`         // 回调通知原文
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                   // 更新时间
	PaidAt          *time.Time     `gorm:"index" json:"paid_at"`                      // 支付时间
	CallbackAt      *time.Time     `gorm:"index" json:"callback_at"`                  // 回调时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间

	Refunds []Refund `gorm:"foreignKey:PaymentID" json:"refunds,omitempty"` // 退款记录
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
