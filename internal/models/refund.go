package models

import (
	"time"

	"gorm.io/gorm"
)

// 退款状态
const (
	RefundStatusPending   = "pending"   // 已受理处理中
	RefundStatusSuccess   = "success"   // 退款成功
	RefundStatusFailed    = "failed"    // 退款失败
	RefundStatusAmbiguous = "ambiguous" // 结果未知，需对账确认
)

// Refund 退款记录。out_refund_no 固定不变，未知结果时按原单号安全重试
type Refund struct {
	ID          uint           `gorm:"primarykey" json:"id"`                        // 主键
	PaymentID   uint           `gorm:"index;not null" json:"payment_id"`            // 支付记录ID
	OrderID     uint           `gorm:"index;not null" json:"order_id"`              // 订单ID
	OutRefundNo string         `gorm:"uniqueIndex;not null" json:"out_refund_no"`   // 商户退款单号
	RefundID    string         `gorm:"index" json:"refund_id"`                      // 网关退款流水号
	Amount      Money          `gorm:"type:decimal(20,2);not null" json:"amount"`   // 退款金额（元）
	Reason      string         `gorm:"type:varchar(200)" json:"reason"`             // 退款原因
	Status      string         `gorm:"index;not null" json:"status"`                // 退款状态
	OperatorID  uint           `gorm:"index;not null" json:"operator_id"`           // 操作管理员ID
	FailReason  string         `gorm:"type:varchar(500)" json:"fail_reason"`        // 失败原因
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                     // 更新时间
	SucceededAt *time.Time     `gorm:"index" json:"succeeded_at"`                   // 退款成功时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间
}

// TableName 指定表名
func (Refund) TableName() string {
	return "refunds"
}
