package models

import (
	"time"

	"gorm.io/gorm"
)

// 渠道类型
const (
	ChannelTypeWechatV2 = "wechat_v2" // 微信支付 v2（XML + MD5 签名）
)

// PaymentChannel 支付渠道配置。ConfigJSON 在入库前经渠道实现校验
type PaymentChannel struct {
	ID         uint           `gorm:"primarykey" json:"id"`                   // 主键
	Name       string         `gorm:"not null" json:"name"`                   // 渠道名称
	Type       string         `gorm:"index;not null" json:"type"`             // 渠道类型
	ConfigJSON JSON           `gorm:"type:json" json:"config_json"`           // 渠道凭据与参数
	IsActive   bool           `gorm:"not null;default:true" json:"is_active"` // 是否启用
	SortOrder  int            `gorm:"not null;default:0" json:"sort_order"`   // 排序
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                         // 软删除时间
}

// TableName 指定表名
func (PaymentChannel) TableName() string {
	return "payment_channels"
}
