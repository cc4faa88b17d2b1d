package models

import (
	"time"

	"gorm.io/gorm"
)

// 页面状态
const (
	PageStatusDraft     = "draft"     // 草稿
	PageStatusPublished = "published" // 已发布
	PageStatusArchived  = "archived"  // 已下架
)

// Page H5 页面（编辑器产物）
type Page struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                  // 主键
	Slug           string         `gorm:"uniqueIndex;not null" json:"slug"`                      // 访问路径标识
	Title          string         `gorm:"type:varchar(200);not null" json:"title"`               // 页面标题
	Description    string         `gorm:"type:varchar(500)" json:"description"`                  // 页面描述（分享摘要）
	ComponentsJSON JSON           `gorm:"type:json" json:"components"`                             // 组件树（编辑器输出）
	CoverAssetID   *uint          `gorm:"index" json:"cover_asset_id,omitempty"`                   // 封面素材ID
	Status         string         `gorm:"index;not null;default:'draft'" json:"status"`            // 状态（draft/published/archived）
	Price          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`      // 付费解锁价格（0 为免费）
	Currency       string         `gorm:"type:varchar(10);not null;default:'CNY'" json:"currency"` // 币种
	ViewCount      uint64         `gorm:"not null;default:0" json:"view_count"`                    // 浏览次数
	PaidCount      uint64         `gorm:"not null;default:0" json:"paid_count"`                    // 付费解锁次数
	AuthorID       uint           `gorm:"index;not null" json:"author_id"`                         // 创建管理员ID
	PublishedAt    *time.Time     `gorm:"index" json:"published_at"`                               // 发布时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                 // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间

	CoverAsset *Asset `gorm:"foreignKey:CoverAssetID" json:"cover_asset,omitempty"` // 封面素材
}

// TableName 指定表名
func (Page) TableName() string {
	return "pages"
}

// IsPublished 页面是否对外可见
func (p *Page) IsPublished() bool {
	return p.Status == PageStatusPublished
}

// RequiresPayment 页面是否需要付费解锁
func (p *Page) RequiresPayment() bool {
	return p.Price.IsPositive()
}
