package models

import (
	"time"

	"gorm.io/gorm"
)

// Asset 上传素材（图片等编辑器资源）
type Asset struct {
	ID         uint           `gorm:"primarykey" json:"id"`                        // 主键
	FileName   string         `gorm:"type:varchar(255);not null" json:"file_name"` // 原始文件名
	StoredPath string         `gorm:"type:varchar(500);not null" json:"path"`      // 存储相对路径
	MimeType   string         `gorm:"type:varchar(100);not null" json:"mime_type"` // MIME 类型
	SizeBytes  int64          `gorm:"not null" json:"size_bytes"`                  // 文件大小
	Width      int            `json:"width"`                                      // 图片宽度
	Height     int            `json:"height"`                                     // 图片高度
	UploaderID uint           `gorm:"index;not null" json:"uploader_id"`           // 上传管理员ID
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间
}

// TableName 指定表名
func (Asset) TableName() string {
	return "assets"
}
