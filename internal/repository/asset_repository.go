package repository

import (
	"errors"
	"strings"

	"github.com/h5craft/internal/models"

	"gorm.io/gorm"
)

// AssetRepository 素材数据访问接口
type AssetRepository interface {
	Create(asset *models.Asset) error
	Delete(id uint) error
	GetByID(id uint) (*models.Asset, error)
	List(filter AssetListFilter) ([]models.Asset, int64, error)
}

// GormAssetRepository GORM 实现
type GormAssetRepository struct {
	db *gorm.DB
}

// NewAssetRepository 创建素材仓库
func NewAssetRepository(db *gorm.DB) *GormAssetRepository {
	return &GormAssetRepository{db: db}
}

// Create 创建素材记录
func (r *GormAssetRepository) Create(asset *models.Asset) error {
	return r.db.Create(asset).Error
}

// Delete 删除素材（软删除）
func (r *GormAssetRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.Asset{}, id).Error
}

// GetByID 根据 ID 获取素材
func (r *GormAssetRepository) GetByID(id uint) (*models.Asset, error) {
	var asset models.Asset
	if err := r.db.First(&asset, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &asset, nil
}

// List 素材列表
func (r *GormAssetRepository) List(filter AssetListFilter) ([]models.Asset, int64, error) {
	query := r.db.Model(&models.Asset{})

	if filter.MimeType != "" {
		query = query.Where("mime_type = ?", filter.MimeType)
	}
	if filter.UploaderID != 0 {
		query = query.Where("uploader_id = ?", filter.UploaderID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, argCount := buildSearchCondition(r.db, []string{"file_name"})
		if argCount > 0 {
			query = query.Where(condition, repeatLikeArgs("%"+search+"%", argCount)...)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	assets := make([]models.Asset, 0)
	if err := query.Order("id DESC").Find(&assets).Error; err != nil {
		return nil, 0, err
	}
	return assets, total, nil
}
