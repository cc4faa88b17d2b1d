package repository

import (
	"errors"
	"strings"

	"github.com/h5craft/internal/models"

	"gorm.io/gorm"
)

// PageRepository 页面数据访问接口
type PageRepository interface {
	Create(page *models.Page) error
	Update(page *models.Page) error
	Delete(id uint) error
	GetByID(id uint) (*models.Page, error)
	GetBySlug(slug string) (*models.Page, error)
	List(filter PageListFilter) ([]models.Page, int64, error)
	IncrementViewCount(id uint) error
	IncrementPaidCount(id uint) error
}

// GormPageRepository GORM 实现
type GormPageRepository struct {
	db *gorm.DB
}

// NewPageRepository 创建页面仓库
func NewPageRepository(db *gorm.DB) *GormPageRepository {
	return &GormPageRepository{db: db}
}

// Create 创建页面
func (r *GormPageRepository) Create(page *models.Page) error {
	return r.db.Create(page).Error
}

// Update 更新页面
func (r *GormPageRepository) Update(page *models.Page) error {
	return r.db.Save(page).Error
}

// Delete 删除页面（软删除）
func (r *GormPageRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.Page{}, id).Error
}

// GetByID 根据 ID 获取页面
func (r *GormPageRepository) GetByID(id uint) (*models.Page, error) {
	var page models.Page
	if err := r.db.Preload("CoverAsset").First(&page, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &page, nil
}

// GetBySlug 根据访问路径获取页面
func (r *GormPageRepository) GetBySlug(slug string) (*models.Page, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	var page models.Page
	result := r.db.Preload("CoverAsset").Where("slug = ?", slug).Limit(1).Find(&page)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &page, nil
}

// List 页面列表
func (r *GormPageRepository) List(filter PageListFilter) ([]models.Page, int64, error) {
	query := r.db.Model(&models.Page{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OnlyPublished {
		query = query.Where("status = ?", models.PageStatusPublished)
	}
	if filter.AuthorID != 0 {
		query = query.Where("author_id = ?", filter.AuthorID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, argCount := buildSearchCondition(r.db, []string{"slug", "title", "description"})
		if argCount > 0 {
			query = query.Where(condition, repeatLikeArgs("%"+search+"%", argCount)...)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	orderBy := "id DESC"
	if filter.OrderBy == "views" {
		orderBy = "view_count DESC, id DESC"
	}

	pages := make([]models.Page, 0)
	if err := query.Order(orderBy).Find(&pages).Error; err != nil {
		return nil, 0, err
	}
	return pages, total, nil
}

// IncrementViewCount 浏览计数自增
func (r *GormPageRepository) IncrementViewCount(id uint) error {
	return r.db.Model(&models.Page{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// IncrementPaidCount 付费解锁计数自增
func (r *GormPageRepository) IncrementPaidCount(id uint) error {
	return r.db.Model(&models.Page{}).Where("id = ?", id).
		UpdateColumn("paid_count", gorm.Expr("paid_count + 1")).Error
}
