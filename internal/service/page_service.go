package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/h5craft/internal/logger"
	"github.com/h5craft/internal/models"
	"github.com/h5craft/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,98}[a-z0-9]$`)

// PageService 页面业务服务
type PageService struct {
	pageRepo  repository.PageRepository
	assetRepo repository.AssetRepository
}

// NewPageService 创建页面服务
func NewPageService(pageRepo repository.PageRepository, assetRepo repository.AssetRepository) *PageService {
	return &PageService{pageRepo: pageRepo, assetRepo: assetRepo}
}

// PageInput 创建/更新页面输入
type PageInput struct {
	Slug         string
	Title        string
	Description  string
	Components   models.JSON
	CoverAssetID *uint
	Price        models.Money
	Currency     string
	AuthorID     uint
}

func (in *PageInput) normalize() {
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Currency == "" {
		in.Currency = "CNY"
	}
}

func (s *PageService) validateInput(in *PageInput, currentID uint) error {
	if in.Title == "" {
		return ErrPageInvalid
	}
	if in.Price.Decimal.IsNegative() {
		return ErrPageInvalid
	}
	if in.Slug == "" {
		// 未指定访问路径时生成随机短标识
		in.Slug = strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
		return nil
	}
	if !slugPattern.MatchString(in.Slug) {
		return ErrPageInvalid
	}
	existing, err := s.pageRepo.GetBySlug(in.Slug)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != currentID {
		return ErrPageSlugTaken
	}
	return nil
}

// Create 创建页面（草稿）
func (s *PageService) Create(in PageInput) (*models.Page, error) {
	in.normalize()
	if err := s.validateInput(&in, 0); err != nil {
		return nil, err
	}
	if err := s.checkCoverAsset(in.CoverAssetID); err != nil {
		return nil, err
	}

	page := &models.Page{
		Slug:           in.Slug,
		Title:          in.Title,
		Description:    in.Description,
		ComponentsJSON: in.Components,
		CoverAssetID:   in.CoverAssetID,
		Status:         models.PageStatusDraft,
		Price:          models.NewMoneyFromDecimal(in.Price.Decimal),
		Currency:       in.Currency,
		AuthorID:       in.AuthorID,
	}
	if err := s.pageRepo.Create(page); err != nil {
		return nil, err
	}
	logger.Infow("page_created", "page_id", page.ID, "slug", page.Slug, "author_id", page.AuthorID)
	return page, nil
}

// Update 更新页面
func (s *PageService) Update(id uint, in PageInput) (*models.Page, error) {
	page, err := s.pageRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, ErrPageNotFound
	}

	in.normalize()
	if err := s.validateInput(&in, page.ID); err != nil {
		return nil, err
	}
	if err := s.checkCoverAsset(in.CoverAssetID); err != nil {
		return nil, err
	}

	page.Slug = in.Slug
	page.Title = in.Title
	page.Description = in.Description
	page.ComponentsJSON = in.Components
	page.CoverAssetID = in.CoverAssetID
	page.Price = models.NewMoneyFromDecimal(in.Price.Decimal)
	page.Currency = in.Currency
	if err := s.pageRepo.Update(page); err != nil {
		return nil, err
	}
	return page, nil
}

// Publish 发布页面
func (s *PageService) Publish(id uint) (*models.Page, error) {
	return s.transition(id, models.PageStatusPublished)
}

// Archive 下架页面
func (s *PageService) Archive(id uint) (*models.Page, error) {
	return s.transition(id, models.PageStatusArchived)
}

func (s *PageService) transition(id uint, status string) (*models.Page, error) {
	page, err := s.pageRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, ErrPageNotFound
	}
	page.Status = status
	if status == models.PageStatusPublished && page.PublishedAt == nil {
		now := time.Now()
		page.PublishedAt = &now
	}
	if err := s.pageRepo.Update(page); err != nil {
		return nil, err
	}
	logger.Infow("page_status_changed", "page_id", page.ID, "slug", page.Slug, "status", status)
	return page, nil
}

// Delete 删除页面
func (s *PageService) Delete(id uint) error {
	page, err := s.pageRepo.GetByID(id)
	if err != nil {
		return err
	}
	if page == nil {
		return ErrPageNotFound
	}
	return s.pageRepo.Delete(id)
}

// GetByID 管理端获取页面详情
func (s *PageService) GetByID(id uint) (*models.Page, error) {
	page, err := s.pageRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, ErrPageNotFound
	}
	return page, nil
}

// List 管理端页面列表
func (s *PageService) List(filter repository.PageListFilter) ([]models.Page, int64, error) {
	return s.pageRepo.List(filter)
}

// GetPublishedBySlug 公开访问已发布页面并累计浏览量
func (s *PageService) GetPublishedBySlug(slug string) (*models.Page, error) {
	page, err := s.pageRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, ErrPageNotFound
	}
	if !page.IsPublished() {
		return nil, ErrPageNotPublished
	}
	if err := s.pageRepo.IncrementViewCount(page.ID); err != nil {
		logger.Warnw("page_view_count_failed", "page_id", page.ID, "error", err)
	}
	return page, nil
}

// UnlockPrice 页面付费解锁价格，免费页面返回零值
func (s *PageService) UnlockPrice(page *models.Page) models.Money {
	if page == nil {
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	return page.Price
}

func (s *PageService) checkCoverAsset(assetID *uint) error {
	if assetID == nil || *assetID == 0 {
		return nil
	}
	asset, err := s.assetRepo.GetByID(*assetID)
	if err != nil {
		return err
	}
	if asset == nil {
		return ErrAssetNotFound
	}
	return nil
}
