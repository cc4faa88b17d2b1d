package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/h5craft/internal/http/response"
	"github.com/h5craft/internal/models"
	"github.com/h5craft/internal/repository"
	"github.com/h5craft/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PageRequest 创建/更新页面请求
type PageRequest struct {
	Slug         string                 `json:"slug"`
	Title        string                 `json:"title" binding:"required"`
	Description  string                 `json:"description"`
	Components   map[string]interface{} `json:"components"`
	CoverAssetID *uint                  `json:"cover_asset_id"`
	PriceAmount  float64                `json:"price_amount"`
	Currency     string                 `json:"currency"`
}

func (r PageRequest) toInput(authorID uint) service.PageInput {
	return service.PageInput{
		Slug:         r.Slug,
		Title:        r.Title,
		Description:  r.Description,
		Components:   models.JSON(r.Components),
		CoverAssetID: r.CoverAssetID,
		Price:        models.NewMoneyFromDecimal(decimal.NewFromFloat(r.PriceAmount)),
		Currency:     r.Currency,
		AuthorID:     authorID,
	}
}

func respondPageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPageNotFound):
		respondError(c, response.CodeNotFound, "error.page_not_found", nil)
	case errors.Is(err, service.ErrPageSlugTaken):
		respondError(c, response.CodeBadRequest, "error.page_slug_taken", nil)
	case errors.Is(err, service.ErrPageInvalid):
		respondError(c, response.CodeBadRequest, "error.page_invalid", nil)
	case errors.Is(err, service.ErrAssetNotFound):
		respondError(c, response.CodeBadRequest, "error.asset_not_found", nil)
	default:
		respondError(c, response.CodeInternal, "error.page_save_failed", err)
	}
}

// CreatePage 创建页面
func (h *Handler) CreatePage(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	page, err := h.PageService.Create(req.toInput(adminID))
	if err != nil {
		respondPageError(c, err)
		return
	}
	response.Success(c, page)
}

// UpdatePage 更新页面
func (h *Handler) UpdatePage(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	page, err := h.PageService.Update(uint(id), req.toInput(adminID))
	if err != nil {
		respondPageError(c, err)
		return
	}
	response.Success(c, page)
}

// PublishPage 发布页面
func (h *Handler) PublishPage(c *gin.Context) {
	h.transitionPage(c, models.PageStatusPublished)
}

// ArchivePage 下架页面
func (h *Handler) ArchivePage(c *gin.Context) {
	h.transitionPage(c, models.PageStatusArchived)
}

func (h *Handler) transitionPage(c *gin.Context, status string) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var page *models.Page
	switch status {
	case models.PageStatusPublished:
		page, err = h.PageService.Publish(uint(id))
	default:
		page, err = h.PageService.Archive(uint(id))
	}
	if err != nil {
		respondPageError(c, err)
		return
	}
	response.Success(c, page)
}

// DeletePage 删除页面
func (h *Handler) DeletePage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if err := h.PageService.Delete(uint(id)); err != nil {
		respondPageError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// GetAdminPage 获取页面详情 (Admin)
func (h *Handler) GetAdminPage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	page, err := h.PageService.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			respondError(c, response.CodeNotFound, "error.page_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.page_fetch_failed", err)
		return
	}
	response.Success(c, page)
}

// GetAdminPages 获取页面列表 (Admin)
func (h *Handler) GetAdminPages(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.PageListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		Search:   strings.TrimSpace(c.Query("search")),
		OrderBy:  strings.TrimSpace(c.Query("order_by")),
	}

	pages, total, err := h.PageService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.page_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, pages, response.BuildPagination(page, pageSize, total))
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
