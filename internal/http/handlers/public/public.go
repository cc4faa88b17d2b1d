package public

import (
	"strings"
	"time"

	"github.com/h5craft/internal/cache"
	"github.com/h5craft/internal/http/response"
	"github.com/h5craft/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	publicConfigCacheKey = "public:site_config"
	publicConfigCacheTTL = 60 * time.Second
)

// GetSiteConfig 获取站点公开配置
func (h *Handler) GetSiteConfig(c *gin.Context) {
	var cached map[string]interface{}
	if hit, err := cache.GetJSON(c.Request.Context(), publicConfigCacheKey, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	defaults := map[string]interface{}{
		"site_name":   "h5craft",
		"site_logo":   "",
		"description": "",
	}
	data, err := h.SettingService.GetSiteConfig(defaults)
	if err != nil {
		respondError(c, response.CodeInternal, "error.config_fetch_failed", err)
		return
	}
	if h.CaptchaService != nil {
		data["captcha"] = h.CaptchaService.GetPublicSetting()
	}

	_ = cache.SetJSON(c.Request.Context(), publicConfigCacheKey, data, publicConfigCacheTTL)
	response.Success(c, data)
}

// PublicChannelView 对外暴露的支付渠道信息，不含凭据配置
type PublicChannelView struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	SortOrder int    `json:"sort_order"`
}

// GetPaymentChannels 获取可用支付渠道列表
func (h *Handler) GetPaymentChannels(c *gin.Context) {
	channels, err := h.PaymentChannelService.ListActive()
	if err != nil {
		respondError(c, response.CodeInternal, "error.payment_channel_fetch_failed", err)
		return
	}

	views := make([]PublicChannelView, 0, len(channels))
	for _, ch := range channels {
		views = append(views, PublicChannelView{
			ID:        ch.ID,
			Name:      ch.Name,
			Type:      ch.Type,
			SortOrder: ch.SortOrder,
		})
	}
	response.Success(c, views)
}

// PublicPageView 对外暴露的页面视图。付费页面在未解锁时不下发组件树
type PublicPageView struct {
	Slug        string        `json:"slug"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Components  models.JSON   `json:"components,omitempty"`
	CoverAsset  *models.Asset `json:"cover_asset,omitempty"`
	Price       models.Money  `json:"price"`
	Currency    string        `json:"currency"`
	ViewCount   uint64        `json:"view_count"`
	Locked      bool          `json:"locked"`
	PublishedAt *time.Time    `json:"published_at"`
}

// GetPage 公开访问已发布页面。付费页面凭 openid 判定是否已解锁
func (h *Handler) GetPage(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	page, err := h.PageService.GetPublishedBySlug(slug)
	if err != nil {
		respondPageAccessError(c, err)
		return
	}

	view := PublicPageView{
		Slug:        page.Slug,
		Title:       page.Title,
		Description: page.Description,
		Components:  page.ComponentsJSON,
		CoverAsset:  page.CoverAsset,
		Price:       page.Price,
		Currency:    page.Currency,
		ViewCount:   page.ViewCount,
		PublishedAt: page.PublishedAt,
	}

	if page.RequiresPayment() {
		unlocked := false
		if openID := strings.TrimSpace(c.Query("openid")); openID != "" {
			paid, err := h.OrderService.HasPaidAccess(page.ID, openID)
			if err != nil {
				respondError(c, response.CodeInternal, "error.page_fetch_failed", err)
				return
			}
			unlocked = paid
		}
		if !unlocked {
			view.Components = nil
			view.Locked = true
		}
	}

	response.Success(c, view)
}
