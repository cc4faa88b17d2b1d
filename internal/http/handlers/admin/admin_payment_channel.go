package admin

import (
	"errors"
	"strconv"

	"github.com/h5craft/internal/cache"
	"github.com/h5craft/internal/http/response"
	"github.com/h5craft/internal/models"
	"github.com/h5craft/internal/repository"
	"github.com/h5craft/internal/service"

	"github.com/gin-gonic/gin"
)

// PaymentChannelRequest 创建/更新支付渠道请求
type PaymentChannelRequest struct {
	Name       string                 `json:"name" binding:"required"`
	Type       string                 `json:"type" binding:"required"`
	ConfigJSON map[string]interface{} `json:"config_json" binding:"required"`
	IsActive   *bool                  `json:"is_active"`
	SortOrder  int                    `json:"sort_order"`
}

func (r *PaymentChannelRequest) toInput() service.ChannelInput {
	in := service.ChannelInput{
		Name:       r.Name,
		Type:       r.Type,
		ConfigJSON: models.JSON(r.ConfigJSON),
		IsActive:   true,
		SortOrder:  r.SortOrder,
	}
	if r.IsActive != nil {
		in.IsActive = *r.IsActive
	}
	return in
}

func respondChannelError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrChannelNotFound):
		respondError(c, response.CodeNotFound, "error.payment_channel_not_found", nil)
	case errors.Is(err, service.ErrChannelTypeNotSupported):
		respondError(c, response.CodeBadRequest, "error.payment_channel_type_not_supported", nil)
	case errors.Is(err, service.ErrChannelConfigInvalid):
		respondError(c, response.CodeBadRequest, "error.payment_channel_config_invalid", nil)
	default:
		respondError(c, response.CodeInternal, "error.payment_channel_save_failed", err)
	}
}

// CreatePaymentChannel 创建支付渠道
func (h *Handler) CreatePaymentChannel(c *gin.Context) {
	var req PaymentChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	channel, err := h.PaymentChannelService.Create(req.toInput())
	if err != nil {
		respondChannelError(c, err)
		return
	}
	_ = cache.Del(c.Request.Context(), publicConfigCacheKey)

	response.Success(c, channel)
}

// UpdatePaymentChannel 更新支付渠道
func (h *Handler) UpdatePaymentChannel(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req PaymentChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	channel, err := h.PaymentChannelService.Update(uint(id), req.toInput())
	if err != nil {
		respondChannelError(c, err)
		return
	}
	_ = cache.Del(c.Request.Context(), publicConfigCacheKey)

	response.Success(c, channel)
}

// DeletePaymentChannel 删除支付渠道
func (h *Handler) DeletePaymentChannel(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if err := h.PaymentChannelService.Delete(uint(id)); err != nil {
		respondChannelError(c, err)
		return
	}
	_ = cache.Del(c.Request.Context(), publicConfigCacheKey)

	response.Success(c, gin.H{"deleted": true})
}

// GetPaymentChannel 获取支付渠道详情
func (h *Handler) GetPaymentChannel(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	channel, err := h.PaymentChannelService.GetByID(uint(id))
	if err != nil {
		respondChannelError(c, err)
		return
	}
	response.Success(c, channel)
}

// GetPaymentChannels 获取支付渠道列表
func (h *Handler) GetPaymentChannels(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	activeOnly := false
	if raw := c.Query("active_only"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		activeOnly = parsed
	}

	channels, total, err := h.PaymentChannelService.List(repository.PaymentChannelListFilter{
		Page:       page,
		PageSize:   pageSize,
		Type:       c.Query("type"),
		ActiveOnly: activeOnly,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.payment_channel_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, channels, response.BuildPagination(page, pageSize, total))
}
