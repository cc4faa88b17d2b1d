package public

import (
	"errors"
	"strings"
	"time"

	"github.com/h5craft/internal/http/response"
	"github.com/h5craft/internal/models"
	"github.com/h5craft/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrderRequest 创建解锁订单请求
type CreateOrderRequest struct {
	PageSlug string `json:"page_slug" binding:"required"`
	OpenID   string `json:"openid" binding:"required"`
}

// PublicOrderView 对外暴露的订单视图
type PublicOrderView struct {
	OrderNo   string       `json:"order_no"`
	PageSlug  string       `json:"page_slug,omitempty"`
	Subject   string       `json:"subject"`
	Amount    models.Money `json:"amount"`
	Currency  string       `json:"currency"`
	Status    string       `json:"status"`
	ExpiresAt *time.Time   `json:"expires_at"`
	PaidAt    *time.Time   `json:"paid_at"`
	CreatedAt time.Time    `json:"created_at"`
}

func buildPublicOrderView(order *models.Order) PublicOrderView {
	view := PublicOrderView{
		OrderNo:   order.OrderNo,
		Subject:   order.Subject,
		Amount:    order.Amount,
		Currency:  order.Currency,
		Status:    order.Status,
		ExpiresAt: order.ExpiresAt,
		PaidAt:    order.PaidAt,
		CreatedAt: order.CreatedAt,
	}
	if order.Page != nil {
		view.PageSlug = order.Page.Slug
	}
	return view
}

// CreateOrder 为付费页面创建解锁订单
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.CreateOrder(service.OrderCreateInput{
		PageSlug: req.PageSlug,
		OpenID:   req.OpenID,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		respondOrderCreateError(c, err)
		return
	}

	response.Success(c, buildPublicOrderView(order))
}

// GetOrderStatus 查询订单状态。openid 必须与下单方一致
func (h *Handler) GetOrderStatus(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))
	openID := strings.TrimSpace(c.Query("openid"))
	if orderNo == "" || openID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	order, err := h.OrderService.GetByOrderNo(orderNo)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	if order.OpenID != openID {
		respondError(c, response.CodeNotFound, "error.order_not_found", nil)
		return
	}

	response.Success(c, buildPublicOrderView(order))
}
