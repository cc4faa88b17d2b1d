package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/h5craft/internal/http/response"
	"github.com/h5craft/internal/models"
	"github.com/h5craft/internal/payment/wechatv2"
	"github.com/h5craft/internal/repository"
	"github.com/h5craft/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetAdminPayments 获取支付流水列表 (Admin)
func (h *Handler) GetAdminPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	filter := repository.PaymentListFilter{
		Page:        page,
		PageSize:    pageSize,
		Status:      strings.TrimSpace(c.Query("status")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}
	if raw := strings.TrimSpace(c.Query("order_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		filter.OrderID = uint(parsed)
	}
	if raw := strings.TrimSpace(c.Query("channel_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		filter.ChannelID = uint(parsed)
	}

	payments, total, err := h.PaymentService.ListAdmin(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.payment_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, payments, response.BuildPagination(page, pageSize, total))
}

// GetAdminPayment 获取支付流水详情 (Admin)
func (h *Handler) GetAdminPayment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	payment, err := h.PaymentService.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			respondError(c, response.CodeNotFound, "error.payment_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.payment_fetch_failed", err)
		return
	}
	response.Success(c, payment)
}

// QueryGatewayOrder 管理端向网关查询订单
func (h *Handler) QueryGatewayOrder(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))
	channelID, err := strconv.ParseUint(c.Query("channel_id"), 10, 64)
	if err != nil || channelID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	result, err := h.PaymentService.QueryGatewayOrder(c.Request.Context(), orderNo, uint(channelID))
	if err != nil {
		respondGatewayError(c, err)
		return
	}
	response.Success(c, result)
}

// CloseGatewayOrder 管理端向网关关单
func (h *Handler) CloseGatewayOrder(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))
	channelID, err := strconv.ParseUint(c.Query("channel_id"), 10, 64)
	if err != nil || channelID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if err := h.PaymentService.CloseGatewayOrder(c.Request.Context(), orderNo, uint(channelID)); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondGatewayError(c, err)
		return
	}
	response.Success(c, gin.H{"closed": true})
}

// ====================  退款管理  ====================

// CreateRefundRequest 发起退款请求
type CreateRefundRequest struct {
	PaymentID uint    `json:"payment_id" binding:"required"`
	Amount    float64 `json:"amount" binding:"required"`
	Reason    string  `json:"reason"`
}

// CreateRefund 发起退款
func (h *Handler) CreateRefund(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	var req CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	refund, err := h.PaymentService.Refund(c.Request.Context(), service.RefundInput{
		PaymentID:  req.PaymentID,
		Amount:     models.NewMoneyFromDecimal(decimal.NewFromFloat(req.Amount)),
		Reason:     req.Reason,
		OperatorID: adminID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			respondError(c, response.CodeNotFound, "error.payment_not_found", nil)
		case errors.Is(err, service.ErrRefundInvalid):
			respondError(c, response.CodeBadRequest, "error.refund_invalid", nil)
		case errors.Is(err, service.ErrRefundExceedsAmount):
			respondError(c, response.CodeBadRequest, "error.refund_exceeds_amount", nil)
		case errors.Is(err, service.ErrRefundNotRetryable):
			respondError(c, response.CodeBadRequest, "error.refund_not_retryable", nil)
		case errors.Is(err, wechatv2.ErrAmbiguousOutcome):
			// 结果不明：记录已保留，提示稍后以原单号重试或查询
			response.ErrorWithData(c, response.CodeInternal, "refund outcome unknown, retry with same refund", refund)
		default:
			respondGatewayError(c, err)
		}
		return
	}
	response.Success(c, refund)
}

// GetAdminRefunds 获取退款列表 (Admin)
func (h *Handler) GetAdminRefunds(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.RefundListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
	}
	if raw := strings.TrimSpace(c.Query("payment_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		filter.PaymentID = uint(parsed)
	}
	if raw := strings.TrimSpace(c.Query("order_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		filter.OrderID = uint(parsed)
	}

	refunds, total, err := h.PaymentService.ListRefunds(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.refund_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, refunds, response.BuildPagination(page, pageSize, total))
}

// GetAdminRefund 获取退款详情 (Admin)
func (h *Handler) GetAdminRefund(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	refund, err := h.PaymentService.GetRefund(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrRefundNotFound) {
			respondError(c, response.CodeNotFound, "error.refund_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.refund_fetch_failed", err)
		return
	}
	response.Success(c, refund)
}

// QueryGatewayRefund 管理端向网关查询退款
func (h *Handler) QueryGatewayRefund(c *gin.Context) {
	outRefundNo := strings.TrimSpace(c.Param("out_refund_no"))
	result, err := h.PaymentService.QueryGatewayRefund(c.Request.Context(), outRefundNo)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRefundNotFound):
			respondError(c, response.CodeNotFound, "error.refund_not_found", nil)
		case errors.Is(err, service.ErrRefundInvalid):
			respondError(c, response.CodeBadRequest, "error.refund_invalid", nil)
		default:
			respondGatewayError(c, err)
		}
		return
	}
	response.Success(c, result)
}

// respondGatewayError 将网关客户端错误映射为接口响应
func respondGatewayError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrChannelNotFound):
		respondError(c, response.CodeNotFound, "error.payment_channel_not_found", nil)
	case errors.Is(err, service.ErrChannelDisabled):
		respondError(c, response.CodeBadRequest, "error.payment_channel_disabled", nil)
	case errors.Is(err, service.ErrChannelConfigInvalid):
		respondError(c, response.CodeBadRequest, "error.payment_channel_config_invalid", nil)
	case errors.Is(err, wechatv2.ErrGatewayRejected):
		respondErrorWithMsg(c, response.CodeBadRequest, err.Error(), nil)
	case errors.Is(err, wechatv2.ErrTransport), errors.Is(err, wechatv2.ErrAmbiguousOutcome):
		respondError(c, response.CodeInternal, "error.gateway_unreachable", err)
	case errors.Is(err, wechatv2.ErrResponseSignature), errors.Is(err, wechatv2.ErrMalformedMessage):
		respondError(c, response.CodeInternal, "error.gateway_response_invalid", err)
	default:
		respondError(c, response.CodeInternal, "error.payment_gateway_failed", err)
	}
}
