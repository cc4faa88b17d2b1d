package public

import (
	"github.com/h5craft/internal/http/response"

	"github.com/gin-gonic/gin"
)

// CreatePaymentRequest 发起支付请求
type CreatePaymentRequest struct {
	OrderNo   string `json:"order_no" binding:"required"`
	ChannelID uint   `json:"channel_id" binding:"required"`
}

// CreatePayment 为订单发起支付并返回前端调起参数
func (h *Handler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.PaymentService.CreatePayment(c.Request.Context(), req.OrderNo, req.ChannelID, c.ClientIP())
	if err != nil {
		respondPaymentCreateError(c, err)
		return
	}

	response.Success(c, gin.H{
		"payment_id":    result.Payment.ID,
		"order_no":      req.OrderNo,
		"client_params": result.ClientParams,
	})
}
