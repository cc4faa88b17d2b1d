package public

import (
	"errors"

	"github.com/h5craft/internal/http/handlers/shared"
	"github.com/h5craft/internal/http/response"
	"github.com/h5craft/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, key string, err error) {
	shared.RespondError(c, code, key, err)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var pageAccessErrors = []mappedHandlerError{
	{service.ErrPageNotFound, response.CodeNotFound, "error.page_not_found"},
	{service.ErrPageNotPublished, response.CodeNotFound, "error.page_not_found"},
}

var orderCreateErrors = []mappedHandlerError{
	{service.ErrPageNotFound, response.CodeNotFound, "error.page_not_found"},
	{service.ErrPageNotPublished, response.CodeNotFound, "error.page_not_found"},
	{service.ErrOrderInvalid, response.CodeBadRequest, "error.order_invalid"},
	{service.ErrOrderAlreadyPaid, response.CodeBadRequest, "error.order_already_paid"},
}

var paymentCreateErrors = []mappedHandlerError{
	{service.ErrOrderNotFound, response.CodeNotFound, "error.order_not_found"},
	{service.ErrOrderAlreadyPaid, response.CodeBadRequest, "error.order_already_paid"},
	{service.ErrOrderStatusInvalid, response.CodeBadRequest, "error.order_not_payable"},
	{service.ErrChannelNotFound, response.CodeNotFound, "error.payment_channel_not_found"},
	{service.ErrChannelDisabled, response.CodeBadRequest, "error.payment_channel_disabled"},
	{service.ErrChannelConfigInvalid, response.CodeBadRequest, "error.payment_channel_config_invalid"},
}

func respondPageAccessError(c *gin.Context, err error) {
	respondWithMappedError(c, err, pageAccessErrors, response.CodeInternal, "error.page_fetch_failed")
}

func respondOrderCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderCreateErrors, response.CodeInternal, "error.order_create_failed")
}

func respondPaymentCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, paymentCreateErrors, response.CodeInternal, "error.payment_create_failed")
}
