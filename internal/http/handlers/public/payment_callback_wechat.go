package public

import (
	"io"
	"net/http"
	"strconv"

	"github.com/h5craft/internal/http/handlers/shared"
	"github.com/h5craft/internal/payment/wechatv2"

	"github.com/gin-gonic/gin"
)

const wechatCallbackContentType = "text/xml; charset=utf-8"

// HandleWechatNotify 微信支付结果通知回调。
// 网关按 at-least-once 投递，始终以网关约定的 XML 应答告知处理结果；
// 验签失败或报文异常一律返回 FAIL，由网关按自身策略重发。
func (h *Handler) HandleWechatNotify(c *gin.Context) {
	log := shared.RequestLog(c)

	channelID, err := strconv.ParseUint(c.Param("channel_id"), 10, 64)
	if err != nil || channelID == 0 {
		log.Warnw("wechat_notify_bad_channel", "raw", c.Param("channel_id"))
		c.Data(http.StatusOK, wechatCallbackContentType, wechatv2.AckFail("invalid channel"))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("wechat_notify_body_read_failed", "error", err)
		c.Data(http.StatusOK, wechatCallbackContentType, wechatv2.AckFail("read body failed"))
		return
	}

	log.Infow("wechat_notify_received",
		"channel_id", channelID,
		"client_ip", c.ClientIP(),
		"body_size", len(body),
	)

	ack := h.PaymentService.HandleWechatNotification(c.Request.Context(), uint(channelID), body)
	c.Data(http.StatusOK, wechatCallbackContentType, ack)
}
