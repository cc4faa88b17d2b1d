package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/h5craft/internal/cache"
	"github.com/h5craft/internal/logger"
	"github.com/h5craft/internal/models"
	"github.com/h5craft/internal/payment/wechatv2"
)

const notifyDedupTTL = 10 * time.Minute

// HandleWechatNotification 处理支付网关异步通知。
// 返回应答报文由调用方原样写回；任何失败应答都会触发网关重试，
// 因此除验签失败外的临时性错误也返回失败应答。
func (s *PaymentService) HandleWechatNotification(ctx context.Context, channelID uint, body []byte) []byte {
	channel, err := s.channelRepo.GetByID(channelID)
	if err != nil || channel == nil {
		logger.Warnw("payment_notify_channel_missing", "channel_id", channelID)
		return wechatv2.AckFail("channel not found")
	}
	cfg, err := wechatv2.ParseConfig(channel.ConfigJSON)
	if err != nil {
		logger.Errorw("payment_notify_channel_config_invalid", "channel_id", channelID, "error", err)
		return wechatv2.AckFail("channel config invalid")
	}

	fields, err := wechatv2.VerifyNotification(body, cfg.APIKey)
	if err != nil {
		logger.Warnw("payment_notify_verify_failed", "channel_id", channelID, "error", err)
		return wechatv2.AckFail("signature verification failed")
	}

	if fields.Get("return_code") != wechatv2.ResultSuccess {
		logger.Warnw("payment_notify_gateway_fail", "return_msg", fields.Get("return_msg"))
		return wechatv2.AckFail("unexpected return_code")
	}
	if fields.Get("result_code") != wechatv2.ResultSuccess {
		// 支付失败通知：记录后确认接收，不推进订单状态
		logger.Warnw("payment_notify_result_fail",
			"out_trade_no", fields.Get("out_trade_no"),
			"err_code", fields.Get("err_code"))
		return wechatv2.AckSuccess()
	}

	outTradeNo := fields.Get("out_trade_no")
	transactionID := fields.Get("transaction_id")
	if outTradeNo == "" || transactionID == "" {
		return wechatv2.AckFail("missing order identifiers")
	}

	// 网关可能重复投递同一笔通知。标记只在处理成功后写入，
	// 处理中途失败时不留痕，下一次重投仍会完整走一遍
	dedupKey := fmt.Sprintf("payment:notify:%s", transactionID)
	if seen, err := cache.Exists(ctx, dedupKey); err == nil && seen {
		return wechatv2.AckSuccess()
	}

	order, err := s.orderRepo.GetByOrderNo(outTradeNo)
	if err != nil {
		logger.Errorw("payment_notify_order_lookup_failed", "out_trade_no", outTradeNo, "error", err)
		return wechatv2.AckFail("order lookup failed")
	}
	if order == nil {
		logger.Warnw("payment_notify_order_missing", "out_trade_no", outTradeNo)
		return wechatv2.AckFail("order not found")
	}
	if order.Status == models.OrderStatusPaid {
		_, _ = cache.SetNX(ctx, dedupKey, outTradeNo, notifyDedupTTL)
		return wechatv2.AckSuccess()
	}

	totalFee, err := strconv.ParseInt(fields.Get("total_fee"), 10, 64)
	if err != nil || totalFee != moneyToFen(order.Amount) {
		logger.Errorw("payment_notify_amount_mismatch",
			"out_trade_no", outTradeNo,
			"expected_fen", moneyToFen(order.Amount),
			"notified", fields.Get("total_fee"))
		return wechatv2.AckFail("amount mismatch")
	}

	payment, err := s.resolveNotifiedPayment(order.ID, channel.ID, transactionID, fields)
	if err != nil {
		logger.Errorw("payment_notify_payment_resolve_failed", "out_trade_no", outTradeNo, "error", err)
		return wechatv2.AckFail("payment resolve failed")
	}

	paidAt := parseGatewayTime(fields.Get("time_end"))
	if err := s.orderService.MarkPaid(order.ID, payment.ID, transactionID, paidAt); err != nil {
		logger.Errorw("payment_notify_mark_paid_failed", "out_trade_no", outTradeNo, "error", err)
		return wechatv2.AckFail("order update failed")
	}

	_, _ = cache.SetNX(ctx, dedupKey, outTradeNo, notifyDedupTTL)
	logger.Infow("payment_notify_processed",
		"out_trade_no", outTradeNo,
		"transaction_id", transactionID,
		"payment_id", payment.ID)
	return wechatv2.AckSuccess()
}

// resolveNotifiedPayment 定位通知对应的支付流水并落盘回调原文。
// 预下单记录缺失时补建一条流水，保证通知永不丢账。
func (s *PaymentService) resolveNotifiedPayment(orderID, channelID uint, transactionID string, fields wechatv2.Values) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetLatestByTransactionID(transactionID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		payment, err = s.paymentRepo.GetLatestPendingByOrder(orderID)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	callback := models.JSON{}
	for k, v := range fields {
		callback[k] = v
	}

	if payment == nil {
		order, err := s.orderRepo.GetByID(orderID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, ErrOrderNotFound
		}
		payment = &models.Payment{
			OrderID:         orderID,
			ChannelID:       channelID,
			Amount:          models.NewMoneyFromDecimal(order.Amount.Decimal),
			Currency:        order.Currency,
			Status:          models.PaymentStatusPending,
			TransactionID:   transactionID,
			CallbackPayload: callback,
			CallbackAt:      &now,
		}
		if err := s.paymentRepo.Create(payment); err != nil {
			return nil, err
		}
		return payment, nil
	}

	payment.TransactionID = transactionID
	payment.CallbackPayload = callback
	payment.CallbackAt = &now
	if err := s.paymentRepo.Update(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// parseGatewayTime 解析网关 yyyyMMddHHmmss 时间，解析失败时回退当前时间
func parseGatewayTime(raw string) time.Time {
	if raw == "" {
		return time.Now()
	}
	t, err := time.ParseInLocation("20060102150405", raw, time.Local)
	if err != nil {
		return time.Now()
	}
	return t
}
