package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/h5craft/internal/logger"
	"github.com/h5craft/internal/models"
	"github.com/h5craft/internal/payment/wechatv2"
	"github.com/h5craft/internal/repository"
)

// RefundInput 发起退款输入
type RefundInput struct {
	PaymentID  uint
	Amount     models.Money
	Reason     string
	OperatorID uint
}

// Refund 对已支付流水发起退款。
// 结果不明的退款保留退款单号并标记待确认，重试时复用同一单号，
// 保证网关侧不会产生第二笔退款。
func (s *PaymentService) Refund(ctx context.Context, input RefundInput) (*models.Refund, error) {
	input.Reason = strings.TrimSpace(input.Reason)
	if input.PaymentID == 0 || !input.Amount.Decimal.IsPositive() {
		return nil, ErrRefundInvalid
	}

	payment, err := s.paymentRepo.GetByID(input.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	if payment.Status != models.PaymentStatusPaid {
		return nil, ErrRefundInvalid
	}

	refunded, err := s.refundRepo.SumSucceededByPayment(payment.ID)
	if err != nil {
		return nil, err
	}
	remaining := payment.Amount.Decimal.Sub(refunded.Decimal)
	if input.Amount.Decimal.GreaterThan(remaining) {
		return nil, ErrRefundExceedsAmount
	}

	_, client, err := s.clientForChannel(payment.ChannelID)
	if err != nil {
		return nil, err
	}
	if !client.HasCertificate() {
		return nil, ErrChannelConfigInvalid
	}

	order, err := s.orderRepo.GetByID(payment.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	refund, err := s.prepareRefundRecord(payment, order, input)
	if err != nil {
		return nil, err
	}

	result, err := client.Refund(ctx, wechatv2.RefundRequest{
		OutTradeNo:  order.OrderNo,
		OutRefundNo: refund.OutRefundNo,
		TotalFee:    moneyToFen(payment.Amount),
		RefundFee:   moneyToFen(refund.Amount),
		Reason:      refund.Reason,
	})
	if err != nil {
		return s.recordRefundFailure(refund, err)
	}

	now := time.Now()
	refund.Status = models.RefundStatusSuccess
	refund.RefundID = result.Get("refund_id")
	refund.SucceededAt = &now
	refund.FailReason = ""
	if err := s.refundRepo.Update(refund); err != nil {
		return nil, err
	}
	s.settleRefundedOrder(payment, order)

	logger.Infow("refund_succeeded",
		"out_refund_no", refund.OutRefundNo,
		"refund_id", refund.RefundID,
		"amount", refund.Amount.String())
	return refund, nil
}

// prepareRefundRecord 创建退款记录；待确认记录按原单号重试
func (s *PaymentService) prepareRefundRecord(payment *models.Payment, order *models.Order, input RefundInput) (*models.Refund, error) {
	ambiguous, err := s.findAmbiguousRefund(payment.ID)
	if err != nil {
		return nil, err
	}
	if ambiguous != nil {
		if !ambiguous.Amount.Decimal.Equal(input.Amount.Decimal) {
			return nil, ErrRefundNotRetryable
		}
		ambiguous.Status = models.RefundStatusPending
		ambiguous.Reason = input.Reason
		ambiguous.OperatorID = input.OperatorID
		if err := s.refundRepo.Update(ambiguous); err != nil {
			return nil, err
		}
		return ambiguous, nil
	}

	refund := &models.Refund{
		PaymentID:   payment.ID,
		OrderID:     order.ID,
		OutRefundNo: generateRefundNo(),
		Amount:      models.NewMoneyFromDecimal(input.Amount.Decimal),
		Reason:      input.Reason,
		Status:      models.RefundStatusPending,
		OperatorID:  input.OperatorID,
	}
	if err := s.refundRepo.Create(refund); err != nil {
		return nil, err
	}
	return refund, nil
}

func (s *PaymentService) findAmbiguousRefund(paymentID uint) (*models.Refund, error) {
	refunds, _, err := s.refundRepo.ListAdmin(repository.RefundListFilter{
		PaymentID: paymentID,
		Status:    models.RefundStatusAmbiguous,
		Page:      1,
		PageSize:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(refunds) == 0 {
		return nil, nil
	}
	return &refunds[0], nil
}

func (s *PaymentService) recordRefundFailure(refund *models.Refund, cause error) (*models.Refund, error) {
	if errors.Is(cause, wechatv2.ErrAmbiguousOutcome) {
		refund.Status = models.RefundStatusAmbiguous
		refund.FailReason = cause.Error()
		if err := s.refundRepo.Update(refund); err != nil {
			return nil, err
		}
		logger.Warnw("refund_outcome_ambiguous", "out_refund_no", refund.OutRefundNo)
		return refund, cause
	}
	refund.Status = models.RefundStatusFailed
	refund.FailReason = cause.Error()
	if err := s.refundRepo.Update(refund); err != nil {
		return nil, err
	}
	logger.Warnw("refund_failed", "out_refund_no", refund.OutRefundNo, "error", cause)
	return refund, cause
}

// settleRefundedOrder 全额退完后推进订单与流水状态
func (s *PaymentService) settleRefundedOrder(payment *models.Payment, order *models.Order) {
	refunded, err := s.refundRepo.SumSucceededByPayment(payment.ID)
	if err != nil {
		logger.Warnw("refund_sum_failed", "payment_id", payment.ID, "error", err)
		return
	}
	if refunded.Decimal.LessThan(payment.Amount.Decimal) {
		return
	}
	payment.Status = models.PaymentStatusRefunded
	if err := s.paymentRepo.Update(payment); err != nil {
		logger.Warnw("refund_payment_update_failed", "payment_id", payment.ID, "error", err)
	}
	now := time.Now()
	if err := s.orderRepo.UpdateStatus(order.ID, models.OrderStatusRefunded, map[string]interface{}{
		"refunded_at": now,
	}); err != nil {
		logger.Warnw("refund_order_update_failed", "order_no", order.OrderNo, "error", err)
	}
}

// QueryGatewayRefund 向网关查询退款并同步待确认记录的最终状态
func (s *PaymentService) QueryGatewayRefund(ctx context.Context, outRefundNo string) (wechatv2.Values, error) {
	outRefundNo = strings.TrimSpace(outRefundNo)
	if outRefundNo == "" {
		return nil, ErrRefundInvalid
	}
	refund, err := s.refundRepo.GetByOutRefundNo(outRefundNo)
	if err != nil {
		return nil, err
	}
	if refund == nil {
		return nil, ErrRefundNotFound
	}
	payment, err := s.paymentRepo.GetByID(refund.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	_, client, err := s.clientForChannel(payment.ChannelID)
	if err != nil {
		return nil, err
	}
	result, err := client.QueryRefund(ctx, outRefundNo)
	if err != nil {
		return nil, err
	}
	s.syncRefundFromGateway(refund, payment, result)
	return result, nil
}

// syncRefundFromGateway 把网关查询结果回写到待确认的退款记录
func (s *PaymentService) syncRefundFromGateway(refund *models.Refund, payment *models.Payment, result wechatv2.Values) {
	if refund.Status != models.RefundStatusAmbiguous && refund.Status != models.RefundStatusPending {
		return
	}
	switch result.Get("refund_status_0") {
	case "SUCCESS":
		now := time.Now()
		refund.Status = models.RefundStatusSuccess
		refund.RefundID = result.Get("refund_id_0")
		refund.SucceededAt = &now
		refund.FailReason = ""
		if err := s.refundRepo.Update(refund); err != nil {
			logger.Warnw("refund_sync_update_failed", "out_refund_no", refund.OutRefundNo, "error", err)
			return
		}
		order, err := s.orderRepo.GetByID(refund.OrderID)
		if err == nil && order != nil {
			s.settleRefundedOrder(payment, order)
		}
	case "REFUNDCLOSE", "CHANGE":
		refund.Status = models.RefundStatusFailed
		refund.FailReason = result.Get("refund_status_0")
		if err := s.refundRepo.Update(refund); err != nil {
			logger.Warnw("refund_sync_update_failed", "out_refund_no", refund.OutRefundNo, "error", err)
		}
	}
}

// GetRefund 管理端获取退款记录
func (s *PaymentService) GetRefund(id uint) (*models.Refund, error) {
	refund, err := s.refundRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if refund == nil {
		return nil, ErrRefundNotFound
	}
	return refund, nil
}

// ListRefunds 管理端退款列表
func (s *PaymentService) ListRefunds(filter repository.RefundListFilter) ([]models.Refund, int64, error) {
	return s.refundRepo.ListAdmin(filter)
}

func generateRefundNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("RF%s%s", now, randNumeric(6))
}
