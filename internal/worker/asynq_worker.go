package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/h5craft/internal/cache"
	"github.com/h5craft/internal/logger"
	"github.com/h5craft/internal/models"
	"github.com/h5craft/internal/provider"
	"github.com/h5craft/internal/queue"
	"github.com/h5craft/internal/service"

	"github.com/hibiken/asynq"
)

const paidStatsTTL = 48 * time.Hour

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderPaid, c.handleOrderPaid)
	mux.HandleFunc(queue.TaskOrderTimeoutClose, c.handleOrderTimeoutClose)
}

// handleOrderPaid 支付确认后的后置处理。任务可能重复投递，按订单状态幂等
func (c *Consumer) handleOrderPaid(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_paid_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderPaidPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_paid_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_paid_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}

	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_paid_fetch_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_paid_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	if order.Status != models.OrderStatusPaid && order.Status != models.OrderStatusRefunding && order.Status != models.OrderStatusRefunded {
		logger.Debugw("worker_order_paid_skip_not_paid", "order_no", order.OrderNo, "status", order.Status)
		return nil
	}

	// 按日累计解锁统计。重复投递由 SetNX 标记拦截
	markKey := fmt.Sprintf("stats:paid:mark:%s", order.OrderNo)
	fresh, err := cache.SetNX(ctx, markKey, order.OrderNo, paidStatsTTL)
	if err != nil {
		logger.Warnw("worker_order_paid_mark_failed", "order_no", order.OrderNo, "error", err)
	}
	if fresh {
		day := time.Now().Format("20060102")
		if _, err := cache.IncrWithTTL(ctx, fmt.Sprintf("stats:paid:count:%s", day), paidStatsTTL); err != nil {
			logger.Warnw("worker_order_paid_stats_failed", "order_no", order.OrderNo, "error", err)
		}
	}

	logger.Infow("worker_order_paid_processed",
		"order_no", order.OrderNo,
		"page_id", order.PageID,
		"payment_id", payload.PaymentID,
	)
	return nil
}

// handleOrderTimeoutClose 订单超时关闭。订单已支付或已关闭时静默跳过
func (c *Consumer) handleOrderTimeoutClose(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_timeout_close_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderTimeoutClosePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_timeout_close_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_timeout_close_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Warnw("worker_order_timeout_close_skip_order_service_nil", "order_id", payload.OrderID)
		return nil
	}

	if err := c.OrderService.CloseOrder(payload.OrderID); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_order_timeout_close_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrOrderStatusInvalid):
			// 订单在超时前完成了支付
			logger.Debugw("worker_order_timeout_close_skip_invalid_status", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_order_timeout_close_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	return nil
}
