package queue

import (
	"encoding/json"

	"github.com/h5craft/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderPaid 支付确认后的订单后置处理任务
	TaskOrderPaid = constants.TaskOrderPaid
	// TaskOrderTimeoutClose 订单超时关闭任务
	TaskOrderTimeoutClose = constants.TaskOrderTimeoutClose
)

// OrderPaidPayload 订单已支付任务载荷
type OrderPaidPayload struct {
	OrderID   uint   `json:"order_id"`
	OrderNo   string `json:"order_no"`
	PaymentID uint   `json:"payment_id"`
}

// OrderTimeoutClosePayload 订单超时关闭任务载荷
type OrderTimeoutClosePayload struct {
	OrderID uint `json:"order_id"`
}

// NewOrderPaidTask 创建订单已支付任务
func NewOrderPaidTask(payload OrderPaidPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderPaid, body), nil
}

// NewOrderTimeoutCloseTask 创建订单超时关闭任务
func NewOrderTimeoutCloseTask(payload OrderTimeoutClosePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTimeoutClose, body), nil
}
