package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/h5craft/internal/config"
	"github.com/h5craft/internal/models"
	"github.com/h5craft/internal/provider"
	"github.com/h5craft/internal/queue"
	"github.com/h5craft/internal/repository"
	"github.com/h5craft/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupConsumerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Asset{},
		&models.Page{},
		&models.Order{},
		&models.PaymentChannel{},
		&models.Payment{},
		&models.Refund{},
		&models.Setting{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{}
	cfg.Order.ExpireMinutes = 30

	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	pageRepo := repository.NewPageRepository(db)
	settingSvc := service.NewSettingService(repository.NewSettingRepository(db))
	orderSvc := service.NewOrderService(cfg, orderRepo, paymentRepo, pageRepo, settingSvc, nil)

	consumer := NewConsumer(&provider.Container{
		Config:       cfg,
		OrderRepo:    orderRepo,
		OrderService: orderSvc,
	})
	return consumer, db
}

func seedWorkerOrder(t *testing.T, db *gorm.DB, status string, expiresAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:   fmt.Sprintf("H5%d", time.Now().UnixNano()),
		PageID:    1,
		Subject:   "页面解锁",
		Amount:    models.NewMoneyFromDecimal(decimal.RequireFromString("1.50")),
		Currency:  "CNY",
		OpenID:    "oUpF8uMuAJO_M2pxb1Q9zNjWeS6o",
		Status:    status,
		ExpiresAt: &expiresAt,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order failed: %v", err)
	}
	return order
}

func newTimeoutCloseTask(t *testing.T, orderID uint) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(queue.OrderTimeoutClosePayload{OrderID: orderID})
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return asynq.NewTask(queue.TaskOrderTimeoutClose, body)
}

func TestHandleOrderTimeoutCloseClosesCreatedOrder(t *testing.T) {
	consumer, db := setupConsumerTest(t)
	order := seedWorkerOrder(t, db, models.OrderStatusCreated, time.Now().Add(-time.Minute))

	if err := consumer.handleOrderTimeoutClose(context.Background(), newTimeoutCloseTask(t, order.ID)); err != nil {
		t.Fatalf("handle timeout close failed: %v", err)
	}

	var stored models.Order
	if err := db.First(&stored, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Status != models.OrderStatusClosed {
		t.Fatalf("expected closed status, got %s", stored.Status)
	}
	if stored.ClosedAt == nil {
		t.Fatal("expected closed_at to be set")
	}

	// 重复投递应当幂等
	if err := consumer.handleOrderTimeoutClose(context.Background(), newTimeoutCloseTask(t, order.ID)); err != nil {
		t.Fatalf("redelivery should be idempotent: %v", err)
	}
}

func TestHandleOrderTimeoutCloseSkipsPaidOrder(t *testing.T) {
	consumer, db := setupConsumerTest(t)
	order := seedWorkerOrder(t, db, models.OrderStatusPaid, time.Now().Add(-time.Minute))

	if err := consumer.handleOrderTimeoutClose(context.Background(), newTimeoutCloseTask(t, order.ID)); err != nil {
		t.Fatalf("paid order should be skipped, got error: %v", err)
	}

	var stored models.Order
	if err := db.First(&stored, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Status != models.OrderStatusPaid {
		t.Fatalf("paid order must not be closed, got %s", stored.Status)
	}
}

func TestHandleOrderTimeoutCloseMissingOrder(t *testing.T) {
	consumer, _ := setupConsumerTest(t)
	if err := consumer.handleOrderTimeoutClose(context.Background(), newTimeoutCloseTask(t, 99999)); err != nil {
		t.Fatalf("missing order should be skipped, got error: %v", err)
	}
}

func TestHandleOrderPaidBadPayload(t *testing.T) {
	consumer, _ := setupConsumerTest(t)
	task := asynq.NewTask(queue.TaskOrderPaid, []byte("not-json"))
	if err := consumer.handleOrderPaid(context.Background(), task); err == nil {
		t.Fatal("expected unmarshal error for malformed payload")
	}
}

func TestHandleOrderPaidProcessesPaidOrder(t *testing.T) {
	consumer, db := setupConsumerTest(t)
	order := seedWorkerOrder(t, db, models.OrderStatusPaid, time.Now().Add(time.Hour))

	body, err := json.Marshal(queue.OrderPaidPayload{OrderID: order.ID, OrderNo: order.OrderNo, PaymentID: 1})
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	task := asynq.NewTask(queue.TaskOrderPaid, body)
	if err := consumer.handleOrderPaid(context.Background(), task); err != nil {
		t.Fatalf("handle order paid failed: %v", err)
	}
}
