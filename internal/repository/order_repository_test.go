package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/h5craft/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupRepositoryTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Asset{},
		&models.Page{},
		&models.Order{},
		&models.Payment{},
		&models.Refund{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func createTestOrder(t *testing.T, db *gorm.DB, orderNo, status, openID string, pageID uint) models.Order {
	t.Helper()
	order := models.Order{
		OrderNo:  orderNo,
		PageID:   pageID,
		Subject:  "测试页面解锁",
		Amount:   models.NewMoneyFromDecimal(decimal.NewFromInt(1)),
		Currency: "CNY",
		OpenID:   openID,
		Status:   status,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestOrderRepositoryGetByOrderNo(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewOrderRepository(db)

	created := createTestOrder(t, db, "H5C001", models.OrderStatusCreated, "openA", 1)

	got, err := repo.GetByOrderNo("H5C001")
	if err != nil {
		t.Fatalf("get by order no failed: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("expected order %d, got %+v", created.ID, got)
	}

	missing, err := repo.GetByOrderNo("H5C404")
	if err != nil {
		t.Fatalf("get missing order failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing order should be nil, got %+v", missing)
	}
}

func TestOrderRepositoryExistsPaidByPageAndOpenID(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewOrderRepository(db)

	createTestOrder(t, db, "H5C010", models.OrderStatusPaid, "openA", 7)
	createTestOrder(t, db, "H5C011", models.OrderStatusCreated, "openB", 7)

	paid, err := repo.ExistsPaidByPageAndOpenID(7, "openA")
	if err != nil {
		t.Fatalf("exists paid failed: %v", err)
	}
	if !paid {
		t.Fatalf("openA should count as paid for page 7")
	}

	pending, err := repo.ExistsPaidByPageAndOpenID(7, "openB")
	if err != nil {
		t.Fatalf("exists paid failed: %v", err)
	}
	if pending {
		t.Fatalf("pending order must not count as paid")
	}
}

func TestOrderRepositoryListExpired(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewOrderRepository(db)
	now := time.Now().UTC()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := createTestOrder(t, db, "H5C020", models.OrderStatusCreated, "openA", 1)
	if err := db.Model(&models.Order{}).Where("id = ?", expired.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("set expires_at failed: %v", err)
	}
	alive := createTestOrder(t, db, "H5C021", models.OrderStatusCreated, "openA", 1)
	if err := db.Model(&models.Order{}).Where("id = ?", alive.ID).Update("expires_at", future).Error; err != nil {
		t.Fatalf("set expires_at failed: %v", err)
	}

	got, err := repo.ListExpired(now, 10)
	if err != nil {
		t.Fatalf("list expired failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != expired.ID {
		t.Fatalf("expected only expired order %d, got %+v", expired.ID, got)
	}
}

func TestOrderRepositoryUpdateStatus(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewOrderRepository(db)
	now := time.Now().UTC().Truncate(time.Second)

	order := createTestOrder(t, db, "H5C030", models.OrderStatusCreated, "openA", 1)
	if err := repo.UpdateStatus(order.ID, models.OrderStatusPaid, map[string]interface{}{"paid_at": now}); err != nil {
		t.Fatalf("update status failed: %v", err)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != models.OrderStatusPaid {
		t.Fatalf("status want paid got %s", reloaded.Status)
	}
	if reloaded.PaidAt == nil {
		t.Fatalf("paid_at should be set")
	}
}

func TestRefundRepositorySumSucceededByPayment(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewRefundRepository(db)

	refunds := []models.Refund{
		{PaymentID: 3, OrderID: 1, OutRefundNo: "R1", Amount: models.NewMoneyFromDecimal(decimal.NewFromFloat(0.5)), Status: models.RefundStatusSuccess, OperatorID: 1},
		{PaymentID: 3, OrderID: 1, OutRefundNo: "R2", Amount: models.NewMoneyFromDecimal(decimal.NewFromFloat(0.3)), Status: models.RefundStatusSuccess, OperatorID: 1},
		{PaymentID: 3, OrderID: 1, OutRefundNo: "R3", Amount: models.NewMoneyFromDecimal(decimal.NewFromFloat(9.9)), Status: models.RefundStatusFailed, OperatorID: 1},
		{PaymentID: 4, OrderID: 2, OutRefundNo: "R4", Amount: models.NewMoneyFromDecimal(decimal.NewFromFloat(1.0)), Status: models.RefundStatusSuccess, OperatorID: 1},
	}
	for i := range refunds {
		if err := db.Create(&refunds[i]).Error; err != nil {
			t.Fatalf("create refund failed: %v", err)
		}
	}

	total, err := repo.SumSucceededByPayment(3)
	if err != nil {
		t.Fatalf("sum succeeded failed: %v", err)
	}
	if total.String() != "0.80" {
		t.Fatalf("sum want 0.80 got %s", total.String())
	}
}

func TestRefundRepositoryGetByOutRefundNo(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewRefundRepository(db)

	refund := models.Refund{
		PaymentID:   3,
		OrderID:     1,
		OutRefundNo: "H5CR001",
		Amount:      models.NewMoneyFromDecimal(decimal.NewFromInt(1)),
		Status:      models.RefundStatusPending,
		OperatorID:  1,
	}
	if err := db.Create(&refund).Error; err != nil {
		t.Fatalf("create refund failed: %v", err)
	}

	got, err := repo.GetByOutRefundNo("H5CR001")
	if err != nil {
		t.Fatalf("get by out_refund_no failed: %v", err)
	}
	if got == nil || got.ID != refund.ID {
		t.Fatalf("expected refund %d, got %+v", refund.ID, got)
	}
}
