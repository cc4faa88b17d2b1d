package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/h5craft/internal/config"
	"github.com/h5craft/internal/models"
	"github.com/h5craft/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	settingSvc := NewSettingService(repository.NewSettingRepository(db))
	svc := NewOrderService(cfg, orderRepo, paymentRepo, pageRepo, settingSvc, nil)
	return svc, db
}

func seedPublishedPage(t *testing.T, db *gorm.DB, slug, price string) *models.Page {
	t.Helper()
	now := time.Now()
	page := &models.Page{
		Slug:        slug,
		Title:       "测试页面",
		Status:      models.PageStatusPublished,
		Price:       models.NewMoneyFromDecimal(decimal.RequireFromString(price)),
		Currency:    "CNY",
		AuthorID:    1,
		PublishedAt: &now,
	}
	if err := db.Create(page).Error; err != nil {
		t.Fatalf("create page failed: %v", err)
	}
	return page
}

func TestOrderServiceCreateOrder(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	page := seedPublishedPage(t, db, "landing-a", "9.90")

	order, err := svc.CreateOrder(OrderCreateInput{
		PageSlug: "landing-a",
		OpenID:   "openid-1",
		ClientIP: "203.0.113.9",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.OrderNo == "" {
		t.Fatal("expected order number")
	}
	if order.PageID != page.ID {
		t.Fatalf("expected page id %d, got %d", page.ID, order.PageID)
	}
	if order.Status != models.OrderStatusCreated {
		t.Fatalf("expected created status, got %s", order.Status)
	}
	if order.Amount.String() != "9.90" {
		t.Fatalf("expected amount 9.90, got %s", order.Amount.String())
	}
	if order.ExpiresAt == nil || !order.ExpiresAt.After(time.Now()) {
		t.Fatal("expected future expiry")
	}
}

func TestOrderServiceCreateOrderRejectsFreePage(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	seedPublishedPage(t, db, "free-page", "0")

	_, err := svc.CreateOrder(OrderCreateInput{PageSlug: "free-page", OpenID: "openid-1"})
	if !errors.Is(err, ErrOrderInvalid) {
		t.Fatalf("expected ErrOrderInvalid, got %v", err)
	}
}

func TestOrderServiceCreateOrderRejectsDraftPage(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	page := seedPublishedPage(t, db, "draft-page", "1.00")
	if err := db.Model(page).Update("status", models.PageStatusDraft).Error; err != nil {
		t.Fatalf("update page failed: %v", err)
	}

	_, err := svc.CreateOrder(OrderCreateInput{PageSlug: "draft-page", OpenID: "openid-1"})
	if !errors.Is(err, ErrPageNotPublished) {
		t.Fatalf("expected ErrPageNotPublished, got %v", err)
	}
}

func TestOrderServiceCreateOrderRejectsDuplicatePaidAccess(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	page := seedPublishedPage(t, db, "paid-page", "3.00")

	paidAt := time.Now()
	paid := &models.Order{
		OrderNo:  "H5TESTPAID000001",
		PageID:   page.ID,
		Subject:  page.Title,
		Amount:   page.Price,
		Currency: "CNY",
		OpenID:   "openid-paid",
		Status:   models.OrderStatusPaid,
		PaidAt:   &paidAt,
	}
	if err := db.Create(paid).Error; err != nil {
		t.Fatalf("create paid order failed: %v", err)
	}

	_, err := svc.CreateOrder(OrderCreateInput{PageSlug: "paid-page", OpenID: "openid-paid"})
	if !errors.Is(err, ErrOrderAlreadyPaid) {
		t.Fatalf("expected ErrOrderAlreadyPaid, got %v", err)
	}
}

func TestOrderServiceMarkPaidIsIdempotent(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	page := seedPublishedPage(t, db, "unlock-page", "5.00")

	order, err := svc.CreateOrder(OrderCreateInput{PageSlug: "unlock-page", OpenID: "openid-2"})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	payment := &models.Payment{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Status:   models.PaymentStatusPending,
	}
	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	paidAt := time.Now()
	if err := svc.MarkPaid(order.ID, payment.ID, "4200000001", paidAt); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if err := svc.MarkPaid(order.ID, payment.ID, "4200000001", paidAt); err != nil {
		t.Fatalf("repeated mark paid should be a no-op: %v", err)
	}

	var stored models.Order
	if err := db.First(&stored, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Status != models.OrderStatusPaid {
		t.Fatalf("expected paid status, got %s", stored.Status)
	}
	if stored.PaidAt == nil {
		t.Fatal("expected paid_at to be set")
	}

	var storedPayment models.Payment
	if err := db.First(&storedPayment, payment.ID).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	if storedPayment.Status != models.PaymentStatusPaid {
		t.Fatalf("expected payment paid status, got %s", storedPayment.Status)
	}
	if storedPayment.TransactionID != "4200000001" {
		t.Fatalf("unexpected transaction id %s", storedPayment.TransactionID)
	}

	var storedPage models.Page
	if err := db.First(&storedPage, page.ID).Error; err != nil {
		t.Fatalf("load page failed: %v", err)
	}
	if storedPage.PaidCount != 1 {
		t.Fatalf("expected paid count 1, got %d", storedPage.PaidCount)
	}
}

func TestOrderServiceCloseExpired(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	page := seedPublishedPage(t, db, "expired-page", "2.00")

	past := time.Now().Add(-time.Hour)
	expired := &models.Order{
		OrderNo:   "H5TESTEXPIRED001",
		PageID:    page.ID,
		Subject:   page.Title,
		Amount:    page.Price,
		Currency:  "CNY",
		OpenID:    "openid-3",
		Status:    models.OrderStatusCreated,
		ExpiresAt: &past,
	}
	if err := db.Create(expired).Error; err != nil {
		t.Fatalf("create expired order failed: %v", err)
	}

	closed, err := svc.CloseExpired(time.Now(), 10)
	if err != nil {
		t.Fatalf("close expired failed: %v", err)
	}
	if closed != 1 {
		t.Fatalf("expected 1 closed order, got %d", closed)
	}

	var stored models.Order
	if err := db.First(&stored, expired.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Status != models.OrderStatusClosed {
		t.Fatalf("expected closed status, got %s", stored.Status)
	}
	if stored.ClosedAt == nil {
		t.Fatal("expected closed_at to be set")
	}
}
