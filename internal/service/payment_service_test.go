package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/h5craft/internal/config"
	"github.com/h5craft/internal/models"
	"github.com/h5craft/internal/payment/wechatv2"
	"github.com/h5craft/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const paymentTestAPIKey = "192006250b4c09247ec02edce69f6a2d"

type paymentServiceFixture struct {
	svc      *PaymentService
	orderSvc *OrderService
	db       *gorm.DB
	channel  *models.PaymentChannel
	page     *models.Page
	order    *models.Order
}

func setupPaymentServiceTest(t *testing.T, gatewayURL string) *paymentServiceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:payment_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	refundRepo := repository.NewRefundRepository(db)
	channelRepo := repository.NewPaymentChannelRepository(db)
	pageRepo := repository.NewPageRepository(db)
	settingSvc := NewSettingService(repository.NewSettingRepository(db))
	orderSvc := NewOrderService(cfg, orderRepo, paymentRepo, pageRepo, settingSvc, nil)
	svc := NewPaymentService(cfg, orderRepo, paymentRepo, refundRepo, channelRepo, orderSvc, settingSvc)

	channel := &models.PaymentChannel{
		Name: "微信支付",
		Type: models.ChannelTypeWechatV2,
		ConfigJSON: models.JSON{
			"appid":      "wx2421b1c4370ec43b",
			"mch_id":     "10000100",
			"api_key":    paymentTestAPIKey,
			"notify_url": "https://example.com/api/notify/wechat/1",
			"base_url":   gatewayURL,
			"timeout_ms": 2000,
		},
		IsActive: true,
	}
	if err := db.Create(channel).Error; err != nil {
		t.Fatalf("create channel failed: %v", err)
	}

	page := seedPublishedPage(t, db, fmt.Sprintf("pay-page-%d", time.Now().UnixNano()), "1.50")
	order, err := orderSvc.CreateOrder(OrderCreateInput{
		PageSlug: page.Slug,
		OpenID:   "openid-pay",
		ClientIP: "203.0.113.7",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	return &paymentServiceFixture{
		svc:      svc,
		orderSvc: orderSvc,
		db:       db,
		channel:  channel,
		page:     page,
		order:    order,
	}
}

func signedGatewayResponse(t *testing.T, extra wechatv2.Values) []byte {
	t.Helper()
	fields := wechatv2.Values{
		"return_code": wechatv2.ResultSuccess,
		"result_code": wechatv2.ResultSuccess,
	}
	for k, v := range extra {
		fields.Set(k, v)
	}
	fields.Set(wechatv2.FieldSign, wechatv2.Sign(fields, paymentTestAPIKey))
	return wechatv2.Encode(fields)
}

func TestPaymentServiceCreatePayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pay/unifiedorder" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		fields, err := wechatv2.Decode(body)
		if err != nil {
			t.Errorf("decode request failed: %v", err)
		}
		if !wechatv2.Verify(fields, paymentTestAPIKey) {
			t.Error("request signature invalid")
		}
		if got := fields.Get("total_fee"); got != "150" {
			t.Errorf("expected total_fee 150, got %s", got)
		}
		w.Write(signedGatewayResponse(t, wechatv2.Values{"prepay_id": "wx201410272009395522657a690389285100"}))
	}))
	defer server.Close()

	fx := setupPaymentServiceTest(t, server.URL)

	result, err := fx.svc.CreatePayment(context.Background(), fx.order.OrderNo, fx.channel.ID, "203.0.113.7")
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	if result.Payment.PrepayID != "wx201410272009395522657a690389285100" {
		t.Fatalf("unexpected prepay id %s", result.Payment.PrepayID)
	}
	if result.ClientParams.Package != "prepay_id=wx201410272009395522657a690389285100" {
		t.Fatalf("unexpected package %s", result.ClientParams.Package)
	}
	if result.ClientParams.PaySign == "" {
		t.Fatal("expected client params signature")
	}

	var stored models.Payment
	if err := fx.db.First(&stored, result.Payment.ID).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	if stored.Status != models.PaymentStatusPending {
		t.Fatalf("expected pending payment, got %s", stored.Status)
	}
	if stored.ClientParams["package"] != result.ClientParams.Package {
		t.Fatal("expected client params to be persisted")
	}
}

func TestPaymentServiceCreatePaymentChannelDisabled(t *testing.T) {
	fx := setupPaymentServiceTest(t, "http://127.0.0.1:1")
	if err := fx.db.Model(fx.channel).Update("is_active", false).Error; err != nil {
		t.Fatalf("disable channel failed: %v", err)
	}

	_, err := fx.svc.CreatePayment(context.Background(), fx.order.OrderNo, fx.channel.ID, "")
	if !errors.Is(err, ErrChannelDisabled) {
		t.Fatalf("expected ErrChannelDisabled, got %v", err)
	}
}

func buildPaidNotification(t *testing.T, orderNo string, totalFee int64) []byte {
	t.Helper()
	fields := wechatv2.Values{
		"return_code":    wechatv2.ResultSuccess,
		"result_code":    wechatv2.ResultSuccess,
		"appid":          "wx2421b1c4370ec43b",
		"mch_id":         "10000100",
		"out_trade_no":   orderNo,
		"transaction_id": "4200000914202409149876543210",
		"total_fee":      fmt.Sprintf("%d", totalFee),
		"time_end":       time.Now().Format("20060102150405"),
		"openid":         "openid-pay",
	}
	fields.Set(wechatv2.FieldSign, wechatv2.Sign(fields, paymentTestAPIKey))
	return wechatv2.Encode(fields)
}

func ackResult(t *testing.T, ack []byte) string {
	t.Helper()
	fields, err := wechatv2.Decode(ack)
	if err != nil {
		t.Fatalf("decode ack failed: %v", err)
	}
	return fields.Get("return_code")
}

func TestPaymentServiceNotificationMarksOrderPaid(t *testing.T) {
	fx := setupPaymentServiceTest(t, "http://127.0.0.1:1")

	payment := &models.Payment{
		OrderID:   fx.order.ID,
		ChannelID: fx.channel.ID,
		Amount:    fx.order.Amount,
		Currency:  fx.order.Currency,
		Status:    models.PaymentStatusPending,
	}
	if err := fx.db.Create(payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	body := buildPaidNotification(t, fx.order.OrderNo, 150)
	ack := fx.svc.HandleWechatNotification(context.Background(), fx.channel.ID, body)
	if got := ackResult(t, ack); got != wechatv2.ResultSuccess {
		t.Fatalf("expected success ack, got %s", got)
	}

	var stored models.Order
	if err := fx.db.First(&stored, fx.order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Status != models.OrderStatusPaid {
		t.Fatalf("expected paid order, got %s", stored.Status)
	}

	var storedPayment models.Payment
	if err := fx.db.First(&storedPayment, payment.ID).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	if storedPayment.Status != models.PaymentStatusPaid {
		t.Fatalf("expected paid payment, got %s", storedPayment.Status)
	}
	if storedPayment.CallbackAt == nil {
		t.Fatal("expected callback timestamp")
	}
	if storedPayment.CallbackPayload["transaction_id"] != "4200000914202409149876543210" {
		t.Fatal("expected callback payload to be persisted")
	}

	// 网关重复投递同一笔通知应幂等确认
	ack = fx.svc.HandleWechatNotification(context.Background(), fx.channel.ID, body)
	if got := ackResult(t, ack); got != wechatv2.ResultSuccess {
		t.Fatalf("expected success ack on redelivery, got %s", got)
	}
}

func TestPaymentServiceNotificationRejectsBadSignature(t *testing.T) {
	fx := setupPaymentServiceTest(t, "http://127.0.0.1:1")

	fields := wechatv2.Values{
		"return_code":    wechatv2.ResultSuccess,
		"result_code":    wechatv2.ResultSuccess,
		"out_trade_no":   fx.order.OrderNo,
		"transaction_id": "4200000000000000000000000000",
		"total_fee":      "150",
	}
	fields.Set(wechatv2.FieldSign, wechatv2.Sign(fields, "attacker-key"))
	ack := fx.svc.HandleWechatNotification(context.Background(), fx.channel.ID, wechatv2.Encode(fields))
	if got := ackResult(t, ack); got != wechatv2.ResultFail {
		t.Fatalf("expected fail ack, got %s", got)
	}

	var stored models.Order
	if err := fx.db.First(&stored, fx.order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Status != models.OrderStatusCreated {
		t.Fatalf("order must stay untouched, got %s", stored.Status)
	}
}

func TestPaymentServiceNotificationRetriesAfterFailedProcessing(t *testing.T) {
	fx := setupPaymentServiceTest(t, "http://127.0.0.1:1")

	// 第一次投递因金额不符被拒绝，订单保持未支付
	ack := fx.svc.HandleWechatNotification(context.Background(), fx.channel.ID, buildPaidNotification(t, fx.order.OrderNo, 1))
	if got := ackResult(t, ack); got != wechatv2.ResultFail {
		t.Fatalf("expected fail ack, got %s", got)
	}

	// 网关按同一 transaction_id 重投正确报文，处理必须完整执行而非被去重短路
	ack = fx.svc.HandleWechatNotification(context.Background(), fx.channel.ID, buildPaidNotification(t, fx.order.OrderNo, 150))
	if got := ackResult(t, ack); got != wechatv2.ResultSuccess {
		t.Fatalf("expected success ack on redelivery, got %s", got)
	}

	var stored models.Order
	if err := fx.db.First(&stored, fx.order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Status != models.OrderStatusPaid {
		t.Fatalf("redelivery must mark the order paid, got %s", stored.Status)
	}
}

func TestPaymentServiceNotificationRejectsAmountMismatch(t *testing.T) {
	fx := setupPaymentServiceTest(t, "http://127.0.0.1:1")

	body := buildPaidNotification(t, fx.order.OrderNo, 1)
	ack := fx.svc.HandleWechatNotification(context.Background(), fx.channel.ID, body)
	if got := ackResult(t, ack); got != wechatv2.ResultFail {
		t.Fatalf("expected fail ack, got %s", got)
	}

	var stored models.Order
	if err := fx.db.First(&stored, fx.order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Status != models.OrderStatusCreated {
		t.Fatalf("order must stay untouched, got %s", stored.Status)
	}
}

func markFixtureOrderPaid(t *testing.T, fx *paymentServiceFixture) *models.Payment {
	t.Helper()
	payment := &models.Payment{
		OrderID:       fx.order.ID,
		ChannelID:     fx.channel.ID,
		Amount:        fx.order.Amount,
		Currency:      fx.order.Currency,
		Status:        models.PaymentStatusPending,
		TransactionID: "4200000914202409140000000001",
	}
	if err := fx.db.Create(payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	if err := fx.orderSvc.MarkPaid(fx.order.ID, payment.ID, payment.TransactionID, time.Now()); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	var stored models.Payment
	if err := fx.db.First(&stored, payment.ID).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	return &stored
}

func TestPaymentServiceRefundRequiresCertificate(t *testing.T) {
	fx := setupPaymentServiceTest(t, "http://127.0.0.1:1")
	payment := markFixtureOrderPaid(t, fx)

	_, err := fx.svc.Refund(context.Background(), RefundInput{
		PaymentID: payment.ID,
		Amount:    models.NewMoneyFromDecimal(decimal.RequireFromString("1.50")),
		Reason:    "协商退款",
	})
	if !errors.Is(err, ErrChannelConfigInvalid) {
		t.Fatalf("expected ErrChannelConfigInvalid, got %v", err)
	}
}

func TestPaymentServiceRefundRejectsExcessAmount(t *testing.T) {
	fx := setupPaymentServiceTest(t, "http://127.0.0.1:1")
	payment := markFixtureOrderPaid(t, fx)

	_, err := fx.svc.Refund(context.Background(), RefundInput{
		PaymentID: payment.ID,
		Amount:    models.NewMoneyFromDecimal(decimal.RequireFromString("2.00")),
	})
	if !errors.Is(err, ErrRefundExceedsAmount) {
		t.Fatalf("expected ErrRefundExceedsAmount, got %v", err)
	}
}

func TestPaymentServiceRefundRejectsUnpaidPayment(t *testing.T) {
	fx := setupPaymentServiceTest(t, "http://127.0.0.1:1")
	payment := &models.Payment{
		OrderID:   fx.order.ID,
		ChannelID: fx.channel.ID,
		Amount:    fx.order.Amount,
		Currency:  fx.order.Currency,
		Status:    models.PaymentStatusPending,
	}
	if err := fx.db.Create(payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	_, err := fx.svc.Refund(context.Background(), RefundInput{
		PaymentID: payment.ID,
		Amount:    models.NewMoneyFromDecimal(decimal.RequireFromString("0.50")),
	})
	if !errors.Is(err, ErrRefundInvalid) {
		t.Fatalf("expected ErrRefundInvalid, got %v", err)
	}
}
