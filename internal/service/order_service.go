package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/h5craft/internal/config"
	"github.com/h5craft/internal/logger"
	"github.com/h5craft/internal/models"
	"github.com/h5craft/internal/queue"
	"github.com/h5craft/internal/repository"

	"gorm.io/gorm"
)

// OrderService 解锁订单业务服务
type OrderService struct {
	cfg            *config.Config
	orderRepo      repository.OrderRepository
	paymentRepo    repository.PaymentRepository
	pageRepo       repository.PageRepository
	settingService *SettingService
	queueClient    *queue.Client
}

// NewOrderService 创建订单服务
func NewOrderService(
	cfg *config.Config,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	pageRepo repository.PageRepository,
	settingService *SettingService,
	queueClient *queue.Client,
) *OrderService {
	return &OrderService{
		cfg:            cfg,
		orderRepo:      orderRepo,
		paymentRepo:    paymentRepo,
		pageRepo:       pageRepo,
		settingService: settingService,
		queueClient:    queueClient,
	}
}

// OrderCreateInput 创建解锁订单输入
type OrderCreateInput struct {
	PageSlug string
	OpenID   string
	ClientIP string
}

// CreateOrder 为已发布的付费页面创建解锁订单
func (s *OrderService) CreateOrder(input OrderCreateInput) (*models.Order, error) {
	input.PageSlug = strings.TrimSpace(input.PageSlug)
	input.OpenID = strings.TrimSpace(input.OpenID)
	if input.PageSlug == "" || input.OpenID == "" {
		return nil, ErrOrderInvalid
	}

	page, err := s.pageRepo.GetBySlug(input.PageSlug)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, ErrPageNotFound
	}
	if !page.IsPublished() {
		return nil, ErrPageNotPublished
	}
	if !page.RequiresPayment() {
		return nil, ErrOrderInvalid
	}

	paid, err := s.orderRepo.ExistsPaidByPageAndOpenID(page.ID, input.OpenID)
	if err != nil {
		return nil, err
	}
	if paid {
		return nil, ErrOrderAlreadyPaid
	}

	expireMinutes := s.resolveExpireMinutes()
	now := time.Now()
	expiresAt := now.Add(time.Duration(expireMinutes) * time.Minute)
	order := &models.Order{
		OrderNo:   generateOrderNo(),
		PageID:    page.ID,
		Subject:   page.Title,
		Amount:    models.NewMoneyFromDecimal(page.Price.Decimal),
		Currency:  page.Currency,
		OpenID:    input.OpenID,
		Status:    models.OrderStatusCreated,
		ClientIP:  input.ClientIP,
		ExpiresAt: &expiresAt,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}

	if s.queueClient != nil && s.queueClient.Enabled() {
		payload := queue.OrderTimeoutClosePayload{OrderID: order.ID}
		if err := s.queueClient.EnqueueOrderTimeoutClose(payload, time.Until(expiresAt)); err != nil {
			logger.Warnw("order_timeout_enqueue_failed", "order_no", order.OrderNo, "error", err)
		}
	}

	logger.Infow("order_created", "order_no", order.OrderNo, "page_id", page.ID, "amount", order.Amount.String())
	return order, nil
}

// GetByOrderNo 根据订单号获取订单
func (s *OrderService) GetByOrderNo(orderNo string) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, ErrOrderInvalid
	}
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetByID 管理端获取订单详情
func (s *OrderService) GetByID(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListAdmin 管理端订单列表
func (s *OrderService) ListAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// MarkPaid 事务内将订单与支付标记为已支付，重复回调时幂等返回
func (s *OrderService) MarkPaid(orderID uint, paymentID uint, transactionID string, paidAt time.Time) error {
	var (
		alreadyPaid bool
		pageID      uint
		orderNo     string
	)
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		paymentRepo := s.paymentRepo.WithTx(tx)

		order, err := orderRepo.GetByID(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		pageID = order.PageID
		orderNo = order.OrderNo
		if order.Status == models.OrderStatusPaid {
			alreadyPaid = true
			return nil
		}
		if order.Status != models.OrderStatusCreated {
			return ErrOrderStatusInvalid
		}

		payment, err := paymentRepo.GetByID(paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return ErrPaymentNotFound
		}

		payment.Status = models.PaymentStatusPaid
		payment.TransactionID = transactionID
		payment.PaidAt = &paidAt
		if err := paymentRepo.Update(payment); err != nil {
			return err
		}

		return orderRepo.UpdateStatus(order.ID, models.OrderStatusPaid, map[string]interface{}{
			"paid_at": paidAt,
		})
	})
	if err != nil {
		return err
	}
	if alreadyPaid {
		return nil
	}

	if err := s.pageRepo.IncrementPaidCount(pageID); err != nil {
		logger.Warnw("order_paid_count_failed", "order_id", orderID, "error", err)
	}
	if s.queueClient != nil && s.queueClient.Enabled() {
		payload := queue.OrderPaidPayload{OrderID: orderID, OrderNo: orderNo, PaymentID: paymentID}
		if err := s.queueClient.EnqueueOrderPaid(payload); err != nil {
			logger.Warnw("order_paid_enqueue_failed", "order_no", orderNo, "error", err)
		}
	}
	logger.Infow("order_marked_paid", "order_no", orderNo, "transaction_id", transactionID)
	return nil
}

// CloseOrder 关闭未支付订单
func (s *OrderService) CloseOrder(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status == models.OrderStatusClosed {
		return nil
	}
	if order.Status != models.OrderStatusCreated {
		return ErrOrderStatusInvalid
	}
	now := time.Now()
	if err := s.orderRepo.UpdateStatus(order.ID, models.OrderStatusClosed, map[string]interface{}{
		"closed_at": now,
	}); err != nil {
		return err
	}
	logger.Infow("order_closed", "order_no", order.OrderNo)
	return nil
}

// CloseExpired 批量关闭超时未支付订单，返回关闭数量
func (s *OrderService) CloseExpired(now time.Time, limit int) (int, error) {
	orders, err := s.orderRepo.ListExpired(now, limit)
	if err != nil {
		return 0, err
	}
	closed := 0
	for i := range orders {
		if err := s.CloseOrder(orders[i].ID); err != nil {
			logger.Warnw("order_close_expired_failed", "order_no", orders[i].OrderNo, "error", err)
			continue
		}
		closed++
	}
	return closed, nil
}

// HasPaidAccess 判断指定访客是否已付费解锁页面
func (s *OrderService) HasPaidAccess(pageID uint, openID string) (bool, error) {
	openID = strings.TrimSpace(openID)
	if openID == "" {
		return false, nil
	}
	return s.orderRepo.ExistsPaidByPageAndOpenID(pageID, openID)
}

func (s *OrderService) resolveExpireMinutes() int {
	fallback := 30
	if s.cfg != nil && s.cfg.Order.ExpireMinutes > 0 {
		fallback = s.cfg.Order.ExpireMinutes
	}
	if s.settingService == nil {
		return fallback
	}
	minutes, err := s.settingService.GetOrderExpireMinutes(fallback)
	if err != nil || minutes <= 0 {
		return fallback
	}
	return minutes
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("H5%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
