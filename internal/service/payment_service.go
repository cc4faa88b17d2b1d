package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/h5craft/internal/config"
	"github.com/h5craft/internal/logger"
	"github.com/h5craft/internal/models"
	"github.com/h5craft/internal/payment/wechatv2"
	"github.com/h5craft/internal/repository"

	"github.com/shopspring/decimal"
)

// PaymentService 支付业务服务，对接支付网关并维护支付/退款记录
type PaymentService struct {
	cfg            *config.Config
	orderRepo      repository.OrderRepository
	paymentRepo    repository.PaymentRepository
	refundRepo     repository.RefundRepository
	channelRepo    repository.PaymentChannelRepository
	orderService   *OrderService
	settingService *SettingService
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	cfg *config.Config,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	refundRepo repository.RefundRepository,
	channelRepo repository.PaymentChannelRepository,
	orderService *OrderService,
	settingService *SettingService,
) *PaymentService {
	return &PaymentService{
		cfg:            cfg,
		orderRepo:      orderRepo,
		paymentRepo:    paymentRepo,
		refundRepo:     refundRepo,
		channelRepo:    channelRepo,
		orderService:   orderService,
		settingService: settingService,
	}
}

// PaymentCreateResult 预下单结果，ClientParams 直接交给前端调起支付
type PaymentCreateResult struct {
	Payment      *models.Payment        `json:"payment"`
	ClientParams *wechatv2.ClientParams `json:"client_params"`
}

// CreatePayment 为待支付订单向网关预下单
func (s *PaymentService) CreatePayment(ctx context.Context, orderNo string, channelID uint, clientIP string) (*PaymentCreateResult, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, ErrPaymentInvalid
	}
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status == models.OrderStatusPaid {
		return nil, ErrOrderAlreadyPaid
	}
	if !order.IsPayable(time.Now()) {
		return nil, ErrOrderStatusInvalid
	}

	channel, client, err := s.clientForChannel(channelID)
	if err != nil {
		return nil, err
	}

	params, err := client.CreatePrepay(ctx, wechatv2.PrepayOrder{
		OutTradeNo: order.OrderNo,
		Body:       order.Subject,
		TotalFee:   moneyToFen(order.Amount),
		OpenID:     order.OpenID,
		ClientIP:   clientIP,
		Attach:     order.OrderNo,
	})
	if err != nil {
		logger.Warnw("payment_prepay_failed", "order_no", order.OrderNo, "channel_id", channel.ID, "error", err)
		return nil, err
	}

	payment := &models.Payment{
		OrderID:   order.ID,
		ChannelID: channel.ID,
		Amount:    models.NewMoneyFromDecimal(order.Amount.Decimal),
		Currency:  order.Currency,
		Status:    models.PaymentStatusPending,
		PrepayID:  prepayIDFromPackage(params.Package),
		ClientParams: models.JSON{
			"appId":     params.AppID,
			"timeStamp": params.TimeStamp,
			"nonceStr":  params.NonceStr,
			"package":   params.Package,
			"signType":  params.SignType,
			"paySign":   params.PaySign,
		},
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}

	logger.Infow("payment_created", "order_no", order.OrderNo, "payment_id", payment.ID, "prepay_id", payment.PrepayID)
	return &PaymentCreateResult{Payment: payment, ClientParams: params}, nil
}

// QueryGatewayOrder 管理端向网关查询订单状态
func (s *PaymentService) QueryGatewayOrder(ctx context.Context, orderNo string, channelID uint) (wechatv2.Values, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, ErrPaymentInvalid
	}
	_, client, err := s.clientForChannel(channelID)
	if err != nil {
		return nil, err
	}
	return client.QueryOrder(ctx, orderNo)
}

// CloseGatewayOrder 向网关关闭订单，随后本地关单
func (s *PaymentService) CloseGatewayOrder(ctx context.Context, orderNo string, channelID uint) error {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return ErrPaymentInvalid
	}
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	_, client, err := s.clientForChannel(channelID)
	if err != nil {
		return err
	}
	if _, err := client.CloseOrder(ctx, orderNo); err != nil {
		// 网关侧订单不存在或已关闭时仍继续本地关单
		if !errors.Is(err, wechatv2.ErrGatewayRejected) {
			return err
		}
		logger.Warnw("payment_gateway_close_rejected", "order_no", orderNo, "error", err)
	}
	return s.orderService.CloseOrder(order.ID)
}

// ListAdmin 管理端支付流水列表
func (s *PaymentService) ListAdmin(filter repository.PaymentListFilter) ([]models.Payment, int64, error) {
	return s.paymentRepo.ListAdmin(filter)
}

// GetByID 管理端获取支付流水
func (s *PaymentService) GetByID(id uint) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

func (s *PaymentService) clientForChannel(channelID uint) (*models.PaymentChannel, *wechatv2.Client, error) {
	channel, err := s.channelRepo.GetByID(channelID)
	if err != nil {
		return nil, nil, err
	}
	if channel == nil {
		return nil, nil, ErrChannelNotFound
	}
	if !channel.IsActive {
		return nil, nil, ErrChannelDisabled
	}
	client, err := s.buildChannelClient(channel)
	if err != nil {
		return nil, nil, err
	}
	return channel, client, nil
}

func (s *PaymentService) buildChannelClient(channel *models.PaymentChannel) (*wechatv2.Client, error) {
	if channel.Type != models.ChannelTypeWechatV2 {
		return nil, ErrChannelTypeNotSupported
	}
	cfg, err := wechatv2.ParseConfig(channel.ConfigJSON)
	if err != nil {
		return nil, ErrChannelConfigInvalid
	}
	client, err := wechatv2.NewClient(cfg)
	if err != nil {
		return nil, ErrChannelConfigInvalid
	}
	return client, nil
}

// moneyToFen 将以元计的金额转为网关要求的分
func moneyToFen(amount models.Money) int64 {
	return amount.Decimal.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func prepayIDFromPackage(pkg string) string {
	return strings.TrimPrefix(pkg, "prepay_id=")
}
