package service

import (
	"strings"

	"github.com/h5craft/internal/models"
	"github.com/h5craft/internal/payment/wechatv2"
	"github.com/h5craft/internal/repository"
)

// PaymentChannelService 支付渠道管理服务
type PaymentChannelService struct {
	channelRepo repository.PaymentChannelRepository
}

// NewPaymentChannelService 创建支付渠道服务
func NewPaymentChannelService(channelRepo repository.PaymentChannelRepository) *PaymentChannelService {
	return &PaymentChannelService{channelRepo: channelRepo}
}

// ChannelInput 创建/更新渠道输入
type ChannelInput struct {
	Name       string
	Type       string
	ConfigJSON models.JSON
	IsActive   bool
	SortOrder  int
}

func validateChannelConfig(channelType string, configJSON models.JSON) error {
	switch channelType {
	case models.ChannelTypeWechatV2:
		cfg, err := wechatv2.ParseConfig(configJSON)
		if err != nil {
			return ErrChannelConfigInvalid
		}
		if err := wechatv2.ValidateConfig(cfg); err != nil {
			return ErrChannelConfigInvalid
		}
		return nil
	default:
		return ErrChannelTypeNotSupported
	}
}

// Create 创建渠道，入库前校验凭据配置
func (s *PaymentChannelService) Create(in ChannelInput) (*models.PaymentChannel, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrChannelConfigInvalid
	}
	if err := validateChannelConfig(in.Type, in.ConfigJSON); err != nil {
		return nil, err
	}
	channel := &models.PaymentChannel{
		Name:       in.Name,
		Type:       in.Type,
		ConfigJSON: in.ConfigJSON,
		IsActive:   in.IsActive,
		SortOrder:  in.SortOrder,
	}
	if err := s.channelRepo.Create(channel); err != nil {
		return nil, err
	}
	return channel, nil
}

// Update 更新渠道配置
func (s *PaymentChannelService) Update(id uint, in ChannelInput) (*models.PaymentChannel, error) {
	channel, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrChannelConfigInvalid
	}
	if err := validateChannelConfig(in.Type, in.ConfigJSON); err != nil {
		return nil, err
	}
	channel.Name = in.Name
	channel.Type = in.Type
	channel.ConfigJSON = in.ConfigJSON
	channel.IsActive = in.IsActive
	channel.SortOrder = in.SortOrder
	if err := s.channelRepo.Update(channel); err != nil {
		return nil, err
	}
	return channel, nil
}

// Delete 删除渠道
func (s *PaymentChannelService) Delete(id uint) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	return s.channelRepo.Delete(id)
}

// GetByID 获取渠道
func (s *PaymentChannelService) GetByID(id uint) (*models.PaymentChannel, error) {
	channel, err := s.channelRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, ErrChannelNotFound
	}
	return channel, nil
}

// List 管理端渠道列表
func (s *PaymentChannelService) List(filter repository.PaymentChannelListFilter) ([]models.PaymentChannel, int64, error) {
	return s.channelRepo.List(filter)
}

// ListActive 公开可用渠道列表（不含凭据）
func (s *PaymentChannelService) ListActive() ([]models.PaymentChannel, error) {
	channels, _, err := s.channelRepo.List(repository.PaymentChannelListFilter{
		ActiveOnly: true,
		Page:       1,
		PageSize:   100,
	})
	if err != nil {
		return nil, err
	}
	return channels, nil
}
