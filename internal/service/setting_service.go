package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/h5craft/internal/constants"
	"github.com/h5craft/internal/models"
	"github.com/h5craft/internal/repository"
)

// SettingService 设置业务服务
type SettingService struct {
	repo repository.SettingRepository
}

// NewSettingService 创建设置服务
func NewSettingService(repo repository.SettingRepository) *SettingService {
	return &SettingService{repo: repo}
}

// GetSiteConfig 获取站点配置（合并默认值）
func (s *SettingService) GetSiteConfig(defaults map[string]interface{}) (map[string]interface{}, error) {
	data := make(map[string]interface{})
	for k, v := range defaults {
		data[k] = v
	}

	setting, err := s.repo.GetByKey(constants.SettingKeySiteConfig)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return data, nil
	}

	for k, v := range setting.ValueJSON {
		data[k] = v
	}
	return data, nil
}

// GetByKey 获取设置
func (s *SettingService) GetByKey(key string) (models.JSON, error) {
	setting, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, nil
	}
	return setting.ValueJSON, nil
}

// Update 设置值
func (s *SettingService) Update(key string, value map[string]interface{}) (models.JSON, error) {
	normalized := normalizeSettingValueByKey(key, value)

	setting, err := s.repo.Upsert(key, normalized)
	if err != nil {
		return nil, err
	}
	return setting.ValueJSON, nil
}

// GetOrderExpireMinutes 获取订单超时分钟配置
func (s *SettingService) GetOrderExpireMinutes(defaultValue int) (int, error) {
	return s.getOrderMinutes(constants.SettingFieldOrderExpireMinutes, defaultValue)
}

// GetPaymentExpireMinutes 获取支付单超时分钟配置
func (s *SettingService) GetPaymentExpireMinutes(defaultValue int) (int, error) {
	return s.getOrderMinutes(constants.SettingFieldPaymentExpireMinutes, defaultValue)
}

func (s *SettingService) getOrderMinutes(field string, defaultValue int) (int, error) {
	if s == nil {
		return defaultValue, nil
	}
	value, err := s.GetByKey(constants.SettingKeyOrderConfig)
	if err != nil {
		return defaultValue, err
	}
	if value == nil {
		return defaultValue, nil
	}
	raw, ok := value[field]
	if !ok {
		return defaultValue, nil
	}
	minutes, err := parseSettingInt(raw)
	if err != nil {
		return defaultValue, err
	}
	if minutes <= 0 {
		return defaultValue, nil
	}
	return minutes, nil
}

// normalizeSettingValueByKey 入库前按键规整设置值
func normalizeSettingValueByKey(key string, value map[string]interface{}) models.JSON {
	normalized := make(models.JSON, len(value))
	for k, v := range value {
		if s, ok := v.(string); ok {
			v = strings.TrimSpace(s)
		}
		normalized[k] = v
	}
	switch key {
	case constants.SettingKeySiteConfig:
		if currency, ok := normalized[constants.SettingFieldSiteCurrency].(string); ok {
			currency = strings.ToUpper(strings.TrimSpace(currency))
			if currency == "" {
				currency = constants.SiteCurrencyDefault
			}
			normalized[constants.SettingFieldSiteCurrency] = currency
		}
	case constants.SettingKeyOrderConfig:
		for _, field := range []string{constants.SettingFieldOrderExpireMinutes, constants.SettingFieldPaymentExpireMinutes} {
			raw, ok := normalized[field]
			if !ok {
				continue
			}
			if minutes, err := parseSettingInt(raw); err == nil && minutes > 0 {
				normalized[field] = minutes
			} else {
				delete(normalized, field)
			}
		}
	}
	return normalized
}

func parseSettingInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		if f, err := v.Float64(); err == nil {
			return int(f), nil
		}
		return 0, fmt.Errorf("invalid json number")
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, err
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported value type")
	}
}
