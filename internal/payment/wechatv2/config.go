package wechatv2

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

const defaultBaseURL = "https://api.mch.weixin.qq.com"

const defaultTimeoutMS = 10000

// Config 网关商户配置。
// 客户端构造后不可变；凭据轮换时重新构造客户端，不原地修改。
type Config struct {
	AppID        string `json:"appid"`         // 公众号/小程序 AppID
	MerchantID   string `json:"mch_id"`        // 商户号
	APIKey       string `json:"api_key"`       // 签名密钥
	NotifyURL    string `json:"notify_url"`    // 异步通知地址
	BaseURL      string `json:"base_url"`      // 网关地址
	Certificate  string `json:"certificate"`   // PKCS#12 商户证书（base64）
	CertPassword string `json:"cert_password"` // 证书口令（此类网关惯例为商户号，可覆盖）
	NonceLength  int    `json:"nonce_length"`  // 随机串长度
	TimeoutMS    int    `json:"timeout_ms"`    // 单次请求超时
}

// ParseConfig 解析配置
func ParseConfig(raw map[string]interface{}) (*Config, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty config", ErrConfigInvalid)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal config failed", ErrConfigInvalid)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config failed", ErrConfigInvalid)
	}
	cfg.normalize()
	return &cfg, nil
}

// ValidateConfig 校验配置完整性
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.AppID) == "" {
		return fmt.Errorf("%w: appid is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.MerchantID) == "" {
		return fmt.Errorf("%w: mch_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return fmt.Errorf("%w: api_key is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.NotifyURL) == "" {
		return fmt.Errorf("%w: notify_url is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(strings.TrimSpace(cfg.NotifyURL)); err != nil {
		return fmt.Errorf("%w: notify_url is invalid", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(strings.TrimSpace(cfg.BaseURL)); err != nil {
		return fmt.Errorf("%w: base_url is invalid", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.Certificate) != "" {
		if _, err := cfg.certificateBytes(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) normalize() {
	c.AppID = strings.TrimSpace(c.AppID)
	c.MerchantID = strings.TrimSpace(c.MerchantID)
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.NotifyURL = strings.TrimSpace(c.NotifyURL)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Certificate = strings.TrimSpace(c.Certificate)
	c.CertPassword = strings.TrimSpace(c.CertPassword)
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.NonceLength <= 0 {
		c.NonceLength = defaultNonceLength
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = defaultTimeoutMS
	}
	if c.CertPassword == "" {
		// 网关惯例：证书口令与商户号一致
		c.CertPassword = c.MerchantID
	}
}

func (c *Config) certificateBytes() ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(c.Certificate)
	if err != nil {
		return nil, fmt.Errorf("%w: certificate base64 decode failed", ErrConfigInvalid)
	}
	if len(decoded) == 0 {
		return nil, fmt.Errorf("%w: certificate is empty", ErrConfigInvalid)
	}
	return decoded, nil
}
