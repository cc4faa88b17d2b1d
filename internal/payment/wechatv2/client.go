package wechatv2

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/pkcs12"
)

// 网关接口路径
const (
	pathUnifiedOrder = "/pay/unifiedorder"
	pathOrderQuery   = "/pay/orderquery"
	pathCloseOrder   = "/pay/closeorder"
	pathRefund       = "/secapi/pay/refund"
	pathRefundQuery  = "/pay/refundquery"
)

// PrepayOrder 预下单参数
type PrepayOrder struct {
	OutTradeNo string // 商户订单号，商户侧全局唯一
	Body       string // 商品描述
	TotalFee   int64  // 金额，单位分
	OpenID     string // 付款用户标识
	ClientIP   string // 终端 IP
	Attach     string // 附加数据，原样随通知返回
}

// RefundRequest 退款参数。
// 退款金额不得超过可退余额，该校验由调用方负责，客户端不收敛金额。
type RefundRequest struct {
	OutTradeNo  string
	OutRefundNo string // 商户退款单号，同号重试为安全重试路径
	TotalFee    int64
	RefundFee   int64
	Reason      string
}

// ClientParams 前端支付 SDK 调起所需的短时参数，每次预下单重新生成
type ClientParams struct {
	AppID     string `json:"appId"`
	TimeStamp string `json:"timeStamp"`
	NonceStr  string `json:"nonceStr"`
	Package   string `json:"package"`
	SignType  string `json:"signType"`
	PaySign   string `json:"paySign"`
}

// Client 网关客户端。构造后只读，可在多个 goroutine 间共享。
type Client struct {
	cfg        *Config
	httpClient *http.Client
	certClient *http.Client
	now        func() time.Time
}

// NewClient 从显式配置构造客户端。
// 配置含商户证书时同时构建双向认证通道，供退款类接口使用。
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	normalized := *cfg
	normalized.normalize()
	if err := ValidateConfig(&normalized); err != nil {
		return nil, err
	}
	timeout := time.Duration(normalized.TimeoutMS) * time.Millisecond
	client := &Client{
		cfg:        &normalized,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
	if normalized.Certificate != "" {
		certificate, err := loadCertificate(&normalized)
		if err != nil {
			return nil, err
		}
		client.certClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					Certificates: []tls.Certificate{*certificate},
					MinVersion:   tls.VersionTLS12,
				},
			},
		}
	}
	return client, nil
}

// HasCertificate 是否具备双向认证能力
func (c *Client) HasCertificate() bool {
	return c != nil && c.certClient != nil
}

// CreatePrepay 统一下单并生成前端调起参数。
// 预下单请求与调起参数是两个独立的签名上下文：前者对下单字段签名，
// 后者在验签后的 prepay_id 之上重新取时间戳与随机串签名。
func (c *Client) CreatePrepay(ctx context.Context, order PrepayOrder) (*ClientParams, error) {
	if strings.TrimSpace(order.OutTradeNo) == "" || strings.TrimSpace(order.OpenID) == "" {
		return nil, fmt.Errorf("%w: out_trade_no and openid are required", ErrOrderInvalid)
	}
	if order.TotalFee <= 0 {
		return nil, fmt.Errorf("%w: total_fee must be positive", ErrOrderInvalid)
	}
	body := strings.TrimSpace(order.Body)
	if body == "" {
		body = order.OutTradeNo
	}

	fields := Values{}
	fields.Set("body", body)
	fields.Set("out_trade_no", strings.TrimSpace(order.OutTradeNo))
	fields.SetInt64("total_fee", order.TotalFee)
	fields.Set("spbill_create_ip", normalizeClientIP(order.ClientIP))
	fields.Set("notify_url", c.cfg.NotifyURL)
	fields.Set("trade_type", TradeTypeJS)
	fields.Set("openid", strings.TrimSpace(order.OpenID))
	fields.Set("attach", order.Attach)

	result, err := c.call(ctx, pathUnifiedOrder, fields, callOptions{})
	if err != nil {
		return nil, err
	}
	prepayID := result.Get("prepay_id")
	if prepayID == "" {
		return nil, fmt.Errorf("%w: missing prepay_id", ErrMalformedMessage)
	}
	return c.SignClientParams(prepayID), nil
}

// SignClientParams 为已有 prepay_id 生成前端调起参数
func (c *Client) SignClientParams(prepayID string) *ClientParams {
	params := &ClientParams{
		AppID:     c.cfg.AppID,
		TimeStamp: strconv.FormatInt(c.now().Unix(), 10),
		NonceStr:  NonceString(c.cfg.NonceLength),
		Package:   "prepay_id=" + prepayID,
		SignType:  SignTypeMD5,
	}
	fields := Values{}
	fields.Set("appId", params.AppID)
	fields.Set("timeStamp", params.TimeStamp)
	fields.Set("nonceStr", params.NonceStr)
	fields.Set("package", params.Package)
	fields.Set("signType", params.SignType)
	params.PaySign = Sign(fields, c.cfg.APIKey)
	return params
}

// QueryOrder 查询订单，传输层失败可由调用方退避重试
func (c *Client) QueryOrder(ctx context.Context, outTradeNo string) (Values, error) {
	outTradeNo = strings.TrimSpace(outTradeNo)
	if outTradeNo == "" {
		return nil, fmt.Errorf("%w: out_trade_no is required", ErrOrderInvalid)
	}
	fields := Values{}
	fields.Set("out_trade_no", outTradeNo)
	return c.call(ctx, pathOrderQuery, fields, callOptions{idempotent: true})
}

// CloseOrder 关闭订单
func (c *Client) CloseOrder(ctx context.Context, outTradeNo string) (Values, error) {
	outTradeNo = strings.TrimSpace(outTradeNo)
	if outTradeNo == "" {
		return nil, fmt.Errorf("%w: out_trade_no is required", ErrOrderInvalid)
	}
	fields := Values{}
	fields.Set("out_trade_no", outTradeNo)
	return c.call(ctx, pathCloseOrder, fields, callOptions{idempotent: true})
}

// Refund 退款，网关仅接受携带商户证书的双向认证调用。
// 未配置证书时在发起任何网络请求前返回 ErrCertificateRequired。
func (c *Client) Refund(ctx context.Context, req RefundRequest) (Values, error) {
	if c.certClient == nil {
		return nil, ErrCertificateRequired
	}
	if strings.TrimSpace(req.OutTradeNo) == "" || strings.TrimSpace(req.OutRefundNo) == "" {
		return nil, fmt.Errorf("%w: out_trade_no and out_refund_no are required", ErrOrderInvalid)
	}
	if req.TotalFee <= 0 || req.RefundFee <= 0 {
		return nil, fmt.Errorf("%w: fee must be positive", ErrOrderInvalid)
	}
	fields := Values{}
	fields.Set("out_trade_no", strings.TrimSpace(req.OutTradeNo))
	fields.Set("out_refund_no", strings.TrimSpace(req.OutRefundNo))
	fields.SetInt64("total_fee", req.TotalFee)
	fields.SetInt64("refund_fee", req.RefundFee)
	fields.Set("refund_desc", strings.TrimSpace(req.Reason))
	return c.call(ctx, pathRefund, fields, callOptions{useCert: true})
}

// QueryRefund 查询退款，无需证书
func (c *Client) QueryRefund(ctx context.Context, outRefundNo string) (Values, error) {
	outRefundNo = strings.TrimSpace(outRefundNo)
	if outRefundNo == "" {
		return nil, fmt.Errorf("%w: out_refund_no is required", ErrOrderInvalid)
	}
	fields := Values{}
	fields.Set("out_refund_no", outRefundNo)
	return c.call(ctx, pathRefundQuery, fields, callOptions{idempotent: true})
}

type callOptions struct {
	useCert    bool
	idempotent bool // 幂等调用超时按传输错误处理，否则结果未知
}

// call 单次同步请求：补全公共字段、签名、编码、POST、解码、验签。
// 不做任何自动重试。
func (c *Client) call(ctx context.Context, path string, fields Values, opts callOptions) (Values, error) {
	if opts.useCert && c.certClient == nil {
		return nil, ErrCertificateRequired
	}
	request := fields.Clone()
	request.Set("appid", c.cfg.AppID)
	request.Set("mch_id", c.cfg.MerchantID)
	request.Set("nonce_str", NonceString(c.cfg.NonceLength))
	request.Set(FieldSign, Sign(request, c.cfg.APIKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(Encode(request)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("Accept", "text/xml")

	httpClient := c.httpClient
	if opts.useCert {
		httpClient = c.certClient
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		if !opts.idempotent && isInterrupted(err) {
			// 网关可能已受理，调用方应通过查询接口对账而非重试
			return nil, fmt.Errorf("%w: %v", ErrAmbiguousOutcome, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
	}
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed: %v", ErrTransport, err)
	}

	result, err := Decode(respBody)
	if err != nil {
		return nil, err
	}
	if result.Get("return_code") != ResultSuccess {
		return nil, fmt.Errorf("%w: %s", ErrGatewayRejected, gatewayMessage(result.Get("return_msg")))
	}
	if !Verify(result, c.cfg.APIKey) {
		return nil, fmt.Errorf("%w: %s", ErrResponseSignature, path)
	}
	if result.Get("result_code") != ResultSuccess {
		message := result.Get("err_code_des")
		if message == "" {
			message = result.Get("err_code")
		}
		return nil, fmt.Errorf("%w: %s", ErrGatewayRejected, gatewayMessage(message))
	}
	return result, nil
}

func gatewayMessage(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "unknown"
	}
	return raw
}

// isInterrupted 判断请求是否在结果未知的状态下中断
func isInterrupted(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func loadCertificate(cfg *Config) (*tls.Certificate, error) {
	raw, err := cfg.certificateBytes()
	if err != nil {
		return nil, err
	}
	blocks, err := pkcs12.ToPEM(raw, cfg.CertPassword)
	if err != nil {
		return nil, fmt.Errorf("%w: certificate decode failed: %v", ErrConfigInvalid, err)
	}
	var pemData []byte
	for _, block := range blocks {
		pemData = append(pemData, pem.EncodeToMemory(block)...)
	}
	certificate, err := tls.X509KeyPair(pemData, pemData)
	if err != nil {
		return nil, fmt.Errorf("%w: certificate key pair invalid: %v", ErrConfigInvalid, err)
	}
	return &certificate, nil
}

func normalizeClientIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "127.0.0.1"
	}
	if parsed := net.ParseIP(raw); parsed != nil {
		return parsed.String()
	}
	host, _, err := net.SplitHostPort(raw)
	if err == nil {
		if parsed := net.ParseIP(strings.TrimSpace(host)); parsed != nil {
			return parsed.String()
		}
	}
	return "127.0.0.1"
}
