package wechatv2

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func testConfigMap(baseURL string) map[string]interface{} {
	return map[string]interface{}{
		"appid":      "wx2421b1c4370ec43b",
		"mch_id":     "10000100",
		"api_key":    testAPIKey,
		"notify_url": "https://pages.example.com/api/v1/payments/notify/wechat",
		"base_url":   baseURL,
	}
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg, err := ParseConfig(testConfigMap(baseURL))
	if err != nil {
		t.Fatalf("parse config failed: %v", err)
	}
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	return client
}

func signedResponse(key string, extra Values) []byte {
	fields := Values{
		"return_code": "SUCCESS",
		"return_msg":  "OK",
		"result_code": "SUCCESS",
		"appid":       "wx2421b1c4370ec43b",
		"mch_id":      "10000100",
		"nonce_str":   "IITRi8Iabbblz1Jc",
	}
	for name, value := range extra {
		fields.Set(name, value)
	}
	fields.Set(FieldSign, Sign(fields, key))
	return Encode(fields)
}

func TestCreatePrepaySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/pay/unifiedorder" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read request failed: %v", err)
		}
		request, err := Decode(body)
		if err != nil {
			t.Fatalf("decode request failed: %v", err)
		}
		if !Verify(request, testAPIKey) {
			t.Fatalf("request signature invalid: %s", body)
		}
		if request.Get("out_trade_no") != "T1" {
			t.Fatalf("unexpected out_trade_no: %q", request.Get("out_trade_no"))
		}
		if request.Get("total_fee") != "100" {
			t.Fatalf("unexpected total_fee: %q", request.Get("total_fee"))
		}
		if request.Get("trade_type") != TradeTypeJS {
			t.Fatalf("unexpected trade_type: %q", request.Get("trade_type"))
		}
		if request.Get("openid") != "open123" {
			t.Fatalf("unexpected openid: %q", request.Get("openid"))
		}
		if len(request.Get("nonce_str")) != defaultNonceLength {
			t.Fatalf("unexpected nonce length: %d", len(request.Get("nonce_str")))
		}
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write(signedResponse(testAPIKey, Values{
			"trade_type": TradeTypeJS,
			"prepay_id":  "WX123",
		}))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	params, err := client.CreatePrepay(context.Background(), PrepayOrder{
		OutTradeNo: "T1",
		Body:       "lamp",
		TotalFee:   100,
		OpenID:     "open123",
	})
	if err != nil {
		t.Fatalf("create prepay failed: %v", err)
	}
	if params.Package != "prepay_id=WX123" {
		t.Fatalf("unexpected package: %q", params.Package)
	}
	if params.SignType != SignTypeMD5 {
		t.Fatalf("unexpected sign type: %q", params.SignType)
	}
	if _, err := strconv.ParseInt(params.TimeStamp, 10, 64); err != nil {
		t.Fatalf("timestamp should be epoch seconds: %q", params.TimeStamp)
	}

	// 调起参数自成一个签名上下文，必须能独立验签
	verification := Values{
		"appId":     params.AppID,
		"timeStamp": params.TimeStamp,
		"nonceStr":  params.NonceStr,
		"package":   params.Package,
		"signType":  params.SignType,
		FieldSign:   params.PaySign,
	}
	if !Verify(verification, testAPIKey) {
		t.Fatalf("client params signature should verify independently")
	}
}

func TestCreatePrepayGatewayRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(Encode(Values{
			"return_code": "FAIL",
			"return_msg":  "appid不存在",
		}))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CreatePrepay(context.Background(), PrepayOrder{OutTradeNo: "T1", TotalFee: 100, OpenID: "open123"})
	if !errors.Is(err, ErrGatewayRejected) {
		t.Fatalf("expected ErrGatewayRejected, got %v", err)
	}
}

func TestCreatePrepayBusinessDeclineIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fields := Values{
			"return_code":  "SUCCESS",
			"result_code":  "FAIL",
			"err_code":     "ORDERPAID",
			"err_code_des": "订单已支付",
		}
		fields.Set(FieldSign, Sign(fields, testAPIKey))
		_, _ = w.Write(Encode(fields))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CreatePrepay(context.Background(), PrepayOrder{OutTradeNo: "T1", TotalFee: 100, OpenID: "open123"})
	if !errors.Is(err, ErrGatewayRejected) {
		t.Fatalf("expected ErrGatewayRejected, got %v", err)
	}
}

func TestCreatePrepayResponseSignatureInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(signedResponse("attacker-key", Values{"prepay_id": "WX123"}))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CreatePrepay(context.Background(), PrepayOrder{OutTradeNo: "T1", TotalFee: 100, OpenID: "open123"})
	if !errors.Is(err, ErrResponseSignature) {
		t.Fatalf("expected ErrResponseSignature, got %v", err)
	}
}

func TestCreatePrepayMissingPrepayID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(signedResponse(testAPIKey, Values{"trade_type": TradeTypeJS}))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CreatePrepay(context.Background(), PrepayOrder{OutTradeNo: "T1", TotalFee: 100, OpenID: "open123"})
	if !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("expected ErrMalformedMessage, got %v", err)
	}
}

func TestCallTransportErrorOnHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.QueryOrder(context.Background(), "T1")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestCreatePrepayTimeoutIsAmbiguous(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write(signedResponse(testAPIKey, Values{"prepay_id": "WX123"}))
	}))
	defer server.Close()

	raw := testConfigMap(server.URL)
	raw["timeout_ms"] = 50
	cfg, err := ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse config failed: %v", err)
	}
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	_, err = client.CreatePrepay(context.Background(), PrepayOrder{OutTradeNo: "T1", TotalFee: 100, OpenID: "open123"})
	if !errors.Is(err, ErrAmbiguousOutcome) {
		t.Fatalf("timeout during non-idempotent call must be ambiguous, got %v", err)
	}
}

func TestQueryOrderTimeoutIsTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	raw := testConfigMap(server.URL)
	raw["timeout_ms"] = 50
	cfg, err := ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse config failed: %v", err)
	}
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	_, err = client.QueryOrder(context.Background(), "T1")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("query timeout is retryable transport failure, got %v", err)
	}
	if errors.Is(err, ErrAmbiguousOutcome) {
		t.Fatalf("query timeout must not be ambiguous")
	}
}

func TestQueryOrderSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pay/orderquery" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write(signedResponse(testAPIKey, Values{
			"out_trade_no": "T1",
			"trade_state":  "SUCCESS",
			"total_fee":    "100",
		}))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.QueryOrder(context.Background(), "T1")
	if err != nil {
		t.Fatalf("query order failed: %v", err)
	}
	if result.Get("trade_state") != "SUCCESS" {
		t.Fatalf("unexpected trade_state: %q", result.Get("trade_state"))
	}
}

func TestCloseOrderSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pay/closeorder" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write(signedResponse(testAPIKey, nil))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.CloseOrder(context.Background(), "T1"); err != nil {
		t.Fatalf("close order failed: %v", err)
	}
}

// recordingTransport 记录请求并返回预置响应，用于断言调用次数
type recordingTransport struct {
	calls    int
	lastBody []byte
	payload  []byte
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.calls++
	if req.Body != nil {
		rt.lastBody, _ = io.ReadAll(req.Body)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(rt.payload)),
	}, nil
}

func TestRefundWithoutCertificate(t *testing.T) {
	recorder := &recordingTransport{payload: signedResponse(testAPIKey, nil)}
	client := newTestClient(t, "https://gateway.invalid")
	client.httpClient = &http.Client{Transport: recorder}

	_, err := client.Refund(context.Background(), RefundRequest{
		OutTradeNo:  "T1",
		OutRefundNo: "R1",
		TotalFee:    100,
		RefundFee:   100,
	})
	if !errors.Is(err, ErrCertificateRequired) {
		t.Fatalf("expected ErrCertificateRequired, got %v", err)
	}
	if recorder.calls != 0 {
		t.Fatalf("refund without certificate must not touch the network, calls=%d", recorder.calls)
	}
}

func TestRefundWithCertificateIssuesSinglePost(t *testing.T) {
	recorder := &recordingTransport{payload: signedResponse(testAPIKey, Values{
		"out_trade_no":  "T1",
		"out_refund_no": "R1",
		"refund_id":     "50000000382019052709732678859",
	})}
	client := newTestClient(t, "https://gateway.invalid")
	// 双向认证通道以计数传输替身注入，断言退款走证书通道
	client.certClient = &http.Client{Transport: recorder}

	result, err := client.Refund(context.Background(), RefundRequest{
		OutTradeNo:  "T1",
		OutRefundNo: "R1",
		TotalFee:    100,
		RefundFee:   100,
		Reason:      "商品缺货",
	})
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if recorder.calls != 1 {
		t.Fatalf("refund should issue exactly one POST, calls=%d", recorder.calls)
	}
	request, err := Decode(recorder.lastBody)
	if err != nil {
		t.Fatalf("decode refund request failed: %v", err)
	}
	if !Verify(request, testAPIKey) {
		t.Fatalf("refund request signature invalid")
	}
	if request.Get("out_refund_no") != "R1" {
		t.Fatalf("unexpected out_refund_no: %q", request.Get("out_refund_no"))
	}
	if request.Get("refund_fee") != "100" {
		t.Fatalf("unexpected refund_fee: %q", request.Get("refund_fee"))
	}
	if result.Get("refund_id") == "" {
		t.Fatalf("expected refund_id in verified response")
	}
}

func TestQueryRefundSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pay/refundquery" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write(signedResponse(testAPIKey, Values{
			"out_refund_no_0":     "R1",
			"refund_status_0":     "SUCCESS",
			"refund_recv_accout_0": "支付用户零钱",
		}))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.QueryRefund(context.Background(), "R1")
	if err != nil {
		t.Fatalf("query refund failed: %v", err)
	}
	if result.Get("refund_status_0") != "SUCCESS" {
		t.Fatalf("unexpected refund status: %q", result.Get("refund_status_0"))
	}
}

func TestRefundValidatesInputBeforeNetwork(t *testing.T) {
	recorder := &recordingTransport{payload: signedResponse(testAPIKey, nil)}
	client := newTestClient(t, "https://gateway.invalid")
	client.certClient = &http.Client{Transport: recorder}

	_, err := client.Refund(context.Background(), RefundRequest{OutTradeNo: "T1", OutRefundNo: "", TotalFee: 100, RefundFee: 100})
	if !errors.Is(err, ErrOrderInvalid) {
		t.Fatalf("expected ErrOrderInvalid, got %v", err)
	}
	if recorder.calls != 0 {
		t.Fatalf("invalid refund input must not reach the network")
	}
}

func TestMalformedResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway maintenance</html>"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.QueryOrder(context.Background(), "T1")
	if err == nil {
		t.Fatalf("expected error for non-protocol body")
	}
}
