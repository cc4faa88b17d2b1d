package wechatv2

import (
	"bytes"
	"errors"
	"testing"
)

func buildNotification(t *testing.T, key string, mutate func(Values)) []byte {
	t.Helper()
	fields := Values{
		"return_code":    "SUCCESS",
		"result_code":    "SUCCESS",
		"appid":          "wx2421b1c4370ec43b",
		"mch_id":         "10000100",
		"out_trade_no":   "T1",
		"transaction_id": "1004400740201409030005092168",
		"total_fee":      "100",
		"nonce_str":      "5d2b6c2a8db53831f7eda20af46e531c",
	}
	if mutate != nil {
		mutate(fields)
	}
	fields.Set(FieldSign, Sign(fields, key))
	return Encode(fields)
}

func TestVerifyNotificationSuccess(t *testing.T) {
	body := buildNotification(t, testAPIKey, nil)
	fields, err := VerifyNotification(body, testAPIKey)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if fields.Get("out_trade_no") != "T1" {
		t.Fatalf("unexpected out_trade_no: %q", fields.Get("out_trade_no"))
	}
	if fields.Get("result_code") != ResultSuccess {
		t.Fatalf("unexpected result_code: %q", fields.Get("result_code"))
	}
	if fields.Get("total_fee") != "100" {
		t.Fatalf("fields must come back unchanged, total_fee=%q", fields.Get("total_fee"))
	}
}

func TestVerifyNotificationFlippedCharacter(t *testing.T) {
	body := buildNotification(t, testAPIKey, nil)
	tampered := bytes.Replace(body, []byte("<total_fee><![CDATA[100]]>"), []byte("<total_fee><![CDATA[900]]>"), 1)
	if bytes.Equal(body, tampered) {
		t.Fatalf("test setup: tampering had no effect")
	}
	if _, err := VerifyNotification(tampered, testAPIKey); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}
}

func TestVerifyNotificationMissingSignature(t *testing.T) {
	fields := Values{
		"return_code":  "SUCCESS",
		"out_trade_no": "T1",
	}
	if _, err := VerifyNotification(Encode(fields), testAPIKey); !errors.Is(err, ErrSignatureMissing) {
		t.Fatalf("expected ErrSignatureMissing, got %v", err)
	}
}

func TestVerifyNotificationMalformedBody(t *testing.T) {
	if _, err := VerifyNotification([]byte("<xml><broken"), testAPIKey); !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("expected ErrMalformedMessage, got %v", err)
	}
}

func TestVerifyNotificationWrongKey(t *testing.T) {
	body := buildNotification(t, "some-other-merchant-key", nil)
	if _, err := VerifyNotification(body, testAPIKey); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}
}

func TestAckBodies(t *testing.T) {
	success, err := Decode(AckSuccess())
	if err != nil {
		t.Fatalf("decode success ack failed: %v", err)
	}
	if success.Get("return_code") != ResultSuccess {
		t.Fatalf("unexpected success ack: %v", success)
	}
	fail, err := Decode(AckFail("签名校验失败"))
	if err != nil {
		t.Fatalf("decode fail ack failed: %v", err)
	}
	if fail.Get("return_code") != ResultFail {
		t.Fatalf("unexpected fail ack: %v", fail)
	}
	if fail.Get("return_msg") != "签名校验失败" {
		t.Fatalf("fail ack should carry the message, got %q", fail.Get("return_msg"))
	}
}
