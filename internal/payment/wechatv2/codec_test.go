package wechatv2

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	fields := Values{
		"appid":        "wx2421b1c4370ec43b",
		"out_trade_no": "T1",
		"total_fee":    "100",
		"body":         "台灯",
	}
	decoded, err := Decode(Encode(fields))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(decoded) != len(fields) {
		t.Fatalf("field count changed: %d != %d", len(decoded), len(fields))
	}
	for key, value := range fields {
		if decoded.Get(key) != value {
			t.Fatalf("field %s changed: %q != %q", key, decoded.Get(key), value)
		}
	}
}

func TestEncodeDropsEmptyFields(t *testing.T) {
	fields := Values{
		"out_trade_no": "T1",
		"attach":       "",
	}
	wire := string(Encode(fields))
	if strings.Contains(wire, "attach") {
		t.Fatalf("empty field leaked into wire format: %s", wire)
	}
	decoded, err := Decode([]byte(wire))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Has("attach") {
		t.Fatalf("empty field reappeared after decode")
	}
}

func TestDecodePreservesUnknownFields(t *testing.T) {
	wire := "<xml>" +
		"<out_trade_no><![CDATA[T1]]></out_trade_no>" +
		"<vendor_extension><![CDATA[opaque]]></vendor_extension>" +
		"</xml>"
	decoded, err := Decode([]byte(wire))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Get("vendor_extension") != "opaque" {
		t.Fatalf("unknown field dropped; signature verification needs the complete set")
	}
}

func TestDecodePlainTextValues(t *testing.T) {
	decoded, err := Decode([]byte("<xml><return_code>SUCCESS</return_code></xml>"))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Get("return_code") != ResultSuccess {
		t.Fatalf("unexpected value: %q", decoded.Get("return_code"))
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"<xml><a>1</a>",
		"<xml><a>1</xml>",
		"not xml at all",
		"garbage<xml></xml>",
	}
	for _, raw := range cases {
		if _, err := Decode([]byte(raw)); !errors.Is(err, ErrMalformedMessage) {
			t.Fatalf("input %q: expected ErrMalformedMessage, got %v", raw, err)
		}
	}
}

func TestDecodeRejectsNesting(t *testing.T) {
	wire := "<xml><amount><total>100</total></amount></xml>"
	if _, err := Decode([]byte(wire)); !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("nested document should be rejected, got %v", err)
	}
}

func TestEncodeEscapesCDATATerminator(t *testing.T) {
	fields := Values{
		"attach": "a]]>b",
		"body":   "]]>",
	}
	decoded, err := Decode(Encode(fields))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Get("attach") != "a]]>b" {
		t.Fatalf("attach changed: %q", decoded.Get("attach"))
	}
	if decoded.Get("body") != "]]>" {
		t.Fatalf("body changed: %q", decoded.Get("body"))
	}
}

func TestRoundTripPreservesSignature(t *testing.T) {
	fields := Values{
		"out_trade_no": "T1",
		"total_fee":    "100",
		"body":         "夜间台灯 lamp",
	}
	fields.Set(FieldSign, Sign(fields, testAPIKey))
	decoded, err := Decode(Encode(fields))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !Verify(decoded, testAPIKey) {
		t.Fatalf("signature must survive an encode/decode round trip")
	}
}
