package wechatv2

import (
	"strings"
	"testing"
)

const testAPIKey = "192006250b4c09247ec02edce69f6a2d"

func TestSignVerifyRoundTrip(t *testing.T) {
	fields := Values{
		"appid":        "wx2421b1c4370ec43b",
		"mch_id":       "10000100",
		"nonce_str":    "ec2316275641faa3aacf3cc599e8730f",
		"out_trade_no": "T1",
		"total_fee":    "100",
	}
	fields.Set(FieldSign, Sign(fields, testAPIKey))
	if !Verify(fields, testAPIKey) {
		t.Fatalf("signed fields should verify")
	}
}

func TestVerifyDetectsTamper(t *testing.T) {
	fields := Values{
		"out_trade_no": "T1",
		"total_fee":    "100",
		"result_code":  "SUCCESS",
	}
	fields.Set(FieldSign, Sign(fields, testAPIKey))
	fields.Set("total_fee", "1")
	if Verify(fields, testAPIKey) {
		t.Fatalf("tampered fields should not verify")
	}
}

func TestVerifyWrongKey(t *testing.T) {
	fields := Values{"out_trade_no": "T1"}
	fields.Set(FieldSign, Sign(fields, testAPIKey))
	if Verify(fields, "another-key") {
		t.Fatalf("verify with wrong key should fail")
	}
}

func TestSignDeterministicAndOrderInsensitive(t *testing.T) {
	first := Values{}
	first.Set("b", "2")
	first.Set("a", "1")
	first.Set("c", "3")
	second := Values{}
	second.Set("c", "3")
	second.Set("a", "1")
	second.Set("b", "2")
	if Sign(first, testAPIKey) != Sign(second, testAPIKey) {
		t.Fatalf("sign should not depend on insertion order")
	}
	if Sign(first, testAPIKey) != Sign(first, testAPIKey) {
		t.Fatalf("sign should be deterministic")
	}
}

func TestSignExcludesEmptyFields(t *testing.T) {
	base := Values{"out_trade_no": "T1", "total_fee": "100"}
	padded := base.Clone()
	padded.Set("attach", "")
	padded.Set("refund_desc", "")
	if Sign(base, testAPIKey) != Sign(padded, testAPIKey) {
		t.Fatalf("empty fields must not contribute to the signature")
	}
}

func TestSignExcludesSignField(t *testing.T) {
	fields := Values{"out_trade_no": "T1"}
	expected := Sign(fields, testAPIKey)
	fields.Set(FieldSign, expected)
	if Sign(fields, testAPIKey) != expected {
		t.Fatalf("sign field must not feed its own recomputation")
	}
}

func TestSignIntegerCoercionMatchesString(t *testing.T) {
	byInt := Values{}
	byInt.SetInt64("total_fee", 100)
	byString := Values{}
	byString.Set("total_fee", "100")
	if Sign(byInt, testAPIKey) != Sign(byString, testAPIKey) {
		t.Fatalf("integer and string forms of a value must canonicalize identically")
	}
}

func TestSignOutputShape(t *testing.T) {
	signature := Sign(Values{"a": "1"}, testAPIKey)
	if len(signature) != 32 {
		t.Fatalf("unexpected signature length: %d", len(signature))
	}
	if signature != strings.ToUpper(signature) {
		t.Fatalf("signature should be uppercase hex: %s", signature)
	}
}

func TestVerifyMalformedInputIsMismatch(t *testing.T) {
	if Verify(Values{}, testAPIKey) {
		t.Fatalf("empty field set should not verify")
	}
	fields := Values{"out_trade_no": "T1", FieldSign: "not-a-signature"}
	if Verify(fields, testAPIKey) {
		t.Fatalf("garbage signature should not verify")
	}
}
