package wechatv2

import "errors"

var (
	ErrConfigInvalid       = errors.New("wechatv2 config invalid")
	ErrOrderInvalid        = errors.New("wechatv2 order input invalid")
	ErrTransport           = errors.New("wechatv2 transport failed")
	ErrAmbiguousOutcome    = errors.New("wechatv2 outcome unknown")
	ErrMalformedMessage    = errors.New("wechatv2 message malformed")
	ErrGatewayRejected     = errors.New("wechatv2 gateway rejected")
	ErrResponseSignature   = errors.New("wechatv2 response signature invalid")
	ErrSignatureMissing    = errors.New("wechatv2 notification signature missing")
	ErrSignatureMismatch   = errors.New("wechatv2 notification signature mismatch")
	ErrCertificateRequired = errors.New("wechatv2 client certificate required")
)
