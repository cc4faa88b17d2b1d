package service

import "errors"

// 业务错误哨兵，HTTP 层按 errors.Is 映射为响应码
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrWeakPassword       = errors.New("weak password")

	ErrCaptchaRequired      = errors.New("captcha required")
	ErrCaptchaInvalid       = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid = errors.New("captcha config invalid")

	ErrPageNotFound     = errors.New("page not found")
	ErrPageSlugTaken    = errors.New("page slug already taken")
	ErrPageNotPublished = errors.New("page not published")
	ErrPageInvalid      = errors.New("page input invalid")

	ErrAssetNotFound  = errors.New("asset not found")
	ErrUploadRejected = errors.New("upload rejected")

	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderInvalid       = errors.New("order input invalid")
	ErrOrderStatusInvalid = errors.New("order status invalid")
	ErrOrderFetchFailed   = errors.New("order fetch failed")
	ErrOrderAlreadyPaid   = errors.New("order already paid")

	ErrPaymentInvalid          = errors.New("payment input invalid")
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrPaymentUpdateFailed     = errors.New("payment update failed")
	ErrPaymentAmountMismatch   = errors.New("payment amount mismatch")
	ErrChannelNotFound         = errors.New("payment channel not found")
	ErrChannelDisabled         = errors.New("payment channel disabled")
	ErrChannelConfigInvalid    = errors.New("payment channel config invalid")
	ErrChannelTypeNotSupported = errors.New("payment channel type not supported")

	ErrRefundNotFound      = errors.New("refund not found")
	ErrRefundInvalid       = errors.New("refund input invalid")
	ErrRefundExceedsAmount = errors.New("refund exceeds refundable amount")
	ErrRefundNotRetryable  = errors.New("refund not retryable")

	ErrDashboardRangeInvalid = errors.New("dashboard range invalid")
)
