package constants

// 队列常量
const (
	QueueDefault          = "default"
	TaskOrderPaid         = "order:paid"
	TaskOrderTimeoutClose = "order:timeout_close"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "h5c"
)

// 设置键常量
const (
	SettingKeySiteConfig             = "site_config"
	SettingKeyOrderConfig            = "order_config"
	SettingKeyCaptchaConfig          = "captcha_config"
	SettingFieldSiteCurrency         = "currency"
	SettingFieldOrderExpireMinutes   = "order_expire_minutes"
	SettingFieldPaymentExpireMinutes = "payment_expire_minutes"
)

// 币种常量
const (
	SiteCurrencyDefault = "CNY"
)

// 验证码提供方常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)

// 验证码校验场景常量
const (
	CaptchaSceneAdminLogin = "admin_login"
)

// 上传素材限制常量
const (
	UploadMaxSizeBytes = 5 << 20
)
