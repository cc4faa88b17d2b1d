package i18n

var catalogs = map[string]map[string]string{
	LocaleZhCN: {
		"error.bad_request":  "请求参数有误",
		"error.unauthorized": "未登录或登录已过期",
		"error.forbidden":    "没有权限执行该操作",
		"error.save_failed":  "保存失败",

		"error.auth_header_missing": "缺少认证信息",
		"error.auth_header_invalid": "认证信息格式错误",
		"error.jwt_secret_missing":  "服务端认证配置缺失",
		"error.token_invalid":       "登录凭证无效",
		"error.token_revoked":       "登录凭证已失效，请重新登录",
		"error.login_failed":        "用户名或密码错误",
		"error.login_too_many":      "登录尝试过于频繁，请稍后再试",
		"error.user_disabled":       "账号已被禁用",
		"error.user_not_found":      "账号不存在",

		"error.admin_login_invalid":         "用户名或密码错误",
		"error.admin_id_invalid":            "管理员标识缺失",
		"error.admin_id_type_invalid":       "管理员标识类型错误",
		"error.admin_username_invalid":      "用户名格式不合法",
		"error.admin_username_exists":       "用户名已存在",
		"error.admin_create_failed":         "创建管理员失败",
		"error.admin_update_failed":         "更新管理员失败",
		"error.admin_delete_failed":         "删除管理员失败",
		"error.admin_delete_self_forbidden": "不能删除当前登录账号",
		"error.admin_delete_last_forbidden": "至少保留一个管理员账号",
		"error.admin_delete_protected":      "该账号受保护，不能删除",

		"error.password_old_invalid":     "原密码错误",
		"error.password_weak":            "密码强度不足",
		"error.password_min_length":      "密码长度不能少于 %d 位",
		"error.password_require_upper":   "密码需包含大写字母",
		"error.password_require_lower":   "密码需包含小写字母",
		"error.password_require_number":  "密码需包含数字",
		"error.password_require_special": "密码需包含特殊字符",

		"error.captcha_required":        "请完成验证码",
		"error.captcha_invalid":         "验证码错误或已过期",
		"error.captcha_config_invalid":  "验证码配置无效",
		"error.captcha_unavailable":     "验证码服务不可用",
		"error.captcha_generate_failed": "验证码生成失败",
		"error.captcha_verify_failed":   "验证码校验失败",

		"error.rate_limited":           "请求过于频繁，请稍后再试",
		"error.rate_limit_unavailable": "限流服务不可用",

		"error.config_fetch_failed":   "配置获取失败",
		"error.settings_fetch_failed": "设置获取失败",
		"error.settings_save_failed":  "设置保存失败",

		"error.page_not_found":     "页面不存在或未发布",
		"error.page_invalid":       "页面内容不合法",
		"error.page_slug_taken":    "访问路径已被占用",
		"error.page_save_failed":   "页面保存失败",
		"error.page_fetch_failed":  "页面获取失败",
		"error.asset_not_found":    "素材不存在",
		"error.asset_fetch_failed": "素材获取失败",
		"error.asset_delete_failed": "素材删除失败",
		"error.file_missing":       "未选择上传文件",
		"error.upload_failed":      "上传失败",

		"error.order_not_found":      "订单不存在",
		"error.order_invalid":        "订单参数有误",
		"error.order_already_paid":   "订单已支付",
		"error.order_not_payable":    "订单当前不可支付",
		"error.order_status_invalid": "订单状态不允许该操作",
		"error.order_create_failed":  "订单创建失败",
		"error.order_close_failed":   "订单关闭失败",
		"error.order_fetch_failed":   "订单获取失败",

		"error.payment_not_found":                    "支付记录不存在",
		"error.payment_create_failed":                "支付发起失败",
		"error.payment_fetch_failed":                 "支付记录获取失败",
		"error.payment_gateway_failed":               "支付网关请求失败",
		"error.payment_channel_not_found":            "支付渠道不存在",
		"error.payment_channel_disabled":             "支付渠道未启用",
		"error.payment_channel_config_invalid":       "支付渠道配置无效",
		"error.payment_channel_type_not_supported":   "不支持的支付渠道类型",
		"error.payment_channel_save_failed":          "支付渠道保存失败",
		"error.payment_channel_fetch_failed":         "支付渠道获取失败",
		"error.gateway_unreachable":                  "网关暂时不可达，请稍后重试",
		"error.gateway_response_invalid":             "网关应答校验失败",

		"error.refund_not_found":      "退款记录不存在",
		"error.refund_invalid":        "退款参数有误",
		"error.refund_exceeds_amount": "退款金额超出可退余额",
		"error.refund_not_retryable":  "存在结果未确认的退款，金额不一致时不可重试",
		"error.refund_fetch_failed":   "退款记录获取失败",

		"error.dashboard_fetch_failed": "统计数据获取失败",
	},
	LocaleEn: {
		"error.bad_request":  "Invalid request parameters",
		"error.unauthorized": "Not logged in or session expired",
		"error.forbidden":    "Permission denied",
		"error.save_failed":  "Save failed",

		"error.auth_header_missing": "Missing authorization header",
		"error.auth_header_invalid": "Malformed authorization header",
		"error.jwt_secret_missing":  "Server auth misconfigured",
		"error.token_invalid":       "Invalid token",
		"error.token_revoked":       "Token revoked, please sign in again",
		"error.login_failed":        "Incorrect username or password",
		"error.login_too_many":      "Too many login attempts, try again later",
		"error.user_disabled":       "Account disabled",
		"error.user_not_found":      "Account not found",

		"error.admin_login_invalid":         "Incorrect username or password",
		"error.admin_id_invalid":            "Missing admin identity",
		"error.admin_id_type_invalid":       "Invalid admin identity type",
		"error.admin_username_invalid":      "Invalid username format",
		"error.admin_username_exists":       "Username already exists",
		"error.admin_create_failed":         "Failed to create admin",
		"error.admin_update_failed":         "Failed to update admin",
		"error.admin_delete_failed":         "Failed to delete admin",
		"error.admin_delete_self_forbidden": "Cannot delete the current account",
		"error.admin_delete_last_forbidden": "At least one admin must remain",
		"error.admin_delete_protected":      "This account is protected",

		"error.password_old_invalid":     "Incorrect current password",
		"error.password_weak":            "Password too weak",
		"error.password_min_length":      "Password must be at least %d characters",
		"error.password_require_upper":   "Password must contain an uppercase letter",
		"error.password_require_lower":   "Password must contain a lowercase letter",
		"error.password_require_number":  "Password must contain a digit",
		"error.password_require_special": "Password must contain a special character",

		"error.captcha_required":        "Captcha required",
		"error.captcha_invalid":         "Captcha incorrect or expired",
		"error.captcha_config_invalid":  "Captcha misconfigured",
		"error.captcha_unavailable":     "Captcha service unavailable",
		"error.captcha_generate_failed": "Failed to generate captcha",
		"error.captcha_verify_failed":   "Captcha verification failed",

		"error.rate_limited":           "Too many requests, try again later",
		"error.rate_limit_unavailable": "Rate limiter unavailable",

		"error.config_fetch_failed":   "Failed to load configuration",
		"error.settings_fetch_failed": "Failed to load settings",
		"error.settings_save_failed":  "Failed to save settings",

		"error.page_not_found":      "Page not found or not published",
		"error.page_invalid":        "Invalid page content",
		"error.page_slug_taken":     "Slug already taken",
		"error.page_save_failed":    "Failed to save page",
		"error.page_fetch_failed":   "Failed to load page",
		"error.asset_not_found":     "Asset not found",
		"error.asset_fetch_failed":  "Failed to load assets",
		"error.asset_delete_failed": "Failed to delete asset",
		"error.file_missing":        "No file selected",
		"error.upload_failed":       "Upload failed",

		"error.order_not_found":      "Order not found",
		"error.order_invalid":        "Invalid order parameters",
		"error.order_already_paid":   "Order already paid",
		"error.order_not_payable":    "Order is not payable",
		"error.order_status_invalid": "Operation not allowed for order status",
		"error.order_create_failed":  "Failed to create order",
		"error.order_close_failed":   "Failed to close order",
		"error.order_fetch_failed":   "Failed to load order",

		"error.payment_not_found":                  "Payment not found",
		"error.payment_create_failed":              "Failed to create payment",
		"error.payment_fetch_failed":               "Failed to load payments",
		"error.payment_gateway_failed":             "Payment gateway request failed",
		"error.payment_channel_not_found":          "Payment channel not found",
		"error.payment_channel_disabled":           "Payment channel disabled",
		"error.payment_channel_config_invalid":     "Invalid payment channel config",
		"error.payment_channel_type_not_supported": "Unsupported payment channel type",
		"error.payment_channel_save_failed":        "Failed to save payment channel",
		"error.payment_channel_fetch_failed":       "Failed to load payment channels",
		"error.gateway_unreachable":                "Gateway temporarily unreachable",
		"error.gateway_response_invalid":           "Gateway response failed verification",

		"error.refund_not_found":      "Refund not found",
		"error.refund_invalid":        "Invalid refund parameters",
		"error.refund_exceeds_amount": "Refund exceeds refundable amount",
		"error.refund_not_retryable":  "An unresolved refund exists; amounts must match to retry",
		"error.refund_fetch_failed":   "Failed to load refunds",

		"error.dashboard_fetch_failed": "Failed to load dashboard data",
	},
}
