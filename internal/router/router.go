package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/h5craft/internal/authz"
	"github.com/h5craft/internal/cache"
	"github.com/h5craft/internal/config"
	adminhandlers "github.com/h5craft/internal/http/handlers/admin"
	publichandlers "github.com/h5craft/internal/http/handlers/public"
	"github.com/h5craft/internal/http/response"
	"github.com/h5craft/internal/logger"
	"github.com/h5craft/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "h5c"
	}
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	orderCreateRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:order_create", redisPrefix),
		WindowSeconds: cfg.Security.OrderRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.OrderRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.OrderRateLimit.BlockSeconds,
		MessageKey:    "error.rate_limited",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 静态文件服务（上传的素材）- 必须放在最前面
	r.Static("/uploads", "./uploads")

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetSiteConfig)
			public.GET("/pages/:slug", publicHandler.GetPage)
			public.GET("/payment-channels", publicHandler.GetPaymentChannels)
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)
			public.POST("/orders", RateLimitMiddleware(redisClient, orderCreateRule, KeyByIP), publicHandler.CreateOrder)
			public.GET("/orders/:order_no", publicHandler.GetOrderStatus)
			public.POST("/payments", publicHandler.CreatePayment)
		}

		// 网关回调。回调报文自带签名，不走鉴权中间件
		apiV1.POST("/payments/notify/wechat/:channel_id", publicHandler.HandleWechatNotify)

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				// 仪表盘
				authorized.GET("/dashboard/overview", adminHandler.GetDashboardOverview)
				authorized.GET("/dashboard/trends", adminHandler.GetDashboardTrends)
				authorized.GET("/dashboard/rankings", adminHandler.GetDashboardRankings)

				// 页面管理
				authorized.GET("/pages", adminHandler.GetAdminPages)
				authorized.GET("/pages/:id", adminHandler.GetAdminPage)
				authorized.POST("/pages", adminHandler.CreatePage)
				authorized.PUT("/pages/:id", adminHandler.UpdatePage)
				authorized.POST("/pages/:id/publish", adminHandler.PublishPage)
				authorized.POST("/pages/:id/archive", adminHandler.ArchivePage)
				authorized.DELETE("/pages/:id", adminHandler.DeletePage)

				// 素材管理
				authorized.POST("/upload", adminHandler.UploadFile)
				authorized.GET("/assets", adminHandler.GetAdminAssets)
				authorized.GET("/assets/:id", adminHandler.GetAdminAsset)
				authorized.DELETE("/assets/:id", adminHandler.DeleteAdminAsset)

				// 订单管理
				authorized.GET("/orders", adminHandler.GetAdminOrders)
				authorized.GET("/orders/:id", adminHandler.GetAdminOrder)
				authorized.POST("/orders/:id/close", adminHandler.CloseAdminOrder)

				// 支付渠道与支付记录
				authorized.POST("/payment-channels", adminHandler.CreatePaymentChannel)
				authorized.GET("/payment-channels", adminHandler.GetPaymentChannels)
				authorized.GET("/payment-channels/:id", adminHandler.GetPaymentChannel)
				authorized.PUT("/payment-channels/:id", adminHandler.UpdatePaymentChannel)
				authorized.DELETE("/payment-channels/:id", adminHandler.DeletePaymentChannel)
				authorized.GET("/payments", adminHandler.GetAdminPayments)
				authorized.GET("/payments/:id", adminHandler.GetAdminPayment)

				// 网关对账
				authorized.GET("/gateway/orders/:order_no", adminHandler.QueryGatewayOrder)
				authorized.POST("/gateway/orders/:order_no/close", adminHandler.CloseGatewayOrder)
				authorized.GET("/gateway/refunds/:out_refund_no", adminHandler.QueryGatewayRefund)

				// 退款管理
				authorized.POST("/refunds", adminHandler.CreateRefund)
				authorized.GET("/refunds", adminHandler.GetAdminRefunds)
				authorized.GET("/refunds/:id", adminHandler.GetAdminRefund)

				// 设置管理
				authorized.GET("/settings", adminHandler.GetSettings)
				authorized.PUT("/settings", adminHandler.UpdateSettings)
				authorized.PUT("/password", adminHandler.UpdateAdminPassword) // 修改密码

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.GET("/authz/audit-logs", adminHandler.ListAuthzAuditLogs)
				authorized.POST("/authz/admins", adminHandler.CreateAuthzAdmin)
				authorized.PUT("/authz/admins/:id", adminHandler.UpdateAuthzAdmin)
				authorized.DELETE("/authz/admins/:id", adminHandler.DeleteAuthzAdmin)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
