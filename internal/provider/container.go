package provider

import (
	"github.com/h5craft/internal/authz"
	"github.com/h5craft/internal/cache"
	"github.com/h5craft/internal/config"
	"github.com/h5craft/internal/logger"
	"github.com/h5craft/internal/models"
	"github.com/h5craft/internal/queue"
	"github.com/h5craft/internal/repository"
	"github.com/h5craft/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo          repository.AdminRepository
	PageRepo           repository.PageRepository
	AssetRepo          repository.AssetRepository
	OrderRepo          repository.OrderRepository
	PaymentRepo        repository.PaymentRepository
	RefundRepo         repository.RefundRepository
	PaymentChannelRepo repository.PaymentChannelRepository
	SettingRepo        repository.SettingRepository
	AuthzAuditLogRepo  repository.AuthzAuditLogRepository
	DashboardRepo      repository.DashboardRepository

	// Services
	AuthzService          *authz.Service
	AuthService           *service.AuthService
	CaptchaService        *service.CaptchaService
	UploadService         *service.UploadService
	PageService           *service.PageService
	SettingService        *service.SettingService
	OrderService          *service.OrderService
	PaymentService        *service.PaymentService
	PaymentChannelService *service.PaymentChannelService
	AuthzAuditService     *service.AuthzAuditService
	DashboardService      *service.DashboardService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.PageRepo = repository.NewPageRepository(db)
	c.AssetRepo = repository.NewAssetRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.RefundRepo = repository.NewRefundRepository(db)
	c.PaymentChannelRepo = repository.NewPaymentChannelRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.AuthzAuditLogRepo = repository.NewAuthzAuditLogRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UploadService = service.NewUploadService(c.Config, c.AssetRepo)
	c.PageService = service.NewPageService(c.PageRepo, c.AssetRepo)
	c.OrderService = service.NewOrderService(c.Config, c.OrderRepo, c.PaymentRepo, c.PageRepo, c.SettingService, c.QueueClient)
	c.PaymentChannelService = service.NewPaymentChannelService(c.PaymentChannelRepo)
	c.PaymentService = service.NewPaymentService(c.Config, c.OrderRepo, c.PaymentRepo, c.RefundRepo, c.PaymentChannelRepo, c.OrderService, c.SettingService)
	c.AuthzAuditService = service.NewAuthzAuditService(c.AuthzAuditLogRepo)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo)
}
