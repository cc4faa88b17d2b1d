package main

import (
	"time"

	"github.com/h5craft/internal/config"
	"github.com/h5craft/internal/constants"
	"github.com/h5craft/internal/logger"
	"github.com/h5craft/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认管理员
	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("init default admin skipped: %v", err)
	}

	seedSettings(stdLog)
	seedPages(stdLog)
	seedPaymentChannel(stdLog)

	stdLog.Println("seed completed")
}

type stdLogger interface {
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

func seedSettings(log stdLogger) {
	settings := []models.Setting{
		{
			Key: constants.SettingKeySiteConfig,
			ValueJSON: models.JSON(map[string]interface{}{
				"site_name":                        "h5craft 演示站",
				"site_logo":                        "",
				"description":                      "可视化 H5 页面搭建与付费解锁",
				constants.SettingFieldSiteCurrency: constants.SiteCurrencyDefault,
			}),
		},
		{
			Key: constants.SettingKeyOrderConfig,
			ValueJSON: models.JSON(map[string]interface{}{
				constants.SettingFieldOrderExpireMinutes:   30,
				constants.SettingFieldPaymentExpireMinutes: 15,
			}),
		},
	}
	for i := range settings {
		var existing models.Setting
		err := models.DB.Where("key = ?", settings[i].Key).First(&existing).Error
		if err == nil {
			continue
		}
		if err := models.DB.Create(&settings[i]).Error; err != nil {
			log.Printf("seed setting %s failed: %v", settings[i].Key, err)
			continue
		}
		log.Printf("seeded setting %s", settings[i].Key)
	}
}

func seedPages(log stdLogger) {
	now := time.Now()
	pages := []models.Page{
		{
			Slug:        "welcome",
			Title:       "欢迎使用 h5craft",
			Description: "一个免费的演示落地页",
			ComponentsJSON: models.JSON(map[string]interface{}{
				"version": 1,
				"components": []interface{}{
					map[string]interface{}{"type": "hero", "props": map[string]interface{}{"title": "欢迎使用 h5craft", "subtitle": "拖拽即可搭建你的 H5 页面"}},
					map[string]interface{}{"type": "text", "props": map[string]interface{}{"content": "这是一个免费页面，任何访客都可以浏览完整内容。"}},
				},
			}),
			Status:      models.PageStatusPublished,
			Price:       models.NewMoneyFromDecimal(decimal.Zero),
			Currency:    constants.SiteCurrencyDefault,
			AuthorID:    1,
			PublishedAt: &now,
		},
		{
			Slug:        "premium-guide",
			Title:       "进阶指南（付费解锁）",
			Description: "付费后解锁完整组件树",
			ComponentsJSON: models.JSON(map[string]interface{}{
				"version": 1,
				"components": []interface{}{
					map[string]interface{}{"type": "hero", "props": map[string]interface{}{"title": "进阶指南", "subtitle": "付费解锁全部内容"}},
					map[string]interface{}{"type": "text", "props": map[string]interface{}{"content": "这部分内容仅对已付费解锁的访客可见。"}},
					map[string]interface{}{"type": "image", "props": map[string]interface{}{"src": "/uploads/demo/guide.png"}},
				},
			}),
			Status:      models.PageStatusPublished,
			Price:       models.NewMoneyFromDecimal(decimal.RequireFromString("9.90")),
			Currency:    constants.SiteCurrencyDefault,
			AuthorID:    1,
			PublishedAt: &now,
		},
		{
			Slug:        "draft-sample",
			Title:       "草稿示例",
			Description: "尚未发布的页面",
			ComponentsJSON: models.JSON(map[string]interface{}{
				"version":    1,
				"components": []interface{}{},
			}),
			Status:   models.PageStatusDraft,
			Price:    models.NewMoneyFromDecimal(decimal.Zero),
			Currency: constants.SiteCurrencyDefault,
			AuthorID: 1,
		},
	}
	for i := range pages {
		var existing models.Page
		err := models.DB.Where("slug = ?", pages[i].Slug).First(&existing).Error
		if err == nil {
			continue
		}
		if err := models.DB.Create(&pages[i]).Error; err != nil {
			log.Printf("seed page %s failed: %v", pages[i].Slug, err)
			continue
		}
		log.Printf("seeded page %s", pages[i].Slug)
	}
}

func seedPaymentChannel(log stdLogger) {
	var existing models.PaymentChannel
	if err := models.DB.Where("type = ?", models.ChannelTypeWechatV2).First(&existing).Error; err == nil {
		return
	}
	// 演示用沙箱凭据，正式环境请在后台替换
	channel := models.PaymentChannel{
		Name: "微信支付（沙箱）",
		Type: models.ChannelTypeWechatV2,
		ConfigJSON: models.JSON(map[string]interface{}{
			"appid":      "wx2421b1c4370ec43b",
			"mch_id":     "10000100",
			"api_key":    "192006250b4c09247ec02edce69f6a2d",
			"notify_url": "http://localhost:8080/api/v1/payments/notify/wechat/1",
			"timeout_ms": 5000,
		}),
		IsActive:  false,
		SortOrder: 0,
	}
	if err := models.DB.Create(&channel).Error; err != nil {
		log.Printf("seed payment channel failed: %v", err)
		return
	}
	log.Printf("seeded payment channel %s", channel.Name)
}
