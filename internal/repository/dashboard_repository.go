package repository

import (
	"fmt"
	"time"

	"github.com/h5craft/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error)
	GetOrderTrends(startAt, endAt time.Time) ([]DashboardOrderTrendRow, error)
	GetPaymentTrends(startAt, endAt time.Time) ([]DashboardPaymentTrendRow, error)
	GetTopPages(startAt, endAt time.Time, limit int) ([]DashboardPageRankingRow, error)
	GetTopChannels(startAt, endAt time.Time, limit int) ([]DashboardChannelRankingRow, error)
}

// DashboardOverviewRow 仪表盘总览原始统计结果
type DashboardOverviewRow struct {
	PagesTotal      int64
	PagesPublished  int64
	OrdersTotal     int64
	PaidOrders      int64
	PendingOrders   int64
	RefundedOrders  int64
	GMVPaid         float64
	PaymentsTotal   int64
	PaymentsSuccess int64
	PaymentsFailed  int64
	Currency        string
}

// DashboardOrderTrendRow 订单趋势统计
type DashboardOrderTrendRow struct {
	Day         string
	OrdersTotal int64
	OrdersPaid  int64
}

// DashboardPaymentTrendRow 支付趋势统计
type DashboardPaymentTrendRow struct {
	Day             string
	PaymentsSuccess int64
	PaymentsFailed  int64
	GMVPaid         float64
}

// DashboardPageRankingRow 页面解锁排行原始行
type DashboardPageRankingRow struct {
	PageID     uint
	Title      string
	Slug       string
	PaidOrders int64
	PaidAmount float64
}

// DashboardChannelRankingRow 渠道排行原始行
type DashboardChannelRankingRow struct {
	ChannelID     uint
	ChannelName   string
	ChannelType   string
	SuccessCount  int64
	FailedCount   int64
	SuccessAmount float64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// GetOverview 获取总览统计
func (r *GormDashboardRepository) GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error) {
	result := DashboardOverviewRow{}

	if err := r.db.Model(&models.Page{}).Count(&result.PagesTotal).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.Page{}).
		Where("status = ?", models.PageStatusPublished).
		Count(&result.PagesPublished).Error; err != nil {
		return result, err
	}

	orderBase := func() *gorm.DB {
		return r.db.Model(&models.Order{}).
			Where("created_at >= ? AND created_at < ?", startAt, endAt)
	}
	if err := orderBase().Count(&result.OrdersTotal).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", models.OrderStatusPaid).Count(&result.PaidOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", models.OrderStatusCreated).Count(&result.PendingOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", models.OrderStatusRefunded).Count(&result.RefundedOrders).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.Order{}).
		Where("paid_at IS NOT NULL AND paid_at >= ? AND paid_at < ? AND status = ?", startAt, endAt, models.OrderStatusPaid).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&result.GMVPaid).Error; err != nil {
		return result, err
	}

	paymentBase := func() *gorm.DB {
		return r.db.Model(&models.Payment{}).
			Where("created_at >= ? AND created_at < ?", startAt, endAt)
	}
	if err := paymentBase().Count(&result.PaymentsTotal).Error; err != nil {
		return result, err
	}
	if err := paymentBase().Where("status = ?", models.PaymentStatusPaid).Count(&result.PaymentsSuccess).Error; err != nil {
		return result, err
	}
	if err := paymentBase().Where("status = ?", models.PaymentStatusFailed).Count(&result.PaymentsFailed).Error; err != nil {
		return result, err
	}

	_ = r.db.Model(&models.Order{}).
		Where("created_at >= ? AND created_at < ? AND currency <> ''", startAt, endAt).
		Order("id DESC").
		Limit(1).
		Pluck("currency", &result.Currency).Error

	return result, nil
}

// GetOrderTrends 获取订单趋势
func (r *GormDashboardRepository) GetOrderTrends(startAt, endAt time.Time) ([]DashboardOrderTrendRow, error) {
	type totalRow struct {
		Day   string
		Total int64
	}
	type paidRow struct {
		Day  string
		Paid int64
	}

	dayExpr := "CAST(date(created_at) AS TEXT)"

	var totals []totalRow
	if err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as total", dayExpr)).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Group(dayExpr).
		Order("day asc").
		Scan(&totals).Error; err != nil {
		return nil, err
	}

	var paids []paidRow
	if err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as paid", dayExpr)).
		Where("created_at >= ? AND created_at < ? AND status = ?", startAt, endAt, models.OrderStatusPaid).
		Group(dayExpr).
		Order("day asc").
		Scan(&paids).Error; err != nil {
		return nil, err
	}

	paidMap := make(map[string]int64, len(paids))
	for _, item := range paids {
		paidMap[item.Day] = item.Paid
	}

	result := make([]DashboardOrderTrendRow, 0, len(totals))
	for _, item := range totals {
		result = append(result, DashboardOrderTrendRow{
			Day:         item.Day,
			OrdersTotal: item.Total,
			OrdersPaid:  paidMap[item.Day],
		})
	}
	return result, nil
}

// GetPaymentTrends 获取支付趋势
func (r *GormDashboardRepository) GetPaymentTrends(startAt, endAt time.Time) ([]DashboardPaymentTrendRow, error) {
	type countRow struct {
		Day   string
		Total int64
	}
	type amountRow struct {
		Day   string
		Total float64
	}

	dayExpr := "CAST(date(created_at) AS TEXT)"
	paymentBase := func() *gorm.DB {
		return r.db.Model(&models.Payment{}).
			Where("created_at >= ? AND created_at < ?", startAt, endAt)
	}

	var successRows []countRow
	if err := paymentBase().
		Select(fmt.Sprintf("%s as day, COUNT(*) as total", dayExpr)).
		Where("status = ?", models.PaymentStatusPaid).
		Group(dayExpr).
		Order("day asc").
		Scan(&successRows).Error; err != nil {
		return nil, err
	}

	var failedRows []countRow
	if err := paymentBase().
		Select(fmt.Sprintf("%s as day, COUNT(*) as total", dayExpr)).
		Where("status = ?", models.PaymentStatusFailed).
		Group(dayExpr).
		Order("day asc").
		Scan(&failedRows).Error; err != nil {
		return nil, err
	}

	var amountRows []amountRow
	if err := paymentBase().
		Select(fmt.Sprintf("%s as day, COALESCE(SUM(amount), 0) as total", dayExpr)).
		Where("status = ?", models.PaymentStatusPaid).
		Group(dayExpr).
		Order("day asc").
		Scan(&amountRows).Error; err != nil {
		return nil, err
	}

	successMap := make(map[string]int64, len(successRows))
	for _, item := range successRows {
		successMap[item.Day] = item.Total
	}
	failedMap := make(map[string]int64, len(failedRows))
	for _, item := range failedRows {
		failedMap[item.Day] = item.Total
	}
	amountMap := make(map[string]float64, len(amountRows))
	for _, item := range amountRows {
		amountMap[item.Day] = item.Total
	}

	days := make([]string, 0, len(successMap)+len(failedMap))
	seen := make(map[string]bool)
	for _, item := range successRows {
		if !seen[item.Day] {
			seen[item.Day] = true
			days = append(days, item.Day)
		}
	}
	for _, item := range failedRows {
		if !seen[item.Day] {
			seen[item.Day] = true
			days = append(days, item.Day)
		}
	}

	result := make([]DashboardPaymentTrendRow, 0, len(days))
	for _, day := range days {
		result = append(result, DashboardPaymentTrendRow{
			Day:             day,
			PaymentsSuccess: successMap[day],
			PaymentsFailed:  failedMap[day],
			GMVPaid:         amountMap[day],
		})
	}
	return result, nil
}

// GetTopPages 获取付费解锁排行
func (r *GormDashboardRepository) GetTopPages(startAt, endAt time.Time, limit int) ([]DashboardPageRankingRow, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []DashboardPageRankingRow
	if err := r.db.Model(&models.Order{}).
		Select("orders.page_id as page_id, pages.title as title, pages.slug as slug, COUNT(*) as paid_orders, COALESCE(SUM(orders.amount), 0) as paid_amount").
		Joins("JOIN pages ON pages.id = orders.page_id").
		Where("orders.created_at >= ? AND orders.created_at < ? AND orders.status = ?", startAt, endAt, models.OrderStatusPaid).
		Group("orders.page_id, pages.title, pages.slug").
		Order("paid_orders DESC, paid_amount DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetTopChannels 获取支付渠道排行
func (r *GormDashboardRepository) GetTopChannels(startAt, endAt time.Time, limit int) ([]DashboardChannelRankingRow, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []DashboardChannelRankingRow
	if err := r.db.Model(&models.Payment{}).
		Select("payments.channel_id as channel_id, payment_channels.name as channel_name, payment_channels.type as channel_type, "+
			"SUM(CASE WHEN payments.status = ? THEN 1 ELSE 0 END) as success_count, "+
			"SUM(CASE WHEN payments.status = ? THEN 1 ELSE 0 END) as failed_count, "+
			"COALESCE(SUM(CASE WHEN payments.status = ? THEN payments.amount ELSE 0 END), 0) as success_amount",
			models.PaymentStatusPaid, models.PaymentStatusFailed, models.PaymentStatusPaid).
		Joins("JOIN payment_channels ON payment_channels.id = payments.channel_id").
		Where("payments.created_at >= ? AND payments.created_at < ?", startAt, endAt).
		Group("payments.channel_id, payment_channels.name, payment_channels.type").
		Order("success_count DESC, success_amount DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
