package repository

import (
	"errors"
	"strings"

	"github.com/h5craft/internal/models"

	"gorm.io/gorm"
)

// RefundRepository 退款数据访问接口
type RefundRepository interface {
	Create(refund *models.Refund) error
	Update(refund *models.Refund) error
	GetByID(id uint) (*models.Refund, error)
	GetByOutRefundNo(outRefundNo string) (*models.Refund, error)
	SumSucceededByPayment(paymentID uint) (models.Money, error)
	ListAdmin(filter RefundListFilter) ([]models.Refund, int64, error)
	WithTx(tx *gorm.DB) *GormRefundRepository
}

// GormRefundRepository GORM 实现
type GormRefundRepository struct {
	db *gorm.DB
}

// NewRefundRepository 创建退款仓库
func NewRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRefundRepository) WithTx(tx *gorm.DB) *GormRefundRepository {
	if tx == nil {
		return r
	}
	return &GormRefundRepository{db: tx}
}

// Create 创建退款记录
func (r *GormRefundRepository) Create(refund *models.Refund) error {
	return r.db.Create(refund).Error
}

// Update 更新退款记录
func (r *GormRefundRepository) Update(refund *models.Refund) error {
	return r.db.Save(refund).Error
}

// GetByID 根据 ID 获取退款记录
func (r *GormRefundRepository) GetByID(id uint) (*models.Refund, error) {
	var refund models.Refund
	if err := r.db.First(&refund, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refund, nil
}

// GetByOutRefundNo 根据商户退款单号获取退款记录
func (r *GormRefundRepository) GetByOutRefundNo(outRefundNo string) (*models.Refund, error) {
	outRefundNo = strings.TrimSpace(outRefundNo)
	if outRefundNo == "" {
		return nil, nil
	}
	var refund models.Refund
	result := r.db.Where("out_refund_no = ?", outRefundNo).Limit(1).Find(&refund)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &refund, nil
}

// SumSucceededByPayment 统计支付记录已成功退款的总额
func (r *GormRefundRepository) SumSucceededByPayment(paymentID uint) (models.Money, error) {
	var row struct {
		Total models.Money
	}
	err := r.db.Model(&models.Refund{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("payment_id = ? AND status = ?", paymentID, models.RefundStatusSuccess).
		Take(&row).Error
	if err != nil {
		return models.Money{}, err
	}
	return row.Total, nil
}

// ListAdmin 管理端退款列表
func (r *GormRefundRepository) ListAdmin(filter RefundListFilter) ([]models.Refund, int64, error) {
	query := r.db.Model(&models.Refund{})

	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.PaymentID != 0 {
		query = query.Where("payment_id = ?", filter.PaymentID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	refunds := make([]models.Refund, 0)
	if err := query.Order("id DESC").Find(&refunds).Error; err != nil {
		return nil, 0, err
	}
	return refunds, total, nil
}
