package storage

import (
	"context"
	"time"

	"gorm.io/gorm"

	"catalog-admin/internal/models"
)

// OrderRepository defines the interface for order data operations.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	SearchByOrderNumber(ctx context.Context, query string) ([]models.Order, error)
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error)
	MarkCompleted(ctx context.Context, id uint, at time.Time) error
}

// gormOrderRepository implements OrderRepository using GORM.
type gormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM-based OrderRepository.
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &gormOrderRepository{db: db}
}

// Create 在一个事务中写入订单及其明细。
func (r *gormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetByID retrieves an order with its items. Returns gorm.ErrRecordNotFound when missing.
func (r *gormOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// newest first；同一时间创建的订单按 id 倒序。
func (r *gormOrderRepository) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items").Order("created_at DESC").Order("id DESC")
}

// List returns all orders, newest first.
func (r *gormOrderRepository) List(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.base(ctx).Find(&orders).Error
	return orders, err
}

// SearchByOrderNumber 按订单号模糊匹配。
func (r *gormOrderRepository) SearchByOrderNumber(ctx context.Context, query string) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.base(ctx).Where("order_number LIKE ?", "%"+query+"%").Find(&orders).Error
	return orders, err
}

// ListCreatedBetween returns orders created in [from, to).
func (r *gormOrderRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.base(ctx).Where("created_at >= ? AND created_at < ?", from, to).Find(&orders).Error
	return orders, err
}

// MarkCompleted 将订单标记为已完成。订单不存在时返回 gorm.ErrRecordNotFound。
func (r *gormOrderRepository) MarkCompleted(ctx context.Context, id uint, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"pending": false, "completed_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
