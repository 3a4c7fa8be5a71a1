package repo

import (
	"context"
	"time"

	"github.com/brewtab/cafe-backend/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, status string, limit, offset int) ([]models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Preload("Items")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uint, status string) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *GormRepo) CountOrdersSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

// RevenueSince sums order totals excluding cancelled orders.
func (r *GormRepo) RevenueSince(ctx context.Context, since time.Time) (int64, error) {
	var revenue *int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("SUM(total)").
		Where("created_at >= ? AND status <> ?", since, models.OrderStatusCancelled).
		Scan(&revenue).Error
	if err != nil || revenue == nil {
		return 0, err
	}
	return *revenue, nil
}

func (r *GormRepo) CountOrdersByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *GormRepo) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).Model(&models.Order{}).Preload("Items").
		Order("created_at DESC").Limit(limit).Find(&orders).Error
	return orders, err
}
