package repo

import (
	"context"

	"github.com/brewtab/cafe-backend/internal/models"
)

func (r *GormRepo) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	return r.DB.WithContext(ctx).Create(item).Error
}

func (r *GormRepo) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.DB.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) ListMenu(ctx context.Context, category string, availableOnly bool) ([]models.MenuItem, error) {
	q := r.DB.WithContext(ctx).Model(&models.MenuItem{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if availableOnly {
		q = q.Where("available = ?", true)
	}

	var items []models.MenuItem
	if err := q.Order("category, name").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) SaveMenuItem(ctx context.Context, item *models.MenuItem) error {
	return r.DB.WithContext(ctx).Save(item).Error
}

func (r *GormRepo) DeleteMenuItem(ctx context.Context, id uint) (int64, error) {
	res := r.DB.WithContext(ctx).Delete(&models.MenuItem{}, id)
	return res.RowsAffected, res.Error
}

func (r *GormRepo) FindMenuItemsByIDs(ctx context.Context, ids []uint) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
