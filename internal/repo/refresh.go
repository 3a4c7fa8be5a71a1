package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/brewtab/cafe-backend/internal/models"
)

func (r *GormRepo) AddRefreshToken(ctx context.Context, row *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(row).Error
}

// RotateRefreshToken removes the old allow-list entry and inserts the new
// one in a single transaction. Exactly one of several concurrent callers
// deletes the old row; the rest see ErrRefreshNotFound.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldDigest string, next *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("digest = ? AND expires_at > ?", oldDigest, time.Now().Unix()).
			Delete(&models.RefreshToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRefreshNotFound
		}
		return tx.Create(next).Error
	})
}

// DeleteRefreshByDigest is idempotent; deleting an absent token is fine.
func (r *GormRepo) DeleteRefreshByDigest(ctx context.Context, digest string) error {
	return r.DB.WithContext(ctx).Where("digest = ?", digest).Delete(&models.RefreshToken{}).Error
}

func (r *GormRepo) DeleteRefreshByAdmin(ctx context.Context, adminID uint) error {
	return r.DB.WithContext(ctx).Where("admin_id = ?", adminID).Delete(&models.RefreshToken{}).Error
}

func (r *GormRepo) RefreshInAllowList(ctx context.Context, digest string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("digest = ? AND expires_at > ?", digest, time.Now().Unix()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
