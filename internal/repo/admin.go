package repo

import (
	"context"
	"time"

	"github.com/brewtab/cafe-backend/internal/models"
)

func (r *GormRepo) AdminExists(ctx context.Context) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Admin{}).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateFirstAdmin inserts the singleton admin row. The sentinel unique
// index is the real guard: when two requests race past AdminExists, the
// second INSERT fails here and surfaces ErrAdminExists.
func (r *GormRepo) CreateFirstAdmin(ctx context.Context, admin *models.Admin) error {
	if admin.Sentinel == "" {
		admin.Sentinel = "admin"
	}
	if err := r.DB.WithContext(ctx).Create(admin).Error; err != nil {
		if IsDuplicate(err) {
			return ErrAdminExists
		}
		return err
	}
	return nil
}

func (r *GormRepo) FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *GormRepo) FindAdminByID(ctx context.Context, id uint) (*models.Admin, error) {
	var admin models.Admin
	if err := r.DB.WithContext(ctx).First(&admin, id).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// RegisterFailedLogin bumps the attempt counter and arms the lock once the
// threshold is reached. Best-effort by design: concurrent failures may
// race on the counter, eventual lockout is what matters.
func (r *GormRepo) RegisterFailedLogin(ctx context.Context, admin *models.Admin, maxAttempts int, lockout time.Duration) (*time.Time, error) {
	attempts := admin.LoginAttempts + 1
	updates := map[string]any{"login_attempts": attempts}

	var lockUntil *time.Time
	if attempts >= maxAttempts {
		t := time.Now().Add(lockout)
		lockUntil = &t
		updates["lock_until"] = t
	}

	err := r.DB.WithContext(ctx).Model(&models.Admin{}).
		Where("id = ?", admin.ID).
		Updates(updates).Error
	if err != nil {
		return nil, err
	}
	return lockUntil, nil
}

// ClearLoginState lazily resets the counter and lock, either after a lock
// window elapsed or after a successful login.
func (r *GormRepo) ClearLoginState(ctx context.Context, adminID uint) error {
	return r.DB.WithContext(ctx).Model(&models.Admin{}).
		Where("id = ?", adminID).
		Updates(map[string]any{"login_attempts": 0, "lock_until": nil}).Error
}

func (r *GormRepo) TouchLastLogin(ctx context.Context, adminID uint, now time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.Admin{}).
		Where("id = ?", adminID).
		Updates(map[string]any{"login_attempts": 0, "lock_until": nil, "last_login": now}).Error
}

func (r *GormRepo) SetResetToken(ctx context.Context, adminID uint, digest string, expires time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.Admin{}).
		Where("id = ?", adminID).
		Updates(map[string]any{"reset_token_hash": digest, "reset_token_expires": expires}).Error
}

func (r *GormRepo) FindAdminByResetDigest(ctx context.Context, digest string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.DB.WithContext(ctx).Where("reset_token_hash = ?", digest).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// UpdatePassword swaps the hash and clears the reset token in one write,
// making the reset token single-use.
func (r *GormRepo) UpdatePassword(ctx context.Context, adminID uint, passwordHash string) error {
	return r.DB.WithContext(ctx).Model(&models.Admin{}).
		Where("id = ?", adminID).
		Updates(map[string]any{
			"password_hash":       passwordHash,
			"reset_token_hash":    "",
			"reset_token_expires": nil,
		}).Error
}
