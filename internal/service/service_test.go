package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/brewtab/cafe-backend/internal/mail"
	"github.com/brewtab/cafe-backend/internal/models"
	"github.com/brewtab/cafe-backend/internal/repo"
	pkg_hash "github.com/brewtab/cafe-backend/pkg/hash"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Admin{},
		&models.RefreshToken{},
		&models.Order{},
		&models.OrderItem{},
		&models.MenuItem{},
	))
	return db
}

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return &AuthService{
		Repo:             &repo.GormRepo{DB: newTestDB(t)},
		Mailer:           &mail.Mailer{},
		JWTSecret:        []byte("test-access-secret"),
		RefreshSecret:    []byte("test-refresh-secret"),
		AccessTTL:        15 * time.Minute,
		RefreshTTL:       7 * 24 * time.Hour,
		RememberTTL:      30 * 24 * time.Hour,
		MaxLoginAttempts: 3,
		LockoutTime:      30 * time.Minute,
		BcryptCost:       bcrypt.MinCost,
		FrontendURL:      "http://localhost:3000",
	}
}

func seedAdmin(t *testing.T, r *repo.GormRepo, email, password string) *models.Admin {
	t.Helper()
	pwHash, err := pkg_hash.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)

	admin := &models.Admin{
		Email:        email,
		PasswordHash: pwHash,
		FirstName:    "Jamie",
		LastName:     "Barista",
		LicenseKey:   "CAFE-1234-ABCD-EF01-2345",
		Role:         models.RoleSuperAdmin,
		IsActive:     true,
		IsVerified:   true,
	}
	require.NoError(t, r.CreateFirstAdmin(context.Background(), admin))
	return admin
}

func reloadAdmin(t *testing.T, r *repo.GormRepo, id uint) *models.Admin {
	t.Helper()
	admin, err := r.FindAdminByID(context.Background(), id)
	require.NoError(t, err)
	return admin
}
