package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/brewtab/cafe-backend/internal/mail"
	"github.com/brewtab/cafe-backend/internal/models"
	"github.com/brewtab/cafe-backend/internal/repo"
)

var licenseKeyRe = regexp.MustCompile(`^CAFE(-[0-9A-F]{4}){4}$`)

func newBootstrapService(t *testing.T) *BootstrapService {
	t.Helper()
	auth := newAuthService(t)
	return &BootstrapService{
		Repo:       auth.Repo,
		Auth:       auth,
		Mailer:     &mail.Mailer{},
		BcryptCost: bcrypt.MinCost,
	}
}

func TestProvisioningFlow(t *testing.T) {
	svc := newBootstrapService(t)
	ctx := context.Background()

	key, err := svc.RequestLicense(ctx, "Owner@Brewtab.Test")
	require.NoError(t, err)
	require.Regexp(t, licenseKeyRe, key)

	require.NoError(t, svc.ValidateLicense(ctx, key))

	admin, session, err := svc.CreateAccount(ctx, CreateAccountInput{
		LicenseKey: key,
		FirstName:  "Jamie",
		LastName:   "Barista",
		Email:      "owner@brewtab.test",
		Password:   "correct horse",
	})
	require.NoError(t, err)
	require.NotNil(t, admin)
	require.NotNil(t, session)

	assert.Equal(t, models.RoleSuperAdmin, admin.Role)
	assert.True(t, admin.IsActive)
	assert.True(t, admin.IsVerified)
	assert.Equal(t, "owner@brewtab.test", admin.Email)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)

	// and the account can actually log in
	_, err = svc.Auth.Login(ctx, admin.Email, "correct horse", false)
	require.NoError(t, err)
}

func TestProvisioningClosedOnceAdminExists(t *testing.T) {
	svc := newBootstrapService(t)
	ctx := context.Background()

	key, err := svc.RequestLicense(ctx, "owner@brewtab.test")
	require.NoError(t, err)

	_, _, err = svc.CreateAccount(ctx, CreateAccountInput{
		LicenseKey: key,
		FirstName:  "Jamie",
		LastName:   "Barista",
		Email:      "owner@brewtab.test",
		Password:   "correct horse",
	})
	require.NoError(t, err)

	// every door is shut now
	_, err = svc.RequestLicense(ctx, "second@brewtab.test")
	requireCode(t, err, "ADMIN_EXISTS", 409)

	err = svc.ValidateLicense(ctx, key)
	requireCode(t, err, "ADMIN_EXISTS", 409)

	_, _, err = svc.CreateAccount(ctx, CreateAccountInput{
		LicenseKey: "CAFE-AAAA-BBBB-CCCC-DDDD",
		FirstName:  "Second",
		LastName:   "Admin",
		Email:      "second@brewtab.test",
		Password:   "another password",
	})
	requireCode(t, err, "ADMIN_EXISTS", 409)
}

func TestRequestLicenseRequiresEmail(t *testing.T) {
	svc := newBootstrapService(t)

	for _, email := range []string{"", "   ", "not-an-email"} {
		_, err := svc.RequestLicense(context.Background(), email)
		requireCode(t, err, "VALIDATION_ERROR", 400)
	}
}

func TestValidateLicenseRejectsMalformed(t *testing.T) {
	svc := newBootstrapService(t)

	for _, key := range []string{"", "garbage", "CAFE-123", "cafe-1234-abcd-ef01-2345"} {
		err := svc.ValidateLicense(context.Background(), key)
		requireCode(t, err, "INVALID_LICENSE", 400)
	}
}

func TestCreateAccountFieldValidation(t *testing.T) {
	svc := newBootstrapService(t)

	_, _, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		LicenseKey: "CAFE-1234-ABCD-EF01-2345",
		Email:      "bad",
		Password:   "short",
	})
	ae := requireCode(t, err, "VALIDATION_ERROR", 400)
	assert.Contains(t, ae.Detail, "email")
	assert.Contains(t, ae.Detail, "firstName")
	assert.Contains(t, ae.Detail, "lastName")
	assert.Contains(t, ae.Detail, "password")
}

func TestCreateAccountRejectsBadLicense(t *testing.T) {
	svc := newBootstrapService(t)

	_, _, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		LicenseKey: "not-a-license",
		FirstName:  "Jamie",
		LastName:   "Barista",
		Email:      "owner@brewtab.test",
		Password:   "correct horse",
	})
	requireCode(t, err, "INVALID_LICENSE", 400)
}

func TestCreateFirstAdminLosesRaceAtDatabase(t *testing.T) {
	r := &repo.GormRepo{DB: newTestDB(t)}
	ctx := context.Background()

	first := &models.Admin{
		Email:        "owner@brewtab.test",
		PasswordHash: "x",
		FirstName:    "A",
		LastName:     "B",
		LicenseKey:   "CAFE-1111-2222-3333-4444",
		Role:         models.RoleSuperAdmin,
		IsActive:     true,
	}
	require.NoError(t, r.CreateFirstAdmin(ctx, first))

	// different email and key: only the sentinel column collides
	second := &models.Admin{
		Email:        "other@brewtab.test",
		PasswordHash: "y",
		FirstName:    "C",
		LastName:     "D",
		LicenseKey:   "CAFE-5555-6666-7777-8888",
		Role:         models.RoleSuperAdmin,
		IsActive:     true,
	}
	err := r.CreateFirstAdmin(ctx, second)
	require.ErrorIs(t, err, repo.ErrAdminExists)
}
