package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewtab/cafe-backend/internal/apperr"
	"github.com/brewtab/cafe-backend/internal/models"
	"github.com/brewtab/cafe-backend/pkg/tokens"
)

func requireCode(t *testing.T, err error, code string, status int) *apperr.Error {
	t.Helper()
	require.Error(t, err)
	ae, ok := apperr.From(err)
	require.True(t, ok, "expected apperr, got %T: %v", err, err)
	assert.Equal(t, code, ae.Code)
	assert.Equal(t, status, ae.Status)
	return ae
}

func TestLoginSuccess(t *testing.T) {
	svc := newAuthService(t)
	seedAdmin(t, svc.Repo, "owner@brewtab.test", "correct horse")

	res, err := svc.Login(context.Background(), "Owner@Brewtab.Test", "correct horse", false)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.True(t, res.AccessExp.After(time.Now()))
	assert.True(t, res.RefreshExp.After(res.AccessExp))

	ok, err := svc.Repo.RefreshInAllowList(context.Background(), tokens.Sha256Hex(res.RefreshToken))
	require.NoError(t, err)
	assert.True(t, ok, "refresh token must be in the allow-list")

	claims, err := tokens.AccessClaimsFromToken(res.AccessToken, svc.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newAuthService(t)
	admin := seedAdmin(t, svc.Repo, "owner@brewtab.test", "correct horse")

	_, err := svc.Login(context.Background(), admin.Email, "wrong", false)
	requireCode(t, err, "INVALID_CREDENTIALS", 401)

	assert.Equal(t, 1, reloadAdmin(t, svc.Repo, admin.ID).LoginAttempts)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newAuthService(t)

	// same answer as a wrong password, existence must not leak
	_, err := svc.Login(context.Background(), "nobody@brewtab.test", "whatever", false)
	requireCode(t, err, "INVALID_CREDENTIALS", 401)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc := newAuthService(t)
	admin := seedAdmin(t, svc.Repo, "owner@brewtab.test", "correct horse")
	require.NoError(t, svc.Repo.DB.Model(&models.Admin{}).Where("id = ?", admin.ID).
		Update("is_active", false).Error)

	_, err := svc.Login(context.Background(), admin.Email, "correct horse", false)
	requireCode(t, err, "INVALID_CREDENTIALS", 401)
}

func TestLoginLockoutAfterMaxAttempts(t *testing.T) {
	svc := newAuthService(t)
	admin := seedAdmin(t, svc.Repo, "owner@brewtab.test", "correct horse")

	for i := 0; i < svc.MaxLoginAttempts; i++ {
		_, err := svc.Login(context.Background(), admin.Email, "wrong", false)
		requireCode(t, err, "INVALID_CREDENTIALS", 401)
	}

	// lock armed: even the correct password is rejected now
	_, err := svc.Login(context.Background(), admin.Email, "correct horse", false)
	ae := requireCode(t, err, "ACCOUNT_LOCKED", 423)
	assert.Contains(t, ae.Detail, "lockoutUntil")

	locked := reloadAdmin(t, svc.Repo, admin.ID)
	require.NotNil(t, locked.LockUntil)
	assert.True(t, locked.LockUntil.After(time.Now()))
}

func TestLoginLockExpiresLazily(t *testing.T) {
	svc := newAuthService(t)
	admin := seedAdmin(t, svc.Repo, "owner@brewtab.test", "correct horse")

	past := time.Now().Add(-time.Minute)
	require.NoError(t, svc.Repo.DB.Model(&models.Admin{}).Where("id = ?", admin.ID).
		Updates(map[string]any{"login_attempts": svc.MaxLoginAttempts, "lock_until": past}).Error)

	res, err := svc.Login(context.Background(), admin.Email, "correct horse", false)
	require.NoError(t, err)
	require.NotNil(t, res)

	fresh := reloadAdmin(t, svc.Repo, admin.ID)
	assert.Equal(t, 0, fresh.LoginAttempts)
	assert.Nil(t, fresh.LockUntil)
	require.NotNil(t, fresh.LastLogin)
}

func TestFailedLoginAfterExpiredLockStartsOver(t *testing.T) {
	svc := newAuthService(t)
	admin := seedAdmin(t, svc.Repo, "owner@brewtab.test", "correct horse")

	past := time.Now().Add(-time.Minute)
	require.NoError(t, svc.Repo.DB.Model(&models.Admin{}).Where("id = ?", admin.ID).
		Updates(map[string]any{"login_attempts": svc.MaxLoginAttempts, "lock_until": past}).Error)

	_, err := svc.Login(context.Background(), admin.Email, "wrong", false)
	requireCode(t, err, "INVALID_CREDENTIALS", 401)

	fresh := reloadAdmin(t, svc.Repo, admin.ID)
	assert.Equal(t, 1, fresh.LoginAttempts, "counter restarts after the lock window elapsed")
	assert.Nil(t, fresh.LockUntil)
}

func TestRefreshRotation(t *testing.T) {
	svc := newAuthService(t)
	admin := seedAdmin(t, svc.Repo, "owner@brewtab.test", "correct horse")

	first, err := svc.Login(context.Background(), admin.Email, "correct horse", false)
	require.NoError(t, err)

	second, err := svc.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.NotEmpty(t, second.AccessToken)

	// the consumed token is out of the allow-list
	_, err = svc.Refresh(context.Background(), first.RefreshToken)
	requireCode(t, err, "INVALID_REFRESH_TOKEN", 401)

	// the replacement keeps working
	third, err := svc.Refresh(context.Background(), second.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, third.RefreshToken)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc := newAuthService(t)
	seedAdmin(t, svc.Repo, "owner@brewtab.test", "correct horse")

	for _, raw := range []string{"", "not-a-jwt", "aaa.bbb.ccc"} {
		_, err := svc.Refresh(context.Background(), raw)
		requireCode(t, err, "INVALID_REFRESH_TOKEN", 401)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc := newAuthService(t)
	admin := seedAdmin(t, svc.Repo, "owner@brewtab.test", "correct horse")

	res, err := svc.Login(context.Background(), admin.Email, "correct horse", false)
	require.NoError(t, err)

	// signed with the other secret, must not pass as a refresh token
	_, err = svc.Refresh(context.Background(), res.AccessToken)
	requireCode(t, err, "INVALID_REFRESH_TOKEN", 401)
}

func TestLogoutIdempotent(t *testing.T) {
	svc := newAuthService(t)
	admin := seedAdmin(t, svc.Repo, "owner@brewtab.test", "correct horse")

	res, err := svc.Login(context.Background(), admin.Email, "correct horse", false)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), res.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), res.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), ""))

	_, err = svc.Refresh(context.Background(), res.RefreshToken)
	requireCode(t, err, "INVALID_REFRESH_TOKEN", 401)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc := newAuthService(t)

	// must not reveal whether the account exists
	require.NoError(t, svc.ForgotPassword(context.Background(), "nobody@brewtab.test"))
}

func TestResetPasswordFlow(t *testing.T) {
	svc := newAuthService(t)
	admin := seedAdmin(t, svc.Repo, "owner@brewtab.test", "correct horse")

	session, err := svc.Login(context.Background(), admin.Email, "correct horse", false)
	require.NoError(t, err)

	raw := "a-reset-token-from-the-email-link"
	require.NoError(t, svc.Repo.SetResetToken(context.Background(), admin.ID,
		tokens.Sha256Hex(raw), time.Now().Add(time.Hour)))

	require.NoError(t, svc.ResetPassword(context.Background(), raw, "brand new password"))

	// old password dead, new one works
	_, err = svc.Login(context.Background(), admin.Email, "correct horse", false)
	requireCode(t, err, "INVALID_CREDENTIALS", 401)
	_, err = svc.Login(context.Background(), admin.Email, "brand new password", false)
	require.NoError(t, err)

	// existing sessions were revoked
	_, err = svc.Refresh(context.Background(), session.RefreshToken)
	requireCode(t, err, "INVALID_REFRESH_TOKEN", 401)

	// the reset token is single-use
	err = svc.ResetPassword(context.Background(), raw, "yet another password")
	requireCode(t, err, "VALIDATION_ERROR", 400)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	svc := newAuthService(t)
	admin := seedAdmin(t, svc.Repo, "owner@brewtab.test", "correct horse")

	raw := "stale-token"
	require.NoError(t, svc.Repo.SetResetToken(context.Background(), admin.ID,
		tokens.Sha256Hex(raw), time.Now().Add(-time.Minute)))

	err := svc.ResetPassword(context.Background(), raw, "brand new password")
	requireCode(t, err, "VALIDATION_ERROR", 400)
}

func TestResetPasswordTooShort(t *testing.T) {
	svc := newAuthService(t)

	err := svc.ResetPassword(context.Background(), "whatever", "short")
	requireCode(t, err, "VALIDATION_ERROR", 400)
}
