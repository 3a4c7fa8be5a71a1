package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/brewtab/cafe-backend/internal/apperr"
	"github.com/brewtab/cafe-backend/internal/events"
	"github.com/brewtab/cafe-backend/internal/mail"
	"github.com/brewtab/cafe-backend/internal/models"
	"github.com/brewtab/cafe-backend/internal/repo"
	pkg_hash "github.com/brewtab/cafe-backend/pkg/hash"
	"github.com/brewtab/cafe-backend/pkg/logging"
	"github.com/brewtab/cafe-backend/pkg/tokens"
)

type AuthService struct {
	Repo          *repo.GormRepo
	Mailer        *mail.Mailer
	Producer      *events.Producer
	JWTSecret     []byte
	RefreshSecret []byte

	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	RememberTTL time.Duration

	MaxLoginAttempts int
	LockoutTime      time.Duration
	BcryptCost       int

	FrontendURL string
	Logger      *slog.Logger
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	Admin        *models.Admin
}

func (s *AuthService) Login(ctx context.Context, email, password string, remember bool) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email = strings.ToLower(strings.TrimSpace(email))
	admin, err := s.Repo.FindAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Authentication("invalid email or password")
		}
		return nil, apperr.Internal(err)
	}

	now := time.Now()
	if admin.Locked(now) {
		l.Warn("login_locked", "adminID", admin.ID, "until", admin.LockUntil)
		return nil, apperr.AccountLocked(*admin.LockUntil)
	}
	if admin.LockUntil != nil {
		// lock window elapsed: lazily reset before counting this attempt
		if err := s.Repo.ClearLoginState(ctx, admin.ID); err != nil {
			return nil, apperr.Internal(err)
		}
		admin.LoginAttempts = 0
		admin.LockUntil = nil
	}

	if !admin.IsActive {
		return nil, apperr.Authentication("invalid email or password")
	}

	if !pkg_hash.CheckPassword(admin.PasswordHash, password) {
		lockUntil, err := s.Repo.RegisterFailedLogin(ctx, admin, s.MaxLoginAttempts, s.LockoutTime)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if lockUntil != nil {
			l.Warn("account_locked", "adminID", admin.ID, "until", lockUntil)
		}
		return nil, apperr.Authentication("invalid email or password")
	}

	if err := s.Repo.TouchLastLogin(ctx, admin.ID, now); err != nil {
		return nil, apperr.Internal(err)
	}
	admin.LoginAttempts = 0
	admin.LockUntil = nil
	admin.LastLogin = &now

	result, err := s.IssueTokens(ctx, admin, remember)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.publish(events.TopicAdminEvents, fmt.Sprint(admin.ID), map[string]interface{}{
		"type":    "admin_logged_in",
		"adminID": admin.ID,
	})

	l.Info("login_success", "adminID", admin.ID)
	return result, nil
}

// IssueTokens signs an access/refresh pair and records the refresh token
// in the allow-list. The refresh TTL stretches when remember is set.
func (s *AuthService) IssueTokens(ctx context.Context, admin *models.Admin, remember bool) (*LoginResult, error) {
	accessExp := time.Now().Add(s.AccessTTL)
	accessToken, err := tokens.SignAccessToken(s.JWTSecret, fmt.Sprint(admin.ID), admin.Role, accessExp)
	if err != nil {
		return nil, err
	}

	refreshTTL := s.RefreshTTL
	if remember {
		refreshTTL = s.RememberTTL
	}
	refreshExp := time.Now().Add(refreshTTL)
	refreshToken, jti, err := tokens.SignRefreshToken(s.RefreshSecret, fmt.Sprint(admin.ID), remember, refreshExp)
	if err != nil {
		return nil, err
	}

	row := &models.RefreshToken{
		Digest:    tokens.Sha256Hex(refreshToken),
		JTI:       jti,
		AdminID:   admin.ID,
		ExpiresAt: refreshExp.Unix(),
		Remember:  remember,
	}
	if err := s.Repo.AddRefreshToken(ctx, row); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		Admin:        admin,
	}, nil
}

// Refresh rotates a refresh token: the old allow-list entry goes out and
// the new one comes in inside one transaction. All failure modes collapse
// into the same error so a caller cannot probe whether a token was
// malformed, expired or revoked.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(rawToken, s.RefreshSecret)
	if err != nil {
		return nil, apperr.InvalidRefreshToken()
	}

	adminID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, apperr.InvalidRefreshToken()
	}

	admin, err := s.Repo.FindAdminByID(ctx, uint(adminID))
	if err != nil || !admin.IsActive {
		return nil, apperr.InvalidRefreshToken()
	}

	refreshTTL := s.RefreshTTL
	if claims.Remember {
		refreshTTL = s.RememberTTL
	}
	refreshExp := time.Now().Add(refreshTTL)
	newRefresh, jti, err := tokens.SignRefreshToken(s.RefreshSecret, claims.Subject, claims.Remember, refreshExp)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	next := &models.RefreshToken{
		Digest:    tokens.Sha256Hex(newRefresh),
		JTI:       jti,
		AdminID:   admin.ID,
		ExpiresAt: refreshExp.Unix(),
		Remember:  claims.Remember,
	}
	if err := s.Repo.RotateRefreshToken(ctx, tokens.Sha256Hex(rawToken), next); err != nil {
		if errors.Is(err, repo.ErrRefreshNotFound) {
			l.Warn("refresh_rejected", "adminID", admin.ID)
			return nil, apperr.InvalidRefreshToken()
		}
		return nil, apperr.Internal(err)
	}

	accessExp := time.Now().Add(s.AccessTTL)
	accessToken, err := tokens.SignAccessToken(s.JWTSecret, claims.Subject, admin.Role, accessExp)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		Admin:        admin,
	}, nil
}

// Logout removes the presented refresh token from the allow-list.
// Idempotent: logging out an already-absent token succeeds.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	if err := s.Repo.DeleteRefreshByDigest(ctx, tokens.Sha256Hex(rawToken)); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// ForgotPassword always reports success so the endpoint cannot be used to
// probe which emails have accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.forgot_password")

	email = strings.ToLower(strings.TrimSpace(email))
	admin, err := s.Repo.FindAdminByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			l.Error("forgot_password_lookup_failed", "error", err)
		}
		return nil
	}

	raw, err := randomTokenHex(24)
	if err != nil {
		return apperr.Internal(err)
	}
	expires := time.Now().Add(1 * time.Hour)
	if err := s.Repo.SetResetToken(ctx, admin.ID, tokens.Sha256Hex(raw), expires); err != nil {
		return apperr.Internal(err)
	}

	link := strings.TrimRight(s.FrontendURL, "/") + "/admin/reset-password?token=" + raw
	go func() {
		if err := s.Mailer.SendPasswordReset(admin.Email, link); err != nil {
			s.logger().Error("notification_dispatch_failed", "error", err)
		}
	}()
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if len(newPassword) < 8 {
		return apperr.Validation("password must be at least 8 characters")
	}

	admin, err := s.Repo.FindAdminByResetDigest(ctx, tokens.Sha256Hex(rawToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Validation("invalid or expired reset token")
		}
		return apperr.Internal(err)
	}
	if admin.ResetTokenExpires == nil || admin.ResetTokenExpires.Before(time.Now()) {
		return apperr.Validation("invalid or expired reset token")
	}

	pwHash, err := pkg_hash.HashPassword(newPassword, s.BcryptCost)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.Repo.UpdatePassword(ctx, admin.ID, pwHash); err != nil {
		return apperr.Internal(err)
	}
	// existing sessions die with their refresh tokens
	if err := s.Repo.DeleteRefreshByAdmin(ctx, admin.ID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func randomTokenHex(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *AuthService) publish(topic, key string, event map[string]interface{}) {
	if s.Producer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Producer.PublishEvent(ctx, topic, key, event); err != nil {
			s.logger().Error("kafka_publish_failed", "topic", topic, "error", err)
		}
	}()
}

func (s *AuthService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
