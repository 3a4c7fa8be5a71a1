package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brewtab/cafe-backend/internal/apperr"
	"github.com/brewtab/cafe-backend/internal/events"
	"github.com/brewtab/cafe-backend/internal/license"
	"github.com/brewtab/cafe-backend/internal/mail"
	"github.com/brewtab/cafe-backend/internal/models"
	"github.com/brewtab/cafe-backend/internal/repo"
	pkg_hash "github.com/brewtab/cafe-backend/pkg/hash"
	"github.com/brewtab/cafe-backend/pkg/logging"
)

// BootstrapService drives the one-time admin provisioning flow:
// request a license key, validate it, create the single admin account.
// Every step re-checks that no admin exists yet; the database sentinel
// index is the final arbiter.
type BootstrapService struct {
	Repo       *repo.GormRepo
	Auth       *AuthService
	Mailer     *mail.Mailer
	Producer   *events.Producer
	BcryptCost int
	Logger     *slog.Logger
}

type CreateAccountInput struct {
	LicenseKey string
	FirstName  string
	LastName   string
	Email      string
	Password   string
}

func (s *BootstrapService) RequestLicense(ctx context.Context, email string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "bootstrap.request_license")

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", apperr.Validation("a valid email is required")
	}

	exists, err := s.Repo.AdminExists(ctx)
	if err != nil {
		return "", apperr.Internal(err)
	}
	if exists {
		// fail before generating anything: no key may leave the system
		// once an admin account is in place
		return "", apperr.AdminExists()
	}

	key, err := license.Generate(license.KindGrouped)
	if err != nil {
		return "", apperr.Internal(err)
	}

	s.dispatch(func() error { return s.Mailer.SendLicenseKey(email, key) })
	s.publish(events.TopicAdminEvents, email, map[string]interface{}{
		"type":  "admin_license_requested",
		"email": email,
	})

	l.Info("license_key_dispatched", "email", email)
	return key, nil
}

func (s *BootstrapService) ValidateLicense(ctx context.Context, key string) error {
	res := license.Validate(key)
	if !res.Valid {
		return apperr.InvalidLicense(res.Reason)
	}

	// the key may have been issued before another admin got created in
	// the meantime; re-check so a stale key cannot pass
	exists, err := s.Repo.AdminExists(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	if exists {
		return apperr.AdminExists()
	}
	return nil
}

func (s *BootstrapService) CreateAccount(ctx context.Context, in CreateAccountInput) (*models.Admin, *LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "bootstrap.create_account")

	if err := validateAccountInput(&in); err != nil {
		return nil, nil, err
	}

	res := license.Validate(in.LicenseKey)
	if !res.Valid {
		return nil, nil, apperr.InvalidLicense(res.Reason)
	}

	exists, err := s.Repo.AdminExists(ctx)
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}
	if exists {
		return nil, nil, apperr.AdminExists()
	}

	pwHash, err := pkg_hash.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}

	admin := &models.Admin{
		Email:        in.Email,
		PasswordHash: pwHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		LicenseKey:   in.LicenseKey,
		Role:         models.RoleSuperAdmin,
		IsActive:     true,
		IsVerified:   true,
		CreatedBy:    "license-bootstrap",
	}

	if err := s.Repo.CreateFirstAdmin(ctx, admin); err != nil {
		if errors.Is(err, repo.ErrAdminExists) {
			l.Warn("create_account_conflict", "email", in.Email)
			return nil, nil, apperr.AdminExists()
		}
		return nil, nil, apperr.Internal(err)
	}

	tokens, err := s.Auth.IssueTokens(ctx, admin, false)
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}

	s.dispatch(func() error { return s.Mailer.SendAdminWelcome(admin.Email, admin.FirstName) })
	s.publish(events.TopicAdminEvents, fmt.Sprint(admin.ID), map[string]interface{}{
		"type":    "admin_created",
		"adminID": admin.ID,
		"email":   admin.Email,
	})

	l.Info("admin_created", "adminID", admin.ID)
	return admin, tokens, nil
}

func validateAccountInput(in *CreateAccountInput) error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	fields := map[string]any{}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		fields["email"] = "a valid email is required"
	}
	if in.FirstName == "" {
		fields["firstName"] = "first name is required"
	}
	if in.LastName == "" {
		fields["lastName"] = "last name is required"
	}
	if len(in.Password) < 8 {
		fields["password"] = "password must be at least 8 characters"
	}
	if len(fields) > 0 {
		return apperr.ValidationFields("invalid account details", fields)
	}
	return nil
}

// dispatch runs a notification send off the request path. A failed send is
// logged and swallowed; it never fails the parent operation.
func (s *BootstrapService) dispatch(send func() error) {
	go func() {
		if err := send(); err != nil {
			s.logger().Error("notification_dispatch_failed", "error", err)
		}
	}()
}

func (s *BootstrapService) publish(topic, key string, event map[string]interface{}) {
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

func (s *BootstrapService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
