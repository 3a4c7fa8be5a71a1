package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/brewtab/cafe-backend/internal/apperr"
	"github.com/brewtab/cafe-backend/internal/config"
	mwauth "github.com/brewtab/cafe-backend/internal/middleware/auth"
	"github.com/brewtab/cafe-backend/internal/service"
)

const refreshCookieName = "refreshToken"

type AdminHandler struct {
	Bootstrap *service.BootstrapService
	Auth      *service.AuthService
	Orders    *service.OrderService
	Cfg       *config.Config
}

func (h *AdminHandler) refreshCookie(value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/api/v1/admin",
		Expires:  exp,
		MaxAge:   int(time.Until(exp).Seconds()),
		HttpOnly: true,
		Secure:   h.Cfg.APP_ENV == "production",
		SameSite: http.SameSiteStrictMode,
	}
}

func (h *AdminHandler) clearRefreshCookie() *http.Cookie {
	c := h.refreshCookie("", time.Now().Add(-1*time.Hour))
	c.MaxAge = -1
	return c
}

func (h *AdminHandler) RequestLicense(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}

	if _, err := h.Bootstrap.RequestLicense(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "license key sent",
		"email":   req.Email,
	})
}

func (h *AdminHandler) ValidateLicense(c echo.Context) error {
	var req struct {
		LicenseKey string `json:"licenseKey"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}

	if err := h.Bootstrap.ValidateLicense(c.Request().Context(), req.LicenseKey); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"validated": true})
}

func (h *AdminHandler) CreateAccount(c echo.Context) error {
	var req struct {
		LicenseKey string `json:"licenseKey"`
		FirstName  string `json:"firstName"`
		LastName   string `json:"lastName"`
		Email      string `json:"email"`
		Password   string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}

	admin, result, err := h.Bootstrap.CreateAccount(c.Request().Context(), service.CreateAccountInput{
		LicenseKey: req.LicenseKey,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Password:   req.Password,
	})
	if err != nil {
		return err
	}

	c.SetCookie(h.refreshCookie(result.RefreshToken, result.RefreshExp))
	return c.JSON(http.StatusCreated, echo.Map{
		"token": result.AccessToken,
		"admin": admin,
	})
}

func (h *AdminHandler) Login(c echo.Context) error {
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}

	result, err := h.Auth.Login(c.Request().Context(), req.Email, req.Password, req.RememberMe)
	if err != nil {
		return err
	}

	c.SetCookie(h.refreshCookie(result.RefreshToken, result.RefreshExp))
	return c.JSON(http.StatusOK, echo.Map{
		"token": result.AccessToken,
		"admin": result.Admin,
	})
}

func (h *AdminHandler) Refresh(c echo.Context) error {
	raw := ""
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		raw = cookie.Value
	}
	if raw == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := c.Bind(&req); err == nil {
			raw = req.RefreshToken
		}
	}
	if raw == "" {
		return apperr.InvalidRefreshToken()
	}

	result, err := h.Auth.Refresh(c.Request().Context(), raw)
	if err != nil {
		return err
	}

	c.SetCookie(h.refreshCookie(result.RefreshToken, result.RefreshExp))
	return c.JSON(http.StatusOK, echo.Map{"token": result.AccessToken})
}

func (h *AdminHandler) Verify(c echo.Context) error {
	admin := mwauth.AdminFromContext(c)
	if admin == nil {
		return apperr.TokenInvalid()
	}
	return c.JSON(http.StatusOK, echo.Map{"admin": admin})
}

func (h *AdminHandler) Logout(c echo.Context) error {
	raw := ""
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		raw = cookie.Value
	}
	if err := h.Auth.Logout(c.Request().Context(), raw); err != nil {
		return err
	}

	c.SetCookie(h.clearRefreshCookie())
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AdminHandler) ForgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}

	if err := h.Auth.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "if this email exists, a reset link was sent"})
}

func (h *AdminHandler) ResetPassword(c echo.Context) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}

	if err := h.Auth.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	stats, err := h.Orders.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
