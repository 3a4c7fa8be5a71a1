package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/brewtab/cafe-backend/internal/apperr"
	"github.com/brewtab/cafe-backend/internal/handlers"
	mwauth "github.com/brewtab/cafe-backend/internal/middleware/auth"
	"github.com/brewtab/cafe-backend/internal/repo"
	"github.com/brewtab/cafe-backend/pkg/logging"
)

type Deps struct {
	DB           *gorm.DB
	Repo         *repo.GormRepo
	JWTSecret    []byte
	AdminHandler *handlers.AdminHandler
	OrderHandler *handlers.OrderHandler
	MenuHandler  *handlers.MenuHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error {
		if sqlDB, err := d.DB.DB(); err != nil || sqlDB.Ping() != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(200)
	})

	v1 := e.Group("/api/v1")

	admin := v1.Group("/admin")
	admin.POST("/request-license", d.AdminHandler.RequestLicense)
	admin.POST("/validate-license", d.AdminHandler.ValidateLicense)
	admin.POST("/create-account", d.AdminHandler.CreateAccount)
	admin.POST("/login", d.AdminHandler.Login)
	admin.POST("/refresh", d.AdminHandler.Refresh)
	admin.POST("/forgot-password", d.AdminHandler.ForgotPassword)
	admin.POST("/reset-password", d.AdminHandler.ResetPassword)

	requireAuth := mwauth.RequireAuth(d.Repo, d.JWTSecret)

	protected := admin.Group("", requireAuth)
	protected.POST("/verify", d.AdminHandler.Verify)
	protected.POST("/logout", d.AdminHandler.Logout)

	gated := admin.Group("", requireAuth, mwauth.AdminOnly)
	gated.GET("/dashboard", d.AdminHandler.Dashboard)
	gated.POST("/menu", d.MenuHandler.Create)
	gated.PUT("/menu/:id", d.MenuHandler.Update)
	gated.DELETE("/menu/:id", d.MenuHandler.Delete)

	menu := v1.Group("/menu")
	menu.GET("", d.MenuHandler.List)
	menu.GET("/search", d.MenuHandler.Search)
	menu.GET("/:id", d.MenuHandler.Get)

	orders := v1.Group("/orders")
	orders.POST("", d.OrderHandler.Create)
	orders.GET("", d.OrderHandler.List, requireAuth, mwauth.AdminOnly)
	orders.GET("/:id", d.OrderHandler.Get)
	orders.PUT("/:id/status", d.OrderHandler.UpdateStatus, requireAuth, mwauth.AdminOnly)
}

// ErrorHandler maps domain errors to their contractual status and machine
// code. Anything unrecognized is logged in full and reported as a bare 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	if ae, ok := apperr.From(err); ok {
		body := echo.Map{"code": ae.Code, "message": ae.Message}
		for k, v := range ae.Detail {
			body[k] = v
		}
		_ = c.JSON(ae.Status, echo.Map{"error": body})
		return
	}

	if he, ok := err.(*echo.HTTPError); ok {
		_ = c.JSON(he.Code, echo.Map{"error": echo.Map{"code": "HTTP_ERROR", "message": he.Message}})
		return
	}

	logging.FromContext(c.Request().Context()).Error("unhandled_error", "error", err)
	_ = c.JSON(http.StatusInternalServerError, echo.Map{
		"error": echo.Map{"code": "INTERNAL_ERROR", "message": "internal server error"},
	})
}
