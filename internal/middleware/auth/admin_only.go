package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/brewtab/cafe-backend/internal/apperr"
	"github.com/brewtab/cafe-backend/internal/models"
)

// AdminOnly gates a route to admin roles. Runs after RequireAuth.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		admin := AdminFromContext(c)
		if admin == nil {
			return apperr.TokenInvalid()
		}
		if admin.Role != models.RoleAdmin && admin.Role != models.RoleSuperAdmin {
			return apperr.Forbidden()
		}
		return next(c)
	}
}
