package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/brewtab/cafe-backend/internal/models"
)

const contextKeyAdmin = "admin"

func setAdminContext(c echo.Context, admin *models.Admin) {
	c.Set(contextKeyAdmin, admin)
	c.Set("adminID", admin.ID)
	c.Set("role", admin.Role)
}

func AdminFromContext(c echo.Context) *models.Admin {
	if v, ok := c.Get(contextKeyAdmin).(*models.Admin); ok {
		return v
	}
	return nil
}
