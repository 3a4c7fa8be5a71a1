package auth

import (
	"errors"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/brewtab/cafe-backend/internal/apperr"
	"github.com/brewtab/cafe-backend/internal/repo"
	"github.com/brewtab/cafe-backend/pkg/tokens"
)

// RequireAuth validates the bearer token and loads the principal. A
// principal that no longer exists or was deactivated is reported exactly
// like a bad token, so the endpoint leaks nothing about account state.
func RequireAuth(r *repo.GormRepo, jwtSecret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return apperr.NoToken()
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				return apperr.NoToken()
			}

			claims, err := tokens.AccessClaimsFromToken(parts[1], jwtSecret)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return apperr.TokenExpired()
				}
				return apperr.TokenInvalid()
			}

			id, err := strconv.ParseUint(claims.Subject, 10, 64)
			if err != nil {
				return apperr.TokenInvalid()
			}

			admin, err := r.FindAdminByID(c.Request().Context(), uint(id))
			if err != nil || !admin.IsActive {
				return apperr.TokenInvalid()
			}

			setAdminContext(c, admin)
			return next(c)
		}
	}
}
