package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pokemon-roulette/internal/model"
	"github.com/iliyamo/pokemon-roulette/internal/repository"
)

// RequireRole aborts with 403 unless the role stored by JWTAuth is one of
// roles.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[Role(c)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RoleLookup returns the role currently stored for a user, or
// repository.ErrNotFound when the user is gone.
type RoleLookup func(ctx context.Context, userID string) (model.Role, error)

// StoredRole replaces the role claim set by JWTAuth with the role held in
// the database, so role changes and user deletion apply before the
// access token expires.  It must run after JWTAuth and before
// RequireRole.
func StoredRole(lookup RoleLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, ok := UserID(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			role, err := lookup(c.Request().Context(), uid)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
			case err != nil:
				slog.ErrorContext(c.Request().Context(), "role lookup failed", "user_id", uid, "err", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "role lookup failed"})
			}
			c.Set(ctxRole, role)
			return next(c)
		}
	}
}
