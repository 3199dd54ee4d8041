package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pokemon-roulette/internal/model"
)

// Context keys set by JWTAuth.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// UserID returns the authenticated user id stored by JWTAuth.
func UserID(c echo.Context) (string, bool) {
	id, ok := c.Get(ctxUserID).(string)
	return id, ok && id != ""
}

// Role returns the role claim stored by JWTAuth.
func Role(c echo.Context) model.Role {
	r, _ := c.Get(ctxRole).(model.Role)
	return r
}

// rateSubject identifies the caller for rate limiting: the user id when
// authenticated, "anon" otherwise.
func rateSubject(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return id
	}
	return "anon"
}
