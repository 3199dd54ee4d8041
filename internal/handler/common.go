// Package handler contains the HTTP handlers of the API.  Handlers bind and
// validate requests, call the repository or service layer and translate
// its sentinel errors into status codes with {"error": "..."} bodies.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pokemon-roulette/internal/middleware"
	"github.com/iliyamo/pokemon-roulette/internal/repository"
	"github.com/iliyamo/pokemon-roulette/internal/service"
)

const requestTimeout = 5 * time.Second

// reqCtx bounds the database work of one request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// fail writes the status that matches err with a fixed message; driver
// text never reaches the client.  Unknown errors become a 500 carrying
// only msg and are logged with the request context.
func fail(c echo.Context, err error, msg string) error {
	status, text := http.StatusInternalServerError, msg
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status, text = http.StatusNotFound, "not found"
	case errors.Is(err, repository.ErrForbidden):
		status, text = http.StatusForbidden, "forbidden"
	case errors.Is(err, repository.ErrConflict):
		status, text = http.StatusConflict, "conflicts with existing data"
	case errors.Is(err, repository.ErrInUse):
		status, text = http.StatusConflict, "still referenced by other rows"
	case errors.Is(err, repository.ErrReference):
		status, text = http.StatusUnprocessableEntity, "referenced row does not exist"
	case errors.Is(err, repository.ErrInsufficient):
		status, text = http.StatusConflict, "insufficient balance"
	case errors.Is(err, service.ErrInvalidInput):
		// service validation messages describe the caller's input
		status, text = http.StatusBadRequest, err.Error()
	case errors.Is(err, repository.ErrInvalid):
		status, text = http.StatusBadRequest, "invalid value"
	}
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), msg,
			"method", c.Request().Method, "path", c.Path(), "err", err)
	}
	return c.JSON(status, echo.Map{"error": text})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// currentUser returns the id JWTAuth stored on the context.
func currentUser(c echo.Context) (string, bool) {
	return middleware.UserID(c)
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// pathInt parses a positive integer path parameter.
func pathInt(c echo.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// queryInt parses an optional non-negative query parameter, returning def
// when it is absent and false when it is malformed.
func queryInt(c echo.Context, name string, def int) (int, bool) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
