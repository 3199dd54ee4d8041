package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pokemon-roulette/internal/auth"
	"github.com/iliyamo/pokemon-roulette/internal/config"
	"github.com/iliyamo/pokemon-roulette/internal/model"
	"github.com/iliyamo/pokemon-roulette/internal/queue"
	"github.com/iliyamo/pokemon-roulette/internal/repository"
	"github.com/iliyamo/pokemon-roulette/internal/service"
	"github.com/iliyamo/pokemon-roulette/internal/utils"
)

// AuthHandler implements passwordless email sign-in on top of sessions.
// A verified code opens a session; the session token is exchanged for
// short-lived JWT access tokens.
type AuthHandler struct {
	Cfg    config.Config
	Auth   *auth.Adapter
	Events service.Publisher
	Logger *slog.Logger
	Now    func() time.Time
}

func NewAuthHandler(cfg config.Config, a *auth.Adapter, events service.Publisher, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{Cfg: cfg, Auth: a, Events: events, Logger: logger, Now: time.Now}
}

func (h *AuthHandler) now() time.Time {
	if h.Now == nil {
		return time.Now().UTC()
	}
	return h.Now().UTC()
}

// ----- DTOs -----

type emailStartReq struct {
	Email string `json:"email"`
}
type emailVerifyReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
type sessionReq struct {
	SessionToken string `json:"session_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	User    userView  `json:"user"`
	Access  tokenPart `json:"access"`
	Session tokenPart `json:"session"`
}

func normalizeEmail(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 || len(s) > 255 {
		return "", false
	}
	return s, true
}

// StartEmail issues a sign-in code for an address and hands it to the
// mailer queue.  In development the code is echoed in the response.
func (h *AuthHandler) StartEmail(c echo.Context) error {
	var req emailStartReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	email, ok := normalizeEmail(req.Email)
	if !ok {
		return badRequest(c, "valid email required")
	}

	code, err := utils.NewVerificationCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue code failed"})
	}
	expires := h.now().Add(time.Duration(h.Cfg.VerificationTTLMin) * time.Minute)

	ctx, cancel := reqCtx(c)
	defer cancel()
	vt := model.VerificationToken{Identifier: email, Token: code, Expires: expires}
	if err := h.Auth.CreateVerificationToken(ctx, vt); err != nil {
		return fail(c, err, "save code failed")
	}

	service.PublishAsync(h.Events, h.Logger, queue.VerificationRequestedQueue, queue.VerificationRequestedEvent{
		Identifier: email,
		Code:       code,
		ExpiresAt:  expires.Format(time.RFC3339),
	})

	resp := echo.Map{"expires": expires}
	if h.Cfg.Dev() {
		resp["code"] = code
	}
	return c.JSON(http.StatusAccepted, resp)
}

// VerifyEmail consumes a sign-in code.  Unknown addresses get a new
// account; the address is marked verified and a session is opened.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req emailVerifyReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	email, ok := normalizeEmail(req.Email)
	code := strings.TrimSpace(req.Code)
	if !ok || code == "" {
		return badRequest(c, "email/code required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Auth.UseVerificationToken(ctx, email, code); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired code"})
		}
		return fail(c, err, "verify code failed")
	}

	now := h.now()
	u, err := h.Auth.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		u, err = h.Auth.CreateUser(ctx, model.User{Email: email, EmailVerified: &now})
		if err != nil {
			return fail(c, err, "create user failed")
		}
	case err != nil:
		return fail(c, err, "load user failed")
	case u.EmailVerified == nil:
		if err := h.Auth.Users.MarkEmailVerified(ctx, u.ID, now); err != nil {
			return fail(c, err, "verify email failed")
		}
		if u, err = h.Auth.GetUser(ctx, u.ID); err != nil {
			return fail(c, err, "load user failed")
		}
	}

	sess, err := utils.NewSessionToken(h.Cfg.SessionTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	stored, err := h.Auth.CreateSession(ctx, model.Session{SessionToken: sess.Raw, UserID: u.ID, Expires: sess.Exp})
	if err != nil {
		return fail(c, err, "save session failed")
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role.String(), h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:    viewUser(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Session: tokenPart{Token: sess.Raw, Expires: stored.Expires}, // raw back to client
	})
}

// Refresh validates a session token, slides its expiry and returns a new
// access token.  The session token itself is not rotated.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req sessionReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.SessionToken) == "" {
		return badRequest(c, "session_token required")
	}
	raw := strings.TrimSpace(req.SessionToken)

	ctx, cancel := reqCtx(c)
	defer cancel()

	_, u, err := h.Auth.GetSessionAndUser(ctx, raw)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid session"})
		}
		return fail(c, err, "load session failed")
	}
	expires := h.now().Add(time.Duration(h.Cfg.SessionTTLDays) * 24 * time.Hour).Truncate(time.Second)
	if err := h.Auth.UpdateSession(ctx, raw, expires); err != nil {
		return fail(c, err, "extend session failed")
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role.String(), h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:    viewUser(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Session: tokenPart{Token: raw, Expires: expires},
	})
}

// Logout ends one session.  Unknown tokens are accepted so the call is
// idempotent.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req sessionReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.SessionToken) == "" {
		return badRequest(c, "session_token required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.DeleteSession(ctx, strings.TrimSpace(req.SessionToken)); err != nil {
		return fail(c, err, "logout failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile and balances.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.GetUser(ctx, uid)
	if err != nil {
		return fail(c, err, "load user failed")
	}
	cur, err := h.Auth.Currency.Get(ctx, uid)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fail(c, err, "load currency failed")
	}
	resp := echo.Map{"user": viewUser(u)}
	if err == nil {
		resp["currency"] = viewCurrency(cur)
	}
	return c.JSON(http.StatusOK, resp)
}
