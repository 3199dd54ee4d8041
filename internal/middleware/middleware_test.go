package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pokemon-roulette/internal/config"
	"github.com/iliyamo/pokemon-roulette/internal/model"
	"github.com/iliyamo/pokemon-roulette/internal/repository"
	"github.com/iliyamo/pokemon-roulette/internal/utils"
)

const testSecret = "test-secret"

func newTestEcho() *echo.Echo {
	e := echo.New()
	g := e.Group("/v1", JWTAuth(testSecret))
	g.GET("/me", func(c echo.Context) error {
		id, _ := UserID(c)
		return c.JSON(http.StatusOK, echo.Map{"user_id": id, "role": Role(c)})
	})
	admin := g.Group("/admin", RequireRole(model.RoleAdmin))
	admin.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	return e
}

func serve(e *echo.Echo, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, secret, userID string, role model.Role) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, userID, role.String(), 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	return tok.Token
}

func TestJWTAuth(t *testing.T) {
	e := newTestEcho()

	tests := []struct {
		name   string
		bearer string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", token(t, "other", "u1", model.RoleUser), http.StatusUnauthorized},
		{"unknown role", token(t, testSecret, "u1", model.Role("OWNER")), http.StatusUnauthorized},
		{"valid", token(t, testSecret, "u1", model.RoleUser), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, "/v1/me", tt.bearer)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	rec := serve(e, "/v1/me", token(t, testSecret, "u1", model.RoleAdmin))
	if !strings.Contains(rec.Body.String(), `"user_id":"u1"`) || !strings.Contains(rec.Body.String(), `"role":"admin"`) {
		t.Errorf("unexpected identity body %s", rec.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	e := newTestEcho()

	if rec := serve(e, "/v1/admin/ping", token(t, testSecret, "u1", model.RoleUser)); rec.Code != http.StatusForbidden {
		t.Errorf("user on admin route: status = %d, want 403", rec.Code)
	}
	if rec := serve(e, "/v1/admin/ping", token(t, testSecret, "u2", model.RoleAdmin)); rec.Code != http.StatusOK {
		t.Errorf("admin on admin route: status = %d, want 200", rec.Code)
	}
}

func TestStoredRoleOverridesClaim(t *testing.T) {
	stored := map[string]model.Role{"admin": model.RoleAdmin, "demoted": model.RoleUser}
	lookup := func(_ context.Context, id string) (model.Role, error) {
		if id == "broken" {
			return "", errors.New("connection reset")
		}
		r, ok := stored[id]
		if !ok {
			return "", repository.ErrNotFound
		}
		return r, nil
	}
	e := echo.New()
	e.GET("/admin", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		JWTAuth(testSecret), StoredRole(lookup), RequireRole(model.RoleAdmin))

	tests := []struct {
		name string
		user string
		role model.Role
		want int
	}{
		{"stored admin", "admin", model.RoleAdmin, http.StatusOK},
		{"promoted since issue", "admin", model.RoleUser, http.StatusOK},
		{"demoted since issue", "demoted", model.RoleAdmin, http.StatusForbidden},
		{"deleted user", "gone", model.RoleAdmin, http.StatusUnauthorized},
		{"lookup failure", "broken", model.RoleAdmin, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := serve(e, "/admin", token(t, testSecret, tt.user, tt.role)); rec.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRedisMiddlewaresPassThroughWithoutClient(t *testing.T) {
	e := echo.New()
	calls := 0
	e.GET("/v1/pokemon", func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, "list")
	}, NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil),
		NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil))

	for i := 0; i < 3; i++ {
		if rec := serve(e, "/v1/pokemon", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	if calls != 3 {
		t.Errorf("handler calls = %d, want 3", calls)
	}
}

func TestPayloadEncoding(t *testing.T) {
	hdr := http.Header{}
	hdr.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"entry":25}`))
	if err != nil {
		t.Fatalf("encodePayload: %v", err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || string(body) != `{"entry":25}` {
		t.Fatalf("decodePayload = %d %q %v", status, body, ok)
	}
	if got.Get(echo.HeaderContentType) != echo.MIMEApplicationJSON {
		t.Errorf("content type = %q", got.Get(echo.HeaderContentType))
	}

	if _, _, _, ok := decodePayload([]byte{0, 0}); ok {
		t.Error("short payload decoded")
	}
	if _, _, _, ok := decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0}); ok {
		t.Error("payload with oversized header length decoded")
	}
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/pokemon/25", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/pokemon/:entry")

	tests := []struct {
		strategy string
		want     string
	}{
		{"ip", "rl:ip:10.0.0.1"},
		{"user", "rl:user:anon"},
		{"route", "rl:route:GET /v1/pokemon/:entry"},
		{"user_route", "rl:user:anon:route:GET /v1/pokemon/:entry"},
		{"", "rl:ip:10.0.0.1:user:anon:route:GET /v1/pokemon/:entry"},
		{"ip_bogus", "rl:ip:10.0.0.1:user:anon:route:GET /v1/pokemon/:entry"},
	}
	for _, tt := range tests {
		got := rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: tt.strategy}, c)
		if got != tt.want {
			t.Errorf("strategy %q: key = %q, want %q", tt.strategy, got, tt.want)
		}
	}

	c.Set(ctxUserID, "u1")
	if got := rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c); got != "rl:user:u1" {
		t.Errorf("authenticated key = %q", got)
	}
}

func TestCacheKeySeparatesPaths(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "catalog", KeyStrategy: "route"}
	key := func(path string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, path, nil), httptest.NewRecorder())
		c.SetPath("/v1/pokemon/:entry")
		return cacheKey(cfg, c)
	}
	a, b := key("/v1/pokemon/1"), key("/v1/pokemon/2")
	if a == b {
		t.Fatal("distinct entries share a cache key")
	}
	if !strings.HasPrefix(a, "catalog:") {
		t.Errorf("key %q lacks prefix", a)
	}
}
