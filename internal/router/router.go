// Package router registers the HTTP routes of the API and the middleware
// chain of each route group.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pokemon-roulette/internal/handler"
	"github.com/iliyamo/pokemon-roulette/internal/middleware"
	"github.com/iliyamo/pokemon-roulette/internal/model"
)

// RegisterRoutes registers the unauthenticated health checks.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers sign-in under /v1/auth and the profile endpoint
// /v1/me, which requires an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", mw...)
	g.POST("/email/start", a.StartEmail)
	g.POST("/email/verify", a.VerifyEmail)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	me := append([]echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
	}, mw...)
	e.GET("/v1/me", a.Me, me...)
}

// RegisterPublic registers the catalog browse endpoints.  They need no
// token; mw typically carries the response cache.
func RegisterPublic(e *echo.Echo, p *handler.CatalogHandler, mw ...echo.MiddlewareFunc) {
	e.GET("/v1/pokemon", p.ListPokemon, mw...)
	e.GET("/v1/pokemon/:entry", p.GetPokemon, mw...)
	e.GET("/v1/abilities", p.ListAbilities, mw...)
}
