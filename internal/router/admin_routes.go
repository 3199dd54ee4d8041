package router

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pokemon-roulette/internal/handler"
	"github.com/iliyamo/pokemon-roulette/internal/middleware"
	"github.com/iliyamo/pokemon-roulette/internal/model"
)

// RegisterAdmin registers catalog and account management under
// /v1/admin.  All routes require a valid JWT and the admin role as
// currently stored for the user, not as claimed by the token.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string, mw ...echo.MiddlewareFunc) {
	storedRole := func(ctx context.Context, id string) (model.Role, error) {
		u, err := h.Users.GetByID(ctx, id)
		return u.Role, err
	}
	chain := append([]echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.StoredRole(storedRole),
		middleware.RequireRole(model.RoleAdmin),
	}, mw...)
	g := e.Group("/v1/admin", chain...)

	// ---- Catalog ----
	g.PUT("/pokemon/:entry", h.PutPokemon)
	g.DELETE("/pokemon/:entry", h.DeletePokemon)
	g.PUT("/pokemon/:entry/stats", h.PutStats)
	g.PUT("/pokemon/:entry/abilities/:id", h.LinkAbility)
	g.DELETE("/pokemon/:entry/abilities/:id", h.UnlinkAbility)

	g.POST("/abilities", h.CreateAbility)
	g.DELETE("/abilities/:id", h.DeleteAbility)

	g.POST("/evolutions", h.CreateEvolution)
	g.DELETE("/evolutions/:id", h.DeleteEvolution)

	g.POST("/catalog/import", h.ImportCatalog)

	// ---- Users ----
	g.GET("/users", h.ListUsers)
	g.PUT("/users/:id/role", h.SetRole)
	g.DELETE("/users/:id", h.DeleteUser)
	g.POST("/users/:id/currency", h.AdjustCurrency)
	g.POST("/users/:id/roulette", h.RecordRoulette)
}
