package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pokemon-roulette/internal/handler"
	"github.com/iliyamo/pokemon-roulette/internal/middleware"
	"github.com/iliyamo/pokemon-roulette/internal/model"
)

// RegisterPlayer registers the endpoints a signed-in player uses to read
// and change their own state.  Admins are players too.
func RegisterPlayer(e *echo.Echo, h *handler.PlayerHandler, jwtSecret string, mw ...echo.MiddlewareFunc) {
	chain := append([]echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
	}, mw...)

	e.GET("/v1/currency", h.GetCurrency, chain...)

	e.GET("/v1/inventory", h.ListInventory, chain...)
	e.DELETE("/v1/inventory/:id", h.ReleasePokemon, chain...)

	e.GET("/v1/roulette", h.RouletteHistory, chain...)

	e.GET("/v1/expeditions", h.ListExpeditions, chain...)
	e.POST("/v1/expeditions", h.StartExpedition, chain...)
	e.POST("/v1/expeditions/recall", h.RecallExpedition, chain...)
}
