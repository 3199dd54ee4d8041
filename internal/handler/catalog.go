package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pokemon-roulette/internal/model"
	"github.com/iliyamo/pokemon-roulette/internal/repository"
	"github.com/iliyamo/pokemon-roulette/internal/service"
)

// CatalogHandler serves the read-only catalog to guests.
type CatalogHandler struct {
	Catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	if catalog == nil {
		panic("nil catalog service passed to NewCatalogHandler")
	}
	return &CatalogHandler{Catalog: catalog}
}

const maxPageSize = 200

// ListPokemon handles GET /v1/pokemon?type=&rarity=&limit=&offset=.
func (h *CatalogHandler) ListPokemon(c echo.Context) error {
	var f repository.PokemonFilter
	if raw := c.QueryParam("type"); raw != "" {
		t, err := model.ParsePokemonType(raw)
		if err != nil {
			return badRequest(c, err.Error())
		}
		f.Type = t
	}
	if raw := c.QueryParam("rarity"); raw != "" {
		r, err := model.ParseRarity(raw)
		if err != nil {
			return badRequest(c, err.Error())
		}
		f.Rarity = r
	}
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return badRequest(c, "invalid limit")
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return badRequest(c, "invalid offset")
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	f.Limit, f.Offset = limit, offset

	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Catalog.Pokemon.List(ctx, f)
	if err != nil {
		return fail(c, err, "list pokemon failed")
	}
	out := make([]pokemonView, 0, len(list))
	for _, p := range list {
		out = append(out, viewPokemon(p))
	}
	return c.JSON(http.StatusOK, out)
}

// GetPokemon handles GET /v1/pokemon/:entry with abilities, evolution
// edges and base stats.
func (h *CatalogHandler) GetPokemon(c echo.Context) error {
	entry, ok := pathInt(c, "entry")
	if !ok {
		return badRequest(c, "invalid entry")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Catalog.Detail(ctx, entry)
	if err != nil {
		return fail(c, err, "load pokemon failed")
	}
	return c.JSON(http.StatusOK, viewDetail(d))
}

// ListAbilities handles GET /v1/abilities.
func (h *CatalogHandler) ListAbilities(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Catalog.Abilities.List(ctx)
	if err != nil {
		return fail(c, err, "list abilities failed")
	}
	return c.JSON(http.StatusOK, viewAbilities(list))
}
