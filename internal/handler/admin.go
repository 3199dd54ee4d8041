package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pokemon-roulette/internal/model"
	"github.com/iliyamo/pokemon-roulette/internal/repository"
	"github.com/iliyamo/pokemon-roulette/internal/service"
)

// AdminHandler bundles the catalog and account management endpoints
// reserved for the admin role.
type AdminHandler struct {
	Catalog  *service.CatalogService
	Users    *repository.UserRepo
	Currency *repository.CurrencyRepo
	Roulette *service.RouletteService
	// PurgeCache drops cached catalog responses after a write.  Nil
	// disables purging.
	PurgeCache func(ctx context.Context) error
	Logger     *slog.Logger
}

func NewAdminHandler(catalog *service.CatalogService, users *repository.UserRepo, currency *repository.CurrencyRepo, roulette *service.RouletteService, purge func(context.Context) error, logger *slog.Logger) *AdminHandler {
	if catalog == nil || users == nil || currency == nil || roulette == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{Catalog: catalog, Users: users, Currency: currency, Roulette: roulette, PurgeCache: purge, Logger: logger}
}

// catalogChanged purges cached catalog responses.  A failed purge only
// leaves stale entries until their TTL runs out.
func (h *AdminHandler) catalogChanged(ctx context.Context) {
	if h.PurgeCache == nil {
		return
	}
	if err := h.PurgeCache(ctx); err != nil {
		h.Logger.Warn("catalog cache purge failed", "err", err)
	}
}

func pathID(c echo.Context, name string) (int64, bool) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ---- Catalog ----

type pokemonReq struct {
	Name   string            `json:"name"`
	Type   model.PokemonType `json:"type"`
	Icon   string            `json:"icon"`
	Rarity model.Rarity      `json:"rarity"`
}

// PutPokemon handles PUT /v1/admin/pokemon/:entry (create or replace).
func (h *AdminHandler) PutPokemon(c echo.Context) error {
	entry, ok := pathInt(c, "entry")
	if !ok {
		return badRequest(c, "invalid entry")
	}
	var req pokemonReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	p := model.Pokemon{Entry: entry, Name: strings.TrimSpace(req.Name), Type: req.Type, Icon: strings.TrimSpace(req.Icon), Rarity: req.Rarity}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Catalog.Pokemon.Upsert(ctx, p); err != nil {
		return fail(c, err, "save pokemon failed")
	}
	h.catalogChanged(ctx)
	return c.JSON(http.StatusOK, viewPokemon(p))
}

// DeletePokemon handles DELETE /v1/admin/pokemon/:entry.  Owned instances,
// links and stats of the entry are removed with it.
func (h *AdminHandler) DeletePokemon(c echo.Context) error {
	entry, ok := pathInt(c, "entry")
	if !ok {
		return badRequest(c, "invalid entry")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Catalog.Pokemon.Delete(ctx, entry); err != nil {
		return fail(c, err, "delete pokemon failed")
	}
	h.catalogChanged(ctx)
	return c.NoContent(http.StatusNoContent)
}

type statsReq struct {
	HP             int `json:"hp"`
	Attack         int `json:"attack"`
	Defense        int `json:"defense"`
	SpecialAttack  int `json:"special_attack"`
	SpecialDefense int `json:"special_defense"`
	Speed          int `json:"speed"`
}

// PutStats handles PUT /v1/admin/pokemon/:entry/stats.
func (h *AdminHandler) PutStats(c echo.Context) error {
	entry, ok := pathInt(c, "entry")
	if !ok {
		return badRequest(c, "invalid entry")
	}
	var req statsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	st := model.PokemonStatus{
		PokemonEntry:   entry,
		HP:             req.HP,
		Attack:         req.Attack,
		Defense:        req.Defense,
		SpecialAttack:  req.SpecialAttack,
		SpecialDefense: req.SpecialDefense,
		Speed:          req.Speed,
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Catalog.Status.Upsert(ctx, st); err != nil {
		return fail(c, err, "save stats failed")
	}
	h.catalogChanged(ctx)
	return c.JSON(http.StatusOK, viewStats(st))
}

type abilityReq struct {
	Name string `json:"name"`
}

// CreateAbility handles POST /v1/admin/abilities.
func (h *AdminHandler) CreateAbility(c echo.Context) error {
	var req abilityReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 255 {
		return badRequest(c, "name required (max 255 chars)")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Catalog.Abilities.Create(ctx, name)
	if err != nil {
		return fail(c, err, "create ability failed")
	}
	h.catalogChanged(ctx)
	return c.JSON(http.StatusCreated, abilityView{ID: a.ID, Name: a.Name})
}

// DeleteAbility handles DELETE /v1/admin/abilities/:id.
func (h *AdminHandler) DeleteAbility(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Catalog.Abilities.Delete(ctx, id); err != nil {
		return fail(c, err, "delete ability failed")
	}
	h.catalogChanged(ctx)
	return c.NoContent(http.StatusNoContent)
}

// LinkAbility handles PUT /v1/admin/pokemon/:entry/abilities/:id.
func (h *AdminHandler) LinkAbility(c echo.Context) error {
	entry, ok := pathInt(c, "entry")
	id, ok2 := pathID(c, "id")
	if !ok || !ok2 {
		return badRequest(c, "invalid entry or ability id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Catalog.Abilities.Link(ctx, entry, id); err != nil {
		return fail(c, err, "link ability failed")
	}
	h.catalogChanged(ctx)
	return c.NoContent(http.StatusNoContent)
}

// UnlinkAbility handles DELETE /v1/admin/pokemon/:entry/abilities/:id.
func (h *AdminHandler) UnlinkAbility(c echo.Context) error {
	entry, ok := pathInt(c, "entry")
	id, ok2 := pathID(c, "id")
	if !ok || !ok2 {
		return badRequest(c, "invalid entry or ability id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Catalog.Abilities.Unlink(ctx, entry, id); err != nil {
		return fail(c, err, "unlink ability failed")
	}
	h.catalogChanged(ctx)
	return c.NoContent(http.StatusNoContent)
}

type evolutionReq struct {
	PokemonFrom int  `json:"pokemon_from"`
	PokemonTo   *int `json:"pokemon_to"`
}

// CreateEvolution handles POST /v1/admin/evolutions.  A null pokemon_to
// marks pokemon_from as the final stage.
func (h *AdminHandler) CreateEvolution(c echo.Context) error {
	var req evolutionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.PokemonFrom <= 0 || (req.PokemonTo != nil && *req.PokemonTo <= 0) {
		return badRequest(c, "pokemon_from required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	evo, err := h.Catalog.AddEvolution(ctx, req.PokemonFrom, req.PokemonTo)
	if err != nil {
		return fail(c, err, "create evolution failed")
	}
	h.catalogChanged(ctx)
	return c.JSON(http.StatusCreated, viewEvolution(evo))
}

// DeleteEvolution handles DELETE /v1/admin/evolutions/:id.
func (h *AdminHandler) DeleteEvolution(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Catalog.Evolutions.Delete(ctx, id); err != nil {
		return fail(c, err, "delete evolution failed")
	}
	h.catalogChanged(ctx)
	return c.NoContent(http.StatusNoContent)
}

// ImportCatalog handles POST /v1/admin/catalog/import with a JSON array
// of catalog entries.  The import is all or nothing.
func (h *AdminHandler) ImportCatalog(c echo.Context) error {
	entries, err := service.ParseCatalog(c.Request().Body)
	if err != nil {
		return fail(c, err, "parse catalog failed")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Minute)
	defer cancel()

	res, err := h.Catalog.Import(ctx, entries)
	if err != nil {
		return fail(c, err, "import catalog failed")
	}
	h.catalogChanged(ctx)
	return c.JSON(http.StatusOK, res)
}

// ---- Users ----

// ListUsers handles GET /v1/admin/users?limit=&offset=.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	limit, ok := queryInt(c, "limit", 50)
	offset, ok2 := queryInt(c, "offset", 0)
	if !ok || !ok2 {
		return badRequest(c, "invalid paging")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx, limit, offset)
	if err != nil {
		return fail(c, err, "list users failed")
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, viewUser(u))
	}
	return c.JSON(http.StatusOK, out)
}

type roleReq struct {
	Role string `json:"role"`
}

// SetRole handles PUT /v1/admin/users/:id/role.
func (h *AdminHandler) SetRole(c echo.Context) error {
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return badRequest(c, "role must be user or admin")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.SetRole(ctx, c.Param("id"), role); err != nil {
		return fail(c, err, "set role failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteUser handles DELETE /v1/admin/users/:id.  Accounts, sessions,
// currency, inventory, expeditions and roulette logs cascade.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.Delete(ctx, c.Param("id")); err != nil {
		return fail(c, err, "delete user failed")
	}
	return c.NoContent(http.StatusNoContent)
}

type currencyReq struct {
	CashDelta   float64 `json:"cash_delta"`
	DustDelta   float64 `json:"dust_delta"`
	Expeditions *int    `json:"num_expeditions_remaining"`
}

// AdjustCurrency handles POST /v1/admin/users/:id/currency.  The deltas
// and the optional allowance are applied in one transaction and may not
// drive a balance negative.
func (h *AdminHandler) AdjustCurrency(c echo.Context) error {
	var req currencyReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	cur, err := h.Currency.Adjust(ctx, c.Param("id"), req.CashDelta, req.DustDelta, req.Expeditions)
	if err != nil {
		return fail(c, err, "adjust currency failed")
	}
	return c.JSON(http.StatusOK, viewCurrency(cur))
}

type rouletteReq struct {
	Entry    int        `json:"entry"`
	Shiny    bool       `json:"shiny"`
	RolledAt *time.Time `json:"rolled_at"`
}

// RecordRoulette handles POST /v1/admin/users/:id/roulette.  The outcome
// is chosen by the caller; the draw is logged and the pokemon added to
// the user's inventory.
func (h *AdminHandler) RecordRoulette(c echo.Context) error {
	var req rouletteReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Entry <= 0 {
		return badRequest(c, "entry required")
	}
	d := service.Draw{UserID: c.Param("id"), Entry: req.Entry, Shiny: req.Shiny}
	if req.RolledAt != nil {
		d.RolledAt = *req.RolledAt
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Roulette.Record(ctx, d)
	if err != nil {
		return fail(c, err, "record roulette failed")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"log":     rouletteView{PokemonName: res.Log.PokemonName, TimeRolled: res.Log.TimeRolled},
		"pokemon": viewInventory(res.Pokemon),
		"species": viewPokemon(res.Species),
	})
}
