package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pokemon-roulette/internal/model"
	"github.com/iliyamo/pokemon-roulette/internal/repository"
	"github.com/iliyamo/pokemon-roulette/internal/service"
)

// PlayerHandler serves the state of the authenticated player.  Every
// query is scoped to the user id from the access token.
type PlayerHandler struct {
	Currency    *repository.CurrencyRepo
	Inventory   *repository.InventoryRepo
	Roulette    *service.RouletteService
	Expeditions *service.ExpeditionService
	Now         func() time.Time
}

func NewPlayerHandler(currency *repository.CurrencyRepo, inventory *repository.InventoryRepo, roulette *service.RouletteService, expeditions *service.ExpeditionService) *PlayerHandler {
	if currency == nil || inventory == nil || roulette == nil || expeditions == nil {
		panic("nil dependency passed to NewPlayerHandler")
	}
	return &PlayerHandler{Currency: currency, Inventory: inventory, Roulette: roulette, Expeditions: expeditions, Now: time.Now}
}

func (h *PlayerHandler) now() time.Time {
	if h.Now == nil {
		return time.Now().UTC()
	}
	return h.Now().UTC()
}

// GetCurrency handles GET /v1/currency.
func (h *PlayerHandler) GetCurrency(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	cur, err := h.Currency.Get(ctx, uid)
	if err != nil {
		return fail(c, err, "load currency failed")
	}
	return c.JSON(http.StatusOK, viewCurrency(cur))
}

// ListInventory handles GET /v1/inventory.
func (h *PlayerHandler) ListInventory(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Inventory.ListByUser(ctx, uid)
	if err != nil {
		return fail(c, err, "list inventory failed")
	}
	out := make([]inventoryView, 0, len(list))
	for _, p := range list {
		out = append(out, viewInventory(p))
	}
	return c.JSON(http.StatusOK, out)
}

// ReleasePokemon handles DELETE /v1/inventory/:id.  Pokemon away on an
// expedition cannot be released.
func (h *PlayerHandler) ReleasePokemon(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Inventory.Delete(ctx, uid, id); err != nil {
		return fail(c, err, "release pokemon failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// RouletteHistory handles GET /v1/roulette?limit=.
func (h *PlayerHandler) RouletteHistory(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return badRequest(c, "invalid limit")
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	logs, err := h.Roulette.History(ctx, uid, limit)
	if err != nil {
		return fail(c, err, "load roulette history failed")
	}
	out := make([]rouletteView, 0, len(logs))
	for _, l := range logs {
		out = append(out, rouletteView{PokemonName: l.PokemonName, TimeRolled: l.TimeRolled})
	}
	return c.JSON(http.StatusOK, out)
}

// ListExpeditions handles GET /v1/expeditions.
func (h *PlayerHandler) ListExpeditions(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Expeditions.List(ctx, uid)
	if err != nil {
		return fail(c, err, "list expeditions failed")
	}
	now := h.now()
	out := make([]expeditionView, 0, len(list))
	for _, e := range list {
		out = append(out, viewExpedition(e, now))
	}
	return c.JSON(http.StatusOK, out)
}

type startExpeditionReq struct {
	Slots    []string `json:"slots"`
	Location int      `json:"location"`
	Duration int      `json:"duration_minutes"`
}

type recallExpeditionReq struct {
	Slots []string `json:"slots"`
}

func slotsOf(raw []string) ([model.ExpeditionSlots]string, bool) {
	var out [model.ExpeditionSlots]string
	if len(raw) != model.ExpeditionSlots {
		return out, false
	}
	copy(out[:], raw)
	return out, true
}

// StartExpedition handles POST /v1/expeditions.
func (h *PlayerHandler) StartExpedition(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	var req startExpeditionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	slots, ok := slotsOf(req.Slots)
	if !ok {
		return badRequest(c, "exactly 3 slots required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	e, err := h.Expeditions.Start(ctx, service.StartExpedition{
		UserID:   uid,
		Slots:    slots,
		Location: req.Location,
		Duration: req.Duration,
	})
	if err != nil {
		return fail(c, err, "start expedition failed")
	}
	return c.JSON(http.StatusCreated, viewExpedition(e, h.now()))
}

// RecallExpedition handles POST /v1/expeditions/recall.  It ends the
// expedition occupying the given slots and frees them.
func (h *PlayerHandler) RecallExpedition(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	var req recallExpeditionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	slots, ok := slotsOf(req.Slots)
	if !ok {
		return badRequest(c, "exactly 3 slots required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	e, err := h.Expeditions.Recall(ctx, uid, slots)
	if err != nil {
		return fail(c, err, "recall expedition failed")
	}
	return c.JSON(http.StatusOK, viewExpedition(e, h.now()))
}
