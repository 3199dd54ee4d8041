package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/pokemon-roulette/internal/database"
	"github.com/iliyamo/pokemon-roulette/internal/model"
	"github.com/iliyamo/pokemon-roulette/internal/testutil"
)

func TestCurrencyDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	users := NewUserRepo(db)
	currency := NewCurrencyRepo(db)

	u := model.User{Email: "a@example.com"}
	if err := users.Create(ctx, &u); err != nil {
		t.Fatalf("Create user failed: %v", err)
	}
	c, err := currency.Create(ctx, u.ID)
	if err != nil {
		t.Fatalf("Create currency failed: %v", err)
	}
	if c != model.NewCurrency(u.ID) {
		t.Errorf("Expected defaults %+v, got %+v", model.NewCurrency(u.ID), c)
	}
	if _, err := currency.Create(ctx, u.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for second row, got %v", err)
	}
}

func TestCurrencyAdjustBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	currency := NewCurrencyRepo(db)
	uid := testutil.CreateUser(t, db, "a@example.com")

	c, err := currency.AdjustBalance(ctx, uid, 100, 5.5)
	if err != nil {
		t.Fatalf("AdjustBalance failed: %v", err)
	}
	if c.Cash != 100 || c.Dust != 5.5 {
		t.Errorf("Expected 100/5.5, got %v/%v", c.Cash, c.Dust)
	}
	if _, err := currency.AdjustBalance(ctx, uid, -150, 0); !errors.Is(err, ErrInsufficient) {
		t.Errorf("Expected ErrInsufficient, got %v", err)
	}
	c, _ = currency.Get(ctx, uid)
	if c.Cash != 100 {
		t.Errorf("Expected refused adjustment to leave cash at 100, got %v", c.Cash)
	}
	if _, err := currency.AdjustBalance(ctx, "ghost", 1, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCurrencyAdjustIsAtomic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	currency := NewCurrencyRepo(db)
	uid := testutil.CreateUser(t, db, "a@example.com")

	zero, seven := 0, 7
	if _, err := currency.Adjust(ctx, uid, -1, 0, &zero); !errors.Is(err, ErrInsufficient) {
		t.Fatalf("Expected ErrInsufficient, got %v", err)
	}
	c, err := currency.Get(ctx, uid)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if c.NumExpeditionsRemaining != model.DefaultNumExpeditionsRemaining {
		t.Errorf("Expected allowance to roll back to %d, got %d", model.DefaultNumExpeditionsRemaining, c.NumExpeditionsRemaining)
	}

	c, err = currency.Adjust(ctx, uid, 3, 1, &seven)
	if err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}
	if c.Cash != 3 || c.Dust != 1 || c.NumExpeditionsRemaining != 7 {
		t.Errorf("Unexpected currency %+v", c)
	}
	if _, err := currency.Adjust(ctx, uid, 0, 0, nil); err != nil {
		t.Errorf("Expected no-op adjustment to succeed, got %v", err)
	}
	if _, err := currency.Adjust(ctx, "ghost", 1, 0, &seven); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCurrencyConsumeExpedition(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	currency := NewCurrencyRepo(db)
	uid := testutil.CreateUser(t, db, "a@example.com")

	if err := currency.SetExpeditionAllowance(ctx, uid, 1); err != nil {
		t.Fatalf("SetExpeditionAllowance failed: %v", err)
	}
	consume := func() error {
		return database.WithTx(ctx, db, func(tx *sql.Tx) error {
			return currency.ConsumeExpeditionTx(ctx, tx, uid)
		})
	}
	if err := consume(); err != nil {
		t.Fatalf("First consume failed: %v", err)
	}
	if err := consume(); !errors.Is(err, ErrInsufficient) {
		t.Errorf("Expected ErrInsufficient, got %v", err)
	}
	c, _ := currency.Get(ctx, uid)
	if c.NumExpeditionsRemaining != 0 {
		t.Errorf("Expected 0 remaining, got %d", c.NumExpeditionsRemaining)
	}
	if err := currency.SetExpeditionAllowance(ctx, uid, -1); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid, got %v", err)
	}
}

func TestRouletteLogKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	roulette := NewRouletteRepo(db)
	uid := testutil.CreateUser(t, db, "a@example.com")
	testutil.CreatePokemon(t, db, 25, "Pikachu")

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := roulette.Append(ctx, &model.RouletteLog{UserID: uid, PokemonName: "Pikachu", TimeRolled: at}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := roulette.Append(ctx, &model.RouletteLog{UserID: uid, PokemonName: "Pikachu", TimeRolled: at}); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for identical key, got %v", err)
	}
	later := at.Add(time.Millisecond)
	if err := roulette.Append(ctx, &model.RouletteLog{UserID: uid, PokemonName: "Pikachu", TimeRolled: later}); err != nil {
		t.Errorf("Expected distinct timestamp to succeed, got %v", err)
	}
	if err := roulette.Append(ctx, &model.RouletteLog{UserID: uid, PokemonName: "Missingno"}); !errors.Is(err, ErrReference) {
		t.Errorf("Expected ErrReference for unknown pokemon, got %v", err)
	}

	logs, err := roulette.ListByUser(ctx, uid, 10)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(logs) != 2 || !logs[0].TimeRolled.Equal(later) {
		t.Errorf("Expected 2 logs newest first, got %+v", logs)
	}
}

func TestInventoryCreateDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	inventory := NewInventoryRepo(db)
	uid := testutil.CreateUser(t, db, "a@example.com")
	testutil.CreatePokemon(t, db, 7, "Squirtle")

	p := model.InventoryPokemon{UserID: uid, PokemonEntry: 7, Shiny: true}
	err := database.WithTx(ctx, db, func(tx *sql.Tx) error { return inventory.CreateTx(ctx, tx, &p) })
	if err != nil {
		t.Fatalf("CreateTx failed: %v", err)
	}
	if p.ID == "" || p.Level != model.DefaultLevel || p.Exp != model.DefaultExp || p.Busy != model.DefaultBusy || !p.Shiny {
		t.Errorf("Unexpected stored row %+v", p)
	}
	list, _ := inventory.ListByUser(ctx, uid)
	if len(list) != 1 || list[0] != p {
		t.Errorf("Expected listing to return %+v, got %+v", p, list)
	}
}

func TestInventoryBusyAndRelease(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	inventory := NewInventoryRepo(db)
	uid := testutil.CreateUser(t, db, "a@example.com")
	other := testutil.CreateUser(t, db, "b@example.com")
	testutil.CreatePokemon(t, db, 7, "Squirtle")
	a := testutil.CreateInventory(t, db, uid, 7)
	b := testutil.CreateInventory(t, db, uid, 7)
	foreign := testutil.CreateInventory(t, db, other, 7)

	mark := func(ids ...string) error {
		return database.WithTx(ctx, db, func(tx *sql.Tx) error { return inventory.MarkBusyTx(ctx, tx, uid, ids) })
	}

	if err := mark(a, foreign); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
	if got, _ := inventory.GetByID(ctx, a); got.Busy {
		t.Error("Expected failed mark to roll back")
	}
	if err := mark(a, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := mark(a); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	if err := mark(a, b); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for busy slot, got %v", err)
	}
	if err := inventory.Delete(ctx, uid, a); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected busy pokemon not to be released, got %v", err)
	}
	if err := inventory.Delete(ctx, uid, foreign); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}

	err := database.WithTx(ctx, db, func(tx *sql.Tx) error { return inventory.ReleaseBusyTx(ctx, tx, uid, []string{a}) })
	if err != nil {
		t.Fatalf("ReleaseBusyTx failed: %v", err)
	}
	if err := inventory.Delete(ctx, uid, a); err != nil {
		t.Errorf("Expected idle pokemon to be released, got %v", err)
	}
	if _, err := inventory.GetByID(ctx, a); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after release, got %v", err)
	}
}

func TestExpeditionRequiresInventorySlots(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	expeditions := NewExpeditionRepo(db)
	uid := testutil.CreateUser(t, db, "a@example.com")
	testutil.CreatePokemon(t, db, 7, "Squirtle")
	a := testutil.CreateInventory(t, db, uid, 7)
	b := testutil.CreateInventory(t, db, uid, 7)
	c := testutil.CreateInventory(t, db, uid, 7)

	create := func(e *model.Expedition) error {
		return database.WithTx(ctx, db, func(tx *sql.Tx) error { return expeditions.CreateTx(ctx, tx, e) })
	}

	bad := model.Expedition{UserID: uid, SlotOne: a, SlotTwo: b, SlotThree: "not-an-inventory-id", Location: 1, Duration: 30}
	if err := create(&bad); !errors.Is(err, ErrReference) {
		t.Errorf("Expected ErrReference, got %v", err)
	}

	e := model.Expedition{UserID: uid, SlotOne: a, SlotTwo: b, SlotThree: c, Location: 2, Duration: 45}
	if err := create(&e); err != nil {
		t.Fatalf("CreateTx failed: %v", err)
	}
	if e.TimeStarted.IsZero() {
		t.Error("Expected timeStarted default to be applied")
	}
	again := model.Expedition{UserID: uid, SlotOne: a, SlotTwo: b, SlotThree: c, Location: 3, Duration: 10}
	if err := create(&again); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate key, got %v", err)
	}

	list, err := expeditions.ListByUser(ctx, uid)
	if err != nil || len(list) != 1 || list[0].Duration != 45 {
		t.Fatalf("Expected 1 expedition, got %+v (%v)", list, err)
	}

	// releasing an occupied pokemon removes the expedition through the slot FK
	if _, err := db.Exec("DELETE FROM `inventoryPokemon` WHERE `id` = ?", b); err != nil {
		t.Fatalf("Delete inventory failed: %v", err)
	}
	if _, err := expeditions.Get(ctx, uid, e.Slots()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected expedition cascade-deleted, got %v", err)
	}
}
