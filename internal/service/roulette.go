package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/pokemon-roulette/internal/database"
	"github.com/iliyamo/pokemon-roulette/internal/model"
	"github.com/iliyamo/pokemon-roulette/internal/queue"
	"github.com/iliyamo/pokemon-roulette/internal/repository"
)

// RouletteService records draw outcomes chosen by the caller.
type RouletteService struct {
	DB        *sql.DB
	Pokemon   *repository.PokemonRepo
	Roulette  *repository.RouletteRepo
	Inventory *repository.InventoryRepo
	Events    Publisher
	Logger    *slog.Logger
	Now       func() time.Time
}

// NewRouletteService wires the service to db.
func NewRouletteService(db *sql.DB, events Publisher, logger *slog.Logger) *RouletteService {
	return &RouletteService{
		DB:        db,
		Pokemon:   repository.NewPokemonRepo(db),
		Roulette:  repository.NewRouletteRepo(db),
		Inventory: repository.NewInventoryRepo(db),
		Events:    events,
		Logger:    logger,
		Now:       time.Now,
	}
}

// Draw is the outcome of one roulette spin.  A zero RolledAt means now.
type Draw struct {
	UserID   string
	Entry    int
	Shiny    bool
	RolledAt time.Time
}

// DrawResult is what Record stored.
type DrawResult struct {
	Log     model.RouletteLog
	Pokemon model.InventoryPokemon
	Species model.Pokemon
}

// Record appends the roulette log and creates the inventory row for d in
// one transaction.
func (s *RouletteService) Record(ctx context.Context, d Draw) (DrawResult, error) {
	if d.UserID == "" {
		return DrawResult{}, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	species, err := s.Pokemon.GetByEntry(ctx, d.Entry)
	if err != nil {
		return DrawResult{}, err
	}
	at := d.RolledAt
	if at.IsZero() {
		at = s.now()
	}

	res := DrawResult{
		Log:     model.RouletteLog{UserID: d.UserID, PokemonName: species.Name, TimeRolled: at},
		Pokemon: model.InventoryPokemon{UserID: d.UserID, PokemonEntry: species.Entry, Shiny: d.Shiny},
		Species: species,
	}
	err = database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if err := s.Roulette.AppendTx(ctx, tx, &res.Log); err != nil {
			return err
		}
		return s.Inventory.CreateTx(ctx, tx, &res.Pokemon)
	})
	if err != nil {
		return DrawResult{}, err
	}

	PublishAsync(s.Events, s.Logger, queue.RouletteRolledQueue, queue.RouletteRolledEvent{
		UserID:       d.UserID,
		PokemonEntry: species.Entry,
		PokemonName:  species.Name,
		Rarity:       species.Rarity.String(),
		Shiny:        d.Shiny,
		InventoryID:  res.Pokemon.ID,
		RolledAt:     res.Log.TimeRolled.UTC().Format(time.RFC3339Nano),
	})
	return res, nil
}

// History returns the latest draws of a user.
func (s *RouletteService) History(ctx context.Context, userID string, limit int) ([]model.RouletteLog, error) {
	return s.Roulette.ListByUser(ctx, userID, limit)
}

func (s *RouletteService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
