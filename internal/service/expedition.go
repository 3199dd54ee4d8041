package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/pokemon-roulette/internal/database"
	"github.com/iliyamo/pokemon-roulette/internal/model"
	"github.com/iliyamo/pokemon-roulette/internal/queue"
	"github.com/iliyamo/pokemon-roulette/internal/repository"
)

// ExpeditionService keeps expeditions, the busy flag of their slots and
// the expedition allowance consistent.
type ExpeditionService struct {
	DB          *sql.DB
	Inventory   *repository.InventoryRepo
	Currency    *repository.CurrencyRepo
	Expeditions *repository.ExpeditionRepo
	Events      Publisher
	Logger      *slog.Logger
	Now         func() time.Time
}

// NewExpeditionService wires the service to db.
func NewExpeditionService(db *sql.DB, events Publisher, logger *slog.Logger) *ExpeditionService {
	return &ExpeditionService{
		DB:          db,
		Inventory:   repository.NewInventoryRepo(db),
		Currency:    repository.NewCurrencyRepo(db),
		Expeditions: repository.NewExpeditionRepo(db),
		Events:      events,
		Logger:      logger,
		Now:         time.Now,
	}
}

// StartExpedition describes an expedition a player commits to.  Duration
// is in minutes.
type StartExpedition struct {
	UserID   string
	Slots    [model.ExpeditionSlots]string
	Location int
	Duration int
}

func (in StartExpedition) validate() error {
	seen := make(map[string]bool, len(in.Slots))
	for _, s := range in.Slots {
		s = strings.TrimSpace(s)
		if s == "" {
			return fmt.Errorf("%w: every slot must reference an inventory pokemon", ErrInvalidInput)
		}
		if seen[s] {
			return fmt.Errorf("%w: slots must be distinct", ErrInvalidInput)
		}
		seen[s] = true
	}
	if in.Location < 0 {
		return fmt.Errorf("%w: location must not be negative", ErrInvalidInput)
	}
	if in.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}
	return nil
}

// Start commits an expedition in one transaction: it consumes one
// expedition allowance, marks the three slots busy and inserts the row.
// Slots must be owned by the user and idle.
func (s *ExpeditionService) Start(ctx context.Context, in StartExpedition) (model.Expedition, error) {
	if err := in.validate(); err != nil {
		return model.Expedition{}, err
	}
	e := model.Expedition{
		UserID:      in.UserID,
		SlotOne:     strings.TrimSpace(in.Slots[0]),
		SlotTwo:     strings.TrimSpace(in.Slots[1]),
		SlotThree:   strings.TrimSpace(in.Slots[2]),
		Location:    in.Location,
		Duration:    in.Duration,
		TimeStarted: s.now(),
	}
	slots := e.Slots()

	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if err := s.Currency.ConsumeExpeditionTx(ctx, tx, in.UserID); err != nil {
			return err
		}
		if err := s.Inventory.MarkBusyTx(ctx, tx, in.UserID, slots[:]); err != nil {
			return err
		}
		return s.Expeditions.CreateTx(ctx, tx, &e)
	})
	if err != nil {
		return model.Expedition{}, err
	}

	PublishAsync(s.Events, s.Logger, queue.ExpeditionStartedQueue, queue.ExpeditionStartedEvent{
		UserID:    e.UserID,
		Slots:     slots[:],
		Location:  e.Location,
		Duration:  e.Duration,
		StartedAt: e.TimeStarted.UTC().Format(time.RFC3339),
		EndsAt:    e.EndsAt().UTC().Format(time.RFC3339),
	})
	return e, nil
}

// Recall removes an expedition and frees its slots in one transaction.
// No rewards are computed.
func (s *ExpeditionService) Recall(ctx context.Context, userID string, slots [model.ExpeditionSlots]string) (model.Expedition, error) {
	var e model.Expedition
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		e, err = s.Expeditions.GetTx(ctx, tx, userID, slots)
		if err != nil {
			return err
		}
		if err := s.Expeditions.DeleteTx(ctx, tx, userID, slots); err != nil {
			return err
		}
		return s.Inventory.ReleaseBusyTx(ctx, tx, userID, slots[:])
	})
	if err != nil {
		return model.Expedition{}, err
	}

	now := s.now()
	PublishAsync(s.Events, s.Logger, queue.ExpeditionRecalledQueue, queue.ExpeditionRecalledEvent{
		UserID:     userID,
		Slots:      slots[:],
		Location:   e.Location,
		Finished:   e.Finished(now),
		RecalledAt: now.UTC().Format(time.RFC3339),
	})
	return e, nil
}

// List returns the user's running expeditions.
func (s *ExpeditionService) List(ctx context.Context, userID string) ([]model.Expedition, error) {
	return s.Expeditions.ListByUser(ctx, userID)
}

func (s *ExpeditionService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
