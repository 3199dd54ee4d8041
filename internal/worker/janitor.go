// Package worker runs the scheduled housekeeping jobs of the server.
package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iliyamo/pokemon-roulette/internal/config"
	"github.com/iliyamo/pokemon-roulette/internal/repository"
)

// Janitor deletes expired sessions and verification tokens.
type Janitor struct {
	Sessions *repository.SessionRepo
	Tokens   *repository.VerificationTokenRepo
	Logger   *slog.Logger
	Now      func() time.Time

	cron *cron.Cron
}

// NewJanitor wires a Janitor to db.
func NewJanitor(db *sql.DB, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		Sessions: repository.NewSessionRepo(db),
		Tokens:   repository.NewVerificationTokenRepo(db, 0),
		Logger:   logger,
		Now:      time.Now,
	}
}

// Sweep runs one pass and reports how many rows it removed.
func (j *Janitor) Sweep(ctx context.Context) (sessions, tokens int64, err error) {
	now := time.Now().UTC()
	if j.Now != nil {
		now = j.Now().UTC()
	}
	if sessions, err = j.Sessions.DeleteExpired(ctx, now); err != nil {
		return 0, 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	if tokens, err = j.Tokens.DeleteExpired(ctx, now); err != nil {
		return sessions, 0, fmt.Errorf("delete expired verification tokens: %w", err)
	}
	return sessions, tokens, nil
}

// Start schedules Sweep on cfg.Schedule.  It is a no-op when the janitor
// is disabled.
func (j *Janitor) Start(cfg config.JanitorConfig) error {
	if !cfg.Enabled {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s, t, err := j.Sweep(ctx)
		if err != nil {
			j.Logger.Error("janitor sweep failed", "err", err)
			return
		}
		if s > 0 || t > 0 {
			j.Logger.Info("janitor sweep", "sessions", s, "verification_tokens", t)
		}
	})
	if err != nil {
		return fmt.Errorf("janitor schedule %q: %w", cfg.Schedule, err)
	}
	j.cron = c
	c.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish or ctx
// to expire.
func (j *Janitor) Stop(ctx context.Context) {
	if j.cron == nil {
		return
	}
	done := j.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
