package worker

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/pokemon-roulette/internal/config"
	"github.com/iliyamo/pokemon-roulette/internal/model"
	"github.com/iliyamo/pokemon-roulette/internal/repository"
	"github.com/iliyamo/pokemon-roulette/internal/testutil"
)

func TestJanitorSweep(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	uid := testutil.CreateUser(t, db, "misty@example.com")

	sessions := repository.NewSessionRepo(db)
	tokens := repository.NewVerificationTokenRepo(db, 4)
	for raw, exp := range map[string]time.Time{
		"expired": now.Add(-time.Hour),
		"live":    now.Add(time.Hour),
	} {
		if err := sessions.Create(ctx, model.Session{SessionToken: raw, UserID: uid, Expires: exp}); err != nil {
			t.Fatalf("Create session %s: %v", raw, err)
		}
	}
	if err := tokens.Create(ctx, "misty@example.com", "old", now.Add(-time.Minute)); err != nil {
		t.Fatalf("Create token: %v", err)
	}
	if err := tokens.Create(ctx, "misty@example.com", "new", now.Add(time.Hour)); err != nil {
		t.Fatalf("Create token: %v", err)
	}

	j := NewJanitor(db, nil)
	j.Now = func() time.Time { return now }
	s, tk, err := j.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if s != 1 || tk != 1 {
		t.Errorf("Sweep removed %d sessions, %d tokens; want 1, 1", s, tk)
	}
	if n := testutil.Count(t, db, "session", ""); n != 1 {
		t.Errorf("sessions left = %d, want 1", n)
	}
	if n := testutil.Count(t, db, "verificationToken", ""); n != 1 {
		t.Errorf("tokens left = %d, want 1", n)
	}

	if s, tk, _ := j.Sweep(ctx); s != 0 || tk != 0 {
		t.Errorf("second sweep removed %d, %d", s, tk)
	}
}

func TestJanitorStart(t *testing.T) {
	db := testutil.SetupTestDB(t)
	j := NewJanitor(db, nil)

	if err := j.Start(config.JanitorConfig{Enabled: false, Schedule: "not a schedule"}); err != nil {
		t.Errorf("disabled janitor: %v", err)
	}
	if err := j.Start(config.JanitorConfig{Enabled: true, Schedule: "not a schedule"}); err == nil {
		t.Error("expected error for malformed schedule")
	}
	if err := j.Start(config.JanitorConfig{Enabled: true, Schedule: "@every 1h"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	j.Stop(ctx)
}
