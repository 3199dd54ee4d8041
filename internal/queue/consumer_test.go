package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatActivity(t *testing.T) {
	started, _ := json.Marshal(ExpeditionStartedEvent{
		UserID: "u1", Slots: []string{"a", "b", "c"}, Location: 2, Duration: 30,
		StartedAt: "2026-01-01T00:00:00Z", EndsAt: "2026-01-01T00:30:00Z",
	})
	rolled, _ := json.Marshal(RouletteRolledEvent{
		UserID: "u1", PokemonEntry: 25, PokemonName: "Pikachu", Rarity: "rare", Shiny: true,
		InventoryID: "inv-1", RolledAt: "2026-01-01T00:00:00Z",
	})
	verify, _ := json.Marshal(VerificationRequestedEvent{Identifier: "ash@example.com", Code: "s3cret"})

	tests := []struct {
		queue   string
		body    []byte
		want    []string
		notWant string
	}{
		{ExpeditionStartedQueue, started, []string{"Expedition started", "user_id=u1", "duration=30m", "slots=[a,b,c]"}, ""},
		{RouletteRolledQueue, rolled, []string{"Roulette rolled", "pokemon=\"Pikachu\"", "shiny=true"}, ""},
		{VerificationRequestedQueue, verify, []string{"identifier=ash@example.com"}, "s3cret"},
	}
	for _, tt := range tests {
		t.Run(tt.queue, func(t *testing.T) {
			line, err := FormatActivity(tt.queue, tt.body)
			if err != nil {
				t.Fatalf("FormatActivity failed: %v", err)
			}
			if !strings.HasSuffix(line, "\n") || strings.Count(line, "\n") != 1 {
				t.Errorf("Expected a single line, got %q", line)
			}
			for _, w := range tt.want {
				if !strings.Contains(line, w) {
					t.Errorf("Expected %q in %q", w, line)
				}
			}
			if tt.notWant != "" && strings.Contains(line, tt.notWant) {
				t.Errorf("Did not expect %q in %q", tt.notWant, line)
			}
		})
	}
}

func TestFormatActivityRejects(t *testing.T) {
	if _, err := FormatActivity("unknown.queue", []byte("{}")); err == nil {
		t.Error("Expected error for unknown queue")
	}
	if _, err := FormatActivity(RouletteRolledQueue, []byte("not json")); err == nil {
		t.Error("Expected error for malformed body")
	}
}

func TestHandleAppendsToActivityLog(t *testing.T) {
	dir := t.TempDir()
	c := NewActivityConsumer("", dir, nil)
	body, _ := json.Marshal(RouletteRolledEvent{UserID: "u1", PokemonName: "Eevee"})

	for i := 0; i < 2; i++ {
		if err := c.Handle(RouletteRolledQueue, body); err != nil {
			t.Fatalf("Handle failed: %v", err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "activity.log"))
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	if n := strings.Count(string(data), "Eevee"); n != 2 {
		t.Errorf("Expected 2 entries, got %d", n)
	}
}
