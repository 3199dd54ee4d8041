// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names.  Each event type travels on its own durable queue; the
// routing key equals the queue name on the default exchange.
const (
	ExpeditionStartedQueue     = "expedition.started"
	ExpeditionRecalledQueue    = "expedition.recalled"
	RouletteRolledQueue        = "roulette.rolled"
	VerificationRequestedQueue = "auth.verification_requested"
)

// Queues lists every queue the activity consumer listens on.
func Queues() []string {
	return []string{
		ExpeditionStartedQueue,
		ExpeditionRecalledQueue,
		RouletteRolledQueue,
		VerificationRequestedQueue,
	}
}

// ExpeditionStartedEvent is published after an expedition row has been
// committed.  Times are RFC3339 strings in UTC.
type ExpeditionStartedEvent struct {
	UserID    string   `json:"user_id"`
	Slots     []string `json:"slots"`
	Location  int      `json:"location"`
	Duration  int      `json:"duration_minutes"`
	StartedAt string   `json:"started_at"`
	EndsAt    string   `json:"ends_at"`
}

// ExpeditionRecalledEvent is published after an expedition was removed and
// its slots were freed.
type ExpeditionRecalledEvent struct {
	UserID     string   `json:"user_id"`
	Slots      []string `json:"slots"`
	Location   int      `json:"location"`
	Finished   bool     `json:"finished"`
	RecalledAt string   `json:"recalled_at"`
}

// RouletteRolledEvent is published after a draw was logged and the rolled
// pokemon was added to the player's inventory.
type RouletteRolledEvent struct {
	UserID       string `json:"user_id"`
	PokemonEntry int    `json:"pokemon_entry"`
	PokemonName  string `json:"pokemon_name"`
	Rarity       string `json:"rarity"`
	Shiny        bool   `json:"shiny"`
	InventoryID  string `json:"inventory_id"`
	RolledAt     string `json:"rolled_at"`
}

// VerificationRequestedEvent asks a mailer to deliver a sign-in code.
// Code is the raw secret; consumers other than the mailer must not
// persist it.
type VerificationRequestedEvent struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
	ExpiresAt  string `json:"expires_at"`
}
