package model

import "time"

// Column defaults of the player-state tables.
const (
	DefaultCash                    = 0.0
	DefaultDust                    = 0.0
	DefaultNumExpeditionsRemaining = 3
	DefaultLevel                   = 5
	DefaultExp                     = 0
	DefaultBusy                    = false
)

// ExpeditionSlots is the number of inventory pokemon an expedition occupies.
const ExpeditionSlots = 3

// Currency holds the balances of one user (1:1 with User).
type Currency struct {
	UserID                  string  // currency.userId
	Cash                    float64 // currency.cash
	Dust                    float64 // currency.dust
	NumExpeditionsRemaining int     // currency.numExpeditionsRemaining
}

// NewCurrency returns the row the database would produce for userID with
// no explicit values.
func NewCurrency(userID string) Currency {
	return Currency{
		UserID:                  userID,
		Cash:                    DefaultCash,
		Dust:                    DefaultDust,
		NumExpeditionsRemaining: DefaultNumExpeditionsRemaining,
	}
}

// InventoryPokemon is a user's owned instance of a catalog entry.
//
// Fields:
//  ID           – UUID assigned on creation.
//  UserID       – owner.
//  PokemonEntry – catalog entry this instance belongs to.
//  Shiny        – whether the instance is shiny.
//  Level, Exp   – progression counters.
//  Busy         – set while the instance occupies an expedition slot.
type InventoryPokemon struct {
	ID           string // inventoryPokemon.id
	UserID       string // inventoryPokemon.userId
	PokemonEntry int    // inventoryPokemon.pokemonEntry
	Shiny        bool   // inventoryPokemon.shiny
	Level        int    // inventoryPokemon.level
	Exp          int    // inventoryPokemon.exp
	Busy         bool   // inventoryPokemon.busy
}

// RouletteLog is one draw event.  Rows are append-only and keyed by all
// three columns, so the same pokemon rolled at distinct instants yields
// distinct rows.
type RouletteLog struct {
	UserID      string    // rouletteLogs.userId
	PokemonName string    // rouletteLogs.pokemonName
	TimeRolled  time.Time // rouletteLogs.timeRolled (fsp 3)
}

// Expedition is an in-progress activity occupying three inventory slots.
// Duration is expressed in minutes.
type Expedition struct {
	UserID      string    // expedition.userId
	SlotOne     string    // expedition.slotOne
	SlotTwo     string    // expedition.slotTwo
	SlotThree   string    // expedition.slotThree
	Location    int       // expedition.location
	Duration    int       // expedition.duration
	TimeStarted time.Time // expedition.timeStarted (fsp 3)
}

// Slots returns the three occupied inventory ids in slot order.
func (e Expedition) Slots() [ExpeditionSlots]string {
	return [ExpeditionSlots]string{e.SlotOne, e.SlotTwo, e.SlotThree}
}

// EndsAt is TimeStarted plus Duration minutes.
func (e Expedition) EndsAt() time.Time {
	return e.TimeStarted.Add(time.Duration(e.Duration) * time.Minute)
}

// Finished reports whether the expedition has run its full duration at now.
func (e Expedition) Finished(now time.Time) bool { return !now.Before(e.EndsAt()) }
