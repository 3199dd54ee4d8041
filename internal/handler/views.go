package handler

import (
	"time"

	"github.com/iliyamo/pokemon-roulette/internal/model"
	"github.com/iliyamo/pokemon-roulette/internal/service"
)

// JSON shapes of the API.  Records are converted at the edge so the model
// package stays free of transport tags.

type userView struct {
	ID            string     `json:"id"`
	Name          *string    `json:"name,omitempty"`
	Email         string     `json:"email"`
	EmailVerified *time.Time `json:"email_verified,omitempty"`
	Image         *string    `json:"image,omitempty"`
	Role          model.Role `json:"role"`
}

func viewUser(u model.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, EmailVerified: u.EmailVerified, Image: u.Image, Role: u.Role}
}

type currencyView struct {
	Cash                    float64 `json:"cash"`
	Dust                    float64 `json:"dust"`
	NumExpeditionsRemaining int     `json:"num_expeditions_remaining"`
}

func viewCurrency(c model.Currency) currencyView {
	return currencyView{Cash: c.Cash, Dust: c.Dust, NumExpeditionsRemaining: c.NumExpeditionsRemaining}
}

type pokemonView struct {
	Entry  int               `json:"entry"`
	Name   string            `json:"name"`
	Type   model.PokemonType `json:"type"`
	Icon   string            `json:"icon"`
	Rarity model.Rarity      `json:"rarity"`
}

func viewPokemon(p model.Pokemon) pokemonView {
	return pokemonView{Entry: p.Entry, Name: p.Name, Type: p.Type, Icon: p.Icon, Rarity: p.Rarity}
}

type abilityView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func viewAbilities(as []model.Ability) []abilityView {
	out := make([]abilityView, 0, len(as))
	for _, a := range as {
		out = append(out, abilityView{ID: a.ID, Name: a.Name})
	}
	return out
}

type evolutionView struct {
	ID          int64 `json:"id"`
	PokemonFrom int   `json:"pokemon_from"`
	PokemonTo   *int  `json:"pokemon_to"`
}

func viewEvolution(e model.Evolution) evolutionView {
	return evolutionView{ID: e.ID, PokemonFrom: e.PokemonFrom, PokemonTo: e.PokemonTo}
}

type statsView struct {
	HP             int `json:"hp"`
	Attack         int `json:"attack"`
	Defense        int `json:"defense"`
	SpecialAttack  int `json:"special_attack"`
	SpecialDefense int `json:"special_defense"`
	Speed          int `json:"speed"`
	Total          int `json:"total"`
}

func viewStats(s model.PokemonStatus) statsView {
	return statsView{
		HP:             s.HP,
		Attack:         s.Attack,
		Defense:        s.Defense,
		SpecialAttack:  s.SpecialAttack,
		SpecialDefense: s.SpecialDefense,
		Speed:          s.Speed,
		Total:          s.Total(),
	}
}

type pokemonDetailView struct {
	pokemonView
	Abilities  []abilityView   `json:"abilities"`
	Evolutions []evolutionView `json:"evolutions"`
	Stats      *statsView      `json:"stats"`
}

func viewDetail(d service.PokemonDetail) pokemonDetailView {
	out := pokemonDetailView{
		pokemonView: viewPokemon(d.Pokemon),
		Abilities:   viewAbilities(d.Abilities),
		Evolutions:  make([]evolutionView, 0, len(d.Evolutions)),
	}
	for _, e := range d.Evolutions {
		out.Evolutions = append(out.Evolutions, viewEvolution(e))
	}
	if d.Stats != nil {
		s := viewStats(*d.Stats)
		out.Stats = &s
	}
	return out
}

type inventoryView struct {
	ID           string `json:"id"`
	PokemonEntry int    `json:"pokemon_entry"`
	Shiny        bool   `json:"shiny"`
	Level        int    `json:"level"`
	Exp          int    `json:"exp"`
	Busy         bool   `json:"busy"`
}

func viewInventory(p model.InventoryPokemon) inventoryView {
	return inventoryView{ID: p.ID, PokemonEntry: p.PokemonEntry, Shiny: p.Shiny, Level: p.Level, Exp: p.Exp, Busy: p.Busy}
}

type rouletteView struct {
	PokemonName string    `json:"pokemon_name"`
	TimeRolled  time.Time `json:"time_rolled"`
}

type expeditionView struct {
	Slots       [model.ExpeditionSlots]string `json:"slots"`
	Location    int                           `json:"location"`
	Duration    int                           `json:"duration_minutes"`
	TimeStarted time.Time                     `json:"time_started"`
	EndsAt      time.Time                     `json:"ends_at"`
	Finished    bool                          `json:"finished"`
}

func viewExpedition(e model.Expedition, now time.Time) expeditionView {
	return expeditionView{
		Slots:       e.Slots(),
		Location:    e.Location,
		Duration:    e.Duration,
		TimeStarted: e.TimeStarted,
		EndsAt:      e.EndsAt(),
		Finished:    e.Finished(now),
	}
}
