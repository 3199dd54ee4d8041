package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/iliyamo/pokemon-roulette/internal/database"
	"github.com/iliyamo/pokemon-roulette/internal/model"
	"github.com/iliyamo/pokemon-roulette/internal/repository"
)

// CatalogEntry is one species in a catalog import file.
type CatalogEntry struct {
	Entry     int               `json:"entry"`
	Name      string            `json:"name"`
	Type      model.PokemonType `json:"type"`
	Icon      string            `json:"icon"`
	Rarity    model.Rarity      `json:"rarity"`
	Abilities []string          `json:"abilities,omitempty"`
	EvolvesTo []int             `json:"evolvesTo,omitempty"`
	Final     bool              `json:"final,omitempty"` // last stage of its chain
	Stats     *CatalogStats     `json:"stats,omitempty"`
}

// CatalogStats is the base stat block of a CatalogEntry.
type CatalogStats struct {
	HP             int `json:"hp"`
	Attack         int `json:"attack"`
	Defense        int `json:"defense"`
	SpecialAttack  int `json:"specialAttack"`
	SpecialDefense int `json:"specialDefense"`
	Speed          int `json:"speed"`
}

// ImportResult counts what an import wrote.
type ImportResult struct {
	Pokemon    int `json:"pokemon"`
	Abilities  int `json:"ability_links"`
	Evolutions int `json:"evolution_links"`
	Stats      int `json:"stats"`
}

// ParseCatalog decodes a JSON array of CatalogEntry.
func ParseCatalog(r io.Reader) ([]CatalogEntry, error) {
	var entries []CatalogEntry
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return entries, nil
}

// CatalogService administers the global catalog.
type CatalogService struct {
	DB         *sql.DB
	Pokemon    *repository.PokemonRepo
	Abilities  *repository.AbilityRepo
	Evolutions *repository.EvolutionRepo
	Status     *repository.StatusRepo
}

// NewCatalogService wires the service to db.
func NewCatalogService(db *sql.DB) *CatalogService {
	return &CatalogService{
		DB:         db,
		Pokemon:    repository.NewPokemonRepo(db),
		Abilities:  repository.NewAbilityRepo(db),
		Evolutions: repository.NewEvolutionRepo(db),
		Status:     repository.NewStatusRepo(db),
	}
}

// Import upserts entries in a single transaction.  Species are written
// first so abilities, stats and evolution edges can reference any entry
// of the file.  Re-importing the same file is idempotent.
func (s *CatalogService) Import(ctx context.Context, entries []CatalogEntry) (ImportResult, error) {
	var res ImportResult
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		for _, e := range entries {
			p := model.Pokemon{Entry: e.Entry, Name: e.Name, Type: e.Type, Icon: e.Icon, Rarity: e.Rarity}
			if err := s.Pokemon.UpsertTx(ctx, tx, p); err != nil {
				return fmt.Errorf("pokemon %d: %w", e.Entry, err)
			}
			res.Pokemon++
		}
		for _, e := range entries {
			if e.Stats != nil {
				st := model.PokemonStatus{
					PokemonEntry:   e.Entry,
					HP:             e.Stats.HP,
					Attack:         e.Stats.Attack,
					Defense:        e.Stats.Defense,
					SpecialAttack:  e.Stats.SpecialAttack,
					SpecialDefense: e.Stats.SpecialDefense,
					Speed:          e.Stats.Speed,
				}
				if err := s.Status.UpsertTx(ctx, tx, st); err != nil {
					return fmt.Errorf("stats %d: %w", e.Entry, err)
				}
				res.Stats++
			}
			for _, name := range e.Abilities {
				a, err := s.Abilities.FindOrCreateTx(ctx, tx, name)
				if err != nil {
					return fmt.Errorf("ability %q: %w", name, err)
				}
				if err := ignoreConflict(s.Abilities.LinkTx(ctx, tx, e.Entry, a.ID)); err != nil {
					return fmt.Errorf("ability %q of %d: %w", name, e.Entry, err)
				}
				res.Abilities++
			}
			for _, to := range e.EvolvesTo {
				to := to
				if _, err := s.linkEdge(ctx, tx, e.Entry, &to); err != nil {
					return fmt.Errorf("evolution %d -> %d: %w", e.Entry, to, err)
				}
				res.Evolutions++
			}
			if e.Final {
				if _, err := s.linkEdge(ctx, tx, e.Entry, nil); err != nil {
					return fmt.Errorf("final stage %d: %w", e.Entry, err)
				}
				res.Evolutions++
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

// linkEdge records the edge from -> to and joins both ends to it.
func (s *CatalogService) linkEdge(ctx context.Context, tx *sql.Tx, from int, to *int) (model.Evolution, error) {
	evo, err := s.Evolutions.FindOrCreateTx(ctx, tx, from, to)
	if err != nil {
		return model.Evolution{}, err
	}
	if err := ignoreConflict(s.Evolutions.LinkTx(ctx, tx, from, evo.ID)); err != nil {
		return model.Evolution{}, err
	}
	if to != nil {
		if err := ignoreConflict(s.Evolutions.LinkTx(ctx, tx, *to, evo.ID)); err != nil {
			return model.Evolution{}, err
		}
	}
	return evo, nil
}

// AddEvolution records the edge from -> to (to nil marks the final stage)
// and joins both ends to it in one transaction.
func (s *CatalogService) AddEvolution(ctx context.Context, from int, to *int) (model.Evolution, error) {
	var evo model.Evolution
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		evo, err = s.linkEdge(ctx, tx, from, to)
		return err
	})
	if err != nil {
		return model.Evolution{}, err
	}
	return evo, nil
}

// PokemonDetail is a catalog entry with its abilities, evolution edges
// and base stats.
type PokemonDetail struct {
	Pokemon    model.Pokemon
	Abilities  []model.Ability
	Evolutions []model.Evolution
	Stats      *model.PokemonStatus
}

// Detail loads entry and everything linked to it.
func (s *CatalogService) Detail(ctx context.Context, entry int) (PokemonDetail, error) {
	p, err := s.Pokemon.GetByEntry(ctx, entry)
	if err != nil {
		return PokemonDetail{}, err
	}
	d := PokemonDetail{Pokemon: p}
	if d.Abilities, err = s.Abilities.ListForPokemon(ctx, entry); err != nil {
		return PokemonDetail{}, err
	}
	if d.Evolutions, err = s.Evolutions.ListForPokemon(ctx, entry); err != nil {
		return PokemonDetail{}, err
	}
	st, err := s.Status.Get(ctx, entry)
	switch {
	case err == nil:
		d.Stats = &st
	case !errors.Is(err, repository.ErrNotFound):
		return PokemonDetail{}, err
	}
	return d, nil
}

func ignoreConflict(err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return nil
	}
	return err
}
