package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/pokemon-roulette/internal/database"
	"github.com/iliyamo/pokemon-roulette/internal/model"
)

// PokemonRepo administers the global catalog.  Player operations never
// write here; deleting an entry cascades to its join rows, stats and
// every inventory row of that species.
type PokemonRepo struct{ db *sql.DB }

func NewPokemonRepo(db *sql.DB) *PokemonRepo { return &PokemonRepo{db: db} }

// PokemonFilter narrows List.  Zero values match everything.
type PokemonFilter struct {
	Type   model.PokemonType
	Rarity model.Rarity
	Limit  int
	Offset int
}

const pokemonColumns = "`entry`, `name`, `type`, `icon`, `rarity`"

func scanPokemon(row scanner) (model.Pokemon, error) {
	var p model.Pokemon
	if err := row.Scan(&p.Entry, &p.Name, &p.Type, &p.Icon, &p.Rarity); err != nil {
		return model.Pokemon{}, err
	}
	return p, nil
}

// UpsertTx inserts p or overwrites the entry with the same number inside
// tx.  A name already used by another entry yields ErrConflict; renaming
// an entry whose old name roulette logs still hold yields ErrInUse.
func (r *PokemonRepo) UpsertTx(ctx context.Context, tx *sql.Tx, p model.Pokemon) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE `pokemon` SET `name` = ?, `type` = ?, `icon` = ?, `rarity` = ? WHERE `entry` = ?",
		p.Name, p.Type, p.Icon, p.Rarity, p.Entry)
	if err != nil {
		return mapParentErr(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n > 0 {
		return nil
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO `pokemon` ("+pokemonColumns+") VALUES (?, ?, ?, ?, ?)",
		p.Entry, p.Name, p.Type, p.Icon, p.Rarity)
	return mapErr(err)
}

// Upsert runs UpsertTx in its own transaction.
func (r *PokemonRepo) Upsert(ctx context.Context, p model.Pokemon) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return r.UpsertTx(ctx, tx, p)
	})
}

// GetByEntry fetches a catalog entry by dex number.
func (r *PokemonRepo) GetByEntry(ctx context.Context, entry int) (model.Pokemon, error) {
	p, err := scanPokemon(r.db.QueryRowContext(ctx,
		"SELECT "+pokemonColumns+" FROM `pokemon` WHERE `entry` = ?", entry))
	if err != nil {
		return model.Pokemon{}, mapErr(err)
	}
	return p, nil
}

// GetByName fetches a catalog entry by its unique name.
func (r *PokemonRepo) GetByName(ctx context.Context, name string) (model.Pokemon, error) {
	p, err := scanPokemon(r.db.QueryRowContext(ctx,
		"SELECT "+pokemonColumns+" FROM `pokemon` WHERE `name` = ?", strings.TrimSpace(name)))
	if err != nil {
		return model.Pokemon{}, mapErr(err)
	}
	return p, nil
}

// List returns catalog entries ordered by entry number.
func (r *PokemonRepo) List(ctx context.Context, f PokemonFilter) ([]model.Pokemon, error) {
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		where = append(where, "`type` = ?")
		args = append(args, f.Type)
	}
	if f.Rarity != "" {
		where = append(where, "`rarity` = ?")
		args = append(args, f.Rarity)
	}
	q := "SELECT " + pokemonColumns + " FROM `pokemon`"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY `entry`"
	if f.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		offset := f.Offset
		if offset < 0 {
			offset = 0
		}
		args = append(args, f.Limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Pokemon
	for rows.Next() {
		p, err := scanPokemon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes a catalog entry and everything that references it.
func (r *PokemonRepo) Delete(ctx context.Context, entry int) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM `pokemon` WHERE `entry` = ?", entry)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}
