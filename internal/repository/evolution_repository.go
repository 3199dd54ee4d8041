package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/pokemon-roulette/internal/model"
)

// EvolutionRepo manages evolution edges and the pokemonToEvolution join.
type EvolutionRepo struct{ db *sql.DB }

func NewEvolutionRepo(db *sql.DB) *EvolutionRepo { return &EvolutionRepo{db: db} }

func scanEvolution(row scanner) (model.Evolution, error) {
	var (
		e  model.Evolution
		to sql.NullInt64
	)
	if err := row.Scan(&e.ID, &e.PokemonFrom, &to); err != nil {
		return model.Evolution{}, err
	}
	if to.Valid {
		v := int(to.Int64)
		e.PokemonTo = &v
	}
	return e, nil
}

func createEvolution(ctx context.Context, q querier, from int, to *int) (model.Evolution, error) {
	var target sql.NullInt64
	if to != nil {
		target = sql.NullInt64{Int64: int64(*to), Valid: true}
	}
	res, err := q.ExecContext(ctx, "INSERT INTO `evolution` (`pokemonFrom`, `pokemonTo`) VALUES (?, ?)", from, target)
	if err != nil {
		return model.Evolution{}, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Evolution{}, err
	}
	return model.Evolution{ID: id, PokemonFrom: from, PokemonTo: to}, nil
}

// Create inserts an edge from -> to.  A nil to marks a terminal stage.
func (r *EvolutionRepo) Create(ctx context.Context, from int, to *int) (model.Evolution, error) {
	return createEvolution(ctx, r.db, from, to)
}

// CreateTx is Create inside tx.
func (r *EvolutionRepo) CreateTx(ctx context.Context, tx *sql.Tx, from int, to *int) (model.Evolution, error) {
	return createEvolution(ctx, tx, from, to)
}

// FindOrCreateTx returns the edge from -> to, creating it when missing.
func (r *EvolutionRepo) FindOrCreateTx(ctx context.Context, tx *sql.Tx, from int, to *int) (model.Evolution, error) {
	q := "SELECT `id`, `pokemonFrom`, `pokemonTo` FROM `evolution` WHERE `pokemonFrom` = ? AND `pokemonTo` IS NULL ORDER BY `id` LIMIT 1"
	args := []any{from}
	if to != nil {
		q = "SELECT `id`, `pokemonFrom`, `pokemonTo` FROM `evolution` WHERE `pokemonFrom` = ? AND `pokemonTo` = ? ORDER BY `id` LIMIT 1"
		args = append(args, *to)
	}
	e, err := scanEvolution(tx.QueryRowContext(ctx, q, args...))
	if err == nil {
		return e, nil
	}
	if err != sql.ErrNoRows {
		return model.Evolution{}, err
	}
	return createEvolution(ctx, tx, from, to)
}

// Get fetches an edge by id.
func (r *EvolutionRepo) Get(ctx context.Context, id int64) (model.Evolution, error) {
	e, err := scanEvolution(r.db.QueryRowContext(ctx,
		"SELECT `id`, `pokemonFrom`, `pokemonTo` FROM `evolution` WHERE `id` = ?", id))
	if err != nil {
		return model.Evolution{}, mapErr(err)
	}
	return e, nil
}

// ListFrom returns the edges leaving entry.
func (r *EvolutionRepo) ListFrom(ctx context.Context, entry int) ([]model.Evolution, error) {
	return r.query(ctx,
		"SELECT `id`, `pokemonFrom`, `pokemonTo` FROM `evolution` WHERE `pokemonFrom` = ? ORDER BY `id`", entry)
}

// Delete removes an edge and its join rows.
func (r *EvolutionRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM `evolution` WHERE `id` = ?", id)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}

func linkEvolution(ctx context.Context, q querier, entry int, evolutionID int64) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO `pokemonToEvolution` (`pokemonEntry`, `evolutionId`) VALUES (?, ?)", entry, evolutionID)
	return mapErr(err)
}

// Link records that entry participates in an evolution chain.
func (r *EvolutionRepo) Link(ctx context.Context, entry int, evolutionID int64) error {
	return linkEvolution(ctx, r.db, entry, evolutionID)
}

// LinkTx is Link inside tx.
func (r *EvolutionRepo) LinkTx(ctx context.Context, tx *sql.Tx, entry int, evolutionID int64) error {
	return linkEvolution(ctx, tx, entry, evolutionID)
}

// Unlink removes a pokemonToEvolution row.
func (r *EvolutionRepo) Unlink(ctx context.Context, entry int, evolutionID int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM `pokemonToEvolution` WHERE `pokemonEntry` = ? AND `evolutionId` = ?", entry, evolutionID)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}

// ListForPokemon returns the edges linked to entry via pokemonToEvolution.
func (r *EvolutionRepo) ListForPokemon(ctx context.Context, entry int) ([]model.Evolution, error) {
	return r.query(ctx,
		"SELECT e.`id`, e.`pokemonFrom`, e.`pokemonTo` FROM `pokemonToEvolution` pe "+
			"JOIN `evolution` e ON e.`id` = pe.`evolutionId` WHERE pe.`pokemonEntry` = ? ORDER BY e.`id`", entry)
}

func (r *EvolutionRepo) query(ctx context.Context, q string, args ...any) ([]model.Evolution, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Evolution
	for rows.Next() {
		e, err := scanEvolution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
