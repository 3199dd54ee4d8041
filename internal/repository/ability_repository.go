package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/pokemon-roulette/internal/model"
)

// AbilityRepo manages catalog abilities and the pokemonToAbility join.
type AbilityRepo struct{ db *sql.DB }

func NewAbilityRepo(db *sql.DB) *AbilityRepo { return &AbilityRepo{db: db} }

func createAbility(ctx context.Context, q querier, name string) (model.Ability, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Ability{}, ErrInvalid
	}
	res, err := q.ExecContext(ctx, "INSERT INTO `ability` (`name`) VALUES (?)", name)
	if err != nil {
		return model.Ability{}, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Ability{}, err
	}
	return model.Ability{ID: id, Name: name}, nil
}

// Create inserts an ability and returns it with its generated id.
func (r *AbilityRepo) Create(ctx context.Context, name string) (model.Ability, error) {
	return createAbility(ctx, r.db, name)
}

// FindOrCreateTx returns the first ability called name, creating it when
// none exists.  Ability names carry no unique key, so this is the path
// bulk imports use to avoid duplicates.
func (r *AbilityRepo) FindOrCreateTx(ctx context.Context, tx *sql.Tx, name string) (model.Ability, error) {
	var a model.Ability
	err := tx.QueryRowContext(ctx,
		"SELECT `id`, `name` FROM `ability` WHERE `name` = ? ORDER BY `id` LIMIT 1", strings.TrimSpace(name)).
		Scan(&a.ID, &a.Name)
	if err == nil {
		return a, nil
	}
	if err != sql.ErrNoRows {
		return model.Ability{}, err
	}
	return createAbility(ctx, tx, name)
}

// Get fetches an ability by id.
func (r *AbilityRepo) Get(ctx context.Context, id int64) (model.Ability, error) {
	var a model.Ability
	err := r.db.QueryRowContext(ctx, "SELECT `id`, `name` FROM `ability` WHERE `id` = ?", id).Scan(&a.ID, &a.Name)
	if err != nil {
		return model.Ability{}, mapErr(err)
	}
	return a, nil
}

// List returns all abilities ordered by name.
func (r *AbilityRepo) List(ctx context.Context) ([]model.Ability, error) {
	return r.query(ctx, "SELECT `id`, `name` FROM `ability` ORDER BY `name`, `id`")
}

// Delete removes an ability and its links.
func (r *AbilityRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM `ability` WHERE `id` = ?", id)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}

func linkAbility(ctx context.Context, q querier, entry int, abilityID int64) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO `pokemonToAbility` (`pokemonEntry`, `abilityId`) VALUES (?, ?)", entry, abilityID)
	return mapErr(err)
}

// Link attaches an ability to a catalog entry.  Linking twice yields
// ErrConflict; an unknown entry or ability yields ErrReference.
func (r *AbilityRepo) Link(ctx context.Context, entry int, abilityID int64) error {
	return linkAbility(ctx, r.db, entry, abilityID)
}

// LinkTx is Link inside tx.
func (r *AbilityRepo) LinkTx(ctx context.Context, tx *sql.Tx, entry int, abilityID int64) error {
	return linkAbility(ctx, tx, entry, abilityID)
}

// Unlink detaches an ability from a catalog entry.
func (r *AbilityRepo) Unlink(ctx context.Context, entry int, abilityID int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM `pokemonToAbility` WHERE `pokemonEntry` = ? AND `abilityId` = ?", entry, abilityID)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}

// ListForPokemon returns the abilities linked to entry.
func (r *AbilityRepo) ListForPokemon(ctx context.Context, entry int) ([]model.Ability, error) {
	return r.query(ctx,
		"SELECT a.`id`, a.`name` FROM `pokemonToAbility` pa JOIN `ability` a ON a.`id` = pa.`abilityId` "+
			"WHERE pa.`pokemonEntry` = ? ORDER BY a.`name`, a.`id`", entry)
}

func (r *AbilityRepo) query(ctx context.Context, q string, args ...any) ([]model.Ability, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Ability
	for rows.Next() {
		var a model.Ability
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
