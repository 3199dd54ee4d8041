package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/pokemon-roulette/internal/model"
)

// InventoryRepo manages the pokemon instances owned by players.  The busy
// flag is not constrained by the schema; MarkBusyTx and ReleaseBusyTx keep
// it in step with expeditions.
type InventoryRepo struct{ db *sql.DB }

func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

const inventoryColumns = "`id`, `userId`, `pokemonEntry`, `shiny`, `level`, `exp`, `busy`"

func scanInventory(row scanner) (model.InventoryPokemon, error) {
	var p model.InventoryPokemon
	if err := row.Scan(&p.ID, &p.UserID, &p.PokemonEntry, &p.Shiny, &p.Level, &p.Exp, &p.Busy); err != nil {
		return model.InventoryPokemon{}, err
	}
	return p, nil
}

func getInventory(ctx context.Context, q querier, id string) (model.InventoryPokemon, error) {
	p, err := scanInventory(q.QueryRowContext(ctx,
		"SELECT "+inventoryColumns+" FROM `inventoryPokemon` WHERE `id` = ?", id))
	if err != nil {
		return model.InventoryPokemon{}, mapErr(err)
	}
	return p, nil
}

// CreateTx inserts a new instance for p.UserID inside tx.  The id is a
// fresh UUID; level, exp and busy take their column defaults.  The stored
// row is read back into p.
func (r *InventoryRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.InventoryPokemon) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := tx.ExecContext(ctx,
		"INSERT INTO `inventoryPokemon` (`id`, `userId`, `pokemonEntry`, `shiny`) VALUES (?, ?, ?, ?)",
		p.ID, p.UserID, p.PokemonEntry, p.Shiny)
	if err != nil {
		return mapErr(err)
	}
	stored, err := getInventory(ctx, tx, p.ID)
	if err != nil {
		return err
	}
	*p = stored
	return nil
}

// GetByID fetches one instance.
func (r *InventoryRepo) GetByID(ctx context.Context, id string) (model.InventoryPokemon, error) {
	return getInventory(ctx, r.db, id)
}

// ListByUser returns the instances owned by userID ordered by entry.
func (r *InventoryRepo) ListByUser(ctx context.Context, userID string) ([]model.InventoryPokemon, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+inventoryColumns+" FROM `inventoryPokemon` WHERE `userId` = ? ORDER BY `pokemonEntry`, `id`", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.InventoryPokemon
	for rows.Next() {
		p, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkBusyTx flags every id as busy inside tx.  All ids must exist, be
// owned by userID and be idle; otherwise ErrNotFound, ErrForbidden or
// ErrConflict is returned and the caller must roll tx back.
func (r *InventoryRepo) MarkBusyTx(ctx context.Context, tx *sql.Tx, userID string, ids []string) error {
	return r.setBusy(ctx, tx, userID, ids, true)
}

// ReleaseBusyTx clears the busy flag of every id inside tx.  Ids must
// exist and be owned by userID; an instance that is already idle is not
// an error.
func (r *InventoryRepo) ReleaseBusyTx(ctx context.Context, tx *sql.Tx, userID string, ids []string) error {
	return r.setBusy(ctx, tx, userID, ids, false)
}

func (r *InventoryRepo) setBusy(ctx context.Context, tx *sql.Tx, userID string, ids []string, busy bool) error {
	if len(ids) == 0 {
		return nil
	}
	q := "UPDATE `inventoryPokemon` SET `busy` = ? WHERE `userId` = ?"
	args := make([]any, 0, len(ids)+3)
	args = append(args, busy, userID)
	if busy {
		q += " AND `busy` = ?"
		args = append(args, false)
	}
	q += " AND `id` IN (" + placeholders(len(ids)) + ")"
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if int(n) == len(ids) {
		return nil
	}
	return explainInventory(ctx, tx, userID, ids)
}

// explainInventory reports why a guarded update on ids did not touch all
// of them.
func explainInventory(ctx context.Context, q querier, userID string, ids []string) error {
	for _, id := range ids {
		p, err := getInventory(ctx, q, id)
		if err != nil {
			return err
		}
		if p.UserID != userID {
			return ErrForbidden
		}
	}
	return ErrConflict
}

// Delete releases an instance owned by userID.  Busy instances cannot be
// released (ErrConflict).
func (r *InventoryRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM `inventoryPokemon` WHERE `id` = ? AND `userId` = ? AND `busy` = ?", id, userID, false)
	if err != nil {
		return mapErr(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n > 0 {
		return nil
	}
	return explainInventory(ctx, r.db, userID, []string{id})
}
