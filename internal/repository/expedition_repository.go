package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/pokemon-roulette/internal/model"
)

// ExpeditionRepo stores in-progress expeditions.  The primary key is
// (userId, slotOne, slotTwo, slotThree) and each slot references an
// inventory row, so releasing a pokemon removes its expedition.
type ExpeditionRepo struct{ db *sql.DB }

func NewExpeditionRepo(db *sql.DB) *ExpeditionRepo { return &ExpeditionRepo{db: db} }

const expeditionColumns = "`userId`, `slotOne`, `slotTwo`, `slotThree`, `location`, `duration`, `timeStarted`"

func scanExpedition(row scanner) (model.Expedition, error) {
	var e model.Expedition
	err := row.Scan(&e.UserID, &e.SlotOne, &e.SlotTwo, &e.SlotThree, &e.Location, &e.Duration, &e.TimeStarted)
	if err != nil {
		return model.Expedition{}, err
	}
	e.TimeStarted = e.TimeStarted.UTC()
	return e, nil
}

const expeditionKey = "`userId` = ? AND `slotOne` = ? AND `slotTwo` = ? AND `slotThree` = ?"

func getExpedition(ctx context.Context, q querier, userID string, slots [model.ExpeditionSlots]string) (model.Expedition, error) {
	e, err := scanExpedition(q.QueryRowContext(ctx,
		"SELECT "+expeditionColumns+" FROM `expedition` WHERE "+expeditionKey,
		userID, slots[0], slots[1], slots[2]))
	if err != nil {
		return model.Expedition{}, mapErr(err)
	}
	return e, nil
}

// CreateTx inserts e inside tx.  A zero TimeStarted takes the column
// default.  The stored row is read back into e.
func (r *ExpeditionRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.Expedition) error {
	var err error
	if e.TimeStarted.IsZero() {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO `expedition` (`userId`, `slotOne`, `slotTwo`, `slotThree`, `location`, `duration`) VALUES (?, ?, ?, ?, ?, ?)",
			e.UserID, e.SlotOne, e.SlotTwo, e.SlotThree, e.Location, e.Duration)
	} else {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO `expedition` ("+expeditionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
			e.UserID, e.SlotOne, e.SlotTwo, e.SlotThree, e.Location, e.Duration, millis(e.TimeStarted))
	}
	if err != nil {
		return mapErr(err)
	}
	stored, err := getExpedition(ctx, tx, e.UserID, e.Slots())
	if err != nil {
		return err
	}
	*e = stored
	return nil
}

// GetTx fetches an expedition by its full key inside tx.
func (r *ExpeditionRepo) GetTx(ctx context.Context, tx *sql.Tx, userID string, slots [model.ExpeditionSlots]string) (model.Expedition, error) {
	return getExpedition(ctx, tx, userID, slots)
}

// Get fetches an expedition by its full key.
func (r *ExpeditionRepo) Get(ctx context.Context, userID string, slots [model.ExpeditionSlots]string) (model.Expedition, error) {
	return getExpedition(ctx, r.db, userID, slots)
}

// ListByUser returns the expeditions of userID, oldest first.
func (r *ExpeditionRepo) ListByUser(ctx context.Context, userID string) ([]model.Expedition, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+expeditionColumns+" FROM `expedition` WHERE `userId` = ? ORDER BY `timeStarted`, `slotOne`", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Expedition
	for rows.Next() {
		e, err := scanExpedition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteTx removes an expedition by its full key inside tx.
func (r *ExpeditionRepo) DeleteTx(ctx context.Context, tx *sql.Tx, userID string, slots [model.ExpeditionSlots]string) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM `expedition` WHERE "+expeditionKey,
		userID, slots[0], slots[1], slots[2])
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}
