package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/pokemon-roulette/internal/model"
)

// RouletteRepo appends and lists draw events.  Rows are keyed by
// (userId, pokemonName, timeRolled) and never updated.
type RouletteRepo struct{ db *sql.DB }

func NewRouletteRepo(db *sql.DB) *RouletteRepo { return &RouletteRepo{db: db} }

func appendRoulette(ctx context.Context, q querier, l *model.RouletteLog) error {
	if l.TimeRolled.IsZero() {
		l.TimeRolled = time.Now()
	}
	l.TimeRolled = millis(l.TimeRolled)
	_, err := q.ExecContext(ctx,
		"INSERT INTO `rouletteLogs` (`userId`, `pokemonName`, `timeRolled`) VALUES (?, ?, ?)",
		l.UserID, l.PokemonName, l.TimeRolled)
	return mapErr(err)
}

// AppendTx inserts l inside tx.  A zero TimeRolled is set to the current
// time; the stored value is truncated to milliseconds.  The same pokemon
// rolled twice at the same instant yields ErrConflict.
func (r *RouletteRepo) AppendTx(ctx context.Context, tx *sql.Tx, l *model.RouletteLog) error {
	return appendRoulette(ctx, tx, l)
}

// Append is AppendTx without a surrounding transaction.
func (r *RouletteRepo) Append(ctx context.Context, l *model.RouletteLog) error {
	return appendRoulette(ctx, r.db, l)
}

// ListByUser returns the latest draws of userID, newest first.
func (r *RouletteRepo) ListByUser(ctx context.Context, userID string, limit int) ([]model.RouletteLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT `userId`, `pokemonName`, `timeRolled` FROM `rouletteLogs` WHERE `userId` = ? "+
			"ORDER BY `timeRolled` DESC, `pokemonName` LIMIT ?", userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RouletteLog
	for rows.Next() {
		var l model.RouletteLog
		if err := rows.Scan(&l.UserID, &l.PokemonName, &l.TimeRolled); err != nil {
			return nil, err
		}
		l.TimeRolled = l.TimeRolled.UTC()
		out = append(out, l)
	}
	return out, rows.Err()
}
