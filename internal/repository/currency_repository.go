package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/pokemon-roulette/internal/database"
	"github.com/iliyamo/pokemon-roulette/internal/model"
)

// CurrencyRepo manages the 1:1 balance row of each user.
type CurrencyRepo struct{ db *sql.DB }

func NewCurrencyRepo(db *sql.DB) *CurrencyRepo { return &CurrencyRepo{db: db} }

func getCurrency(ctx context.Context, q querier, userID string) (model.Currency, error) {
	var c model.Currency
	err := q.QueryRowContext(ctx,
		"SELECT `userId`, `cash`, `dust`, `numExpeditionsRemaining` FROM `currency` WHERE `userId` = ?", userID).
		Scan(&c.UserID, &c.Cash, &c.Dust, &c.NumExpeditionsRemaining)
	if err != nil {
		return model.Currency{}, mapErr(err)
	}
	return c, nil
}

func createCurrency(ctx context.Context, q querier, userID string) (model.Currency, error) {
	// only the key is written so cash, dust and allowance take column defaults
	if _, err := q.ExecContext(ctx, "INSERT INTO `currency` (`userId`) VALUES (?)", userID); err != nil {
		return model.Currency{}, mapErr(err)
	}
	return getCurrency(ctx, q, userID)
}

// CreateTx inserts the default currency row for userID inside tx.
func (r *CurrencyRepo) CreateTx(ctx context.Context, tx *sql.Tx, userID string) (model.Currency, error) {
	return createCurrency(ctx, tx, userID)
}

// Create inserts the default currency row for userID.
func (r *CurrencyRepo) Create(ctx context.Context, userID string) (model.Currency, error) {
	return createCurrency(ctx, r.db, userID)
}

// Get returns the balances of userID.
func (r *CurrencyRepo) Get(ctx context.Context, userID string) (model.Currency, error) {
	return getCurrency(ctx, r.db, userID)
}

func (r *CurrencyRepo) adjustBalance(ctx context.Context, q querier, userID string, cashDelta, dustDelta float64) error {
	res, err := q.ExecContext(ctx,
		"UPDATE `currency` SET `cash` = `cash` + ?, `dust` = `dust` + ? "+
			"WHERE `userId` = ? AND `cash` + ? >= 0 AND `dust` + ? >= 0",
		cashDelta, dustDelta, userID, cashDelta, dustDelta)
	if err != nil {
		return mapErr(err)
	}
	return r.explainNoop(ctx, q, res, userID)
}

func setAllowance(ctx context.Context, q querier, userID string, n int) error {
	if n < 0 {
		return ErrInvalid
	}
	res, err := q.ExecContext(ctx,
		"UPDATE `currency` SET `numExpeditionsRemaining` = ? WHERE `userId` = ?", n, userID)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}

// AdjustBalance adds the given deltas to cash and dust in one statement.
// The update is refused with ErrInsufficient when either balance would
// become negative.
func (r *CurrencyRepo) AdjustBalance(ctx context.Context, userID string, cashDelta, dustDelta float64) (model.Currency, error) {
	if err := r.adjustBalance(ctx, r.db, userID, cashDelta, dustDelta); err != nil {
		return model.Currency{}, err
	}
	return getCurrency(ctx, r.db, userID)
}

// SetExpeditionAllowance overwrites numExpeditionsRemaining.
func (r *CurrencyRepo) SetExpeditionAllowance(ctx context.Context, userID string, n int) error {
	return setAllowance(ctx, r.db, userID, n)
}

// Adjust applies balance deltas and, when allowance is non-nil, a new
// expedition allowance in one transaction.  Nothing is written unless
// every part succeeds.
func (r *CurrencyRepo) Adjust(ctx context.Context, userID string, cashDelta, dustDelta float64, allowance *int) (model.Currency, error) {
	var cur model.Currency
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if allowance != nil {
			if err := setAllowance(ctx, tx, userID, *allowance); err != nil {
				return err
			}
		}
		if err := r.adjustBalance(ctx, tx, userID, cashDelta, dustDelta); err != nil {
			return err
		}
		var err error
		cur, err = getCurrency(ctx, tx, userID)
		return err
	})
	if err != nil {
		return model.Currency{}, err
	}
	return cur, nil
}

// ConsumeExpeditionTx decrements the expedition allowance of userID inside
// tx, failing with ErrInsufficient when none is left.
func (r *CurrencyRepo) ConsumeExpeditionTx(ctx context.Context, tx *sql.Tx, userID string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE `currency` SET `numExpeditionsRemaining` = `numExpeditionsRemaining` - 1 "+
			"WHERE `userId` = ? AND `numExpeditionsRemaining` > 0", userID)
	if err != nil {
		return mapErr(err)
	}
	return r.explainNoop(ctx, tx, res, userID)
}

// explainNoop turns a conditional update that matched nothing into
// ErrNotFound (no row) or ErrInsufficient (row exists, guard failed).
func (r *CurrencyRepo) explainNoop(ctx context.Context, q querier, res sql.Result, userID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = q.QueryRowContext(ctx, "SELECT 1 FROM `currency` WHERE `userId` = ?", userID).Scan(&one)
	if err != nil {
		return mapErr(err)
	}
	return ErrInsufficient
}
