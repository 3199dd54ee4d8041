package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/pokemon-roulette/internal/model"
	"github.com/iliyamo/pokemon-roulette/internal/utils"
)

// VerificationTokenRepo stores one-time sign-in secrets.  The `token`
// column holds a bcrypt hash, so lookups go by identifier and compare
// every live candidate.
type VerificationTokenRepo struct {
	db   *sql.DB
	cost int
}

func NewVerificationTokenRepo(db *sql.DB, bcryptCost int) *VerificationTokenRepo {
	return &VerificationTokenRepo{db: db, cost: bcryptCost}
}

// Create stores a hashed copy of rawToken for identifier.
func (r *VerificationTokenRepo) Create(ctx context.Context, identifier, rawToken string, expires time.Time) error {
	hash, err := utils.HashSecret(rawToken, r.cost)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO `verificationToken` (`identifier`, `token`, `expires`) VALUES (?, ?, ?)",
		strings.ToLower(strings.TrimSpace(identifier)), hash, seconds(expires))
	return mapErr(err)
}

// Use consumes the unexpired token of identifier matching rawToken.  The
// row is deleted; a token that was already used, never existed or has
// expired yields ErrNotFound.
func (r *VerificationTokenRepo) Use(ctx context.Context, identifier, rawToken string, now time.Time) (model.VerificationToken, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	rows, err := r.db.QueryContext(ctx,
		"SELECT `identifier`, `token`, `expires` FROM `verificationToken` WHERE `identifier` = ? AND `expires` > ?",
		identifier, seconds(now))
	if err != nil {
		return model.VerificationToken{}, err
	}
	var candidates []model.VerificationToken
	for rows.Next() {
		var vt model.VerificationToken
		if err := rows.Scan(&vt.Identifier, &vt.Token, &vt.Expires); err != nil {
			rows.Close()
			return model.VerificationToken{}, err
		}
		candidates = append(candidates, vt)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.VerificationToken{}, err
	}

	for _, vt := range candidates {
		if !utils.VerifySecret(vt.Token, rawToken) {
			continue
		}
		res, err := r.db.ExecContext(ctx,
			"DELETE FROM `verificationToken` WHERE `identifier` = ? AND `token` = ?", vt.Identifier, vt.Token)
		if err != nil {
			return model.VerificationToken{}, err
		}
		// lost a race with a concurrent use
		if err := affected(res); err != nil {
			return model.VerificationToken{}, err
		}
		vt.Expires = vt.Expires.UTC()
		return vt, nil
	}
	return model.VerificationToken{}, ErrNotFound
}

// DeleteExpired removes tokens whose expiry is at or before now.
func (r *VerificationTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM `verificationToken` WHERE `expires` <= ?", seconds(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
