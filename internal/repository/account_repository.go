package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/pokemon-roulette/internal/model"
)

// AccountRepo manages external identities linked to users.  The pair
// (provider, providerAccountId) is the primary key, so one provider
// account can belong to at most one user.
type AccountRepo struct{ db *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

const accountColumns = "`userId`, `type`, `provider`, `providerAccountId`, `refresh_token`, `access_token`, `expires_at`, `token_type`, `scope`, `id_token`, `session_state`"

func scanAccount(row scanner) (model.Account, error) {
	var (
		a                                        model.Account
		refresh, access, tokenType, scope, idTok sql.NullString
		state                                    sql.NullString
		expires                                  sql.NullInt64
	)
	err := row.Scan(&a.UserID, &a.Type, &a.Provider, &a.ProviderAccountID,
		&refresh, &access, &expires, &tokenType, &scope, &idTok, &state)
	if err != nil {
		return model.Account{}, err
	}
	a.RefreshToken = stringPtr(refresh)
	a.AccessToken = stringPtr(access)
	a.TokenType = stringPtr(tokenType)
	a.Scope = stringPtr(scope)
	a.IDToken = stringPtr(idTok)
	a.SessionState = stringPtr(state)
	if expires.Valid {
		v := expires.Int64
		a.ExpiresAt = &v
	}
	return a, nil
}

// Link stores a. A second link of the same provider account returns
// ErrConflict; an unknown user returns ErrReference.
func (r *AccountRepo) Link(ctx context.Context, a model.Account) error {
	var expires sql.NullInt64
	if a.ExpiresAt != nil {
		expires = sql.NullInt64{Int64: *a.ExpiresAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO `account` ("+accountColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		a.UserID, a.Type, a.Provider, a.ProviderAccountID,
		nullString(a.RefreshToken), nullString(a.AccessToken), expires,
		nullString(a.TokenType), nullString(a.Scope), nullString(a.IDToken), nullString(a.SessionState))
	return mapErr(err)
}

// Get returns the account row for a provider identity.
func (r *AccountRepo) Get(ctx context.Context, provider, providerAccountID string) (model.Account, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM `account` WHERE `provider` = ? AND `providerAccountId` = ?",
		provider, providerAccountID)
	a, err := scanAccount(row)
	if err != nil {
		return model.Account{}, mapErr(err)
	}
	return a, nil
}

// GetUserByAccount returns the user a provider identity is linked to.
func (r *AccountRepo) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (model.User, error) {
	const q = "SELECT u.`id`, u.`name`, u.`email`, u.`emailVerified`, u.`image`, u.`role` " +
		"FROM `account` a JOIN `user` u ON u.`id` = a.`userId` " +
		"WHERE a.`provider` = ? AND a.`providerAccountId` = ?"
	u, err := scanUser(r.db.QueryRowContext(ctx, q, provider, providerAccountID))
	if err != nil {
		return model.User{}, mapErr(err)
	}
	return u, nil
}

// ListByUser returns all accounts linked to userID ordered by provider.
func (r *AccountRepo) ListByUser(ctx context.Context, userID string) ([]model.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM `account` WHERE `userId` = ? ORDER BY `provider`, `providerAccountId`", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Unlink removes a provider identity.
func (r *AccountRepo) Unlink(ctx context.Context, provider, providerAccountID string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM `account` WHERE `provider` = ? AND `providerAccountId` = ?", provider, providerAccountID)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}
