// Package auth exposes the user, account, session and verification token
// operations an authentication provider integration needs, backed by the
// game schema.  Creating a user also creates the user's currency row.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/pokemon-roulette/internal/database"
	"github.com/iliyamo/pokemon-roulette/internal/model"
	"github.com/iliyamo/pokemon-roulette/internal/repository"
)

// Adapter bundles the repositories behind authentication.
type Adapter struct {
	DB       *sql.DB
	Users    *repository.UserRepo
	Accounts *repository.AccountRepo
	Sessions *repository.SessionRepo
	Tokens   *repository.VerificationTokenRepo
	Currency *repository.CurrencyRepo
	Now      func() time.Time
}

// NewAdapter wires an Adapter to db.  bcryptCost applies to verification
// tokens.
func NewAdapter(db *sql.DB, bcryptCost int) *Adapter {
	return &Adapter{
		DB:       db,
		Users:    repository.NewUserRepo(db),
		Accounts: repository.NewAccountRepo(db),
		Sessions: repository.NewSessionRepo(db),
		Tokens:   repository.NewVerificationTokenRepo(db, bcryptCost),
		Currency: repository.NewCurrencyRepo(db),
		Now:      time.Now,
	}
}

func (a *Adapter) now() time.Time {
	if a.Now == nil {
		return time.Now().UTC()
	}
	return a.Now().UTC()
}

// CreateUser stores u together with its default currency row.
func (a *Adapter) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	err := database.WithTx(ctx, a.DB, func(tx *sql.Tx) error {
		if err := a.Users.CreateTx(ctx, tx, &u); err != nil {
			return err
		}
		_, err := a.Currency.CreateTx(ctx, tx, u.ID)
		return err
	})
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// GetUser fetches a user by id.
func (a *Adapter) GetUser(ctx context.Context, id string) (model.User, error) {
	return a.Users.GetByID(ctx, id)
}

// GetUserByEmail fetches a user by email.
func (a *Adapter) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return a.Users.GetByEmail(ctx, email)
}

// GetUserByAccount fetches the user a provider identity is linked to.
func (a *Adapter) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (model.User, error) {
	return a.Accounts.GetUserByAccount(ctx, provider, providerAccountID)
}

// UpdateUser overwrites the profile columns of u and returns the stored row.
func (a *Adapter) UpdateUser(ctx context.Context, u model.User) (model.User, error) {
	if err := a.Users.Update(ctx, u); err != nil {
		return model.User{}, err
	}
	return a.Users.GetByID(ctx, u.ID)
}

// DeleteUser removes a user and everything that cascades from it.
func (a *Adapter) DeleteUser(ctx context.Context, id string) error {
	return a.Users.Delete(ctx, id)
}

// LinkAccount attaches a provider identity to a user.
func (a *Adapter) LinkAccount(ctx context.Context, acc model.Account) error {
	return a.Accounts.Link(ctx, acc)
}

// UnlinkAccount detaches a provider identity.
func (a *Adapter) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	return a.Accounts.Unlink(ctx, provider, providerAccountID)
}

// CreateSession stores s; s.SessionToken is the raw token.
func (a *Adapter) CreateSession(ctx context.Context, s model.Session) (model.Session, error) {
	if err := a.Sessions.Create(ctx, s); err != nil {
		return model.Session{}, err
	}
	s.Expires = s.Expires.UTC().Truncate(time.Second)
	return s, nil
}

// GetSessionAndUser resolves a raw session token.  Expired sessions are
// removed and reported as repository.ErrNotFound.
func (a *Adapter) GetSessionAndUser(ctx context.Context, raw string) (model.Session, model.User, error) {
	return a.Sessions.GetWithUser(ctx, raw, a.now())
}

// UpdateSession moves the expiry of a session.
func (a *Adapter) UpdateSession(ctx context.Context, raw string, expires time.Time) error {
	return a.Sessions.UpdateExpiry(ctx, raw, expires)
}

// DeleteSession removes a session.  Deleting an unknown session is not an
// error.
func (a *Adapter) DeleteSession(ctx context.Context, raw string) error {
	if err := a.Sessions.Delete(ctx, raw); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// CreateVerificationToken stores a hashed copy of vt.Token.
func (a *Adapter) CreateVerificationToken(ctx context.Context, vt model.VerificationToken) error {
	return a.Tokens.Create(ctx, vt.Identifier, vt.Token, vt.Expires)
}

// UseVerificationToken consumes the matching unexpired token.
func (a *Adapter) UseVerificationToken(ctx context.Context, identifier, token string) (model.VerificationToken, error) {
	return a.Tokens.Use(ctx, identifier, token, a.now())
}
