// Package repository holds the data access code for every table of the
// game schema.  Queries are written in the subset of SQL shared by MySQL
// and SQLite (backtick identifiers, ? placeholders) so the same code runs
// in production and in tests.
//
// Sentinel errors let higher layers such as services and handlers tell
// failure scenarios apart without inspecting driver errors.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/pokemon-roulette/internal/database"
)

// ErrNotFound is returned when the requested row does not exist.
// Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// row owned by another user.  Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write collides with an existing key or
// with the current state of a row (e.g. a pokemon already on an
// expedition).  Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrReference is returned when a write points at a parent row that does
// not exist.
var ErrReference = errors.New("referenced row does not exist")

// ErrInUse is returned when a key change is refused because other rows
// still reference the old value.  Handlers translate it into HTTP 409.
var ErrInUse = errors.New("row is still referenced")

// ErrInsufficient is returned when a balance or allowance would drop
// below zero.
var ErrInsufficient = errors.New("insufficient balance")

// ErrInvalid is returned when the database rejects a value outside a
// closed set or a NOT NULL column left empty.
var ErrInvalid = errors.New("invalid value")

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// mapErr converts driver and database/sql errors into the sentinels above,
// keeping the original error in the chain.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case database.IsDuplicate(err):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case database.IsReferenced(err):
		return fmt.Errorf("%w: %v", ErrInUse, err)
	case database.IsForeignKey(err):
		return fmt.Errorf("%w: %v", ErrReference, err)
	case database.IsInvalidValue(err):
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return err
}

// mapParentErr is mapErr for statements that rewrite a referenced key of
// an existing parent row.  Such a statement can only break a reference,
// never miss one, so every foreign key failure means the row is in use.
func mapParentErr(err error) error {
	if database.IsForeignKey(err) {
		return fmt.Errorf("%w: %v", ErrInUse, err)
	}
	return mapErr(err)
}

// affected returns ErrNotFound when res touched no rows.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Times are stored in UTC; millis matches TIMESTAMP(3) columns and
// seconds matches plain TIMESTAMP columns.
func millis(t time.Time) time.Time  { return t.UTC().Truncate(time.Millisecond) }
func seconds(t time.Time) time.Time { return t.UTC().Truncate(time.Second) }

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, '?')
	}
	return string(b)
}
