// Package testutil provides a migrated SQLite database and row fixtures
// for package tests.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pokemon-roulette/internal/database"
	"github.com/iliyamo/pokemon-roulette/internal/schema"
)

// SetupTestDB opens a fresh SQLite file under t.TempDir with the full
// game schema applied.  The database is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "game.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := schema.Default().Apply(context.Background(), db, schema.SQLite); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}
	return db
}

// CreateUser inserts a user with a currency row and returns its id.
func CreateUser(t *testing.T, db *sql.DB, email string) string {
	t.Helper()
	id := uuid.NewString()
	if _, err := db.Exec("INSERT INTO `user` (`id`, `email`, `role`) VALUES (?, ?, 'user')", id, email); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if _, err := db.Exec("INSERT INTO `currency` (`userId`) VALUES (?)", id); err != nil {
		t.Fatalf("Failed to create currency: %v", err)
	}
	return id
}

// CreateAdmin inserts a user holding the admin role and returns its id.
func CreateAdmin(t *testing.T, db *sql.DB, email string) string {
	t.Helper()
	id := CreateUser(t, db, email)
	if _, err := db.Exec("UPDATE `user` SET `role` = 'admin' WHERE `id` = ?", id); err != nil {
		t.Fatalf("Failed to promote user: %v", err)
	}
	return id
}

// CreatePokemon inserts a common Normal-type catalog entry.
func CreatePokemon(t *testing.T, db *sql.DB, entry int, name string) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO `pokemon` (`entry`, `name`, `type`, `icon`, `rarity`) VALUES (?, ?, 'Normal', ?, 'common')",
		entry, name, fmt.Sprintf("https://img.example/%d.png", entry))
	if err != nil {
		t.Fatalf("Failed to create pokemon: %v", err)
	}
}

// CreateInventory inserts an idle instance of entry owned by userID and
// returns its id.
func CreateInventory(t *testing.T, db *sql.DB, userID string, entry int) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.Exec(
		"INSERT INTO `inventoryPokemon` (`id`, `userId`, `pokemonEntry`, `shiny`) VALUES (?, ?, ?, ?)",
		id, userID, entry, false)
	if err != nil {
		t.Fatalf("Failed to create inventory pokemon: %v", err)
	}
	return id
}

// Count returns the number of rows in table matching where.
func Count(t *testing.T, db *sql.DB, table, where string, args ...any) int {
	t.Helper()
	q := "SELECT COUNT(*) FROM `" + table + "`"
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	if err := db.QueryRow(q, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

// MakeRequest serves an HTTP request against e and returns the recorder.
// A non-nil body is encoded as JSON.  A non-empty token is sent as a
// Bearer Authorization header.
func MakeRequest(t *testing.T, e *echo.Echo, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// DecodeJSON unmarshals a recorder body into v.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}

// AssertStatus fails the test when rec does not carry want.
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("Expected status %d (%s), got %d: %s", want, http.StatusText(want), rec.Code, rec.Body.String())
	}
}
