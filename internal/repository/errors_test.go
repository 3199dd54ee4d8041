package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/pokemon-roulette/internal/model"
)

func TestMySQLErrorsMapToSentinels(t *testing.T) {
	tests := []struct {
		name   string
		number uint16
		want   error
	}{
		{"duplicate key", 1062, ErrConflict},
		{"missing parent", 1452, ErrReference},
		{"referenced parent", 1451, ErrInUse},
		{"enum truncated", 1265, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("Failed to create sqlmock: %v", err)
			}
			defer db.Close()

			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `account`")).
				WillReturnError(&mysql.MySQLError{Number: tt.number, Message: tt.name})

			err = NewAccountRepo(db).Link(context.Background(), model.Account{
				UserID: "u1", Type: "oauth", Provider: "github", ProviderAccountID: "1",
			})
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("Unmet expectations: %v", err)
			}
		})
	}
}

func TestAdjustBalanceDistinguishesMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE `currency` SET `cash`")).
		WithArgs(-10.0, 0.0, "u1", -10.0, 0.0).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM `currency`")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	_, err = NewCurrencyRepo(db).AdjustBalance(context.Background(), "u1", -10, 0)
	if !errors.Is(err, ErrInsufficient) {
		t.Errorf("Expected ErrInsufficient, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestPokemonUpsertInsertsWhenUpdateMatchesNothing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	p := model.Pokemon{Entry: 25, Name: "Pikachu", Type: model.TypeElectric, Icon: "p.png", Rarity: model.RarityRare}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `pokemon`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `pokemon`")).
		WithArgs(25, "Pikachu", "Electric", "p.png", "rare").
		WillReturnResult(sqlmock.NewResult(25, 1))
	mock.ExpectCommit()

	if err := NewPokemonRepo(db).Upsert(context.Background(), p); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestPlaceholders(t *testing.T) {
	tests := map[int]string{0: "", 1: "?", 3: "?, ?, ?"}
	for n, want := range tests {
		if got := placeholders(n); got != want {
			t.Errorf("placeholders(%d) = %q, want %q", n, got, want)
		}
	}
}
