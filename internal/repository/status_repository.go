package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/pokemon-roulette/internal/database"
	"github.com/iliyamo/pokemon-roulette/internal/model"
)

// StatusRepo manages the base stats of catalog entries (1:1 with pokemon).
type StatusRepo struct{ db *sql.DB }

func NewStatusRepo(db *sql.DB) *StatusRepo { return &StatusRepo{db: db} }

// UpsertTx writes the stat block of s.PokemonEntry inside tx.
func (r *StatusRepo) UpsertTx(ctx context.Context, tx *sql.Tx, s model.PokemonStatus) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE `pokemonStatus` SET `hp` = ?, `attack` = ?, `defense` = ?, `specialAttack` = ?, `specialDefense` = ?, `speed` = ? "+
			"WHERE `pokemonEntry` = ?",
		s.HP, s.Attack, s.Defense, s.SpecialAttack, s.SpecialDefense, s.Speed, s.PokemonEntry)
	if err != nil {
		return mapErr(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n > 0 {
		return nil
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO `pokemonStatus` (`pokemonEntry`, `hp`, `attack`, `defense`, `specialAttack`, `specialDefense`, `speed`) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?)",
		s.PokemonEntry, s.HP, s.Attack, s.Defense, s.SpecialAttack, s.SpecialDefense, s.Speed)
	return mapErr(err)
}

// Upsert runs UpsertTx in its own transaction.
func (r *StatusRepo) Upsert(ctx context.Context, s model.PokemonStatus) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return r.UpsertTx(ctx, tx, s)
	})
}

// Get returns the stat block of entry.
func (r *StatusRepo) Get(ctx context.Context, entry int) (model.PokemonStatus, error) {
	var s model.PokemonStatus
	err := r.db.QueryRowContext(ctx,
		"SELECT `pokemonEntry`, `hp`, `attack`, `defense`, `specialAttack`, `specialDefense`, `speed` "+
			"FROM `pokemonStatus` WHERE `pokemonEntry` = ?", entry).
		Scan(&s.PokemonEntry, &s.HP, &s.Attack, &s.Defense, &s.SpecialAttack, &s.SpecialDefense, &s.Speed)
	if err != nil {
		return model.PokemonStatus{}, mapErr(err)
	}
	return s, nil
}
