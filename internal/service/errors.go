// Package service implements the transactional game operations that span
// several tables: starting and recalling expeditions, recording roulette
// draws and importing the catalog.  Outcomes are always supplied by the
// caller; nothing here computes rewards, odds or progression.
package service

import "errors"

// ErrInvalidInput is returned when a request is rejected before touching
// the database.
var ErrInvalidInput = errors.New("invalid input")
