package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/pokemon-roulette/internal/model"
	"github.com/iliyamo/pokemon-roulette/internal/utils"
)

// SessionRepo persists sessions.  Callers always deal in raw tokens; the
// `sessionToken` column only holds utils.HashToken(raw).
type SessionRepo struct{ db *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// Create stores a session for s.UserID that expires at s.Expires.
func (r *SessionRepo) Create(ctx context.Context, s model.Session) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO `session` (`sessionToken`, `userId`, `expires`) VALUES (?, ?, ?)",
		utils.HashToken(s.SessionToken), s.UserID, seconds(s.Expires))
	return mapErr(err)
}

// GetWithUser resolves a raw token to its session and user.  A session
// found past its expiry at now is deleted and reported as ErrNotFound.
func (r *SessionRepo) GetWithUser(ctx context.Context, raw string, now time.Time) (model.Session, model.User, error) {
	const q = "SELECT s.`userId`, s.`expires`, " +
		"u.`id`, u.`name`, u.`email`, u.`emailVerified`, u.`image`, u.`role` " +
		"FROM `session` s JOIN `user` u ON u.`id` = s.`userId` WHERE s.`sessionToken` = ?"
	hash := utils.HashToken(raw)

	var (
		s        = model.Session{SessionToken: raw}
		u        model.User
		name     sql.NullString
		verified sql.NullTime
		image    sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, hash).Scan(&s.UserID, &s.Expires,
		&u.ID, &name, &u.Email, &verified, &image, &u.Role)
	if err != nil {
		return model.Session{}, model.User{}, mapErr(err)
	}
	s.Expires = s.Expires.UTC()
	if s.Expired(now) {
		_, _ = r.db.ExecContext(ctx, "DELETE FROM `session` WHERE `sessionToken` = ?", hash)
		return model.Session{}, model.User{}, ErrNotFound
	}
	u.Name = stringPtr(name)
	u.Image = stringPtr(image)
	if verified.Valid {
		t := verified.Time.UTC()
		u.EmailVerified = &t
	}
	return s, u, nil
}

// UpdateExpiry moves the expiry of a session.
func (r *SessionRepo) UpdateExpiry(ctx context.Context, raw string, expires time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE `session` SET `expires` = ? WHERE `sessionToken` = ?", seconds(expires), utils.HashToken(raw))
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}

// Delete removes one session.
func (r *SessionRepo) Delete(ctx context.Context, raw string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM `session` WHERE `sessionToken` = ?", utils.HashToken(raw))
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}

// DeleteByUser removes every session of a user and returns how many went.
func (r *SessionRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM `session` WHERE `userId` = ?", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpired removes sessions whose expiry is at or before now.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM `session` WHERE `expires` <= ?", seconds(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
