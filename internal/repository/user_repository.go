package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/pokemon-roulette/internal/model"
)

// UserRepo reads and writes the `user` table.  Deleting a user cascades
// to every per-user table (accounts, sessions, currency, inventory,
// expeditions and roulette logs).
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = "`id`, `name`, `email`, `emailVerified`, `image`, `role`"

func scanUser(row scanner) (model.User, error) {
	var (
		u        model.User
		name     sql.NullString
		verified sql.NullTime
		image    sql.NullString
	)
	if err := row.Scan(&u.ID, &name, &u.Email, &verified, &image, &u.Role); err != nil {
		return model.User{}, err
	}
	u.Name = stringPtr(name)
	u.Image = stringPtr(image)
	if verified.Valid {
		t := verified.Time.UTC()
		u.EmailVerified = &t
	}
	return u, nil
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// CreateTx inserts u inside tx.  An empty ID is replaced by a new UUID and
// an empty role by the default role.  When EmailVerified is nil the column
// is omitted so the database default applies.  The stored row is read back
// into u.
func (r *UserRepo) CreateTx(ctx context.Context, tx *sql.Tx, u *model.User) error {
	return createUser(ctx, tx, u)
}

// Create inserts u outside of any transaction.  See CreateTx.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	return createUser(ctx, r.db, u)
}

func createUser(ctx context.Context, q querier, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = model.DefaultRole
	}
	u.Email = normalizeEmail(u.Email)

	var err error
	if u.EmailVerified != nil {
		_, err = q.ExecContext(ctx,
			"INSERT INTO `user` (`id`, `name`, `email`, `emailVerified`, `image`, `role`) VALUES (?, ?, ?, ?, ?, ?)",
			u.ID, nullString(u.Name), u.Email, millis(*u.EmailVerified), nullString(u.Image), u.Role)
	} else {
		_, err = q.ExecContext(ctx,
			"INSERT INTO `user` (`id`, `name`, `email`, `image`, `role`) VALUES (?, ?, ?, ?, ?)",
			u.ID, nullString(u.Name), u.Email, nullString(u.Image), u.Role)
	}
	if err != nil {
		return mapErr(err)
	}
	stored, err := getUser(ctx, q, "`id` = ?", u.ID)
	if err != nil {
		return err
	}
	*u = stored
	return nil
}

func getUser(ctx context.Context, q querier, where string, arg any) (model.User, error) {
	row := q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM `user` WHERE "+where+" LIMIT 1", arg)
	u, err := scanUser(row)
	if err != nil {
		return model.User{}, mapErr(err)
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return getUser(ctx, r.db, "`id` = ?", id)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return getUser(ctx, r.db, "`email` = ?", normalizeEmail(email))
}

// List returns users ordered by email.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM `user` ORDER BY `email`, `id` LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update overwrites the mutable columns of u (name, email, emailVerified,
// image, role).
func (r *UserRepo) Update(ctx context.Context, u model.User) error {
	if !u.Role.Valid() {
		return ErrInvalid
	}
	var verified any
	if u.EmailVerified != nil {
		verified = millis(*u.EmailVerified)
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE `user` SET `name` = ?, `email` = ?, `emailVerified` = ?, `image` = ?, `role` = ? WHERE `id` = ?",
		nullString(u.Name), normalizeEmail(u.Email), verified, nullString(u.Image), u.Role, u.ID)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}

// SetRole changes the role of a user.
func (r *UserRepo) SetRole(ctx context.Context, id string, role model.Role) error {
	if !role.Valid() {
		return ErrInvalid
	}
	res, err := r.db.ExecContext(ctx, "UPDATE `user` SET `role` = ? WHERE `id` = ?", role, id)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}

// MarkEmailVerified stamps the verification time of a user.
func (r *UserRepo) MarkEmailVerified(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, "UPDATE `user` SET `emailVerified` = ? WHERE `id` = ?", millis(at), id)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}

// Delete removes a user and, through cascading foreign keys, everything
// the user owns.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM `user` WHERE `id` = ?", id)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}
