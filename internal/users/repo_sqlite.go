package users

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLiteRepo implements Repo on SQLite. Timestamps are unix microseconds,
// matching the reports table.
type SQLiteRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

func (r *SQLiteRepo) Upsert(ctx context.Context, user User) error {
	if err := validate(user); err != nil {
		return err
	}
	const query = `
INSERT INTO users (id, email, name, picture_url, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
  email = excluded.email,
  name = excluded.name,
  picture_url = excluded.picture_url,
  updated_at = excluded.updated_at`
	now := r.now().UnixMicro()
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		nullableString(user.Name),
		nullableString(user.PictureURL),
		now,
		now,
	)
	return err
}

func (r *SQLiteRepo) GetByID(ctx context.Context, userID string) (User, error) {
	const query = `
SELECT id, email, name, picture_url, created_at, updated_at
FROM users
WHERE id = ?`
	var (
		user             User
		profile          profileColumns
		created, updated int64
	)
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Email,
		&profile.name,
		&profile.pictureURL,
		&created,
		&updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	profile.apply(&user)
	user.CreatedAt = time.UnixMicro(created).UTC()
	user.UpdatedAt = time.UnixMicro(updated).UTC()
	return user, nil
}

func (r *SQLiteRepo) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}
