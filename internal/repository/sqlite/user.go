package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stemly/backend/internal/apperror"
	"github.com/stemly/backend/internal/model"
	"github.com/stemly/backend/internal/repository"
)

// UserDB stores user records keyed by the identity provider's uid.
type UserDB struct {
	conn *sql.DB
}

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// RecordLogin upserts the user on every successful authentication.
//
// created_at is write-once: the ON CONFLICT clause deliberately leaves it
// out, so two logins by the same identity keep the original creation
// timestamp while name, email, picture and last_login are refreshed.
func (u *UserDB) RecordLogin(ctx context.Context, identity *model.Identity) error {
	if identity == nil || identity.UID == "" {
		return apperror.ValidationFailed("uid", "user id is required to record a login")
	}

	now := time.Now().UTC()

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (uid, name, email, picture, created_at, last_login)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(uid) DO UPDATE SET
			name       = excluded.name,
			email      = excluded.email,
			picture    = excluded.picture,
			last_login = excluded.last_login`,
		identity.UID,
		identity.Name,
		identity.Email,
		identity.Picture,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: recording login for %s: %w", identity.UID, err)
	}

	return nil
}

// GetByUID retrieves a user record. Returns apperror.ErrNotFound if the
// user has never logged in.
func (u *UserDB) GetByUID(ctx context.Context, uid string) (*model.User, error) {
	var usr model.User

	err := u.conn.QueryRowContext(ctx,
		`SELECT uid, name, email, picture, created_at, last_login
		 FROM users WHERE uid = ?`,
		uid,
	).Scan(
		&usr.UID,
		&usr.Name,
		&usr.Email,
		&usr.Picture,
		&usr.CreatedAt,
		&usr.LastLogin,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", uid)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", uid, err)
	}

	return &usr, nil
}
