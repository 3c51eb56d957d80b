package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sanedge/user-management-api/internal/model"
)

// TokenRepo persists refresh tokens. Revocation is a soft delete so a
// presented token can still be traced after logout.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

const tokenColumns = "id, user_id, token, expires_at, created_at, updated_at, deleted_at"

// Rotate revokes every live refresh token of the user and inserts the
// replacement inside one transaction, so at most one live token per
// user exists no matter how the calls interleave.
func (r *TokenRepo) Rotate(ctx context.Context, userID uint64, token string, expiresAt time.Time) (*model.RefreshToken, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET deleted_at=UTC_TIMESTAMP() WHERE user_id=? AND deleted_at IS NULL",
		userID); err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES (?,?,?)",
		userID, token, expiresAt.UTC())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	row := r.DB.QueryRowContext(ctx,
		"SELECT "+tokenColumns+" FROM refresh_tokens WHERE id=? LIMIT 1", id)
	return scanToken(row)
}

// FindByToken returns the live row matching the presented token string.
// Revoked tokens are invisible here; expiry is judged by the caller.
func (r *TokenRepo) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+tokenColumns+" FROM refresh_tokens WHERE token=? AND deleted_at IS NULL LIMIT 1", token)
	return scanToken(row)
}

// RevokeAllForUser soft-deletes every live token of the user. Revoking
// when none exist is not an error, which keeps logout idempotent.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET deleted_at=UTC_TIMESTAMP() WHERE user_id=? AND deleted_at IS NULL", userID)
	return err
}

func scanToken(row *sql.Row) (*model.RefreshToken, error) {
	var (
		t         model.RefreshToken
		deletedAt sql.NullTime
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		ts := deletedAt.Time
		t.DeletedAt = &ts
	}
	return &t, nil
}
