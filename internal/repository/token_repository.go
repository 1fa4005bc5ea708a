package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo persists staff refresh tokens.  Only the SHA-256 hash of a raw
// token ever reaches the database.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh records a freshly issued token hash.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		userID, tokenHash, exp.UTC())
	return err
}

// ValidateRefresh returns the staff id owning a live token.  Revoked,
// expired and unknown hashes are all ErrNotFound so callers cannot tell
// them apart.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var userID uint64
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id FROM refresh_tokens
		 WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()
		 LIMIT 1`, tokenHash).Scan(&userID)
	if err != nil {
		return 0, notFound(err)
	}
	return userID, nil
}

// RevokeByHash ends a single session.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	return r.revoke(ctx, `token_hash = ?`, tokenHash)
}

// RevokeAllForUser ends every session of a staff member.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	return r.revoke(ctx, `user_id = ?`, userID)
}

func (r *TokenRepo) revoke(ctx context.Context, where string, arg any) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE `+where+` AND revoked_at IS NULL`, arg)
	return err
}
