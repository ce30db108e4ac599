package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepo persists the refresh-token denylist (single 'token_hash' column).
// Only hashes of token identifiers are stored, never raw tokens.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Revoke records a token hash. Revoking an already revoked token is a no-op.
func (r *TokenRepo) Revoke(ctx context.Context, tokenHash string, userID uint64, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO revoked_tokens (token_hash, user_id, expires_at) VALUES (?,?,?)",
		tokenHash, userID, exp.UTC())
	return err
}

// IsRevoked reports whether tokenHash is on the denylist.
func (r *TokenRepo) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM revoked_tokens WHERE token_hash=? LIMIT 1", tokenHash).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PurgeExpired deletes denylist rows whose tokens have expired on their own.
func (r *TokenRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM revoked_tokens WHERE expires_at < ?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
