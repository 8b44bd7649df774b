package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RevokeToken records a session token ID as revoked until it would have
// expired anyway. Revoking twice is not an error.
func RevokeToken(ctx context.Context, db *sql.DB, jti string, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
		 ON CONFLICT (jti) DO NOTHING`,
		jti, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// PurgeExpiredTokens drops revocations for tokens that have expired.
func PurgeExpiredTokens(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purging revoked tokens: %w", err)
	}
	return result.RowsAffected()
}

// IsTokenRevoked checks if a token's JTI has been revoked.
func IsTokenRevoked(ctx context.Context, db *sql.DB, jti string) (bool, error) {
	var revoked bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return revoked, nil
}
