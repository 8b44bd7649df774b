package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

const jwtSecretKey = "jwt_secret"

// EnsureSetting stores candidate under key unless a value already exists, and
// returns whichever value is stored. Concurrent callers all observe the same
// winner.
func EnsureSetting(ctx context.Context, db *sql.DB, key, candidate string) (string, error) {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`,
		key, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing setting %s: %w", key, err)
	}

	var value string
	if err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value); err != nil {
		return "", fmt.Errorf("querying setting %s: %w", key, err)
	}
	return value, nil
}

// GetJWTSecret returns the persisted token signing secret, generating it on
// first use.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	return EnsureSetting(ctx, db, jwtSecretKey, hex.EncodeToString(buf))
}
