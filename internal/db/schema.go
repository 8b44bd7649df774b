package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// Text columns use the default BINARY collation, so every equality lookup on
// serials, donor ids and credentials is byte-exact.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'admin' CHECK (role IN ('admin')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS donors (
    external_account_id TEXT PRIMARY KEY,
    name                TEXT NOT NULL DEFAULT '',
    email               TEXT NOT NULL DEFAULT '',
    contact             TEXT NOT NULL DEFAULT '',
    address             TEXT NOT NULL DEFAULT '',
    created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS vendors (
    external_account_id TEXT PRIMARY KEY,
    license_number      TEXT NOT NULL UNIQUE CHECK (license_number <> ''),
    name                TEXT NOT NULL DEFAULT '',
    email               TEXT NOT NULL DEFAULT '',
    contact             TEXT NOT NULL DEFAULT '',
    address             TEXT NOT NULL DEFAULT '',
    created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS companies (
    external_account_id TEXT PRIMARY KEY,
    registration_number TEXT NOT NULL UNIQUE CHECK (registration_number <> ''),
    name                TEXT NOT NULL DEFAULT '',
    email               TEXT NOT NULL DEFAULT '',
    contact             TEXT NOT NULL DEFAULT '',
    address             TEXT NOT NULL DEFAULT '',
    created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS ewaste_items (
    id                   TEXT PRIMARY KEY,
    serial               TEXT NOT NULL UNIQUE,
    donor_id             TEXT NOT NULL CHECK (donor_id <> ''),
    category             TEXT NOT NULL DEFAULT '',
    brand                TEXT NOT NULL DEFAULT '',
    condition            TEXT NOT NULL DEFAULT '',
    weight_kg            REAL NOT NULL DEFAULT 0,
    pickup_address       TEXT NOT NULL DEFAULT '',
    classification       TEXT NOT NULL DEFAULT '',
    estimated_value      REAL NOT NULL DEFAULT 0,
    status               TEXT NOT NULL DEFAULT 'waiting for pickup'
                         CHECK (status IN ('waiting for pickup', 'in transit', 'processing', 'done')),
    vendor_accepted_by    TEXT,
    vendor_accepted_at    DATETIME,
    vendor_accepted_notes TEXT,
    in_transit_by        TEXT,
    in_transit_at        DATETIME,
    in_transit_notes     TEXT,
    completed_by         TEXT,
    completed_at         DATETIME,
    completed_notes      TEXT,
    created_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_ewaste_items_donor ON ewaste_items(donor_id);
CREATE INDEX IF NOT EXISTS idx_ewaste_items_status ON ewaste_items(status);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
