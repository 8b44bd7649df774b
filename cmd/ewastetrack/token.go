package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Shreya9code/ewastetrack/internal/auth"
	"github.com/Shreya9code/ewastetrack/internal/db"
	"github.com/Shreya9code/ewastetrack/internal/store"
)

// runToken signs a token the way the external identity provider would, for
// local development against a running server.
func runToken(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var dbPath, secret, account, role string
	var ttl time.Duration
	stringFlag(fs, &dbPath, "db", "d", getEnv("EWASTETRACK_DB", defaultDBPath))
	stringFlag(fs, &secret, "jwt-secret", "s", getEnv("EWASTETRACK_JWT_SECRET", ""))
	stringFlag(fs, &account, "account", "a", "")
	stringFlag(fs, &role, "role", "r", "")
	fs.DurationVar(&ttl, "ttl", auth.TokenExpiry, "")
	fs.DurationVar(&ttl, "t", auth.TokenExpiry, "")

	fs.Usage = func() {
		fmt.Fprint(stdout, `Usage: ewastetrack token -account <id> -role <role> [flags]

Flags:
  -a, -account <id>         external account id (required)
  -r, -role <role>          donor, vendor, company or admin (required)
  -t, -ttl <duration>       token lifetime (default: 168h)
  -s, -jwt-secret <secret>  signing secret (default: read from the database)
  -d, -db <path>            SQLite database path (default: ewastetrack.sqlite3)
  -h, -help                 show this help and exit
`)
	}

	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if account == "" || role == "" {
		fs.Usage()
		return errors.New("account and role are required")
	}

	if secret == "" {
		var err error
		if secret, err = storedSecret(dbPath); err != nil {
			return err
		}
	}

	tok, err := auth.GenerateToken(secret, account, role, ttl)
	if err != nil {
		return fmt.Errorf("signing token: %w", err)
	}
	fmt.Fprintln(stdout, tok)
	return nil
}

// storedSecret reads the signing secret of an existing database.
func storedSecret(dbPath string) (string, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return "", fmt.Errorf("no secret given and database not found: %s", dbPath)
	}

	database, err := db.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return "", fmt.Errorf("migrating database: %w", err)
	}
	return store.GetJWTSecret(context.Background(), database)
}
