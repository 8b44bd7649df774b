package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"math/big"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/Shreya9code/ewastetrack/internal/db"
	"github.com/Shreya9code/ewastetrack/internal/store"
)

func runInit(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var dbPath, adminUser string
	stringFlag(fs, &dbPath, "db", "d", getEnv("EWASTETRACK_DB", defaultDBPath))
	stringFlag(fs, &adminUser, "user", "u", "admin")

	fs.Usage = func() {
		fmt.Fprint(stdout, `Usage: ewastetrack init [flags]

Flags:
  -d, -db <path>     SQLite database path to create (default: ewastetrack.sqlite3)
  -u, -user <name>   admin username (default: admin)
  -h, -help          show this help and exit
`)
	}

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if _, err := os.Stat(dbPath); err == nil {
		return fmt.Errorf("database already exists: %s", dbPath)
	}

	password, err := initDatabase(dbPath, adminUser)
	if err != nil {
		return err
	}
	printInitResult(stdout, dbPath, adminUser, password)
	return nil
}

// initDatabase creates a new database with the schema and an admin account,
// and returns the generated admin password. A failed init leaves no file
// behind.
func initDatabase(path, adminUsername string) (password string, err error) {
	database, err := db.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		database.Close()
		if err != nil {
			os.Remove(path)
		}
	}()

	if err := db.Migrate(database); err != nil {
		return "", fmt.Errorf("migrating schema: %w", err)
	}

	password, err = generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	if _, err := store.CreateUser(context.Background(), database, adminUsername, string(hash)); err != nil {
		return "", fmt.Errorf("creating admin user: %w", err)
	}
	return password, nil
}

func printInitResult(w io.Writer, dbPath, username, password string) {
	fmt.Fprintf(w, "Database created: %s\n", dbPath)
	fmt.Fprintln(w, "Schema initialized.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Admin account created:")
	fmt.Fprintf(w, "  Username: %s\n", username)
	fmt.Fprintf(w, "  Password: %s\n", password)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Save this password, it cannot be recovered.")
	fmt.Fprintln(w, "The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
