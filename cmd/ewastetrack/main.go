package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Shreya9code/ewastetrack/internal/api"
	"github.com/Shreya9code/ewastetrack/internal/db"
	"github.com/Shreya9code/ewastetrack/internal/metrics"
	"github.com/Shreya9code/ewastetrack/internal/store"
)

const defaultDBPath = "ewastetrack.sqlite3"

const usage = `Usage: ewastetrack [command] [flags]

Commands:
  serve    run the HTTP API (default)
  init     create a database and the first admin account
  token    sign a session token for an external account (development)

Run "ewastetrack <command> -h" for the flags of a command.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches to a subcommand and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = runServe(args, stdout)
	case "init":
		err = runInit(args, stdout)
	case "token":
		err = runToken(args, stdout)
	case "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n%s", cmd, usage)
		return 2
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// getEnv returns the value of key, or def when it is unset.
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// stringFlag registers a flag under a long and a short name.
func stringFlag(fs *flag.FlagSet, p *string, long, short, def string) {
	fs.StringVar(p, long, def, "")
	fs.StringVar(p, short, def, "")
}

// parseFlags parses args and rejects positional arguments.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return nil
}

type serveConfig struct {
	DBPath    string
	Addr      string
	AdminUser string
	JWTSecret string
	Log       logConfig
}

func parseServeFlags(args []string, stdout io.Writer) (*serveConfig, error) {
	cfg := &serveConfig{}
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	stringFlag(fs, &cfg.DBPath, "db", "d", getEnv("EWASTETRACK_DB", defaultDBPath))
	stringFlag(fs, &cfg.Addr, "addr", "a", getEnv("EWASTETRACK_ADDR", ":8080"))
	stringFlag(fs, &cfg.AdminUser, "user", "u", "admin")
	stringFlag(fs, &cfg.JWTSecret, "jwt-secret", "s", getEnv("EWASTETRACK_JWT_SECRET", ""))
	stringFlag(fs, &cfg.Log.Path, "log", "l", "")
	fs.StringVar(&cfg.Log.Level, "log-level", getEnv("EWASTETRACK_LOG_LEVEL", "info"), "")
	fs.StringVar(&cfg.Log.Format, "log-format", "text", "")

	fs.Usage = func() {
		fmt.Fprint(stdout, `Usage: ewastetrack serve [flags]

Flags:
  -d, -db <path>            SQLite database path (default: ewastetrack.sqlite3, env EWASTETRACK_DB)
  -a, -addr <host:port>     listen address (default: :8080, env EWASTETRACK_ADDR)
  -u, -user <name>          admin username when the database is created (default: admin)
  -s, -jwt-secret <secret>  token signing secret (default: stored in the database, env EWASTETRACK_JWT_SECRET)
  -l, -log <path>           also append logs to this file
  -log-level <level>        debug, info, warn or error (default: info)
  -log-format <format>      text or json (default: text)
  -h, -help                 show this help and exit
`)
	}

	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(args []string, stdout io.Writer) error {
	cfg, err := parseServeFlags(args, stdout)
	if err != nil {
		return err
	}

	closeLog, err := setupLogger(cfg.Log)
	if err != nil {
		return err
	}
	if closeLog != nil {
		defer closeLog()
	}

	// First run creates the database and an admin account.
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		password, err := initDatabase(cfg.DBPath, cfg.AdminUser)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		printInitResult(stdout, cfg.DBPath, cfg.AdminUser, password)
		fmt.Fprintln(stdout)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready", "path", cfg.DBPath)

	ctx := context.Background()
	if n, err := store.PurgeExpiredTokens(ctx, database, time.Now()); err != nil {
		slog.Warn("failed to purge expired token revocations", "error", err)
	} else if n > 0 {
		slog.Info("purged expired token revocations", "count", n)
	}

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		if jwtSecret, err = store.GetJWTSecret(ctx, database); err != nil {
			return fmt.Errorf("loading JWT secret: %w", err)
		}
	}

	m := metrics.New()
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(m)(api.NewRouter(database, jwtSecret, m)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}
