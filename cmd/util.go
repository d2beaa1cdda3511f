// Package cmd provides CLI commands for the revload tool.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fintech-reviews/revload/config"
	"github.com/fintech-reviews/revload/credentials"
	"github.com/fintech-reviews/revload/pkg/db"
	"github.com/fintech-reviews/revload/pkg/logging"
)

// Connection retry settings for transient startup failures.
const (
	connectAttempts   = 3
	connectRetryDelay = 2 * time.Second
)

// connectToDatabase establishes a database connection. The password comes
// from REVLOAD_DB_PASSWORD, the system keyring, or an interactive prompt
// when promptPassword is set.
func connectToDatabase(ctx context.Context, cfg *config.CLIConfig, promptPassword bool) (*pgxpool.Pool, error) {
	dbCfg := cfg.DBConfig()

	if dbCfg.Password == "" {
		password, err := resolvePassword(dbCfg.User, promptPassword)
		if err != nil {
			return nil, err
		}
		dbCfg.Password = password
	}

	pool, err := db.ConnectWithRetry(ctx, dbCfg, connectAttempts, connectRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return pool, nil
}

// resolvePassword reads the password from the keyring, falling back to an
// interactive prompt. An empty password is allowed for trust-auth setups.
func resolvePassword(user string, prompt bool) (string, error) {
	store := credentials.NewStore()

	password, err := store.GetPassword(user)
	if err == nil {
		return password, nil
	}
	if !errors.Is(err, credentials.ErrNoPassword) {
		return "", err
	}

	if prompt {
		return promptForPassword(user)
	}
	return "", nil
}

// promptForPassword reads a password from the terminal without echo.
func promptForPassword(user string) (string, error) {
	fmt.Fprintf(os.Stderr, "Password for database user %s: ", user)
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(passwordBytes), nil
}

// connectToRedis establishes a Redis connection for event publishing.
// Returns nil without error when Redis is not configured.
func connectToRedis(ctx context.Context, cfg *config.CLIConfig) (*redis.Client, error) {
	if !cfg.Redis.IsConfigured() {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.RedisPort()),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("testing Redis connection: %w", err)
	}
	return client, nil
}

// newLogger builds the CLI logger from the loaded configuration.
func newLogger(cfg *config.CLIConfig) logging.Logger {
	logCfg := logging.DefaultConfig()
	if cfg.Debug {
		logCfg.Level = logging.LevelDebug
	}
	return logging.NewLogger(logCfg)
}

// resolveFormat picks the command's output format, letting the flag win
// over the config file.
func resolveFormat(cfg *config.CLIConfig, flag string) config.OutputFormat {
	if flag != "" {
		return config.OutputFormat(flag)
	}
	return cfg.OutputFormat
}

// outputJSON writes v to stdout as indented JSON.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputYAML writes v to stdout as YAML.
func outputYAML(v interface{}) error {
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	return enc.Encode(v)
}
