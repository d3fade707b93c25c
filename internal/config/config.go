// Package config loads server settings from defaults, an optional TOML
// file, an optional .env file and SCOUT_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	HTTPAddr    string `toml:"http_addr"`    // SCOUT_HTTP_ADDR (default ":8090")
	GRPCAddr    string `toml:"grpc_addr"`    // SCOUT_GRPC_ADDR (optional, empty = no gRPC health server)
	Store       string `toml:"store"`        // SCOUT_STORE (sqlite|postgres|memory, default sqlite)
	DatabaseURL string `toml:"database_url"` // SCOUT_DATABASE_URL (required for postgres)
	DBMaxConns  int    `toml:"db_max_conns"` // SCOUT_DB_MAX_CONNS (postgres pool size, default 25)
	SQLitePath  string `toml:"sqlite_path"`  // SCOUT_SQLITE_PATH (default "scouting.db")
	NATSURL     string `toml:"nats_url"`     // SCOUT_NATS_URL (optional, empty = no events)
	AuthToken   string `toml:"auth_token"`   // SCOUT_AUTH_TOKEN (optional, empty = no auth)

	TemplateDir         string `toml:"template_dir"`          // SCOUT_TEMPLATE_DIR (default "templates")
	DefaultTemplateFile string `toml:"default_template_file"` // SCOUT_DEFAULT_TEMPLATE_FILE (default "default-template", relative to TemplateDir)
	DefaultTemplate     string `toml:"default_template"`      // SCOUT_DEFAULT_TEMPLATE (overrides the file)

	CORSOrigins []string `toml:"cors_origins"` // SCOUT_CORS_ORIGINS (comma separated, default "*")
	LogLevel    string   `toml:"log_level"`    // SCOUT_LOG_LEVEL (debug|info|warn|error, default info)
	LogFormat   string   `toml:"log_format"`   // SCOUT_LOG_FORMAT (text|json, default text)

	Backup Backup `toml:"backup"`
}

// Backup holds snapshot scheduler settings.
type Backup struct {
	Interval   time.Duration `toml:"interval"`    // SCOUT_BACKUP_INTERVAL (default 0 = disabled)
	S3Bucket   string        `toml:"s3_bucket"`   // SCOUT_BACKUP_S3_BUCKET (enables S3 when set)
	S3Key      string        `toml:"s3_key"`      // SCOUT_BACKUP_S3_KEY (default "scout/backup.jsonl")
	S3Region   string        `toml:"s3_region"`   // SCOUT_BACKUP_S3_REGION (default "us-east-1")
	S3Endpoint string        `toml:"s3_endpoint"` // SCOUT_BACKUP_S3_ENDPOINT (custom endpoint for MinIO)
	File       string        `toml:"file"`        // SCOUT_BACKUP_FILE (enables a local snapshot when set)
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		HTTPAddr:            ":8090",
		Store:               StoreSQLite,
		DBMaxConns:          25,
		SQLitePath:          "scouting.db",
		TemplateDir:         "templates",
		DefaultTemplateFile: "default-template",
		CORSOrigins:         []string{"*"},
		LogLevel:            "info",
		LogFormat:           "text",
		Backup: Backup{
			S3Key:    "scout/backup.jsonl",
			S3Region: "us-east-1",
		},
	}
}

// Load reads the .env file named by SCOUT_ENV_FILE (default ".env"), the
// TOML file named by SCOUT_CONFIG, then applies SCOUT_* overrides. Missing
// .env files are ignored; a named TOML file must exist.
func Load() (*Config, error) {
	envFile := envOrDefault("SCOUT_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	c := Default()
	if path := os.Getenv("SCOUT_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, c); err != nil {
			return nil, fmt.Errorf("SCOUT_CONFIG %s: %w", path, err)
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	setString(&c.HTTPAddr, "SCOUT_HTTP_ADDR")
	setString(&c.GRPCAddr, "SCOUT_GRPC_ADDR")
	setString(&c.Store, "SCOUT_STORE")
	setString(&c.DatabaseURL, "SCOUT_DATABASE_URL")
	setString(&c.SQLitePath, "SCOUT_SQLITE_PATH")
	setString(&c.NATSURL, "SCOUT_NATS_URL")
	setString(&c.AuthToken, "SCOUT_AUTH_TOKEN")
	setString(&c.TemplateDir, "SCOUT_TEMPLATE_DIR")
	setString(&c.DefaultTemplateFile, "SCOUT_DEFAULT_TEMPLATE_FILE")
	setString(&c.DefaultTemplate, "SCOUT_DEFAULT_TEMPLATE")
	setString(&c.LogLevel, "SCOUT_LOG_LEVEL")
	setString(&c.LogFormat, "SCOUT_LOG_FORMAT")
	setString(&c.Backup.S3Bucket, "SCOUT_BACKUP_S3_BUCKET")
	setString(&c.Backup.S3Key, "SCOUT_BACKUP_S3_KEY")
	setString(&c.Backup.S3Region, "SCOUT_BACKUP_S3_REGION")
	setString(&c.Backup.S3Endpoint, "SCOUT_BACKUP_S3_ENDPOINT")
	setString(&c.Backup.File, "SCOUT_BACKUP_FILE")

	if v := os.Getenv("SCOUT_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("SCOUT_DB_MAX_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCOUT_DB_MAX_CONNS: %w", err)
		}
		c.DBMaxConns = n
	}
	if v := os.Getenv("SCOUT_BACKUP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SCOUT_BACKUP_INTERVAL: %w", err)
		}
		c.Backup.Interval = d
	}
	return nil
}

// Validate checks that the settings are usable together.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SCOUT_SQLITE_PATH is required for the sqlite store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("SCOUT_DATABASE_URL is required for the postgres store")
		}
		if c.DBMaxConns < 1 {
			return fmt.Errorf("SCOUT_DB_MAX_CONNS must be at least 1")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("SCOUT_STORE: unknown store %q (want sqlite, postgres or memory)", c.Store)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("SCOUT_LOG_FORMAT: unknown format %q", c.LogFormat)
	}
	if c.Backup.Interval < 0 {
		return fmt.Errorf("SCOUT_BACKUP_INTERVAL must not be negative")
	}
	if c.Backup.Interval > 0 && c.Backup.S3Bucket == "" && c.Backup.File == "" {
		return fmt.Errorf("backups enabled but neither SCOUT_BACKUP_S3_BUCKET nor SCOUT_BACKUP_FILE is set")
	}
	return nil
}

// Logger builds the process logger described by LogLevel and LogFormat.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("SCOUT_LOG_LEVEL: %w", err)
	}
	return level, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
