package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allEnvVars = []string{
	"SCOUT_ENV_FILE", "SCOUT_CONFIG",
	"SCOUT_HTTP_ADDR", "SCOUT_GRPC_ADDR", "SCOUT_STORE", "SCOUT_DATABASE_URL",
	"SCOUT_DB_MAX_CONNS", "SCOUT_SQLITE_PATH", "SCOUT_NATS_URL", "SCOUT_AUTH_TOKEN", "SCOUT_TEMPLATE_DIR",
	"SCOUT_DEFAULT_TEMPLATE_FILE", "SCOUT_DEFAULT_TEMPLATE", "SCOUT_CORS_ORIGINS",
	"SCOUT_LOG_LEVEL", "SCOUT_LOG_FORMAT",
	"SCOUT_BACKUP_INTERVAL", "SCOUT_BACKUP_S3_BUCKET", "SCOUT_BACKUP_S3_KEY",
	"SCOUT_BACKUP_S3_REGION", "SCOUT_BACKUP_S3_ENDPOINT", "SCOUT_BACKUP_FILE",
}

// clearAllEnv unsets every SCOUT_* variable for the duration of the test
// and points the .env lookup at an empty directory.
func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("SCOUT_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearAllEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":8090" || cfg.Store != StoreSQLite || cfg.SQLitePath != "scouting.db" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.GRPCAddr != "" || cfg.NATSURL != "" {
		t.Errorf("optional services should default off: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.Backup.Interval != 0 {
		t.Errorf("Backup.Interval = %v, want disabled", cfg.Backup.Interval)
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, c *Config)
	}{
		{
			name: "CustomAddresses",
			env: map[string]string{
				"SCOUT_HTTP_ADDR":  ":3000",
				"SCOUT_GRPC_ADDR":  ":5050",
				"SCOUT_NATS_URL":   "nats://localhost:4222",
				"SCOUT_AUTH_TOKEN": "s3cret",
			},
			check: func(t *testing.T, c *Config) {
				if c.HTTPAddr != ":3000" || c.GRPCAddr != ":5050" || c.NATSURL != "nats://localhost:4222" || c.AuthToken != "s3cret" {
					t.Errorf("got %+v", c)
				}
			},
		},
		{
			name:    "PostgresWithoutURL",
			env:     map[string]string{"SCOUT_STORE": "postgres"},
			wantErr: true,
		},
		{
			name: "Postgres",
			env:  map[string]string{"SCOUT_STORE": "postgres", "SCOUT_DATABASE_URL": "postgres://db/scout"},
			check: func(t *testing.T, c *Config) {
				if c.Store != StorePostgres || c.DatabaseURL != "postgres://db/scout" || c.DBMaxConns != 25 {
					t.Errorf("got %+v", c)
				}
			},
		},
		{
			name: "PostgresPoolSize",
			env:  map[string]string{"SCOUT_STORE": "postgres", "SCOUT_DATABASE_URL": "postgres://db/scout", "SCOUT_DB_MAX_CONNS": "4"},
			check: func(t *testing.T, c *Config) {
				if c.DBMaxConns != 4 {
					t.Errorf("DBMaxConns = %d, want 4", c.DBMaxConns)
				}
			},
		},
		{
			name:    "PostgresPoolSizeZero",
			env:     map[string]string{"SCOUT_STORE": "postgres", "SCOUT_DATABASE_URL": "postgres://db/scout", "SCOUT_DB_MAX_CONNS": "0"},
			wantErr: true,
		},
		{
			name:    "PostgresPoolSizeNotANumber",
			env:     map[string]string{"SCOUT_DB_MAX_CONNS": "many"},
			wantErr: true,
		},
		{
			name:    "UnknownStore",
			env:     map[string]string{"SCOUT_STORE": "mongo"},
			wantErr: true,
		},
		{
			name:    "BadLogLevel",
			env:     map[string]string{"SCOUT_LOG_LEVEL": "chatty"},
			wantErr: true,
		},
		{
			name:    "BadLogFormat",
			env:     map[string]string{"SCOUT_LOG_FORMAT": "xml"},
			wantErr: true,
		},
		{
			name: "CORSList",
			env:  map[string]string{"SCOUT_CORS_ORIGINS": "https://a.example, https://b.example,"},
			check: func(t *testing.T, c *Config) {
				if len(c.CORSOrigins) != 2 || c.CORSOrigins[1] != "https://b.example" {
					t.Errorf("CORSOrigins = %v", c.CORSOrigins)
				}
			},
		},
		{
			name: "BackupToFile",
			env:  map[string]string{"SCOUT_BACKUP_INTERVAL": "5m", "SCOUT_BACKUP_FILE": "/var/backups/scout.jsonl"},
			check: func(t *testing.T, c *Config) {
				if c.Backup.Interval != 5*time.Minute || c.Backup.File != "/var/backups/scout.jsonl" {
					t.Errorf("Backup = %+v", c.Backup)
				}
			},
		},
		{
			name:    "BackupWithoutDestination",
			env:     map[string]string{"SCOUT_BACKUP_INTERVAL": "5m"},
			wantErr: true,
		},
		{
			name:    "BadBackupInterval",
			env:     map[string]string{"SCOUT_BACKUP_INTERVAL": "often"},
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tc.check(t, cfg)
		})
	}
}

func TestLoadTOMLThenEnv(t *testing.T) {
	clearAllEnv(t)
	path := writeFile(t, "scout.toml", `
http_addr = ":9000"
store = "memory"
default_template = "tmpl-2024"
cors_origins = ["https://scouting.example"]

[backup]
interval = "1h"
s3_bucket = "scout-backups"
`)
	t.Setenv("SCOUT_CONFIG", path)
	t.Setenv("SCOUT_HTTP_ADDR", ":9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":9100" {
		t.Errorf("HTTPAddr = %q, env should override the file", cfg.HTTPAddr)
	}
	if cfg.Store != StoreMemory || cfg.DefaultTemplate != "tmpl-2024" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Backup.Interval != time.Hour || cfg.Backup.S3Bucket != "scout-backups" || cfg.Backup.S3Region != "us-east-1" {
		t.Errorf("Backup = %+v", cfg.Backup)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://scouting.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadMissingTOML(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("SCOUT_CONFIG", filepath.Join(t.TempDir(), "nope.toml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing SCOUT_CONFIG file")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearAllEnv(t)
	path := writeFile(t, ".env", "SCOUT_HTTP_ADDR=:7000\nSCOUT_TEMPLATE_DIR=/srv/templates\n")
	t.Setenv("SCOUT_ENV_FILE", path)
	// Set through t.Setenv so the value is restored after the test; the
	// .env file must not override it.
	t.Setenv("SCOUT_TEMPLATE_DIR", "/etc/scout/templates")
	t.Cleanup(func() { os.Unsetenv("SCOUT_HTTP_ADDR") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":7000" {
		t.Errorf("HTTPAddr = %q, want value from .env", cfg.HTTPAddr)
	}
	if cfg.TemplateDir != "/etc/scout/templates" {
		t.Errorf("TemplateDir = %q, real env should win over .env", cfg.TemplateDir)
	}
}
