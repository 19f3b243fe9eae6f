package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"DB_URL", "SQLITE_PATH", "GRPC_ADDR", "WORKERS", "BACKEND_TIMEOUT", "WATCH_DIRS", "OVERRIDES_PATH"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()

	if cfg.Database.DSN != "" || cfg.Store.SQLitePath != "nfse.db" {
		t.Fatalf("store = %+v / %+v", cfg.Database, cfg.Store)
	}
	if cfg.Server.GRPCAddr != ":8080" || cfg.Batch.Workers != 4 {
		t.Fatalf("server = %+v batch = %+v", cfg.Server, cfg.Batch)
	}
	if cfg.Extraction.BackendTimeout != 20*time.Second || cfg.Extraction.RowTolerance != 2.0 {
		t.Fatalf("extraction = %+v", cfg.Extraction)
	}
	if len(cfg.Batch.WatchDirs) != 0 {
		t.Fatalf("watch dirs = %v", cfg.Batch.WatchDirs)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("WORKERS", "8")
	t.Setenv("BACKEND_TIMEOUT", "5s")
	t.Setenv("ROW_TOLERANCE", "3.5")
	t.Setenv("DISABLE_EXTERNAL_BACKENDS", "true")
	t.Setenv("WATCH_DIRS", " /in/a , ,/in/b")
	t.Setenv("QUEUE_SIZE", "not-a-number")

	cfg := LoadConfig()
	if cfg.Batch.Workers != 8 || cfg.Batch.QueueSize != 64 {
		t.Fatalf("batch = %+v", cfg.Batch)
	}
	if cfg.Extraction.BackendTimeout != 5*time.Second || cfg.Extraction.RowTolerance != 3.5 || !cfg.Extraction.DisableExternal {
		t.Fatalf("extraction = %+v", cfg.Extraction)
	}
	if len(cfg.Batch.WatchDirs) != 2 || cfg.Batch.WatchDirs[0] != "/in/a" || cfg.Batch.WatchDirs[1] != "/in/b" {
		t.Fatalf("watch dirs = %q", cfg.Batch.WatchDirs)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no store", func(c *Config) { c.Database.DSN = ""; c.Store.SQLitePath = "" }},
		{"no address", func(c *Config) { c.Server.GRPCAddr = "" }},
		{"no workers", func(c *Config) { c.Batch.Workers = 0 }},
		{"no timeout", func(c *Config) { c.Extraction.BackendTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	if err := os.WriteFile(env, []byte("NFSE_TEST_DOTENV=from-file\nNFSE_TEST_KEEP=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NFSE_TEST_KEEP", "from-env")
	t.Setenv("NFSE_TEST_DOTENV", "")
	os.Unsetenv("NFSE_TEST_DOTENV")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), env); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("NFSE_TEST_DOTENV"); got != "from-file" {
		t.Fatalf("NFSE_TEST_DOTENV = %q", got)
	}
	if got := os.Getenv("NFSE_TEST_KEEP"); got != "from-env" {
		t.Fatalf("NFSE_TEST_KEEP = %q", got)
	}
}
