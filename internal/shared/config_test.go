package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "~/.plstat/plstat.db" {
			t.Errorf("expected database path ~/.plstat/plstat.db, got %s", config.Database.Path)
		}

		if config.Server.AuthTimeoutSeconds != 120 {
			t.Errorf("expected auth timeout 120, got %d", config.Server.AuthTimeoutSeconds)
		}

		if config.Analysis.TopN != 10 {
			t.Errorf("expected top_n 10, got %d", config.Analysis.TopN)
		}

		if config.Analysis.BatchConcurrency != 1 {
			t.Errorf("expected batch_concurrency 1, got %d", config.Analysis.BatchConcurrency)
		}

		if config.Log.Level != "info" {
			t.Errorf("expected log level info, got %s", config.Log.Level)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[analysis]
top_n = 5
batch_concurrency = 4

[log]
level = "debug"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Analysis.TopN != 5 {
			t.Errorf("expected top_n 5, got %d", config.Analysis.TopN)
		}
		if config.Analysis.BatchConcurrency != 4 {
			t.Errorf("expected batch_concurrency 4, got %d", config.Analysis.BatchConcurrency)
		}
		if config.Server.AuthTimeoutSeconds != 120 {
			t.Errorf("expected unset keys to keep defaults, got auth timeout %d", config.Server.AuthTimeoutSeconds)
		}
	})

	t.Run("LoadConfig invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[database\npath ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("LoadConfigOrDefault missing file", func(t *testing.T) {
		config, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "nope.toml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if config.Analysis.TopN != 10 {
			t.Errorf("expected defaults, got top_n %d", config.Analysis.TopN)
		}
	})

	t.Run("ResolvedPath", func(t *testing.T) {
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skipf("no home directory: %v", err)
		}

		path, err := DatabaseConfig{Path: "~/.plstat/plstat.db"}.ResolvedPath()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(path, home) {
			t.Errorf("expected path under %s, got %s", home, path)
		}

		mem, _ := DatabaseConfig{Path: ":memory:"}.ResolvedPath()
		if mem != ":memory:" {
			t.Errorf("expected :memory: to pass through, got %s", mem)
		}
	})

	t.Run("AuthTimeout", func(t *testing.T) {
		if got := (ServerConfig{}).AuthTimeout(); got != 2*time.Minute {
			t.Errorf("expected 2m default, got %v", got)
		}
		if got := (ServerConfig{AuthTimeoutSeconds: 5}).AuthTimeout(); got != 5*time.Second {
			t.Errorf("expected 5s, got %v", got)
		}
	})
}

func TestLoadCredentials(t *testing.T) {
	env := func(m map[string]string) func(string) string {
		return func(k string) string { return m[k] }
	}

	t.Run("all present", func(t *testing.T) {
		creds, err := LoadCredentials(env(map[string]string{
			EnvClientID:     "id",
			EnvClientSecret: "secret",
			EnvRedirectURI:  "http://127.0.0.1:8888/callback",
		}))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if creds.ClientID != "id" || creds.ClientSecret != "secret" || creds.RedirectURI != "http://127.0.0.1:8888/callback" {
			t.Errorf("unexpected credentials: %+v", creds)
		}
	})

	tt := []struct {
		name    string
		env     map[string]string
		missing []string
	}{
		{
			name:    "nothing set",
			env:     map[string]string{},
			missing: []string{EnvClientID, EnvClientSecret, EnvRedirectURI},
		},
		{
			name:    "secret missing",
			env:     map[string]string{EnvClientID: "id", EnvRedirectURI: "http://localhost/callback"},
			missing: []string{EnvClientSecret},
		},
		{
			name:    "whitespace only counts as missing",
			env:     map[string]string{EnvClientID: "  ", EnvClientSecret: "s", EnvRedirectURI: "http://localhost/callback"},
			missing: []string{EnvClientID},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadCredentials(env(tc.env))
			if !errors.Is(err, ErrMissingCredentials) {
				t.Fatalf("expected ErrMissingCredentials, got %v", err)
			}
			for _, name := range tc.missing {
				if !strings.Contains(err.Error(), name) {
					t.Errorf("expected error to name %s, got %v", name, err)
				}
			}
		})
	}

	t.Run("LoadDotEnv", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, ".env")
		if err := os.WriteFile(path, []byte("PLSTAT_TEST_DOTENV=from-file\n"), 0600); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}
		t.Setenv("PLSTAT_TEST_DOTENV", "")
		os.Unsetenv("PLSTAT_TEST_DOTENV")

		if err := LoadDotEnv(path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := os.Getenv("PLSTAT_TEST_DOTENV"); got != "from-file" {
			t.Errorf("expected from-file, got %q", got)
		}

		if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
			t.Errorf("missing .env should not be an error, got %v", err)
		}
	})
}
