package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsg1/fmms/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	cfg := writeAndLoad(t, `
server:
  host: "127.0.0.1"
  port: 9090
  base_path: "/api/"
  request_timeout: 5s
database:
  driver: postgres
  dsn: "postgres://fmms@localhost/fmms"
  max_conns: 4
logging:
  level: debug
  format: console
metrics:
  enabled: false
`)

	if cfg.Server.Addr() != "127.0.0.1:9090" {
		t.Errorf("Addr = %s, want 127.0.0.1:9090", cfg.Server.Addr())
	}
	if cfg.Server.BasePath != "/api" {
		t.Errorf("BasePath = %s, want /api", cfg.Server.BasePath)
	}
	if cfg.Server.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", cfg.Server.RequestTimeout)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.MaxConns != 4 {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
	if !cfg.OpenAPI.Enabled {
		t.Error("OpenAPI.Enabled = false, want default true")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, "{}\n")

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %s, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.BasePath != "/fmms" {
		t.Errorf("Server.BasePath = %s, want /fmms", cfg.Server.BasePath)
	}
	if cfg.Server.RequestTimeout != 15*time.Second {
		t.Errorf("Server.RequestTimeout = %v, want 15s", cfg.Server.RequestTimeout)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN != "fmms.db" {
		t.Errorf("Database = %+v, want sqlite fmms.db", cfg.Database)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_FMMS_DSN", "/var/lib/fmms/data.db")

	cfg := writeAndLoad(t, `
database:
  dsn: "${TEST_FMMS_DSN}"
`)
	if cfg.Database.DSN != "/var/lib/fmms/data.db" {
		t.Errorf("DSN = %s, want expanded value", cfg.Database.DSN)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown driver", "database:\n  driver: mysql\n"},
		{"postgres without dsn", "database:\n  driver: postgres\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"bad level", "logging:\n  level: verbose\n"},
		{"bad format", "logging:\n  format: xml\n"},
		{"bad metrics path", "metrics:\n  path: metrics\n"},
		{"negative pool", "database:\n  max_conns: -1\n"},
		{"invalid yaml", "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := writeAndLoadErr(t, tt.content); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := config.Load("/nonexistent/fmms.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("FMMS_SERVER_PORT", "7070")
	t.Setenv("FMMS_BASE_PATH", "curricula-api")
	t.Setenv("FMMS_DATABASE_DRIVER", "postgres")
	t.Setenv("FMMS_DATABASE_DSN", "postgres://localhost/fmms")
	t.Setenv("FMMS_DATABASE_MAX_CONNS", "3")
	t.Setenv("FMMS_LOG_LEVEL", "warn")
	t.Setenv("FMMS_METRICS_ENABLED", "no")
	t.Setenv("FMMS_REQUEST_TIMEOUT", "2s")

	cfg := writeAndLoad(t, `
server:
  port: 9090
database:
  dsn: file.db
logging:
  level: debug
`)

	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Server.BasePath != "/curricula-api" {
		t.Errorf("BasePath = %s, want /curricula-api", cfg.Server.BasePath)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.DSN != "postgres://localhost/fmms" || cfg.Database.MaxConns != 3 {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %s, want warn", cfg.Logging.Level)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
	if cfg.Server.RequestTimeout != 2*time.Second {
		t.Errorf("RequestTimeout = %v, want 2s", cfg.Server.RequestTimeout)
	}
}

func TestEnvOverrides_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("FMMS_SERVER_PORT", "not-a-port")
	t.Setenv("FMMS_REQUEST_TIMEOUT", "soon")
	t.Setenv("FMMS_DATABASE_MAX_CONNS", "many")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Server.RequestTimeout != 15*time.Second || cfg.Database.MaxConns != 10 {
		t.Errorf("invalid env values were applied: %+v", cfg)
	}
}

func TestLoadWithFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fmms.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9191\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Port = %d, want 9191 from file", cfg.Server.Port)
	}

	t.Setenv("FMMS_SERVER_PORT", "9292")
	cfg, err = config.LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFallback: %v", err)
	}
	if cfg.Server.Port != 9292 {
		t.Errorf("Port = %d, want 9292 from env", cfg.Server.Port)
	}

	if _, err := config.LoadWithFallback(""); err != nil {
		t.Errorf("LoadWithFallback(\"\"): %v", err)
	}
}

func TestHasEnvConfig(t *testing.T) {
	t.Setenv("FMMS_LOG_LEVEL", "debug")
	if !config.HasEnvConfig() {
		t.Error("HasEnvConfig = false with FMMS_LOG_LEVEL set")
	}
}

func TestParseBoolValues(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{" on ", true},
		{"false", false},
		{"0", false},
		{"off", false},
		{"maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("FMMS_OPENAPI_ENABLED", tt.value)
			cfg, err := config.LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv: %v", err)
			}
			if cfg.OpenAPI.Enabled != tt.want {
				t.Errorf("parseBool(%q) = %v, want %v", tt.value, cfg.OpenAPI.Enabled, tt.want)
			}
		})
	}
}

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := writeAndLoadErr(t, content)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeAndLoadErr(t *testing.T, content string) (*config.Config, error) {
	t.Helper()
	return config.Load(writeConfig(t, content))
}
