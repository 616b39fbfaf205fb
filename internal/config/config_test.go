package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidate_InvalidDriver(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Driver: "postgres",
			Addrs:  []string{"localhost:6379"},
		},
		Embedding: EmbeddingConfig{Dimensions: 768},
	}
	cfg.Search = SearchConfig{DefaultLimit: 10, MaxLimit: 50}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid driver")
	}

	expected := `database.driver must be "redis" or "valkey", got "postgres"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidDrivers(t *testing.T) {
	for _, driver := range []string{"redis", "valkey"} {
		t.Run("driver="+driver, func(t *testing.T) {
			cfg := Config{
				HTTP: HTTPConfig{Port: 8080},
				Database: DatabaseConfig{
					Driver: driver,
					Addrs:  []string{"localhost:6379"},
				},
				Embedding: EmbeddingConfig{Dimensions: 768},
				Search:    SearchConfig{DefaultLimit: 10, MaxLimit: 50},
			}

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid driver %q: %v", driver, err)
			}
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	valid := func() Config {
		return Config{
			HTTP:      HTTPConfig{Port: 8080},
			Database:  DatabaseConfig{Driver: "redis", Addrs: []string{"localhost:6379"}},
			Embedding: EmbeddingConfig{Dimensions: 768},
			Search:    SearchConfig{DefaultLimit: 10, MaxLimit: 50},
		}
	}
	base := valid()
	if err := base.Validate(); err != nil {
		t.Fatalf("baseline config should pass: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.HTTP.Port = 0 }},
		{"port too high", func(c *Config) { c.HTTP.Port = 70000 }},
		{"no database addrs", func(c *Config) { c.Database.Addrs = nil }},
		{"zero dimensions", func(c *Config) { c.Embedding.Dimensions = 0 }},
		{"threshold above one", func(c *Config) { c.Search.DefaultThreshold = 1.5 }},
		{"explore threshold negative", func(c *Config) { c.Search.ExploreThreshold = -0.1 }},
		{"max limit below default", func(c *Config) {
			c.Search.DefaultLimit = 20
			c.Search.MaxLimit = 10
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			if cfg.Validate() == nil {
				t.Error("validation passed, want rejection")
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	intDefaults := []struct {
		name string
		got  int
		want int
	}{
		{"http.read_timeout_sec", cfg.HTTP.ReadTimeoutSec, 10},
		{"http.write_timeout_sec", cfg.HTTP.WriteTimeoutSec, 10},
		{"http.shutdown_timeout_sec", cfg.HTTP.ShutdownSec, 10},
		{"database.readiness_timeout_sec", cfg.Database.ReadinessTimeout, 10},
		{"embedding.dimensions", cfg.Embedding.Dimensions, 768},
		{"search.default_limit", cfg.Search.DefaultLimit, 10},
		{"search.max_limit", cfg.Search.MaxLimit, 50},
	}
	for _, d := range intDefaults {
		if d.got != d.want {
			t.Errorf("%s defaulted to %d, want %d", d.name, d.got, d.want)
		}
	}

	if cfg.Database.Driver != "redis" {
		t.Errorf("driver defaulted to %q, want redis", cfg.Database.Driver)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("model defaulted to %q", cfg.Embedding.Model)
	}
	if cfg.Search.DefaultThreshold != 0.5 || cfg.Search.ExploreThreshold != 0.3 {
		t.Errorf("thresholds defaulted to %v / %v, want 0.5 / 0.3",
			cfg.Search.DefaultThreshold, cfg.Search.ExploreThreshold)
	}
	if cfg.Storage.KeyPrefix != "consdex:" {
		t.Errorf("key prefix defaulted to %q, want consdex:", cfg.Storage.KeyPrefix)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{Driver: "valkey", ReadinessTimeout: 15},
		Embedding: EmbeddingConfig{
			Model:      "text-embedding-3-large",
			Dimensions: 1024,
		},
		Search: SearchConfig{
			DefaultLimit:     5,
			MaxLimit:         25,
			DefaultThreshold: 0.7,
			ExploreThreshold: 0.2,
		},
		Storage: StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.Driver != "valkey" {
		t.Errorf("expected Driver='valkey', got %q", cfg.Database.Driver)
	}
	if cfg.Embedding.Dimensions != 1024 {
		t.Errorf("expected Dimensions=1024, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Search.DefaultThreshold != 0.7 {
		t.Errorf("expected DefaultThreshold=0.7, got %v", cfg.Search.DefaultThreshold)
	}
	if cfg.Search.ExploreThreshold != 0.2 {
		t.Errorf("expected ExploreThreshold=0.2, got %v", cfg.Search.ExploreThreshold)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestGetEnv_Default(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("expected 'local', got %q", got)
	}
}

func TestGetEnv_FromEnvironment(t *testing.T) {
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("expected 'prod', got %q", got)
	}
}

func TestInterpolate(t *testing.T) {
	t.Setenv("TEST_DB_ADDR", "valkey:6379")
	os.Unsetenv("TEST_UNSET_VAR")

	in := []byte("addrs: [\"${TEST_DB_ADDR}\"]\nprefix: \"${TEST_UNSET_VAR:-consdex:}\"")
	out := string(interpolate(in))

	if !strings.Contains(out, "valkey:6379") {
		t.Errorf("set variable not substituted: %q", out)
	}
	if !strings.Contains(out, "consdex:") {
		t.Errorf("fallback not applied: %q", out)
	}
	if strings.Contains(out, "${") {
		t.Errorf("unresolved reference left behind: %q", out)
	}
}

func TestResolvePath_ConfigPathWins(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/etc/consdex/prod.yaml")
	if got := resolvePath("local"); got != "/etc/consdex/prod.yaml" {
		t.Errorf("expected CONFIG_PATH to win, got %q", got)
	}
}

func TestLoad_AppliesInterpolationAndDefaults(t *testing.T) {
	raw := `
http:
  port: 8080
database:
  addrs: ["${TEST_LOAD_ADDR:-localhost:6379}"]
`
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if len(cfg.Database.Addrs) != 1 || cfg.Database.Addrs[0] != "localhost:6379" {
		t.Errorf("fallback address not applied: %v", cfg.Database.Addrs)
	}
	if cfg.Database.Driver != "redis" {
		t.Errorf("default driver not applied: %q", cfg.Database.Driver)
	}
	if cfg.Storage.KeyPrefix != "consdex:" {
		t.Errorf("default key prefix not applied: %q", cfg.Storage.KeyPrefix)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load("test"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
