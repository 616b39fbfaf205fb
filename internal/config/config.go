// Package config loads the service configuration from per-environment
// YAML files with ${VAR} interpolation from the process environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the consdex API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Consensus ConsensusConfig `yaml:"consensus"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HTTPConfig sets the listener port and the server's timeouts.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	// ShutdownSec bounds the drain after the process receives a signal.
	ShutdownSec int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig selects and addresses the backing store.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig namespaces every key the service writes.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds text encoder settings.
type EmbeddingConfig struct {
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	CacheTTLSec         int    `yaml:"cache_ttl_sec"` // 0 = cache disabled
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// SearchConfig holds similarity search settings.
type SearchConfig struct {
	DefaultLimit     int     `yaml:"default_limit"`
	MaxLimit         int     `yaml:"max_limit"`
	DefaultThreshold float64 `yaml:"default_threshold"`
	ExploreThreshold float64 `yaml:"explore_threshold"`
}

// ConsensusConfig holds consensus summary settings.
type ConsensusConfig struct {
	CacheTTLSec int `yaml:"cache_ttl_sec"` // 0 = cache disabled
}

// IngestConfig holds report ingestion settings.
type IngestConfig struct {
	SeedSamples bool `yaml:"seed_samples"` // ingest the bundled sample reports at startup
}

// AuthConfig lists the accepted API keys. Empty disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig overrides the log level the environment implies.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn or error
}

// GetEnv reads the deployment environment from ENV, defaulting to "local".
func GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "local"
	}
	return env
}

// Load reads <env>.yaml, interpolates ${VAR} references, applies
// defaults, and validates the result.
func Load(env string) (Config, error) {
	configPath := resolvePath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", configPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(interpolate(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", configPath, err)
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", configPath, err)
	}
	return cfg, nil
}

// ApplyDefaults fills in what the YAML left unset.
func (c *Config) ApplyDefaults() {
	defaultInt(&c.HTTP.ReadTimeoutSec, 10)
	defaultInt(&c.HTTP.WriteTimeoutSec, 10)
	defaultInt(&c.HTTP.ShutdownSec, 10)
	defaultInt(&c.Database.ReadinessTimeout, 10)
	defaultInt(&c.Embedding.Dimensions, 768)
	defaultInt(&c.Search.DefaultLimit, 10)
	defaultInt(&c.Search.MaxLimit, 50)

	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Search.DefaultThreshold <= 0 {
		c.Search.DefaultThreshold = 0.5
	}
	if c.Search.ExploreThreshold <= 0 {
		c.Search.ExploreThreshold = 0.3
	}
	if c.Consensus.CacheTTLSec < 0 {
		c.Consensus.CacheTTLSec = 0
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "consdex:"
	}
}

func defaultInt(v *int, d int) {
	if *v <= 0 {
		*v = d
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d is outside 1..65535", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs must list at least one address")
	}
	switch c.Database.Driver {
	case "redis", "valkey":
		// ok
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"valkey\", got %q", c.Database.Driver)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Search.DefaultThreshold < 0 || c.Search.DefaultThreshold > 1 {
		return fmt.Errorf("search.default_threshold must be within [0, 1], got %v", c.Search.DefaultThreshold)
	}
	if c.Search.ExploreThreshold < 0 || c.Search.ExploreThreshold > 1 {
		return fmt.Errorf("search.explore_threshold must be within [0, 1], got %v", c.Search.ExploreThreshold)
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf(
			"search.max_limit (%d) must be >= search.default_limit (%d)",
			c.Search.MaxLimit, c.Search.DefaultLimit,
		)
	}
	return nil
}

// resolvePath picks the config file for env. CONFIG_PATH wins outright;
// otherwise ./config/<env>.yaml is tried, then the config directory next
// to the source tree (useful under `go test` where the working directory
// is the package dir).
func resolvePath(env string) string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	filename := env + ".yaml"
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	_, src, _, _ := runtime.Caller(0)
	root := filepath.Dir(filepath.Dir(filepath.Dir(src))) // internal/config -> repo root
	if path := filepath.Join(root, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolate substitutes ${VAR} and ${VAR:-default} references with
// values from the process environment.
func interpolate(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		name, fallback, hasFallback := strings.Cut(expr, ":-")
		val := os.Getenv(name)
		if val == "" && hasFallback {
			val = fallback
		}
		return []byte(val)
	})
}
