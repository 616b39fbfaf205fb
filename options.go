package consdex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "redis" or "valkey"
	addrs    []string
	password string

	embedder      Embedder
	openAIKey     string
	openAIBaseURL string

	model      string
	dimensions int
	keyPrefix  string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithOpenAI sets the API key for the built-in OpenAI narrative encoder.
// Without an encoder, report metadata operations work but narratives are
// never vectorized and similarity search returns an error.
func WithOpenAI(apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIKey = apiKey
	})
}

// WithOpenAIBaseURL points the built-in encoder at an OpenAI-compatible
// endpoint (Azure, a gateway, a local server). Empty uses the public API.
func WithOpenAIBaseURL(baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIBaseURL = baseURL
	})
}

// WithEmbedder sets a custom text embedding provider. Takes precedence
// over WithOpenAI. If the provider also implements BatchEmbedder, batch
// ingest uses it for significantly better throughput.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithModel sets the encoder model name requested from the provider and
// reported in usage snapshots. Defaults to text-embedding-3-small.
func WithModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.model = model
	})
}

// WithDimensions sets the vector width requested from the encoder and
// enforced on stored vectors. Defaults to 768.
func WithDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithKeyPrefix namespaces every storage key so several deployments can
// share one database. Defaults to "consdex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
