package semdex

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
	driver     string // "valkey", "redis" or "badger"
	addrs      []string
	password   string
	badgerPath string
	inMemory   bool

	embedder      Embedder
	onDeviceModel string
	openAIKey     string
	openAIModel   string
	dailyTokens   int64
	monthlyTokens int64

	scanLimit int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey stores items in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis stores items in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithBadger stores items in an embedded Badger database under dir.
func WithBadger(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "badger"
		c.badgerPath = dir
	})
}

// WithInMemory keeps items in an in-memory Badger database. Nothing survives Close.
func WithInMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "badger"
		c.inMemory = true
	})
}

// WithEmbedder replaces the built-in on-device model with e.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOnDeviceModel selects the built-in on-device model, e.g. "hash-256".
// Default: hash-384.
func WithOnDeviceModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.onDeviceModel = model
	})
}

// WithOpenAI makes an OpenAI embedding model the default provider.
// An empty model uses text-embedding-3-small.
func WithOpenAI(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIKey = apiKey
		c.openAIModel = model
	})
}

// WithTokenBudget caps the remote provider's tokens per UTC day and month.
// Past a cap, remote calls are refused and the on-device model answers.
// 0 leaves a window uncapped.
func WithTokenBudget(daily, monthly int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.dailyTokens = daily
		c.monthlyTokens = monthly
	})
}

// WithScanLimit caps the items read by one search or recommendation.
// Default: 1000.
func WithScanLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.scanLimit = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
