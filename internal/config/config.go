// Package config loads the YAML service configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/semdex/internal/similarity"
	"github.com/kailas-cloud/semdex/internal/usecase/recommend"
)

// Database drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverBadger = "badger"
)

// Config holds the semdex configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Recommend RecommendConfig `yaml:"recommend"`
	Reindex   ReindexConfig   `yaml:"reindex"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds store connection settings.
type DatabaseConfig struct {
	Driver           string       `yaml:"driver"` // valkey, redis, badger (default: valkey)
	Addrs            []string     `yaml:"addrs"`
	Username         string       `yaml:"username"`
	Password         string       `yaml:"password"`
	DB               int          `yaml:"db"`
	Badger           BadgerConfig `yaml:"badger"`
	ReadinessTimeout int          `yaml:"readiness_timeout_sec"`
	QueryTimeoutMs   int          `yaml:"query_timeout_ms"`
	// MaxScan caps the keys walked by one item listing; 0 means unbounded.
	MaxScan int `yaml:"max_scan"`
}

// BadgerConfig holds embedded store settings.
type BadgerConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// QueryTimeout returns the per-read store deadline.
func (d DatabaseConfig) QueryTimeout() time.Duration {
	return time.Duration(d.QueryTimeoutMs) * time.Millisecond
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	DefaultProvider string         `yaml:"default_provider"` // on-device, remote
	TimeoutMs       int            `yaml:"timeout_ms"`
	MaxInputChars   int            `yaml:"max_input_chars"`
	Cache           CacheConfig    `yaml:"cache"`
	Remote          RemoteConfig   `yaml:"remote"`
	OnDevice        OnDeviceConfig `yaml:"ondevice"`
}

// Timeout returns the per-call provider deadline.
func (e EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutMs) * time.Millisecond
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Size   int `yaml:"size"` // in-process LRU entries
	TTLSec int `yaml:"ttl_sec"`
}

// RemoteConfig holds the OpenAI-compatible provider settings.
type RemoteConfig struct {
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	Model      string        `yaml:"model"`
	Dimensions int           `yaml:"dimensions"`
	Budget     BudgetConfig  `yaml:"budget"`
	Breaker    BreakerConfig `yaml:"breaker"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// BreakerConfig holds circuit breaker settings for the remote provider.
type BreakerConfig struct {
	MinRequests      uint32  `yaml:"min_requests"`
	FailureRatio     float64 `yaml:"failure_ratio"`
	IntervalSec      int     `yaml:"interval_sec"`
	OpenTimeoutSec   int     `yaml:"open_timeout_sec"`
	HalfOpenRequests uint32  `yaml:"half_open_requests"`
}

// OnDeviceConfig holds local provider settings.
type OnDeviceConfig struct {
	// Models are tried in order until one loads. hash-<dim> models are built in.
	Models         []string `yaml:"models"`
	RuntimeURL     string   `yaml:"runtime_url"`
	LoadTimeoutSec int      `yaml:"load_timeout_sec"`
	// RetryAfterSec is how long a failed model load is reported before retrying.
	RetryAfterSec int `yaml:"retry_after_sec"`
}

// SearchConfig holds search settings.
type SearchConfig struct {
	VectorScanLimit  int                `yaml:"vector_scan_limit"`
	KeywordScanLimit int                `yaml:"keyword_scan_limit"`
	Weights          similarity.Weights `yaml:"weights"`
}

// RecommendConfig holds recommendation settings.
type RecommendConfig struct {
	Gates     recommend.Gates   `yaml:"gates"`
	Weights   recommend.Weights `yaml:"weights"`
	ScanLimit int               `yaml:"scan_limit"`
}

// ReindexConfig holds reindex settings.
type ReindexConfig struct {
	Concurrency int `yaml:"concurrency"`
	// RateLimitPerMin caps POST /reindex calls per client.
	RateLimitPerMin int `yaml:"rate_limit_per_min"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	data = expandEnvVars(data)

	// Tunables are seeded before decoding so an explicit 0 in the file survives.
	cfg := Config{
		Search:    SearchConfig{Weights: similarity.DefaultWeights()},
		Recommend: RecommendConfig{Gates: recommend.DefaultGates(), Weights: recommend.DefaultWeights()},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.QueryTimeoutMs <= 0 {
		c.Database.QueryTimeoutMs = 2000
	}
	if c.Database.MaxScan <= 0 {
		c.Database.MaxScan = 10000
	}

	c.applyEmbeddingDefaults()

	if c.Search.VectorScanLimit <= 0 {
		c.Search.VectorScanLimit = 1000
	}
	if c.Search.KeywordScanLimit <= 0 {
		c.Search.KeywordScanLimit = 1000
	}
	// A config built in code without tunables gets the stock ones.
	if c.Search.Weights == (similarity.Weights{}) {
		c.Search.Weights = similarity.DefaultWeights()
	}
	if c.Recommend.Gates == (recommend.Gates{}) {
		c.Recommend.Gates = recommend.DefaultGates()
	}
	if c.Recommend.Weights == (recommend.Weights{}) {
		c.Recommend.Weights = recommend.DefaultWeights()
	}
	if c.Recommend.ScanLimit <= 0 {
		c.Recommend.ScanLimit = 1000
	}

	if c.Reindex.Concurrency <= 0 {
		c.Reindex.Concurrency = 4
	}
	if c.Reindex.RateLimitPerMin <= 0 {
		c.Reindex.RateLimitPerMin = 2
	}
}

func (c *Config) applyEmbeddingDefaults() {
	e := &c.Embedding
	if e.DefaultProvider == "" {
		e.DefaultProvider = "on-device"
	}
	if e.TimeoutMs <= 0 {
		e.TimeoutMs = 10000
	}
	if e.MaxInputChars <= 0 {
		e.MaxInputChars = 8000
	}
	if e.Cache.Size <= 0 {
		e.Cache.Size = 4096
	}
	if e.Cache.TTLSec <= 0 {
		e.Cache.TTLSec = 7 * 24 * 3600
	}
	if e.Remote.Model == "" {
		e.Remote.Model = "text-embedding-3-small"
	}
	if e.Remote.Breaker.MinRequests == 0 {
		e.Remote.Breaker.MinRequests = 5
	}
	if e.Remote.Breaker.FailureRatio <= 0 {
		e.Remote.Breaker.FailureRatio = 0.5
	}
	if e.Remote.Breaker.IntervalSec <= 0 {
		e.Remote.Breaker.IntervalSec = 60
	}
	if e.Remote.Breaker.OpenTimeoutSec <= 0 {
		e.Remote.Breaker.OpenTimeoutSec = 30
	}
	if e.Remote.Breaker.HalfOpenRequests == 0 {
		e.Remote.Breaker.HalfOpenRequests = 1
	}
	if len(e.OnDevice.Models) == 0 {
		e.OnDevice.Models = []string{"hash-384"}
	}
	if e.OnDevice.LoadTimeoutSec <= 0 {
		e.OnDevice.LoadTimeoutSec = 30
	}
	if e.OnDevice.RetryAfterSec <= 0 {
		e.OnDevice.RetryAfterSec = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return errors.New("database.addrs is required")
		}
	case DriverBadger:
		if c.Database.Badger.Path == "" && !c.Database.Badger.InMemory {
			return errors.New("database.badger.path is required unless in_memory is set")
		}
	default:
		return fmt.Errorf("database.driver must be valkey, redis or badger, got %q", c.Database.Driver)
	}

	switch c.Embedding.DefaultProvider {
	case "on-device", "remote":
	default:
		return fmt.Errorf(
			"embedding.default_provider must be \"on-device\" or \"remote\", got %q",
			c.Embedding.DefaultProvider,
		)
	}

	switch c.Embedding.Remote.Budget.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf(
			"embedding.remote.budget.action must be \"warn\" or \"reject\", got %q",
			c.Embedding.Remote.Budget.Action,
		)
	}
	if r := c.Embedding.Remote.Breaker.FailureRatio; r > 1 {
		return fmt.Errorf("embedding.remote.breaker.failure_ratio must be in (0, 1], got %v", r)
	}

	if g := c.Recommend.Gates; g.VectorMinSimilarity >= 1 || g.VectorMinSimilarity < -1 {
		return fmt.Errorf("recommend.gates.vector_min_similarity must be in [-1, 1), got %v", g.VectorMinSimilarity)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
