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

// Config holds the searchcore API configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Store   StoreConfig   `yaml:"store"`
	Search  SearchConfig  `yaml:"search"`
	Quiz    QuizConfig    `yaml:"quiz"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// StoreConfig holds property store connection settings.
type StoreConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	IndexName        string   `yaml:"index_name"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	QueryTimeoutMS   int      `yaml:"query_timeout_ms"`
}

// SearchConfig holds search and facet settings.
type SearchConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
	// FacetSampleCap bounds the working set used for facet counts. Counts
	// computed over a capped superset are approximate, not exact global
	// counts, unless the cap covers the true result size.
	FacetSampleCap   int `yaml:"facet_sample_cap"`
	GeoCandidatesCap int `yaml:"geo_candidates_cap"`
	// FacetCacheTTLSec controls how long computed facet counts may be served
	// stale from the cache.
	FacetCacheTTLSec int `yaml:"facet_cache_ttl_sec"`
}

// QuizConfig holds quiz session settings.
type QuizConfig struct {
	SessionTTLMin int `yaml:"session_ttl_min"`
	// Progressive narrowing: candidate counts requested at early, middle
	// and late quiz steps.
	EarlyStepLimit int `yaml:"early_step_limit"`
	MidStepLimit   int `yaml:"mid_step_limit"`
	LateStepLimit  int `yaml:"late_step_limit"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
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
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "prop:"
	}
	if c.Store.IndexName == "" {
		c.Store.IndexName = "idx:properties"
	}
	if c.Store.ReadinessTimeout <= 0 {
		c.Store.ReadinessTimeout = 10
	}
	if c.Store.QueryTimeoutMS <= 0 {
		c.Store.QueryTimeoutMS = 2000
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 20
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 100
	}
	if c.Search.FacetSampleCap <= 0 {
		c.Search.FacetSampleCap = 1000
	}
	if c.Search.GeoCandidatesCap <= 0 {
		c.Search.GeoCandidatesCap = 1000
	}
	if c.Search.FacetCacheTTLSec <= 0 {
		c.Search.FacetCacheTTLSec = 60
	}
	if c.Quiz.SessionTTLMin <= 0 {
		c.Quiz.SessionTTLMin = 60
	}
	if c.Quiz.EarlyStepLimit <= 0 {
		c.Quiz.EarlyStepLimit = 50
	}
	if c.Quiz.MidStepLimit <= 0 {
		c.Quiz.MidStepLimit = 30
	}
	if c.Quiz.LateStepLimit <= 0 {
		c.Quiz.LateStepLimit = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Store.Addrs) == 0 {
		return fmt.Errorf("store.addrs is required")
	}
	if c.Search.MaxPageSize < c.Search.DefaultPageSize {
		return fmt.Errorf(
			"search.max_page_size (%d) must not be below search.default_page_size (%d)",
			c.Search.MaxPageSize, c.Search.DefaultPageSize,
		)
	}
	if c.Quiz.EarlyStepLimit < c.Quiz.MidStepLimit || c.Quiz.MidStepLimit < c.Quiz.LateStepLimit {
		return fmt.Errorf(
			"quiz step limits must narrow: early (%d) >= mid (%d) >= late (%d)",
			c.Quiz.EarlyStepLimit, c.Quiz.MidStepLimit, c.Quiz.LateStepLimit,
		)
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
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
