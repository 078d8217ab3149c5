package lg

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all configuration options for the template engine
type Config struct {
	// CacheMaxSize is the maximum number of parsed .lg files to cache. 0 disables caching.
	CacheMaxSize int `yaml:"cache_max_size"`
	// CacheTTL is the time-to-live for cached files. 0 means no expiration.
	// Config files spell it as a duration string such as "5m".
	CacheTTL time.Duration `yaml:"-"`
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string `yaml:"log_level"`
	// MaxRenderDepth bounds how deeply template references may nest during evaluation
	MaxRenderDepth int `yaml:"max_render_depth"`
	// StrictMode makes checker warnings fatal when loading templates
	StrictMode bool `yaml:"strict_mode"`
	// RandomSeed fixes the choice among template variations. 0 picks a random seed.
	RandomSeed int64 `yaml:"random_seed"`
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

func init() {
	configOnce.Do(func() {
		globalConfig = ConfigFromEnvironment()
	})
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		CacheMaxSize:   100,
		CacheTTL:       0,
		LogLevel:       "info",
		MaxRenderDepth: 100,
		StrictMode:     false,
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()
	applyEnvironment(config)
	return config
}

func applyEnvironment(config *Config) {
	if val := os.Getenv("LG_CACHE_MAX_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.CacheMaxSize = size
		}
	}

	if val := os.Getenv("LG_CACHE_TTL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.CacheTTL = duration
		}
	}

	if val := os.Getenv("LG_LOG_LEVEL"); val != "" {
		config.LogLevel = strings.ToLower(val)
	}

	if val := os.Getenv("LG_MAX_RENDER_DEPTH"); val != "" {
		if depth, err := strconv.Atoi(val); err == nil {
			config.MaxRenderDepth = depth
		}
	}

	if val := os.Getenv("LG_STRICT_MODE"); val != "" {
		config.StrictMode = parseBool(val)
	}

	if val := os.Getenv("LG_RANDOM_SEED"); val != "" {
		if seed, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.RandomSeed = seed
		}
	}
}

// LoadConfigFile reads a YAML configuration file. Fields missing from the file
// keep their defaults and environment variables override the file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var raw struct {
		Config   `yaml:",inline"`
		CacheTTL string `yaml:"cache_ttl"`
	}
	raw.Config = *DefaultConfig()
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	config := raw.Config
	if raw.CacheTTL != "" {
		ttl, err := time.ParseDuration(raw.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: cache_ttl: %w", path, err)
		}
		config.CacheTTL = ttl
	}
	applyEnvironment(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &config, nil
}

// NewConfigWithDefaults creates a new configuration with defaults applied to unset fields
func NewConfigWithDefaults(overrides *Config) *Config {
	defaults := DefaultConfig()
	if overrides == nil {
		return defaults
	}

	config := *overrides
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.MaxRenderDepth == 0 {
		config.MaxRenderDepth = defaults.MaxRenderDepth
	}
	return &config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.CacheMaxSize < 0 {
		return errors.New("cache max size cannot be negative")
	}

	if c.CacheTTL < 0 {
		return errors.New("cache TTL cannot be negative")
	}

	if _, ok := logLevels[c.LogLevel]; !ok {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if c.MaxRenderDepth <= 0 {
		return errors.New("max render depth must be positive")
	}

	return nil
}

// GetGlobalConfig returns a copy of the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}
	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// outside the lock: the logger reads the config back
	UpdateLoggerFromConfig()
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
