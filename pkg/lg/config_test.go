package lg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.CacheMaxSize != 100 {
		t.Errorf("DefaultConfig CacheMaxSize = %d, want 100", config.CacheMaxSize)
	}
	if config.CacheTTL != 0 {
		t.Errorf("DefaultConfig CacheTTL = %v, want 0", config.CacheTTL)
	}
	if config.LogLevel != "info" {
		t.Errorf("DefaultConfig LogLevel = %s, want info", config.LogLevel)
	}
	if config.MaxRenderDepth != 100 {
		t.Errorf("DefaultConfig MaxRenderDepth = %d, want 100", config.MaxRenderDepth)
	}
	if config.StrictMode {
		t.Errorf("DefaultConfig StrictMode = true, want false")
	}
	if config.RandomSeed != 0 {
		t.Errorf("DefaultConfig RandomSeed = %d, want 0", config.RandomSeed)
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(t *testing.T, config *Config)
	}{
		{
			name:    "cache max size",
			envVars: map[string]string{"LG_CACHE_MAX_SIZE": "50"},
			check: func(t *testing.T, config *Config) {
				if config.CacheMaxSize != 50 {
					t.Errorf("CacheMaxSize = %d, want 50", config.CacheMaxSize)
				}
			},
		},
		{
			name:    "cache TTL",
			envVars: map[string]string{"LG_CACHE_TTL": "5m"},
			check: func(t *testing.T, config *Config) {
				if config.CacheTTL != 5*time.Minute {
					t.Errorf("CacheTTL = %v, want 5m", config.CacheTTL)
				}
			},
		},
		{
			name:    "log level is lower-cased",
			envVars: map[string]string{"LG_LOG_LEVEL": "DEBUG"},
			check: func(t *testing.T, config *Config) {
				if config.LogLevel != "debug" {
					t.Errorf("LogLevel = %s, want debug", config.LogLevel)
				}
			},
		},
		{
			name:    "max render depth",
			envVars: map[string]string{"LG_MAX_RENDER_DEPTH": "20"},
			check: func(t *testing.T, config *Config) {
				if config.MaxRenderDepth != 20 {
					t.Errorf("MaxRenderDepth = %d, want 20", config.MaxRenderDepth)
				}
			},
		},
		{
			name:    "strict mode",
			envVars: map[string]string{"LG_STRICT_MODE": "yes"},
			check: func(t *testing.T, config *Config) {
				if !config.StrictMode {
					t.Errorf("StrictMode = false, want true")
				}
			},
		},
		{
			name:    "random seed",
			envVars: map[string]string{"LG_RANDOM_SEED": "-7"},
			check: func(t *testing.T, config *Config) {
				if config.RandomSeed != -7 {
					t.Errorf("RandomSeed = %d, want -7", config.RandomSeed)
				}
			},
		},
		{
			name: "invalid values keep defaults",
			envVars: map[string]string{
				"LG_CACHE_MAX_SIZE":   "invalid",
				"LG_CACHE_TTL":        "invalid",
				"LG_MAX_RENDER_DEPTH": "not-a-number",
				"LG_RANDOM_SEED":      "1.5",
			},
			check: func(t *testing.T, config *Config) {
				if config.CacheMaxSize != 100 || config.CacheTTL != 0 || config.MaxRenderDepth != 100 || config.RandomSeed != 0 {
					t.Errorf("config = %+v, want defaults", config)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}
			tt.check(t, ConfigFromEnvironment())
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		wantErr string
		check   func(t *testing.T, config *Config)
	}{
		{
			name: "all fields",
			content: `cache_max_size: 10
cache_ttl: 90s
log_level: warn
max_render_depth: 12
strict_mode: true
random_seed: 99
`,
			check: func(t *testing.T, config *Config) {
				want := Config{CacheMaxSize: 10, CacheTTL: 90 * time.Second, LogLevel: "warn", MaxRenderDepth: 12, StrictMode: true, RandomSeed: 99}
				if *config != want {
					t.Errorf("config = %+v, want %+v", *config, want)
				}
			},
		},
		{
			name:    "missing fields keep defaults",
			content: "strict_mode: true\n",
			check: func(t *testing.T, config *Config) {
				if config.CacheMaxSize != 100 || config.LogLevel != "info" || config.MaxRenderDepth != 100 || !config.StrictMode {
					t.Errorf("config = %+v", config)
				}
			},
		},
		{
			name:    "environment overrides file",
			content: "log_level: warn\n",
			env:     map[string]string{"LG_LOG_LEVEL": "error"},
			check: func(t *testing.T, config *Config) {
				if config.LogLevel != "error" {
					t.Errorf("LogLevel = %s, want error", config.LogLevel)
				}
			},
		},
		{
			name:    "bad duration",
			content: "cache_ttl: soon\n",
			wantErr: "cache_ttl",
		},
		{
			name:    "invalid log level",
			content: "log_level: loud\n",
			wantErr: "invalid log level: loud",
		},
		{
			name:    "malformed yaml",
			content: "cache_max_size: [1\n",
			wantErr: "parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			path := filepath.Join(t.TempDir(), "lg.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			config, err := LoadConfigFile(path)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("LoadConfigFile() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadConfigFile() error = %v", err)
			}
			tt.check(t, config)
		})
	}

	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfigFile() on a missing file should fail")
	}
}

func TestNewConfigWithDefaults(t *testing.T) {
	config := NewConfigWithDefaults(&Config{CacheMaxSize: 200, RandomSeed: 3})

	if config.CacheMaxSize != 200 {
		t.Errorf("CacheMaxSize = %d, want 200", config.CacheMaxSize)
	}
	if config.RandomSeed != 3 {
		t.Errorf("RandomSeed = %d, want 3", config.RandomSeed)
	}
	if config.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info (default)", config.LogLevel)
	}
	if config.MaxRenderDepth != 100 {
		t.Errorf("MaxRenderDepth = %d, want 100 (default)", config.MaxRenderDepth)
	}

	if got := NewConfigWithDefaults(nil); *got != *DefaultConfig() {
		t.Errorf("NewConfigWithDefaults(nil) = %+v, want defaults", got)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		valid  bool
	}{
		{name: "valid config", config: DefaultConfig(), valid: true},
		{name: "logging off", config: &Config{LogLevel: "off", MaxRenderDepth: 1}, valid: true},
		{name: "negative cache size", config: &Config{CacheMaxSize: -1, LogLevel: "info", MaxRenderDepth: 100}},
		{name: "negative cache TTL", config: &Config{CacheTTL: -time.Second, LogLevel: "info", MaxRenderDepth: 100}},
		{name: "invalid log level", config: &Config{LogLevel: "invalid", MaxRenderDepth: 100}},
		{name: "zero max render depth", config: &Config{LogLevel: "info"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.valid && err != nil {
				t.Errorf("Validate() returned error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Validate() returned nil, want error")
			}
		})
	}
}

func TestGlobalConfig(t *testing.T) {
	original := GetGlobalConfig()
	defer SetGlobalConfig(original)

	SetGlobalConfig(&Config{CacheMaxSize: 50, LogLevel: "error", MaxRenderDepth: 200})

	got := GetGlobalConfig()
	if got.CacheMaxSize != 50 || got.LogLevel != "error" {
		t.Errorf("GetGlobalConfig() = %+v", got)
	}
	if GetLogger().Level() != LogError {
		t.Errorf("global logger level = %v, want ERROR", GetLogger().Level())
	}

	got.CacheMaxSize = 1
	if GetGlobalConfig().CacheMaxSize != 50 {
		t.Error("GetGlobalConfig() must return a copy")
	}
}
