// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/quizforge/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			SimulateTimeout: 20 * time.Second,
		},
		Engine: EngineConfig{
			MaxSongs:     200,
			CacheEnabled: true,
			CacheSize:    256,
			CacheTTL:     10 * time.Minute,
		},
		Pool: PoolConfig{
			MasterListPath:       "/data/masterlist.json",
			FetchTimeout:         5 * time.Second,
			MaxConcurrentFetches: 4,
			RequestsPerSecond:    10,
			Burst:                5,
			ListCacheSize:        128,
			ListCacheTTL:         5 * time.Minute,
			Breaker: BreakerConfig{
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      30 * time.Second,
				MinRequests:  5,
				FailureRatio: 0.6,
			},
		},
		Storage: StorageConfig{
			Path:           "/data/lists",
			GCInterval:     10 * time.Minute,
			GCDiscardRatio: 0.5,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file and the environment.
// Precedence is env > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as strings from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"engine.required_categories",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				values = append(values, p)
			}
		}
		if err := k.Set(path, values); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to config paths.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"simulate_timeout":      "server.simulate_timeout",

	"engine_max_songs":           "engine.max_songs",
	"engine_cache_enabled":       "engine.cache_enabled",
	"engine_cache_size":          "engine.cache_size",
	"engine_cache_ttl":           "engine.cache_ttl",
	"engine_required_categories": "engine.required_categories",

	"masterlist_path":             "pool.master_list_path",
	"pool_fetch_timeout":          "pool.fetch_timeout",
	"pool_max_concurrent_fetches": "pool.max_concurrent_fetches",
	"list_import_url":             "pool.import_url",
	"list_requests_per_second":    "pool.requests_per_second",
	"list_burst":                  "pool.burst",
	"list_cache_size":             "pool.list_cache_size",
	"list_cache_ttl":              "pool.list_cache_ttl",
	"breaker_max_requests":        "pool.breaker.max_requests",
	"breaker_interval":            "pool.breaker.interval",
	"breaker_timeout":             "pool.breaker.timeout",
	"breaker_min_requests":        "pool.breaker.min_requests",
	"breaker_failure_ratio":       "pool.breaker.failure_ratio",

	"badger_path":        "storage.path",
	"badger_in_memory":   "storage.in_memory",
	"badger_gc_interval": "storage.gc_interval",
	"badger_gc_ratio":    "storage.gc_discard_ratio",

	"cors_origins":       "security.cors_origins",
	"rate_limit_reqs":    "security.rate_limit_reqs",
	"rate_limit_window":  "security.rate_limit_window",
	"disable_rate_limit": "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
