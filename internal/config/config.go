// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

// Package config loads Quizforge configuration from defaults, an optional YAML
// file and environment variables, in that order of precedence.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Invalid configuration")
//	}
//
// Config is immutable after Load and safe for concurrent reads.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Engine   EngineConfig   `koanf:"engine"`
	Pool     PoolConfig     `koanf:"pool"`
	Storage  StorageConfig  `koanf:"storage"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// SimulateTimeout bounds one simulate request, including pool loading.
	SimulateTimeout time.Duration `koanf:"simulate_timeout"`
}

// EngineConfig tunes the song-resolution engine.
type EngineConfig struct {
	// MaxSongs rejects configurations whose song count exceeds this value.
	MaxSongs int `koanf:"max_songs" validate:"min=1"`

	// CacheEnabled turns on the result cache for seeded runs.
	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheSize    int           `koanf:"cache_size" validate:"min=0"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`

	// RequiredCategories are fallback categories enforced in addition to the built-in ones.
	RequiredCategories []string `koanf:"required_categories"`
}

// PoolConfig configures candidate pool loading.
type PoolConfig struct {
	// MasterListPath is a JSON file holding the master song list.
	MasterListPath string `koanf:"master_list_path"`

	// FetchTimeout bounds each individual source fetch.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`

	// MaxConcurrentFetches caps parallel source loads within one run.
	MaxConcurrentFetches int `koanf:"max_concurrent_fetches" validate:"min=1"`

	// ImportURL is the base URL of the list-import gateway for user lists. Empty disables user lists.
	ImportURL string `koanf:"import_url"`

	// RequestsPerSecond throttles outbound list requests. Zero disables throttling.
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"min=0"`
	Burst             int     `koanf:"burst" validate:"min=0"`

	// ListCacheSize and ListCacheTTL control the in-process cache of fetched lists.
	ListCacheSize int           `koanf:"list_cache_size" validate:"min=0"`
	ListCacheTTL  time.Duration `koanf:"list_cache_ttl"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig configures the circuit breaker guarding remote list fetches.
type BreakerConfig struct {
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio" validate:"min=0,max=1"`
}

// StorageConfig configures the saved-list store.
type StorageConfig struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`

	// GCInterval is how often value log garbage collection runs. Zero disables it.
	GCInterval     time.Duration `koanf:"gc_interval"`
	GCDiscardRatio float64       `koanf:"gc_discard_ratio" validate:"min=0,max=1"`
}

// SecurityConfig holds HTTP edge settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig mirrors logging.Config for file and env loading.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}
