// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/tomtom215/quizforge/internal/validation"
)

// Validate checks struct rules and cross-field constraints.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validatePool(); err != nil {
		return err
	}
	return c.validateStorage()
}

func (c *Config) validateServer() error {
	if c.Server.SimulateTimeout <= 0 {
		return fmt.Errorf("SIMULATE_TIMEOUT must be positive, got %v", c.Server.SimulateTimeout)
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.CacheEnabled && c.Engine.CacheSize == 0 {
		return fmt.Errorf("ENGINE_CACHE_SIZE must be positive when the result cache is enabled")
	}
	return nil
}

func (c *Config) validatePool() error {
	if c.Pool.FetchTimeout <= 0 {
		return fmt.Errorf("POOL_FETCH_TIMEOUT must be positive, got %v", c.Pool.FetchTimeout)
	}
	if c.Pool.FetchTimeout >= c.Server.SimulateTimeout {
		return fmt.Errorf("POOL_FETCH_TIMEOUT (%v) must be shorter than SIMULATE_TIMEOUT (%v)",
			c.Pool.FetchTimeout, c.Server.SimulateTimeout)
	}
	if c.Pool.ImportURL != "" {
		if err := validateHTTPURL(c.Pool.ImportURL); err != nil {
			return fmt.Errorf("LIST_IMPORT_URL is invalid: %w", err)
		}
	}
	if c.Pool.Breaker.Timeout < time.Second {
		return fmt.Errorf("BREAKER_TIMEOUT must be at least 1s, got %v", c.Pool.Breaker.Timeout)
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("BADGER_PATH is required unless BADGER_IN_MEMORY=true")
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
