// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package pool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/quizforge/internal/cache"
	"github.com/tomtom215/quizforge/internal/config"
	"github.com/tomtom215/quizforge/internal/metrics"
	"github.com/tomtom215/quizforge/internal/models"
)

// maxListBytes caps a downloaded list payload.
const maxListBytes = 64 << 20

// HTTPListClient downloads song lists over HTTP: saved lists by URL and user lists
// through the list-import gateway. Calls share one circuit breaker and one rate
// limiter, and successful downloads are cached in memory.
//
// It implements UserListImporter and the URL half of SavedListResolver.
type HTTPListClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	cache   *cache.LRU[[]models.Song]
	cb      *gobreaker.CircuitBreaker[[]models.Song]
	name    string
	logger  zerolog.Logger
}

// NewHTTPListClient creates a list client from the pool configuration.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHTTPListClient(cfg *config.PoolConfig, logger zerolog.Logger) *HTTPListClient {
	c := &HTTPListClient{
		baseURL: strings.TrimRight(cfg.ImportURL, "/"),
		client:  &http.Client{Timeout: cfg.FetchTimeout},
		name:    "list-import",
		logger:  logger.With().Str("component", "list_client").Logger(),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	if cfg.ListCacheSize > 0 {
		c.cache = cache.NewLRU[[]models.Song](cfg.ListCacheSize, cfg.ListCacheTTL)
	}

	bc := cfg.Breaker
	metrics.CircuitBreakerState.WithLabelValues(c.name).Set(0)
	c.cb = gobreaker.NewCircuitBreaker[[]models.Song](gobreaker.Settings{
		Name:        c.name,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,

		// Opens when the failure ratio reaches the threshold over enough requests
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bc.MinRequests || counts.Requests == 0 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= bc.FailureRatio {
				c.logger.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", ratio*100).Msg("opening circuit")
				return true
			}
			return false
		},

		// A missing list is the caller's problem, not the gateway's
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrListNotFound)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Info().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state transition")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	})
	return c
}

// FetchURL downloads a saved list from an absolute http(s) URL.
func (c *HTTPListClient) FetchURL(ctx context.Context, rawURL string) ([]models.Song, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: list url must be an absolute http(s) URL", ErrInvalidList)
	}
	return c.cached(ctx, "url:"+u.String(), u.String())
}

// ImportUserList implements UserListImporter via
// GET {import_url}/lists/{platform}/{username}?status=...
func (c *HTTPListClient) ImportUserList(ctx context.Context, req models.UserListImport) ([]models.Song, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: list import gateway is not configured", ErrSourceUnavailable)
	}

	q := url.Values{}
	for _, s := range req.Statuses {
		q.Add("status", s)
	}
	reqURL := fmt.Sprintf("%s/lists/%s/%s", c.baseURL, url.PathEscape(strings.ToLower(req.Platform)), url.PathEscape(req.Username))
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}
	return c.cached(ctx, "user:"+reqURL, reqURL)
}

func (c *HTTPListClient) cached(ctx context.Context, key, reqURL string) ([]models.Song, error) {
	if c.cache != nil {
		if songs, ok := c.cache.Get(key); ok {
			metrics.RecordCacheLookup("list", true)
			return songs, nil
		}
		metrics.RecordCacheLookup("list", false)
	}

	songs, err := c.execute(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Add(key, songs)
	}
	return songs, nil
}

// execute wraps one download with rate limiting and circuit breaker protection
func (c *HTTPListClient) execute(ctx context.Context, reqURL string) ([]models.Song, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	start := time.Now()
	songs, err := c.cb.Execute(func() ([]models.Song, error) {
		return c.get(ctx, reqURL)
	})

	switch {
	case err == nil:
		metrics.RecordCircuitBreakerResult(c.name, "success")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordCircuitBreakerResult(c.name, "rejected")
		c.logger.Warn().Err(err).Msg("list request rejected by circuit breaker")
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	default:
		metrics.RecordCircuitBreakerResult(c.name, "failure")
		return nil, err
	}

	c.logger.Debug().Int("songs", len(songs)).Dur("duration", time.Since(start)).Msg("song list downloaded")
	return songs, nil
}

func (c *HTTPListClient) get(ctx context.Context, reqURL string) ([]models.Song, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrListNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("list request failed with status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxListBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read list body: %w", err)
	}
	if len(data) > maxListBytes {
		return nil, fmt.Errorf("%w: payload exceeds %d bytes", ErrInvalidList, maxListBytes)
	}
	return decodeSongs(data)
}
