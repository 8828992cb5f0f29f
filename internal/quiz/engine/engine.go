// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

// Package engine runs one quiz simulation end to end.
//
// A run resolves the node graph, loads the candidate pool, applies every active
// filter predicate, plans baskets for quota-driven filters and samples the final
// song list. The graph walk and the sampler share one seeded generator, so the same
// configuration, seed and pool always produce the same songs.
//
// Usage:
//
//	eng := engine.NewEngine(&cfg.Engine, filters.DefaultRegistry(), builder, logger)
//	result, err := eng.Simulate(ctx, quiz)
//	if errors.Is(err, engine.ErrInvalidConfiguration) {
//	    // reject the request
//	}
//
// An unmet basket is not an error: the result comes back with Success false and the
// basket status explains what could not be filled.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/quizforge/internal/cache"
	"github.com/tomtom215/quizforge/internal/config"
	"github.com/tomtom215/quizforge/internal/logging"
	"github.com/tomtom215/quizforge/internal/metrics"
	"github.com/tomtom215/quizforge/internal/models"
	"github.com/tomtom215/quizforge/internal/pool"
	"github.com/tomtom215/quizforge/internal/quiz/basket"
	"github.com/tomtom215/quizforge/internal/quiz/filters"
	"github.com/tomtom215/quizforge/internal/quiz/graph"
	"github.com/tomtom215/quizforge/internal/quiz/rng"
	"github.com/tomtom215/quizforge/internal/quiz/sampler"
	"github.com/tomtom215/quizforge/internal/validation"
)

// ErrInvalidConfiguration wraps every fatal configuration problem.
var ErrInvalidConfiguration = errors.New("invalid quiz configuration")

// PoolBuilder loads and merges the song lists of a run.
type PoolBuilder interface {
	Build(ctx context.Context, lists []models.SongListSpec) *pool.Result
}

// Engine runs simulations. It is safe for concurrent use: each run owns its
// generator, pool snapshot and baskets.
type Engine struct {
	cfg      config.EngineConfig
	registry *filters.Registry
	pool     PoolBuilder
	cache    *cache.LRU[*models.SimulationResult]
	logger   zerolog.Logger
}

// NewEngine creates an engine. A nil registry uses filters.DefaultRegistry.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *config.EngineConfig, registry *filters.Registry, builder PoolBuilder, logger zerolog.Logger) *Engine {
	if registry == nil {
		registry = filters.DefaultRegistry()
	}
	e := &Engine{
		cfg:      *cfg,
		registry: registry,
		pool:     builder,
		logger:   logger.With().Str("component", "engine").Logger(),
	}
	if cfg.CacheEnabled && cfg.CacheSize > 0 {
		e.cache = cache.NewLRU[*models.SimulationResult](cfg.CacheSize, cfg.CacheTTL)
	}
	return e
}

// Simulate resolves quiz into a song list.
//
// Errors wrapping ErrInvalidConfiguration mean the configuration itself is unusable.
// Source failures are reported in the result's LoadingErrors instead.
func (e *Engine) Simulate(ctx context.Context, quiz *models.QuizConfiguration) (*models.SimulationResult, error) {
	start := time.Now()

	result, err := e.simulate(ctx, quiz)
	switch {
	case errors.Is(err, ErrInvalidConfiguration):
		metrics.RecordSimulation(metrics.OutcomeInvalid, time.Since(start))
	case err != nil:
		metrics.RecordSimulation(metrics.OutcomeError, time.Since(start))
	case result.Metadata.Success:
		metrics.RecordSimulation(metrics.OutcomeSuccess, time.Since(start))
	default:
		metrics.RecordSimulation(metrics.OutcomePartial, time.Since(start))
	}
	return result, err
}

func (e *Engine) simulate(ctx context.Context, quiz *models.QuizConfiguration) (*models.SimulationResult, error) {
	if quiz == nil {
		return nil, fmt.Errorf("%w: configuration is required", ErrInvalidConfiguration)
	}
	if verr := validation.ValidateStruct(quiz); verr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, verr)
	}

	seed := quiz.Seed
	seeded := seed != ""
	if !seeded {
		seed = uuid.NewString()
	}

	runID := logging.GenerateRunID()
	ctx = logging.ContextWithRunID(ctx, runID)
	logger := e.runLogger(ctx, runID, seed)

	var cacheKey string
	if seeded && e.cache != nil {
		cacheKey = resultKey(quiz)
		if cached, ok := e.cache.Get(cacheKey); ok {
			metrics.RecordCacheLookup("result", true)
			logger.Debug().Msg("simulation served from cache")
			return cached, nil
		}
		metrics.RecordCacheLookup("result", false)
	}

	g, err := graph.Parse(quiz, e.registry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	g.Required = mergeCategories(g.Required, e.cfg.RequiredCategories)

	r := rng.New(seed)
	res, err := graph.Resolve(g, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if e.cfg.MaxSongs > 0 && res.SongCount > e.cfg.MaxSongs {
		return nil, fmt.Errorf("%w: numberOfSongs %d exceeds the limit of %d", ErrInvalidConfiguration, res.SongCount, e.cfg.MaxSongs)
	}
	for i := range res.SongLists {
		if verr := validation.ValidateStruct(&res.SongLists[i]); verr != nil {
			return nil, fmt.Errorf("%w: song list %s: %w", ErrInvalidConfiguration, res.SongLists[i].SourceID(), verr)
		}
	}

	logger.Debug().
		Int("target", res.SongCount).
		Int("filters", len(res.Filters)).
		Int("song_lists", len(res.SongLists)).
		Strs("forced", res.Forced).
		Msg("graph resolved")

	loaded := e.pool.Build(ctx, res.SongLists)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("simulation cancelled: %w", err)
	}

	predicates, baskets := e.plan(res)
	eligible := make([]models.Song, 0, len(loaded.Songs))
	for i := range loaded.Songs {
		if passesAll(predicates, &loaded.Songs[i]) {
			eligible = append(eligible, loaded.Songs[i])
		}
	}
	metrics.RecordPoolSizes(len(loaded.Songs), len(eligible))
	basket.ReleaseShortfall(baskets, eligible, res.SongCount)

	out := sampler.Sample(sampler.Input{
		Eligible: eligible,
		Baskets:  baskets,
		Target:   res.SongCount,
		RNG:      r,
	})

	result := &models.SimulationResult{
		Songs: out.Songs,
		Metadata: models.RunMetadata{
			Seed:              seed,
			TargetCount:       res.SongCount,
			FinalCount:        len(out.Songs),
			Success:           out.Success,
			SourceSongCount:   len(loaded.Songs),
			EligibleSongCount: len(eligible),
			BasketStatus:      out.Status,
			LoadingErrors:     loaded.LoadingErrors,
			ResolvedFilters:   resolvedIDs(res.Filters),
			ForcedNodes:       res.Forced,
			BasicSettings:     res.BasicSettings,
		},
	}
	if result.Songs == nil {
		result.Songs = []models.Song{}
	}

	for _, st := range out.Status {
		if !st.MeetsMin {
			metrics.RecordUnmetBasket(st.FilterID)
			logger.Info().
				Str("basket", st.ID).
				Int("current", st.Current).
				Int("min", st.Min).
				Int("available", st.Available).
				Msg("basket minimum not met")
		}
	}

	logger.Info().
		Int("target", result.Metadata.TargetCount).
		Int("final", result.Metadata.FinalCount).
		Int("source_songs", result.Metadata.SourceSongCount).
		Int("eligible_songs", result.Metadata.EligibleSongCount).
		Int("loading_errors", len(result.Metadata.LoadingErrors)).
		Bool("success", result.Metadata.Success).
		Msg("simulation finished")

	if cacheKey != "" && len(loaded.LoadingErrors) == 0 {
		e.cache.Add(cacheKey, result)
	}
	return result, nil
}

// plan compiles the effective predicates and the baskets of every advanced filter
// in resolution order.
func (e *Engine) plan(res *graph.Resolution) ([]filters.Settings, []*basket.Basket) {
	predicates := make([]filters.Settings, 0, len(res.Filters))
	var baskets []*basket.Basket
	for _, f := range res.Filters {
		eff := f.Effective()
		predicates = append(predicates, eff)
		if eff.Advanced() {
			baskets = append(baskets, basket.Plan(f.InstanceID, eff.Categories(), res.SongCount)...)
		}
	}
	return predicates, baskets
}

func (e *Engine) runLogger(ctx context.Context, runID, seed string) zerolog.Logger {
	lc := e.logger.With().Str("run_id", runID).Str("seed", seed)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}
	return lc.Logger()
}

func passesAll(predicates []filters.Settings, song *models.Song) bool {
	for _, p := range predicates {
		if !p.Matches(song) {
			return false
		}
	}
	return true
}

func resolvedIDs(fs []graph.ResolvedFilter) []string {
	ids := make([]string, len(fs))
	for i, f := range fs {
		ids[i] = f.InstanceID
	}
	return ids
}

func mergeCategories(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, c := range append(append([]string{}, base...), extra...) {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// resultKey hashes the canonical JSON form of the configuration, seed included.
func resultKey(quiz *models.QuizConfiguration) string {
	data, err := json.Marshal(quiz)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
