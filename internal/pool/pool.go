// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

// Package pool builds the candidate song pool for a run from one or more song lists.
//
// Each song list names a source: the master list, a saved list (by id or URL) or a
// user list imported from an anime tracker. Sources load concurrently, each under
// its own timeout. A source that fails or times out is reported as a LoadingError
// and left out; the rest of the pool is still usable.
package pool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/quizforge/internal/metrics"
	"github.com/tomtom215/quizforge/internal/models"
)

// Pool errors.
var (
	// ErrSourceUnavailable means no collaborator is configured for a list mode.
	ErrSourceUnavailable = errors.New("song source unavailable")

	// ErrSourceTimeout means a source did not answer within the fetch timeout.
	ErrSourceTimeout = errors.New("song source timed out")

	// ErrListNotFound means a saved or imported list does not exist.
	ErrListNotFound = errors.New("song list not found")

	// ErrInvalidList means a list payload could not be decoded.
	ErrInvalidList = errors.New("invalid song list")
)

// MasterList provides the global song pool.
type MasterList interface {
	Songs(ctx context.Context) ([]models.Song, error)
}

// SavedListStore resolves saved lists.
type SavedListStore interface {
	SavedList(ctx context.Context, ref models.SavedListRef) ([]models.Song, error)
}

// UserListImporter fetches a user's list from an external tracker.
// Returned songs carry the user's rating in SourceAnime.Score.
type UserListImporter interface {
	ImportUserList(ctx context.Context, req models.UserListImport) ([]models.Song, error)
}

// Options tune a Builder.
type Options struct {
	FetchTimeout  time.Duration
	MaxConcurrent int
}

// Builder merges song lists into a candidate pool. It is safe for concurrent use.
type Builder struct {
	master MasterList
	saved  SavedListStore
	users  UserListImporter
	opts   Options
	logger zerolog.Logger
}

// Result is a merged pool.
type Result struct {
	// Songs are deduplicated by annSongId and tagged with their source.
	Songs         []models.Song
	LoadingErrors []models.LoadingError
}

// NewBuilder creates a pool builder. Any collaborator may be nil, in which case
// lists of that mode fail with ErrSourceUnavailable.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBuilder(master MasterList, saved SavedListStore, users UserListImporter, opts Options, logger zerolog.Logger) *Builder {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 5 * time.Second
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	return &Builder{
		master: master,
		saved:  saved,
		users:  users,
		opts:   opts,
		logger: logger.With().Str("component", "pool").Logger(),
	}
}

type loaded struct {
	songs []models.Song
	err   error
}

// Build loads every list and merges them in list order.
func (b *Builder) Build(ctx context.Context, lists []models.SongListSpec) *Result {
	results := make([]loaded, len(lists))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.MaxConcurrent)
	for i := range lists {
		g.Go(func() error {
			songs, err := b.fetchWithTimeout(gctx, &lists[i])
			results[i] = loaded{songs: songs, err: err}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in results

	res := &Result{LoadingErrors: []models.LoadingError{}}
	index := make(map[int]int)
	for i := range lists {
		source := lists[i].SourceID()
		if err := results[i].err; err != nil {
			b.logger.Warn().Err(err).Str("source", source).Str("mode", string(lists[i].Mode)).Msg("song list failed to load")
			res.LoadingErrors = append(res.LoadingErrors, models.LoadingError{Source: source, Error: err.Error()})
			continue
		}
		for _, song := range results[i].songs {
			if at, dup := index[song.AnnSongID]; dup {
				existing := &res.Songs[at]
				if existing.SourceAnime.Score == nil && song.SourceAnime.Score != nil {
					existing.SourceAnime.Score = song.SourceAnime.Score
				}
				continue
			}
			song.SourceID = source
			index[song.AnnSongID] = len(res.Songs)
			res.Songs = append(res.Songs, song)
		}
	}

	b.logger.Debug().
		Int("lists", len(lists)).
		Int("songs", len(res.Songs)).
		Int("failed", len(res.LoadingErrors)).
		Msg("candidate pool built")
	return res
}

// fetchWithTimeout bounds one source even when the collaborator ignores its context.
func (b *Builder) fetchWithTimeout(ctx context.Context, spec *models.SongListSpec) ([]models.Song, error) {
	ctx, cancel := context.WithTimeout(ctx, b.opts.FetchTimeout)
	defer cancel()

	mode := string(spec.Mode)
	if spec.UseEntirePool {
		mode = string(models.ListModeMasterlist)
	}
	start := time.Now()

	ch := make(chan loaded, 1)
	go func() {
		songs, err := b.fetch(ctx, spec)
		ch <- loaded{songs: songs, err: err}
	}()

	select {
	case r := <-ch:
		outcome := metrics.FetchOK
		if r.err != nil {
			outcome = metrics.FetchError
			if errors.Is(r.err, context.DeadlineExceeded) {
				outcome = metrics.FetchTimeout
				r.err = fmt.Errorf("%w after %s: %w", ErrSourceTimeout, b.opts.FetchTimeout, r.err)
			}
		}
		metrics.RecordSourceFetch(mode, outcome, time.Since(start))
		return r.songs, r.err
	case <-ctx.Done():
		metrics.RecordSourceFetch(mode, metrics.FetchTimeout, time.Since(start))
		return nil, fmt.Errorf("%w after %s", ErrSourceTimeout, b.opts.FetchTimeout)
	}
}

func (b *Builder) fetch(ctx context.Context, spec *models.SongListSpec) ([]models.Song, error) {
	if spec.UseEntirePool || spec.Mode == models.ListModeMasterlist {
		if b.master == nil {
			return nil, fmt.Errorf("%w: no master list configured", ErrSourceUnavailable)
		}
		return b.master.Songs(ctx)
	}

	switch spec.Mode {
	case models.ListModeSavedLists:
		if spec.SavedList == nil {
			return nil, fmt.Errorf("%w: savedList is required", ErrInvalidList)
		}
		if b.saved == nil {
			return nil, fmt.Errorf("%w: no saved list store configured", ErrSourceUnavailable)
		}
		return b.saved.SavedList(ctx, *spec.SavedList)

	case models.ListModeUserLists:
		if spec.UserListImport == nil {
			return nil, fmt.Errorf("%w: userListImport is required", ErrInvalidList)
		}
		if b.users == nil {
			return nil, fmt.Errorf("%w: no list importer configured", ErrSourceUnavailable)
		}
		return b.users.ImportUserList(ctx, *spec.UserListImport)

	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidList, spec.Mode)
	}
}
