// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/quizforge/internal/metrics"
)

// ValueLogCollector is satisfied by *badger.DB.
type ValueLogCollector interface {
	RunValueLogGC(discardRatio float64) error
}

// BadgerGCService periodically reclaims value log space in the saved-list store.
type BadgerGCService struct {
	db           ValueLogCollector
	interval     time.Duration
	discardRatio float64
	logger       zerolog.Logger
	name         string
}

// NewBadgerGCService creates a GC service. A ratio outside (0,1) falls back to 0.5.
func NewBadgerGCService(db ValueLogCollector, interval time.Duration, discardRatio float64, logger zerolog.Logger) *BadgerGCService {
	if discardRatio <= 0 || discardRatio >= 1 {
		discardRatio = 0.5
	}
	return &BadgerGCService{
		db:           db,
		interval:     interval,
		discardRatio: discardRatio,
		logger:       logger.With().Str("service", "badger-gc").Logger(),
		name:         "badger-gc",
	}
}

// Serve implements suture.Service. A non-positive interval idles until shutdown.
func (s *BadgerGCService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				return err
			}
		}
	}
}

// RunOnce rewrites value log files until badger reports nothing left to reclaim.
func (s *BadgerGCService) RunOnce(ctx context.Context) error {
	rewrites := 0
	for ctx.Err() == nil {
		err := s.db.RunValueLogGC(s.discardRatio)
		switch {
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrRejected):
			result := "clean"
			if rewrites > 0 {
				result = "rewritten"
			}
			metrics.RecordStorageGC(result)
			s.logger.Debug().Int("rewrites", rewrites).Msg("value log gc pass complete")
			return nil
		case err != nil:
			metrics.RecordStorageGC("error")
			return fmt.Errorf("value log gc: %w", err)
		}
		rewrites++
	}
	return nil
}

// String implements fmt.Stringer for logging.
func (s *BadgerGCService) String() string {
	return s.name
}
