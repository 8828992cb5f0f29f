// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package services

import (
	"context"
	"time"

	"github.com/tomtom215/quizforge/internal/metrics"
)

// UptimeService refreshes the app_uptime_seconds gauge.
type UptimeService struct {
	started  time.Time
	interval time.Duration
}

// NewUptimeService creates an uptime reporter. Interval defaults to 15s.
func NewUptimeService(started time.Time, interval time.Duration) *UptimeService {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &UptimeService{started: started, interval: interval}
}

// Serve implements suture.Service.
func (s *UptimeService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	metrics.UpdateUptime(s.started)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			metrics.UpdateUptime(s.started)
		}
	}
}

func (s *UptimeService) String() string {
	return "uptime-reporter"
}
