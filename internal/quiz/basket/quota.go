// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package basket

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Quota is the distribution target attached to one filter category.
//
// Accepted JSON forms:
//
//	50                                    // percentage
//	true / false                          // enabled without a target
//	{"percentage": 50}
//	{"count": 4}
//	{"min": {"percentage": 10}, "max": {"count": 6}}
//	{"enabled": false}
type Quota struct {
	Enabled    *bool    `json:"enabled,omitempty"`
	Percentage *float64 `json:"percentage,omitempty"`
	Count      *float64 `json:"count,omitempty"`
	Min        *Bound   `json:"min,omitempty"`
	Max        *Bound   `json:"max,omitempty"`
}

// Bound is one side of a ranged quota. A bare number is a percentage.
type Bound struct {
	Percentage *float64 `json:"percentage,omitempty"`
	Count      *float64 `json:"count,omitempty"`
}

// Active reports whether the category is enabled. Quotas are enabled unless switched off.
func (q Quota) Active() bool {
	return q.Enabled == nil || *q.Enabled
}

// HasTarget reports whether the quota asks for a basket.
func (q Quota) HasTarget() bool {
	return q.Percentage != nil || q.Count != nil || q.Min != nil || q.Max != nil
}

// IsExact reports whether the quota is a single percentage or count rather than a range.
func (q Quota) IsExact() bool {
	return (q.Percentage != nil || q.Count != nil) && q.Min == nil && q.Max == nil
}

// nominal is the unrounded exact target for a song count target.
func (q Quota) nominal(target int) float64 {
	if q.Count != nil {
		return *q.Count
	}
	if q.Percentage != nil {
		return *q.Percentage / 100 * float64(target)
	}
	return 0
}

func (b Bound) resolve(target int) (int, bool) {
	switch {
	case b.Count != nil:
		return roundHalfUp(*b.Count), true
	case b.Percentage != nil:
		return roundHalfUp(*b.Percentage / 100 * float64(target)), true
	default:
		return 0, false
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quota) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*q = Quota{}
		return nil
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		enabled := data[0] == 't'
		*q = Quota{Enabled: &enabled}
		return nil
	case data[0] == '{':
		type plain Quota
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("quota: %w", err)
		}
		*q = Quota(p)
		return nil
	default:
		var pct float64
		if err := json.Unmarshal(data, &pct); err != nil {
			return fmt.Errorf("quota: expected number, bool or object: %w", err)
		}
		*q = Quota{Percentage: &pct}
		return nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bound) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		type plain Bound
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("quota bound: %w", err)
		}
		*b = Bound(p)
		return nil
	}
	var pct float64
	if err := json.Unmarshal(data, &pct); err != nil {
		return fmt.Errorf("quota bound: %w", err)
	}
	*b = Bound{Percentage: &pct}
	return nil
}

// DecodeQuota reads the quota fields of an object that also carries other keys,
// such as a vintage range {"from": ..., "to": ..., "percentage": 20}.
func DecodeQuota(raw json.RawMessage) (Quota, error) {
	var q Quota
	if len(bytes.TrimSpace(raw)) == 0 {
		return q, nil
	}
	err := json.Unmarshal(raw, &q)
	return q, err
}
