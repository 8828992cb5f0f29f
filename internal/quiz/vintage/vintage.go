// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

// Package vintage parses "Season Year" anime vintages and compares them.
package vintage

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Season is a quarter of the anime broadcast year.
type Season int

// Seasons in broadcast order.
const (
	Winter Season = iota
	Spring
	Summer
	Fall
)

var seasonNames = [...]string{"Winter", "Spring", "Summer", "Fall"}

func (s Season) String() string {
	if s < Winter || s > Fall {
		return "Unknown"
	}
	return seasonNames[s]
}

// ParseSeason matches a season name case-insensitively. "Autumn" is accepted for Fall.
func ParseSeason(name string) (Season, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "winter":
		return Winter, true
	case "spring":
		return Spring, true
	case "summer":
		return Summer, true
	case "fall", "autumn":
		return Fall, true
	default:
		return Winter, false
	}
}

// Vintage is a season within a year.
type Vintage struct {
	Season Season
	Year   int
}

// Sentinel is the value assigned to unparsable vintages. It sorts before every real vintage.
var Sentinel = Vintage{Season: Winter, Year: 1944}

// Parse reads "Season Year". Empty or malformed input yields Sentinel.
func Parse(s string) Vintage {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Sentinel
	}
	season, ok := ParseSeason(fields[0])
	if !ok {
		return Sentinel
	}
	year, err := strconv.Atoi(fields[1])
	if err != nil || year <= 0 {
		return Sentinel
	}
	return Vintage{Season: season, Year: year}
}

// Ordinal maps a vintage onto a single comparable integer.
func (v Vintage) Ordinal() int {
	return v.Year*4 + int(v.Season)
}

// Compare returns -1, 0 or 1.
func (v Vintage) Compare(o Vintage) int {
	switch a, b := v.Ordinal(), o.Ordinal(); {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (v Vintage) String() string {
	return fmt.Sprintf("%s %d", v.Season, v.Year)
}

// InRange reports whether v lies in [from, to], inclusive at both ends.
func InRange(v, from, to Vintage) bool {
	return v.Compare(from) >= 0 && v.Compare(to) <= 0
}

// IsInVintageRange parses raw and tests it against [from, to].
func IsInVintageRange(raw string, from, to Vintage) bool {
	return InRange(Parse(raw), from, to)
}

// MarshalJSON encodes the "Season Year" form.
func (v Vintage) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON accepts "Season Year" or {"season": "...", "year": n}.
// A malformed value decodes to Sentinel rather than failing.
func (v *Vintage) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Sentinel
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("vintage: %w", err)
		}
		*v = Parse(s)
		return nil
	}

	var obj struct {
		Season string `json:"season"`
		Year   int    `json:"year"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("vintage: %w", err)
	}
	*v = Parse(obj.Season + " " + strconv.Itoa(obj.Year))
	return nil
}
