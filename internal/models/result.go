// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package models

// SimulationResult is the outcome of one engine run.
// A result with Metadata.Success == false is a partial preview, not a failure.
type SimulationResult struct {
	Songs    []Song      `json:"songs"`
	Metadata RunMetadata `json:"metadata"`
}

// RunMetadata reports how a run went. It is never modified after the run returns.
type RunMetadata struct {
	// Seed is the seed actually used, including a generated one.
	Seed string `json:"seed"`

	TargetCount int  `json:"targetCount"`
	FinalCount  int  `json:"finalCount"`
	Success     bool `json:"success"`

	// SourceSongCount is the merged pool size before any filter is applied.
	SourceSongCount int `json:"sourceSongCount"`

	// EligibleSongCount is the number of pool songs passing every active filter.
	EligibleSongCount int `json:"eligibleSongCount"`

	BasketStatus  []BasketStatus `json:"basketStatus"`
	LoadingErrors []LoadingError `json:"loadingErrors"`

	// ResolvedFilters lists the instance ids of filters active in this run.
	ResolvedFilters []string `json:"resolvedFilters"`

	// ForcedNodes lists node ids activated by execution-chance fallback.
	ForcedNodes []string `json:"forcedNodes,omitempty"`

	// BasicSettings is the settings object that won resolution.
	BasicSettings BasicSettings `json:"basicSettings,omitempty"`
}

// BasketStatus is the final state of one basket.
type BasketStatus struct {
	ID       string `json:"id"`
	FilterID string `json:"filterId,omitempty"`
	Current  int    `json:"current"`
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	MeetsMin bool   `json:"meetsMin"`

	// Available is how many eligible songs matched the basket.
	Available int `json:"available"`
}

// LoadingError records a song source that could not be loaded.
type LoadingError struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}
