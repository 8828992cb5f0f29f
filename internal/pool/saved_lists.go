// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package pool

import (
	"context"
	"fmt"

	"github.com/tomtom215/quizforge/internal/models"
)

// URLFetcher downloads a song list from a URL.
type URLFetcher interface {
	FetchURL(ctx context.Context, rawURL string) ([]models.Song, error)
}

// SavedListResolver serves saved lists from their URL when one is given and from
// the local store otherwise.
type SavedListResolver struct {
	store SavedListStore
	urls  URLFetcher
}

// NewSavedListResolver combines a store and a URL fetcher. Either may be nil.
func NewSavedListResolver(store SavedListStore, urls URLFetcher) *SavedListResolver {
	return &SavedListResolver{store: store, urls: urls}
}

// SavedList implements SavedListStore.
func (r *SavedListResolver) SavedList(ctx context.Context, ref models.SavedListRef) ([]models.Song, error) {
	switch {
	case ref.URL != "":
		if r.urls == nil {
			return nil, fmt.Errorf("%w: cannot fetch saved list by url", ErrSourceUnavailable)
		}
		return r.urls.FetchURL(ctx, ref.URL)
	case ref.ID != "":
		if r.store == nil {
			return nil, fmt.Errorf("%w: no saved list store", ErrSourceUnavailable)
		}
		return r.store.SavedList(ctx, ref)
	default:
		return nil, fmt.Errorf("%w: saved list needs an id or url", ErrInvalidList)
	}
}
