// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package pool

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/quizforge/internal/models"
)

// FileMasterList serves the master list from a JSON file. The file is read on first
// use and kept in memory; a failed read is retried on the next call.
type FileMasterList struct {
	path string

	mu    sync.Mutex
	songs []models.Song
}

// NewFileMasterList creates a master list backed by path.
func NewFileMasterList(path string) *FileMasterList {
	return &FileMasterList{path: path}
}

// Songs implements MasterList.
func (m *FileMasterList) Songs(_ context.Context) ([]models.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.songs != nil {
		return m.songs, nil
	}
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("read master list: %w", err)
	}
	songs, err := decodeSongs(data)
	if err != nil {
		return nil, fmt.Errorf("master list %s: %w", m.path, err)
	}
	m.songs = songs
	return songs, nil
}

// StaticMasterList is an in-memory master list.
type StaticMasterList []models.Song

// Songs implements MasterList.
func (s StaticMasterList) Songs(context.Context) ([]models.Song, error) {
	return s, nil
}

// decodeSongs accepts a bare song array or an object with a "songs" array.
func decodeSongs(data []byte) ([]models.Song, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidList)
	}

	if data[0] == '[' {
		songs := []models.Song{}
		if err := json.Unmarshal(data, &songs); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidList, err)
		}
		return songs, nil
	}

	var wrapped struct {
		Songs []models.Song `json:"songs"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidList, err)
	}
	if wrapped.Songs == nil {
		return nil, fmt.Errorf("%w: expected an array or an object with songs", ErrInvalidList)
	}
	return wrapped.Songs, nil
}
