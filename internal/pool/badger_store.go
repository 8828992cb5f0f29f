// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package pool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/quizforge/internal/config"
	"github.com/tomtom215/quizforge/internal/models"
)

// Key prefix for saved lists in BadgerDB
const savedListKeyPrefix = "savedlist:"

// SavedListRecord is a stored song list.
type SavedListRecord struct {
	ID        string        `json:"id"`
	Name      string        `json:"name,omitempty"`
	Songs     []models.Song `json:"songs"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// OpenBadger opens the saved-list database described by cfg.
func OpenBadger(cfg config.StorageConfig) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return db, nil
}

// BadgerListStore keeps saved lists in BadgerDB. It implements SavedListStore.
type BadgerListStore struct {
	db *badger.DB
}

// NewBadgerListStore creates a BadgerDB-backed saved list store.
func NewBadgerListStore(db *badger.DB) *BadgerListStore {
	return &BadgerListStore{db: db}
}

// Put stores rec, replacing any list with the same id.
func (s *BadgerListStore) Put(_ context.Context, rec *SavedListRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidList)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal saved list: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(savedListKeyPrefix+rec.ID), data)
	})
}

// Get loads a saved list by id.
func (s *BadgerListStore) Get(_ context.Context, id string) (*SavedListRecord, error) {
	var rec SavedListRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(savedListKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrListNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("get saved list: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes a saved list. Deleting a missing list is not an error.
func (s *BadgerListStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(savedListKeyPrefix + id))
	})
}

// IDs lists the stored list ids in key order.
func (s *BadgerListStore) IDs(_ context.Context) ([]string, error) {
	ids := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(savedListKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, strings.TrimPrefix(string(it.Item().Key()), savedListKeyPrefix))
		}
		return nil
	})
	return ids, err
}

// SavedList implements SavedListStore.
func (s *BadgerListStore) SavedList(ctx context.Context, ref models.SavedListRef) ([]models.Song, error) {
	rec, err := s.Get(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	return rec.Songs, nil
}

// Ping reports whether the database accepts reads.
func (s *BadgerListStore) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database is closed")
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}
