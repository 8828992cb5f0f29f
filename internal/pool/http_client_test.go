// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package pool

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/quizforge/internal/config"
	"github.com/tomtom215/quizforge/internal/logging"
	"github.com/tomtom215/quizforge/internal/models"
)

func testPoolConfig(baseURL string) *config.PoolConfig {
	return &config.PoolConfig{
		ImportURL:     baseURL,
		FetchTimeout:  2 * time.Second,
		ListCacheSize: 8,
		ListCacheTTL:  time.Minute,
		Breaker: config.BreakerConfig{
			MaxRequests:  1,
			Interval:     time.Minute,
			Timeout:      time.Minute,
			MinRequests:  2,
			FailureRatio: 0.5,
		},
	}
}

func TestImportUserList(t *testing.T) {
	t.Parallel()

	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"songs":[{"annSongId":1,"sourceAnime":{"score":9}},{"annSongId":2}]}`))
	}))
	defer server.Close()

	c := NewHTTPListClient(testPoolConfig(server.URL+"/"), logging.NewTestLogger(io.Discard))
	songs, err := c.ImportUserList(context.Background(), models.UserListImport{
		Platform: "AniList",
		Username: "some user",
		Statuses: []string{"completed", "watching"},
	})
	if err != nil {
		t.Fatalf("ImportUserList: %v", err)
	}
	if len(songs) != 2 || songs[0].SourceAnime.Score == nil || *songs[0].SourceAnime.Score != 9 {
		t.Errorf("songs = %+v", songs)
	}
	if gotPath != "/lists/anilist/some user" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "status=completed&status=watching" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestImportUserListNotConfigured(t *testing.T) {
	t.Parallel()
	c := NewHTTPListClient(testPoolConfig(""), logging.NewTestLogger(io.Discard))
	_, err := c.ImportUserList(context.Background(), models.UserListImport{Platform: "anilist", Username: "x"})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestFetchURLStatusHandling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		want    int
		wantErr error
	}{
		{"bare array", http.StatusOK, `[{"annSongId":1}]`, 1, nil},
		{"not found", http.StatusNotFound, ``, 0, ErrListNotFound},
		{"bad payload", http.StatusOK, `{"nope":true}`, 0, ErrInvalidList},
		{"server error", http.StatusInternalServerError, ``, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewHTTPListClient(testPoolConfig(""), logging.NewTestLogger(io.Discard))
			songs, err := c.FetchURL(context.Background(), server.URL+"/list.json")

			switch {
			case tt.status == http.StatusInternalServerError:
				if err == nil {
					t.Fatal("expected error for 500")
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(songs) != tt.want {
					t.Errorf("got %d songs, want %d", len(songs), tt.want)
				}
			}
		})
	}
}

func TestFetchURLRejectsRelativeURL(t *testing.T) {
	t.Parallel()
	c := NewHTTPListClient(testPoolConfig(""), logging.NewTestLogger(io.Discard))
	for _, u := range []string{"/lists/a.json", "ftp://host/a.json", "::"} {
		if _, err := c.FetchURL(context.Background(), u); !errors.Is(err, ErrInvalidList) {
			t.Errorf("FetchURL(%q) err = %v, want ErrInvalidList", u, err)
		}
	}
}

func TestFetchURLCachesSuccess(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`[{"annSongId":1}]`))
	}))
	defer server.Close()

	c := NewHTTPListClient(testPoolConfig(""), logging.NewTestLogger(io.Discard))
	for i := 0; i < 3; i++ {
		if _, err := c.FetchURL(context.Background(), server.URL+"/a.json"); err != nil {
			t.Fatal(err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server called %d times, want 1", got)
	}
}

func TestCircuitBreakerOpensOnFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewHTTPListClient(testPoolConfig(""), logging.NewTestLogger(io.Discard))
	for i := 0; i < 2; i++ {
		if _, err := c.FetchURL(context.Background(), server.URL+"/a.json"); err == nil {
			t.Fatal("expected failure")
		}
	}

	_, err := c.FetchURL(context.Background(), server.URL+"/a.json")
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("err = %v, want ErrSourceUnavailable from open breaker", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server called %d times, want 2", got)
	}
}

func TestCircuitBreakerIgnoresNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewHTTPListClient(testPoolConfig(""), logging.NewTestLogger(io.Discard))
	for i := 0; i < 5; i++ {
		if _, err := c.FetchURL(context.Background(), server.URL+"/missing.json"); !errors.Is(err, ErrListNotFound) {
			t.Fatalf("call %d err = %v, want ErrListNotFound", i, err)
		}
	}
}
