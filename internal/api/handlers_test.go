// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/quizforge/internal/config"
	"github.com/tomtom215/quizforge/internal/logging"
	"github.com/tomtom215/quizforge/internal/models"
	"github.com/tomtom215/quizforge/internal/pool"
	"github.com/tomtom215/quizforge/internal/quiz/engine"
	"github.com/tomtom215/quizforge/internal/quiz/filters"
)

// envelope mirrors models.APIResponse with a raw data field.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

type testServer struct {
	handler http.Handler
	store   *pool.BadgerListStore
}

func masterSongs() pool.StaticMasterList {
	songs := make(pool.StaticMasterList, 0, 40)
	for i := 1; i <= 40; i++ {
		typ := "Opening 1"
		if i%2 == 0 {
			typ = "Ending 1"
		}
		songs = append(songs, models.Song{AnnSongID: i, SongName: "s", SongType: typ})
	}
	return songs
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := pool.OpenBadger(config.StorageConfig{InMemory: true})
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store := pool.NewBadgerListStore(db)

	logger := logging.NewTestLogger(io.Discard)
	builder := pool.NewBuilder(masterSongs(), pool.NewSavedListResolver(store, nil), nil, pool.Options{FetchTimeout: time.Second}, logger)

	cfg := &config.Config{
		Server: config.ServerConfig{SimulateTimeout: 5 * time.Second},
		Engine: config.EngineConfig{MaxSongs: 100},
	}
	eng := engine.NewEngine(&cfg.Engine, filters.DefaultRegistry(), builder, logger)

	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.RateLimitDisabled = true
	router := NewRouter(NewHandler(eng, store, cfg, "test"), NewChiMiddleware(mwCfg))
	return &testServer{handler: router.SetupChi(), store: store}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestSimulateEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/quiz/simulate", `{
		"seed": "api",
		"numberOfSongs": 10,
		"songLists": [{"nodeId": "master", "mode": "masterlist"}],
		"filters": [{"definitionId": "songs-and-types", "instanceId": "t", "settings": {"openings": 50, "endings": 50}}]
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if env.Status != "success" || env.Metadata.RequestID == "" {
		t.Errorf("envelope = %+v", env)
	}
	if rec.Header().Get("X-Request-ID") != env.Metadata.RequestID {
		t.Error("response header and metadata request ids differ")
	}

	var result models.SimulationResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Songs) != 10 || !result.Metadata.Success || result.Metadata.Seed != "api" {
		t.Errorf("result metadata = %+v", result.Metadata)
	}
	if len(result.Metadata.BasketStatus) != 2 {
		t.Errorf("baskets = %+v", result.Metadata.BasketStatus)
	}
}

func TestSimulateEndpointPartialIsOK(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/quiz/simulate", `{
		"seed": "short",
		"numberOfSongs": 60,
		"songLists": [{"mode": "masterlist"}]
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var result models.SimulationResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatal(err)
	}
	if result.Metadata.Success || result.Metadata.FinalCount != 40 {
		t.Errorf("metadata = %+v, want 40 songs and success false", result.Metadata)
	}
}

func TestSimulateEndpointErrors(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"empty body", "", http.StatusBadRequest, CodeInvalidRequest},
		{"malformed json", `{"seed":`, http.StatusBadRequest, CodeInvalidRequest},
		{"missing song count", `{"songLists": [{"mode": "masterlist"}]}`, http.StatusBadRequest, CodeInvalidConfiguration},
		{"unknown filter", `{"numberOfSongs": 3, "songLists": [{"mode": "masterlist"}], "filters": [{"definitionId": "nope"}]}`, http.StatusBadRequest, CodeInvalidConfiguration},
		{"invalid list mode", `{"numberOfSongs": 3, "songLists": [{"mode": "floppy"}]}`, http.StatusBadRequest, CodeInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, env := s.do(t, http.MethodPost, "/api/v1/quiz/simulate", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("error = %+v, want code %s", env.Error, tt.code)
			}
		})
	}
}

func TestSimulateEndpointValidationDetails(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	_, env := s.do(t, http.MethodPost, "/api/v1/quiz/simulate", `{"numberOfSongs": 3, "songLists": [{"mode": "floppy"}]}`)
	if env.Error == nil || env.Error.Details["fields"] == nil {
		t.Errorf("error details = %+v, want field list", env.Error)
	}
}

type failingSimulator struct{ err error }

func (f failingSimulator) Simulate(context.Context, *models.QuizConfiguration) (*models.SimulationResult, error) {
	return nil, f.err
}

func TestSimulateEndpointServerErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{context.DeadlineExceeded, http.StatusGatewayTimeout, CodeTimeout},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		router := NewRouter(NewHandler(failingSimulator{err: tt.err}, nil, nil, "test"), nil)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quiz/simulate", strings.NewReader(`{}`))
		router.SetupChi().ServeHTTP(rec, req)

		if rec.Code != tt.status || !strings.Contains(rec.Body.String(), tt.code) {
			t.Errorf("%v: status = %d body = %s", tt.err, rec.Code, rec.Body.String())
		}
	}
}

func TestSavedListLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPut, "/api/v1/lists/favs", `{"name": "Favs", "songs": [{"annSongId": 1001, "songType": "Insert Song"}, {"annSongId": 1002, "songType": "Insert Song"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec, env := s.do(t, http.MethodGet, "/api/v1/lists/favs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	var got pool.SavedListRecord
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "Favs" || len(got.Songs) != 2 {
		t.Errorf("GET = %+v", got)
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/lists", "")
	if !strings.Contains(string(env.Data), "favs") {
		t.Errorf("list ids = %s", env.Data)
	}

	// The saved list feeds a simulation through the saved-lists source.
	rec, env = s.do(t, http.MethodPost, "/api/v1/quiz/simulate", `{
		"seed": "saved",
		"numberOfSongs": 2,
		"songLists": [{"nodeId": "mine", "mode": "saved-lists", "savedList": {"id": "favs"}}]
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("simulate status = %d", rec.Code)
	}
	var result models.SimulationResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatal(err)
	}
	for _, song := range result.Songs {
		if song.AnnSongID < 1001 || song.SourceID != "mine" {
			t.Errorf("song %+v did not come from the saved list", song)
		}
	}

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/lists/favs", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d", rec.Code)
	}
	rec, env = s.do(t, http.MethodGet, "/api/v1/lists/favs", "")
	if rec.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != CodeListNotFound {
		t.Errorf("GET after delete = %d %+v", rec.Code, env.Error)
	}
	rec, _ = s.do(t, http.MethodDelete, "/api/v1/lists/favs", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want 404", rec.Code)
	}
}

func TestPutSavedListValidation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPut, "/api/v1/lists/x", `{"name": "no songs"}`)
	if rec.Code != http.StatusBadRequest || env.Error == nil || env.Error.Code != CodeInvalidRequest {
		t.Errorf("status = %d error = %+v", rec.Code, env.Error)
	}
}

func TestSavedListsDisabled(t *testing.T) {
	t.Parallel()

	router := NewRouter(NewHandler(failingSimulator{}, nil, nil, "test"), nil)
	rec := httptest.NewRecorder()
	router.SetupChi().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/lists/a", http.NoBody))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/v1/health/live", "")
	if rec.Code != http.StatusOK || env.Status != "success" {
		t.Errorf("live = %d %+v", rec.Code, env)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}

	rec, _ = s.do(t, http.MethodGet, "/api/v1/health/ready", "")
	if rec.Code != http.StatusOK {
		t.Errorf("ready = %d body = %s", rec.Code, rec.Body.String())
	}

	notReady := NewRouter(NewHandler(failingSimulator{}, nil, nil, "test"), nil).SetupChi()
	rec = httptest.NewRecorder()
	notReady.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", http.NoBody))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready without store = %d, want 503", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	s.do(t, http.MethodGet, "/api/v1/health/live", "")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Errorf("metrics status = %d", rec.Code)
	}
}
