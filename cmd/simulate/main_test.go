// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/quizforge/internal/models"
)

func writeFixtures(t *testing.T, quiz string) (quizPath, masterPath string) {
	t.Helper()
	dir := t.TempDir()

	var songs strings.Builder
	songs.WriteString("[")
	for i := 1; i <= 12; i++ {
		if i > 1 {
			songs.WriteString(",")
		}
		fmt.Fprintf(&songs, `{"annSongId": %d, "songName": "song %d", "songType": "Opening 1", "songDifficulty": 40}`, i, i)
	}
	songs.WriteString("]")

	masterPath = filepath.Join(dir, "masterlist.json")
	quizPath = filepath.Join(dir, "quiz.json")
	if err := os.WriteFile(masterPath, []byte(songs.String()), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(quizPath, []byte(quiz), 0o600); err != nil {
		t.Fatal(err)
	}
	return quizPath, masterPath
}

func execute(t *testing.T, args ...string) (*models.SimulationResult, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetArgs(append(args, "--log-level", "disabled"))
	err := cmd.Execute()
	if out.Len() == 0 {
		return nil, err
	}
	var res models.SimulationResult
	if uerr := json.Unmarshal(out.Bytes(), &res); uerr != nil {
		t.Fatalf("decode output: %v\n%s", uerr, out.String())
	}
	return &res, err
}

func TestSimulateCommand(t *testing.T) {
	quizPath, master := writeFixtures(t, `{"seed": "cli", "numberOfSongs": 5, "songLists": [{"nodeId": "m", "mode": "masterlist"}]}`)

	res, err := execute(t, quizPath, "--masterlist", master)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(res.Songs) != 5 || !res.Metadata.Success {
		t.Errorf("songs = %d success = %v, want 5 true", len(res.Songs), res.Metadata.Success)
	}

	// --seed overrides the file seed; the same seed reproduces the run.
	again, _ := execute(t, quizPath, "--masterlist", master, "--seed", "cli", "--compact")
	for i := range res.Songs {
		if res.Songs[i].AnnSongID != again.Songs[i].AnnSongID {
			t.Fatalf("same seed gave different songs at %d", i)
		}
	}
}

func TestSimulateCommandStrict(t *testing.T) {
	// Twelve songs cannot fill a forty song quiz.
	quizPath, master := writeFixtures(t, `{"seed": "short", "numberOfSongs": 40, "songLists": [{"nodeId": "m", "mode": "masterlist"}]}`)

	res, err := execute(t, quizPath, "--masterlist", master)
	if err != nil {
		t.Fatalf("non-strict run error = %v", err)
	}
	if res.Metadata.Success || res.Metadata.FinalCount != 12 {
		t.Errorf("success = %v final = %d, want false 12", res.Metadata.Success, res.Metadata.FinalCount)
	}

	if _, err := execute(t, quizPath, "--masterlist", master, "--strict"); !errors.Is(err, errUnmet) {
		t.Errorf("strict run error = %v, want errUnmet", err)
	}
}

func TestSimulateCommandErrors(t *testing.T) {
	quizPath, master := writeFixtures(t, `{"numberOfSongs": 0}`)

	tests := []struct {
		name string
		args []string
	}{
		{"missing argument", nil},
		{"missing quiz file", []string{filepath.Join(t.TempDir(), "nope.json"), "--masterlist", master}},
		{"invalid configuration", []string{quizPath, "--masterlist", master}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("Execute() error = nil, want error")
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("BREAKER_FAILURE_RATIO", "0.25")
	t.Setenv("ENGINE_MAX_SONGS", "80")

	tests := []struct {
		name         string
		opts         options
		wantMaster   string
		wantImport   string
		wantMaxSongs int
	}{
		{"configuration values", options{}, "/data/masterlist.json", "", 80},
		{
			"flags override",
			options{masterList: "songs.json", importURL: "http://lists.local", maxSongs: 30},
			"songs.json", "http://lists.local", 30,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig(tt.opts)
			if err != nil {
				t.Fatalf("loadConfig() error = %v", err)
			}
			if cfg.Pool.MasterListPath != tt.wantMaster || cfg.Pool.ImportURL != tt.wantImport {
				t.Errorf("master/import = %q/%q, want %q/%q", cfg.Pool.MasterListPath, cfg.Pool.ImportURL, tt.wantMaster, tt.wantImport)
			}
			if cfg.Engine.MaxSongs != tt.wantMaxSongs {
				t.Errorf("MaxSongs = %d, want %d", cfg.Engine.MaxSongs, tt.wantMaxSongs)
			}
			if cfg.Engine.CacheEnabled {
				t.Error("result cache should be off for a single run")
			}

			br := cfg.Pool.Breaker
			if br.FailureRatio != 0.25 || br.MaxRequests != 3 || br.MinRequests != 5 || br.Timeout != 30*time.Second {
				t.Errorf("breaker = %+v, want configured defaults with failure ratio 0.25", br)
			}
			if cfg.Pool.FetchTimeout != 5*time.Second || cfg.Pool.MaxConcurrentFetches != 4 {
				t.Errorf("fetch timeout/concurrency = %v/%d", cfg.Pool.FetchTimeout, cfg.Pool.MaxConcurrentFetches)
			}
		})
	}
}
