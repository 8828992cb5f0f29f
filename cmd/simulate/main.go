// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

// Command simulate resolves a quiz configuration file offline and prints the
// result as JSON.
//
//	simulate quiz.json --masterlist songs.json --seed demo
//	simulate quiz.json --masterlist songs.json --badger ./lists --strict
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/quizforge/internal/config"
	"github.com/tomtom215/quizforge/internal/logging"
	"github.com/tomtom215/quizforge/internal/models"
	"github.com/tomtom215/quizforge/internal/pool"
	"github.com/tomtom215/quizforge/internal/quiz/engine"
	"github.com/tomtom215/quizforge/internal/quiz/filters"
)

// errUnmet makes --strict runs exit non-zero without printing a second error.
var errUnmet = errors.New("quiz could not satisfy every basket")

type options struct {
	masterList string
	badgerPath string
	importURL  string
	seed       string
	maxSongs   int
	timeout    time.Duration
	strict     bool
	compact    bool
	logLevel   string
}

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		if !errors.Is(err, errUnmet) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "simulate <quiz-config.json>",
		Short:         "Resolve a quiz configuration into a song list",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd.Context(), out, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.masterList, "masterlist", "", "Master song list JSON file (default pool.master_list_path)")
	cmd.Flags().StringVar(&opts.badgerPath, "badger", "", "BadgerDB directory holding saved lists")
	cmd.Flags().StringVar(&opts.importURL, "import-url", "", "Base URL of the user list service (default pool.import_url)")
	cmd.Flags().StringVar(&opts.seed, "seed", "", "Override the configuration seed")
	cmd.Flags().IntVar(&opts.maxSongs, "max-songs", 0, "Largest song count a configuration may request (default engine.max_songs)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Overall run timeout")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit non-zero when a basket minimum is unmet")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "Print compact JSON")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")

	return cmd
}

func runSimulate(ctx context.Context, out io.Writer, path string, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logging.Init(logging.Config{Level: opts.logLevel, Format: "console", Output: os.Stderr})
	logger := logging.Logger()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	quiz, err := readQuiz(path)
	if err != nil {
		return err
	}
	if opts.seed != "" {
		quiz.Seed = opts.seed
	}

	var saved pool.SavedListStore
	if opts.badgerPath != "" {
		db, err := pool.OpenBadger(cfg.Storage)
		if err != nil {
			return fmt.Errorf("open saved lists: %w", err)
		}
		defer db.Close()
		saved = pool.NewBadgerListStore(db)
	}

	client := pool.NewHTTPListClient(&cfg.Pool, logger)
	builder := pool.NewBuilder(
		pool.NewFileMasterList(cfg.Pool.MasterListPath),
		pool.NewSavedListResolver(saved, client),
		client,
		pool.Options{
			FetchTimeout:  cfg.Pool.FetchTimeout,
			MaxConcurrent: cfg.Pool.MaxConcurrentFetches,
		},
		logger,
	)
	eng := engine.NewEngine(&cfg.Engine, filters.DefaultRegistry(), builder, logger)

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	result, err := eng.Simulate(ctx, quiz)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	if !opts.compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if opts.strict && !result.Metadata.Success {
		return errUnmet
	}
	return nil
}

// loadConfig layers the flags over the service configuration, so a CLI run fetches
// with the same timeouts and breaker settings as the server.
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.masterList != "" {
		cfg.Pool.MasterListPath = opts.masterList
	}
	if opts.importURL != "" {
		cfg.Pool.ImportURL = opts.importURL
	}
	if opts.badgerPath != "" {
		cfg.Storage.Path = opts.badgerPath
	}
	if opts.maxSongs > 0 {
		cfg.Engine.MaxSongs = opts.maxSongs
	}
	// One run per process.
	cfg.Engine.CacheEnabled = false
	return cfg, nil
}

func readQuiz(path string) (*models.QuizConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quiz configuration: %w", err)
	}
	var quiz models.QuizConfiguration
	if err := json.Unmarshal(data, &quiz); err != nil {
		return nil, fmt.Errorf("parse quiz configuration: %w", err)
	}
	return &quiz, nil
}
