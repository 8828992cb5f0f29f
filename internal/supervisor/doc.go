// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

/*
Package supervisor runs the quiz server's long-lived services under a suture v4
supervisor tree.

	quizforge
	├── storage-layer
	│   ├── BadgerGCService (unless the store is in-memory)
	│   └── UptimeService
	└── api-layer
	    └── HTTPServerService

Crashed services restart with suture's backoff. Supervisor events are logged
through sutureslog, which writes to an slog.Logger backed by zerolog.

Usage in main.go:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddStorageService(services.NewBadgerGCService(db, cfg.Storage.GCInterval, cfg.Storage.GCDiscardRatio, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return tree.Serve(ctx)
*/
package supervisor
