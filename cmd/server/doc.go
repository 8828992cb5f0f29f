// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

/*
Package main is the entry point for the quizforge HTTP server.

The server resolves quiz configurations into concrete song lists over a JSON
API and stores reusable song lists in BadgerDB.

# Application Architecture

	quizforge
	├── storage-layer
	│   ├── badger-gc (value log GC, skipped for in-memory stores)
	│   └── uptime-reporter
	└── api-layer
	    └── quiz-api (Chi router)

Component initialization order:

 1. Configuration: Koanf v2 (env > config.yaml > defaults)
 2. Logging: zerolog, JSON or console
 3. Storage: BadgerDB saved-list store
 4. Sources: master list file, list import client with rate limit, cache and circuit breaker
 5. Engine: filter registry, pool builder and result cache
 6. Supervisor Tree: suture v4
 7. HTTP Server: Chi router with middleware stack

# Configuration

Core environment variables:

	HTTP_PORT=8080
	LOG_LEVEL=info                # trace, debug, info, warn, error
	LOG_FORMAT=json               # json or console
	MASTERLIST_PATH=/data/masterlist.json
	LIST_IMPORT_URL=              # base URL of the user list service, empty disables imports
	BADGER_PATH=/data/lists
	BADGER_IN_MEMORY=false
	ENGINE_MAX_SONGS=200

A YAML file is read from CONFIG_PATH, ./config.yaml or /etc/quizforge/config.yaml.

# Signal Handling

SIGINT and SIGTERM cancel the supervisor context. The HTTP server drains
in-flight requests for HTTP_SHUTDOWN_TIMEOUT, then BadgerDB is closed.

# Endpoints

	GET    /api/v1/health/live
	GET    /api/v1/health/ready
	POST   /api/v1/quiz/simulate
	GET    /api/v1/lists
	GET    /api/v1/lists/{id}
	PUT    /api/v1/lists/{id}
	DELETE /api/v1/lists/{id}
	GET    /metrics
*/
package main
