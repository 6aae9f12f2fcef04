// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

/*
Package main is the entry point for the Samay server.

Samay is the storefront backend for a watch shop: per-user shopping carts,
a favorites list, account registration and login, checkout into orders, a
complaint form, and an admin surface over all of them.

# Application Architecture

Long-running components run under a Suture v4 supervisor tree:

	RootSupervisor ("samay")
	├── DataSupervisor ("data-layer")
	│   └── store-gc (Badger value log GC, badger backend only)
	├── MessagingSupervisor ("messaging-layer")
	│   └── event-log consumer (events.log_consumer)
	└── APISupervisor ("api-layer")
	    └── http-server

Initialization order:

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog, JSON or console
 3. Store: Badger, PostgreSQL or MongoDB behind a gobreaker circuit breaker
 4. Events: Watermill over an in-process channel or NATS JetStream
 5. Services: carts, favorites, accounts, orders, complaints
 6. Authentication and authorization: JWT resolver, Casbin enforcer
 7. HTTP: Chi router with CORS, rate limiting and Prometheus metrics
 8. Supervisor tree, then wait for SIGINT or SIGTERM

# Configuration

Common environment variables:

	PORT                      listen port (default 5000)
	API_BASE_PATH             route prefix (default /api/v1)
	JWT_SECRET                HS256 signing secret (required)
	ALLOW_DECLARED_USER_ID    accept a userId without a token on cart and favorites routes
	STORE_BACKEND             badger, postgres or mongo
	BADGER_PATH               Badger data directory
	DATABASE_URL              lib/pq connection string
	MONGODB_URI               MongoDB connection URI
	CART_MAX_LINE_QUANTITY    largest quantity one cart line may hold (default 999)
	FAVORITES_RACE_POLICY     coalesce or remove
	EVENTS_TRANSPORT          memory or nats
	LOG_LEVEL, LOG_FORMAT     logging

Any key can also be set as SAMAY_<SECTION>__<KEY>, for example
SAMAY_EVENTS__ENABLED=false.

See internal/config for the full list.
*/
package main
