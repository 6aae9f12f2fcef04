// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

/*
Package middleware provides the HTTP middleware shared by every API route.

  - RequestID: accepts or generates X-Request-ID and puts it in the logging
    context so every log line of the request carries request_id
  - AccessLog: one structured zerolog line per request, at warn level when
    the request was slow or failed with a 5xx
  - Prometheus: request counts, latency and in-flight gauge labelled by the
    chi route pattern rather than the raw path, which keeps label
    cardinality bounded for routes like /carts/user/{userId}

Order matters: RequestID runs first so AccessLog and handlers see the ID.

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(500 * time.Millisecond))
	r.Use(middleware.Prometheus)
*/
package middleware
