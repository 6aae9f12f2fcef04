// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

/*
Package services adapts storefront components to suture's Serve pattern.

	type Service interface {
	    Serve(ctx context.Context) error
	}

HTTPServerService turns ListenAndServe and Shutdown into a Serve that drains
connections when its context is canceled. StoreGCService runs Badger value
log garbage collection on a ticker. Both implement fmt.Stringer so suture
logs them by name.
*/
package services
