// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

/*
Package api provides the HTTP surface of the storefront backend.

Routes are mounted under a base path (default /api/v1) on a chi router:

	/carts/*      cart aggregate, optional auth
	/favorites/*  favorites toggle engine, optional auth
	/auth/*       register, login, me
	/orders/*     checkout and order history, bearer token required
	/complaints   public complaint form; the inbox below it is admin only
	/admin/*      admin listings, authorized by the casbin policy
	/health       store connectivity

Every response, including errors, rate limit rejections, unknown routes
and recovered panics, is a JSON envelope:

	{"success": true, "message": "Item added to cart", "data": {...}, "meta": {...}}
	{"success": false, "message": "Cart not found", "error": {"code": "NOT_FOUND", ...}}

On optional-auth routes a verified bearer token decides the acting user.
Without one the handler falls back to the userId in the path, body or
query string, unless declared IDs are disabled in the security config.
A token user naming another userId gets 403 unless the token carries the
admin role.

Domain errors are mapped to statuses in errors.go; anything unmapped is a
generic 500 logged with the request ID.
*/
package api
