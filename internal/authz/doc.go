// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

/*
Package authz authorizes admin routes and the complaint inbox with Casbin
RBAC.

The subject is the role carried by the caller's token (user or admin), the
object is the request path below the API base path and the action is read,
write or delete, derived from the HTTP method. The model and default policy
are embedded; a policy file can replace the embedded one:

	p, admin, /admin/*, *
	p, admin, /complaints/*, read
	g, admin, user

Decisions are cached per (role, path, action) for CacheTTL.
*/
package authz
