// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

/*
Package auth resolves who a request acts for.

Key Components:

  - JWTManager: HS256 token issue and validation
  - Resolver: HTTP middleware attaching the token identity to the context
  - Password hashing with bcrypt

Identity Resolution:

A request carries its identity as a bearer token in the Authorization header,
or in the "token" cookie when the header is absent. Token claims name the user
as "userId", falling back to the legacy "id" claim and then "sub".

Required routes reject requests without a valid token with 401. Optional
routes let requests through without a token and the handler falls back to the
userId the client declared in the body, query or path, provided
security.allow_declared_user_id is set. When both are present they must agree
unless the token belongs to an admin:

	r.With(resolver.Optional).Post("/cart/add", func(w http.ResponseWriter, r *http.Request) {
	    userID, err := resolver.ResolveUserID(r.Context(), req.UserID)
	    if errors.Is(err, auth.ErrForbidden) {
	        // 403
	    }
	})

Security Considerations:

  - Only HMAC signing methods are accepted; "none" and RSA/ECDSA tokens fail
  - A verified token with no user claim is rejected
  - Declared user IDs are unauthenticated and intended for trusted clients and
    migrations; production deployments should leave them disabled
*/
package auth
