// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

/*
Package models defines the records Samay stores and returns.

Key Components:

  - ProductID: canonical product identifier. NormalizeProductID trims
    whitespace and reduces numeric IDs to plain digits, so "7", " 7 ",
    "007" and "7.0" are the same product.
  - Cart and CartLine: one cart per user. TotalAmount always equals the
    sum of price times quantity over the lines (see SumLines).
  - Favorite: one (user, product) pair.
  - User, UserProfile and Role: accounts. ParseRole reads stored roles
    leniently; ValidateRole is the write-time check.
  - Order, OrderStatus, PaymentStatus and ShippingAddress: checkout
    results.

Field names follow the storefront's JSON API (camelCase). bson tags are
used by the MongoDB store.
*/
package models
