// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package models

import "time"

// Favorite records that UserID has marked ProductID. The (UserID, ProductID)
// pair is unique across all favorites; favorites are existence-only and are
// never updated.
type Favorite struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"userId" bson:"userId"`
	ProductID ProductID `json:"productId" bson:"productId"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
