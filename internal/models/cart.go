// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one product entry in a cart. Name, Price and Image are
// snapshots taken when the line was first added.
type CartLine struct {
	ProductID ProductID `json:"productId" bson:"productId"`
	Name      string    `json:"name" bson:"name"`
	Price     float64   `json:"price" bson:"price"`
	Image     string    `json:"image,omitempty" bson:"image,omitempty"`
	Quantity  int       `json:"quantity" bson:"quantity"`
}

// Cart is the per-user cart aggregate. There is at most one line per
// ProductID and every stored line has Quantity >= 1.
type Cart struct {
	ID          string     `json:"id" bson:"_id"`
	UserID      string     `json:"userId" bson:"userId"`
	Items       []CartLine `json:"items" bson:"items"`
	TotalAmount float64    `json:"totalAmount" bson:"totalAmount"`
	Version     int64      `json:"version" bson:"version"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// SumLines returns Σ price×quantity rounded to cents.
func SumLines(lines []CartLine) float64 {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total.Round(2).InexactFloat64()
}

// MaxLineQuantity is the hard ceiling on a single line's quantity. The
// configured per-line limit may be lower but never higher.
const MaxLineQuantity = 100000

// AddQuantity returns have+add. ok is false when the sum exceeds limit or
// would overflow int.
func AddQuantity(have, add, limit int) (sum int, ok bool) {
	if add > 0 && have > math.MaxInt-add {
		return 0, false
	}
	sum = have + add
	if sum > limit {
		return 0, false
	}
	return sum, true
}

// Clone returns a deep copy of c.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = make([]CartLine, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}
