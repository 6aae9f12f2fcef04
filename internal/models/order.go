// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package models

import "time"

// OrderStatus tracks fulfilment.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// PaymentStatus tracks payment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// ShippingAddress is where an order ships to.
type ShippingAddress struct {
	FullName   string `json:"fullName" bson:"fullName" validate:"required,max=120"`
	Street     string `json:"street" bson:"street" validate:"required,max=200"`
	City       string `json:"city" bson:"city" validate:"required,max=100"`
	State      string `json:"state,omitempty" bson:"state,omitempty" validate:"max=100"`
	PostalCode string `json:"postalCode" bson:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" bson:"country" validate:"required,max=100"`
	Phone      string `json:"phone,omitempty" bson:"phone,omitempty" validate:"max=30"`
}

// Order is an immutable snapshot of a cart at checkout plus pricing.
type Order struct {
	ID              string          `json:"id" bson:"_id"`
	UserID          string          `json:"userId" bson:"userId"`
	Items           []CartLine      `json:"items" bson:"items"`
	Subtotal        float64         `json:"subtotal" bson:"subtotal"`
	Tax             float64         `json:"tax" bson:"tax"`
	Shipping        float64         `json:"shipping" bson:"shipping"`
	Total           float64         `json:"total" bson:"total"`
	ShippingAddress ShippingAddress `json:"shippingAddress" bson:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod" bson:"paymentMethod"`
	Status          OrderStatus     `json:"status" bson:"status"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus" bson:"paymentStatus"`
	CreatedAt       time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt" bson:"updatedAt"`
}
