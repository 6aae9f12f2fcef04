// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

// Package orders turns a user's cart into an order snapshot.
//
// Checkout takes the cart lines and empties the cart in one atomic cart
// update, so a concurrent add either lands in the order or stays in the
// cart, never both and never lost. If the order cannot be stored the lines
// are merged back into the cart.
package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tomtom215/samay/internal/config"
	"github.com/tomtom215/samay/internal/events"
	"github.com/tomtom215/samay/internal/logging"
	"github.com/tomtom215/samay/internal/metrics"
	"github.com/tomtom215/samay/internal/models"
	"github.com/tomtom215/samay/internal/store"
)

var (
	// ErrCartEmpty is returned by Checkout when there is nothing to order.
	ErrCartEmpty = errors.New("cart is empty")

	// ErrOrderNotFound is returned for a missing order, and for an order
	// owned by someone else when the caller is not an admin.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidStatus is returned for an unknown order or payment status.
	ErrInvalidStatus = errors.New("invalid order status")

	// ErrMissingUser is returned when no user ID was resolved.
	ErrMissingUser = errors.New("userId is required")
)

// Store is the persistence the service needs.
type Store interface {
	store.Carts
	store.Orders
}

// CheckoutInput carries the customer-supplied part of an order.
type CheckoutInput struct {
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
}

// Service implements the order operations.
type Service struct {
	store  Store
	rules  config.OrdersConfig
	events events.Publisher
}

// NewService creates an order service. publisher may be nil.
func NewService(s Store, rules config.OrdersConfig, publisher events.Publisher) *Service {
	return &Service{store: s, rules: rules, events: events.OrNop(publisher)}
}

// Totals is the price breakdown of an order.
type Totals struct {
	Subtotal float64
	Tax      float64
	Shipping float64
	Total    float64
}

// Price computes tax and shipping for subtotal. Shipping is free strictly
// above the threshold.
func (s *Service) Price(subtotal float64) Totals {
	sub := decimal.NewFromFloat(subtotal)
	tax := sub.Mul(decimal.NewFromFloat(s.rules.TaxRate)).Round(2)

	shipping := decimal.NewFromFloat(s.rules.ShippingFee)
	if sub.GreaterThan(decimal.NewFromFloat(s.rules.FreeShippingThreshold)) {
		shipping = decimal.Zero
	}

	return Totals{
		Subtotal: sub.Round(2).InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Shipping: shipping.InexactFloat64(),
		Total:    sub.Add(tax).Add(shipping).Round(2).InexactFloat64(),
	}
}

// Checkout places an order for everything in the user's cart and empties it.
func (s *Service) Checkout(ctx context.Context, userID string, in CheckoutInput) (*models.Order, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}

	var lines []models.CartLine
	_, err := s.store.UpdateCart(ctx, userID, func(c *models.Cart) error {
		if len(c.Items) == 0 {
			return ErrCartEmpty
		}
		lines = c.Clone().Items
		c.Items = []models.CartLine{}
		c.TotalAmount = 0
		return nil
	})
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, ErrCartEmpty):
		return nil, ErrCartEmpty
	case err != nil:
		return nil, fmt.Errorf("take cart: %w", err)
	}

	t := s.Price(models.SumLines(lines))
	order := &models.Order{
		UserID:          userID,
		Items:           lines,
		Subtotal:        t.Subtotal,
		Tax:             t.Tax,
		Shipping:        t.Shipping,
		Total:           t.Total,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentPending,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		s.restore(ctx, userID, lines)
		return nil, fmt.Errorf("create order: %w", err)
	}

	metrics.RecordOrderPlaced(order.Total)
	logging.Ctx(ctx).Info().
		Str("order_id", order.ID).
		Int("lines", len(order.Items)).
		Float64("total", order.Total).
		Msg("Order placed")
	s.events.Publish(ctx, events.TopicOrderPlaced, userID, orderEvent{
		OrderID: order.ID,
		Status:  order.Status,
		Payment: order.PaymentStatus,
		Total:   order.Total,
	})
	return order, nil
}

// restore merges lines back into the user's cart after a failed checkout.
// Lines added to the cart in the meantime are kept. A merged quantity is
// held at MaxLineQuantity rather than dropping the line.
func (s *Service) restore(ctx context.Context, userID string, lines []models.CartLine) {
	_, err := s.store.UpsertCart(ctx, userID, func(c *models.Cart) error {
		for _, l := range lines {
			merged := false
			for i := range c.Items {
				if !c.Items[i].ProductID.Equal(l.ProductID) {
					continue
				}
				sum, ok := models.AddQuantity(c.Items[i].Quantity, l.Quantity, models.MaxLineQuantity)
				if !ok {
					logging.Ctx(ctx).Warn().
						Str("product_id", l.ProductID.String()).
						Int("quantity", c.Items[i].Quantity).
						Int("restored", l.Quantity).
						Msg("Restored quantity exceeds line limit, capping")
					sum = models.MaxLineQuantity
				}
				c.Items[i].Quantity = sum
				merged = true
				break
			}
			if !merged {
				c.Items = append(c.Items, l)
			}
		}
		c.TotalAmount = models.SumLines(c.Items)
		return nil
	})
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Int("lines", len(lines)).Msg("Failed to restore cart after checkout failure")
	}
}

// ListForUser returns the user's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*models.Order, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	orders, err := s.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	return orders, nil
}

// Get returns an order visible to the caller: its owner, or any admin.
func (s *Service) Get(ctx context.Context, orderID, userID string, isAdmin bool) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !isAdmin && order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListAll returns every order, newest first.
func (s *Service) ListAll(ctx context.Context) ([]*models.Order, error) {
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	return orders, nil
}

// UpdateStatus sets the order and/or payment status. Empty values leave the
// field unchanged; at least one must be set.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus, payment models.PaymentStatus) (*models.Order, error) {
	if status == "" && payment == "" {
		return nil, fmt.Errorf("%w: status or paymentStatus is required", ErrInvalidStatus)
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if payment != "" && !payment.Valid() {
		return nil, fmt.Errorf("%w: payment status %q", ErrInvalidStatus, payment)
	}

	order, err := s.store.UpdateOrder(ctx, orderID, func(o *models.Order) error {
		if status != "" {
			o.Status = status
		}
		if payment != "" {
			o.PaymentStatus = payment
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("update order: %w", err)
	}

	s.events.Publish(ctx, events.TopicOrderStatus, order.UserID, orderEvent{
		OrderID: order.ID,
		Status:  order.Status,
		Payment: order.PaymentStatus,
		Total:   order.Total,
	})
	return order, nil
}

type orderEvent struct {
	OrderID string               `json:"orderId"`
	Status  models.OrderStatus   `json:"status"`
	Payment models.PaymentStatus `json:"paymentStatus"`
	Total   float64              `json:"total"`
}
