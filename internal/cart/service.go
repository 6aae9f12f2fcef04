// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

// Package cart manages the per-user cart aggregate: one cart per user, at
// most one line per normalized product ID, quantities of at least one and
// a total that always equals the sum of price times quantity.
//
// Every mutation runs as a single atomic read-modify-write in the store, so
// concurrent adds of the same product add up instead of overwriting each
// other.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/samay/internal/config"
	"github.com/tomtom215/samay/internal/events"
	"github.com/tomtom215/samay/internal/logging"
	"github.com/tomtom215/samay/internal/metrics"
	"github.com/tomtom215/samay/internal/models"
	"github.com/tomtom215/samay/internal/store"
)

var (
	// ErrCartNotFound is returned when an operation requires an existing cart.
	ErrCartNotFound = errors.New("cart not found")

	// ErrLineNotFound is returned when the product is not in the cart.
	ErrLineNotFound = errors.New("item not found in cart")

	// ErrInvalidQuantity is returned for an add with quantity below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrQuantityTooLarge is returned when a line would exceed the
	// configured per-line maximum.
	ErrQuantityTooLarge = errors.New("quantity exceeds the per-line maximum")

	// ErrInvalidPrice is returned for a negative price.
	ErrInvalidPrice = errors.New("price must not be negative")

	// ErrMissingUser is returned when no user ID was resolved.
	ErrMissingUser = errors.New("userId is required")
)

// AddLineInput is the snapshot of a product taken when it is added.
type AddLineInput struct {
	ProductID models.ProductID
	Name      string
	Price     float64
	Image     string
	// Quantity defaults to 1 when zero.
	Quantity int
}

// AddResult reports whether an existing line was incremented.
type AddResult struct {
	Cart   *models.Cart
	Merged bool
}

// Service implements the cart operations.
type Service struct {
	carts   store.Carts
	maxLine int
	events  events.Publisher
}

// NewService creates a cart service. publisher may be nil. A non-positive
// or oversized MaxLineQuantity falls back to models.MaxLineQuantity.
func NewService(carts store.Carts, cfg config.CartConfig, publisher events.Publisher) *Service {
	maxLine := cfg.MaxLineQuantity
	if maxLine < 1 || maxLine > models.MaxLineQuantity {
		maxLine = models.MaxLineQuantity
	}
	return &Service{carts: carts, maxLine: maxLine, events: events.OrNop(publisher)}
}

// indexOf finds the line for id, comparing normalized identifiers.
func indexOf(lines []models.CartLine, id models.ProductID) int {
	for i := range lines {
		if lines[i].ProductID.Equal(id) {
			return i
		}
	}
	return -1
}

func normalize(id models.ProductID) (models.ProductID, error) {
	return models.NormalizeProductID(string(id))
}

// Get returns the user's cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, userID string) (*models.Cart, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	c, err := s.carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return c, nil
}

// AddLine adds quantity of a product, merging into an existing line.
func (s *Service) AddLine(ctx context.Context, userID string, in AddLineInput) (*AddResult, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	id, err := normalize(in.ProductID)
	if err != nil {
		return nil, err
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}
	if qty > s.maxLine {
		return nil, ErrQuantityTooLarge
	}
	if in.Price < 0 {
		return nil, ErrInvalidPrice
	}

	var merged bool
	c, err := s.carts.UpsertCart(ctx, userID, func(c *models.Cart) error {
		merged = false
		if i := indexOf(c.Items, id); i >= 0 {
			sum, ok := models.AddQuantity(c.Items[i].Quantity, qty, s.maxLine)
			if !ok {
				return ErrQuantityTooLarge
			}
			c.Items[i].Quantity = sum
			merged = true
		} else {
			c.Items = append(c.Items, models.CartLine{
				ProductID: id,
				Name:      in.Name,
				Price:     in.Price,
				Image:     in.Image,
				Quantity:  qty,
			})
		}
		c.TotalAmount = models.SumLines(c.Items)
		return nil
	})
	metrics.RecordCartMutation("add", err)
	if errors.Is(err, ErrQuantityTooLarge) {
		return nil, ErrQuantityTooLarge
	}
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}

	logging.Ctx(ctx).Debug().Str("product_id", id.String()).Int("quantity", qty).Bool("merged", merged).Msg("Cart line added")
	s.publish(ctx, "add", c)
	return &AddResult{Cart: c, Merged: merged}, nil
}

// UpdateQuantity sets a line's quantity. Zero or less removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, userID string, productID models.ProductID, quantity int) (*models.Cart, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	id, err := normalize(productID)
	if err != nil {
		return nil, err
	}
	if quantity > s.maxLine {
		return nil, ErrQuantityTooLarge
	}

	c, err := s.carts.UpdateCart(ctx, userID, func(c *models.Cart) error {
		i := indexOf(c.Items, id)
		if i < 0 {
			return ErrLineNotFound
		}
		if quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity = quantity
		}
		c.TotalAmount = models.SumLines(c.Items)
		return nil
	})
	metrics.RecordCartMutation("update", err)
	if err != nil {
		return nil, s.mapErr("update cart", err)
	}

	s.publish(ctx, "update", c)
	return c, nil
}

// RemoveLine drops the product from the cart. Removing an absent line is
// not an error; a missing cart is.
func (s *Service) RemoveLine(ctx context.Context, userID string, productID models.ProductID) (*models.Cart, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	id, err := normalize(productID)
	if err != nil {
		return nil, err
	}

	c, err := s.carts.UpdateCart(ctx, userID, func(c *models.Cart) error {
		kept := c.Items[:0]
		for _, l := range c.Items {
			if !l.ProductID.Equal(id) {
				kept = append(kept, l)
			}
		}
		c.Items = kept
		c.TotalAmount = models.SumLines(c.Items)
		return nil
	})
	metrics.RecordCartMutation("remove", err)
	if err != nil {
		return nil, s.mapErr("remove from cart", err)
	}

	s.publish(ctx, "remove", c)
	return c, nil
}

// Clear empties the cart but keeps it.
func (s *Service) Clear(ctx context.Context, userID string) (*models.Cart, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	c, err := s.carts.UpdateCart(ctx, userID, func(c *models.Cart) error {
		c.Items = []models.CartLine{}
		c.TotalAmount = 0
		return nil
	})
	metrics.RecordCartMutation("clear", err)
	if err != nil {
		return nil, s.mapErr("clear cart", err)
	}

	s.publish(ctx, "clear", c)
	return c, nil
}

// Delete removes the cart entirely.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrMissingUser
	}
	err := s.carts.DeleteCart(ctx, userID)
	metrics.RecordCartMutation("delete", err)
	if err != nil {
		return s.mapErr("delete cart", err)
	}

	s.events.Publish(ctx, events.TopicCartDeleted, userID, map[string]string{"userId": userID})
	return nil
}

// ListAll returns every cart.
func (s *Service) ListAll(ctx context.Context) ([]*models.Cart, error) {
	carts, err := s.carts.ListCarts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list carts: %w", err)
	}
	if carts == nil {
		carts = []*models.Cart{}
	}
	return carts, nil
}

func (s *Service) mapErr(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrCartNotFound
	}
	if errors.Is(err, ErrLineNotFound) {
		return ErrLineNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

type cartUpdated struct {
	Operation   string  `json:"operation"`
	CartID      string  `json:"cartId"`
	Lines       int     `json:"lines"`
	TotalAmount float64 `json:"totalAmount"`
	Version     int64   `json:"version"`
}

func (s *Service) publish(ctx context.Context, op string, c *models.Cart) {
	s.events.Publish(ctx, events.TopicCartUpdated, c.UserID, cartUpdated{
		Operation:   op,
		CartID:      c.ID,
		Lines:       len(c.Items),
		TotalAmount: c.TotalAmount,
		Version:     c.Version,
	})
}
