// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

// Package storetest holds the behavioral suite every store backend must
// pass. Backends call Run from their own tests with a factory that returns
// a fresh, empty store.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/samay/internal/models"
	"github.com/tomtom215/samay/internal/store"
)

// Factory returns an empty store. Cleanup is registered on t.
type Factory func(t *testing.T) store.Store

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("CartLifecycle", func(t *testing.T) { testCartLifecycle(t, newStore(t)) })
	t.Run("CartConcurrentMutations", func(t *testing.T) { testCartConcurrency(t, newStore(t)) })
	t.Run("CartMutationError", func(t *testing.T) { testCartMutationError(t, newStore(t)) })
	t.Run("FavoritesUniqueness", func(t *testing.T) { testFavorites(t, newStore(t)) })
	t.Run("FavoritesConcurrentInsert", func(t *testing.T) { testFavoriteRace(t, newStore(t)) })
	t.Run("Orders", func(t *testing.T) { testOrders(t, newStore(t)) })
	t.Run("Complaints", func(t *testing.T) { testComplaints(t, newStore(t)) })
	t.Run("OwnerIsolation", func(t *testing.T) { testOwnerIsolation(t, newStore(t)) })
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	u := &models.User{Name: "Asha", Email: "asha@example.com", PasswordHash: "x", Role: models.RoleUser}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if u.ID == "" {
		t.Fatal("CreateUser() did not assign an ID")
	}

	dup := &models.User{Name: "Other", Email: "asha@example.com", PasswordHash: "y", Role: models.RoleUser}
	if err := s.CreateUser(ctx, dup); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("CreateUser(duplicate email) error = %v, want ErrDuplicate", err)
	}

	got, err := s.GetUserByEmail(ctx, "asha@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("GetUserByEmail() ID = %q, want %q", got.ID, u.ID)
	}

	if _, err := s.GetUser(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetUser(missing) error = %v, want ErrNotFound", err)
	}

	promoted, err := s.SetUserRole(ctx, u.ID, models.RoleAdmin)
	if err != nil {
		t.Fatalf("SetUserRole() error = %v", err)
	}
	if promoted.Role != models.RoleAdmin {
		t.Errorf("SetUserRole() role = %q, want admin", promoted.Role)
	}
	if _, err := s.SetUserRole(ctx, "missing", models.RoleAdmin); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("SetUserRole(missing) error = %v, want ErrNotFound", err)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 1 {
		t.Errorf("ListUsers() len = %d, want 1", len(users))
	}
}

func testCartLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()

	if _, err := s.GetCart(ctx, "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetCart(new user) error = %v, want ErrNotFound", err)
	}

	first, err := s.GetOrCreateCart(ctx, "u1")
	if err != nil {
		t.Fatalf("GetOrCreateCart() error = %v", err)
	}
	if len(first.Items) != 0 || first.TotalAmount != 0 {
		t.Errorf("new cart = %+v, want empty", first)
	}
	second, err := s.GetOrCreateCart(ctx, "u1")
	if err != nil {
		t.Fatalf("GetOrCreateCart() again error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("GetOrCreateCart() created a second cart: %q != %q", second.ID, first.ID)
	}

	if _, err := s.UpdateCart(ctx, "nobody", func(*models.Cart) error { return nil }); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateCart(missing) error = %v, want ErrNotFound", err)
	}

	updated, err := s.UpdateCart(ctx, "u1", func(c *models.Cart) error {
		c.Items = append(c.Items, models.CartLine{ProductID: "42", Name: "Chrono", Price: 199.99, Quantity: 2})
		c.TotalAmount = models.SumLines(c.Items)
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateCart() error = %v", err)
	}
	if updated.Version <= first.Version {
		t.Errorf("UpdateCart() version = %d, want > %d", updated.Version, first.Version)
	}

	reloaded, err := s.GetCart(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCart() error = %v", err)
	}
	if len(reloaded.Items) != 1 || reloaded.Items[0].Quantity != 2 || reloaded.TotalAmount != 399.98 {
		t.Errorf("GetCart() = %+v, want one line of quantity 2 totalling 399.98", reloaded)
	}

	upserted, err := s.UpsertCart(ctx, "u2", func(c *models.Cart) error {
		c.Items = append(c.Items, models.CartLine{ProductID: "7", Name: "Diver", Price: 10, Quantity: 1})
		c.TotalAmount = models.SumLines(c.Items)
		return nil
	})
	if err != nil {
		t.Fatalf("UpsertCart() error = %v", err)
	}
	if upserted.UserID != "u2" || len(upserted.Items) != 1 {
		t.Errorf("UpsertCart() = %+v", upserted)
	}

	carts, err := s.ListCarts(ctx)
	if err != nil {
		t.Fatalf("ListCarts() error = %v", err)
	}
	if len(carts) != 2 {
		t.Errorf("ListCarts() len = %d, want 2", len(carts))
	}

	if err := s.DeleteCart(ctx, "u1"); err != nil {
		t.Fatalf("DeleteCart() error = %v", err)
	}
	if err := s.DeleteCart(ctx, "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeleteCart(twice) error = %v, want ErrNotFound", err)
	}
}

// testCartConcurrency checks that concurrent increments are never lost.
func testCartConcurrency(t *testing.T, s store.Store) {
	ctx := context.Background()
	const writers = 8

	if _, err := s.GetOrCreateCart(ctx, "u1"); err != nil {
		t.Fatalf("GetOrCreateCart() error = %v", err)
	}

	var g errgroup.Group
	for i := 0; i < writers; i++ {
		g.Go(func() error {
			_, err := s.UpsertCart(ctx, "u1", func(c *models.Cart) error {
				if len(c.Items) == 0 {
					c.Items = append(c.Items, models.CartLine{ProductID: "42", Name: "Chrono", Price: 1, Quantity: 0})
				}
				c.Items[0].Quantity++
				c.TotalAmount = models.SumLines(c.Items)
				return nil
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		// Exhausting conflict retries is allowed; a lost update is not.
		if !errors.Is(err, store.ErrConflict) {
			t.Fatalf("concurrent UpsertCart() error = %v", err)
		}
		t.Skipf("conflict retries exhausted under contention: %v", err)
	}

	cart, err := s.GetCart(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCart() error = %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != writers {
		t.Errorf("cart after %d concurrent increments = %+v", writers, cart.Items)
	}
}

func testCartMutationError(t *testing.T, s store.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	if _, err := s.GetOrCreateCart(ctx, "u1"); err != nil {
		t.Fatalf("GetOrCreateCart() error = %v", err)
	}
	_, err := s.UpdateCart(ctx, "u1", func(c *models.Cart) error {
		c.Items = append(c.Items, models.CartLine{ProductID: "1", Quantity: 1})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("UpdateCart() error = %v, want mutation error", err)
	}

	cart, err := s.GetCart(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCart() error = %v", err)
	}
	if len(cart.Items) != 0 {
		t.Errorf("aborted mutation was persisted: %+v", cart.Items)
	}
}

func testFavorites(t *testing.T, s store.Store) {
	ctx := context.Background()

	if err := s.InsertFavorite(ctx, &models.Favorite{UserID: "u1", ProductID: "42"}); err != nil {
		t.Fatalf("InsertFavorite() error = %v", err)
	}
	if err := s.InsertFavorite(ctx, &models.Favorite{UserID: "u1", ProductID: "42"}); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("InsertFavorite(duplicate) error = %v, want ErrDuplicate", err)
	}
	later := &models.Favorite{UserID: "u1", ProductID: "43", CreatedAt: time.Now().UTC().Add(time.Minute)}
	if err := s.InsertFavorite(ctx, later); err != nil {
		t.Fatalf("InsertFavorite() error = %v", err)
	}
	if err := s.InsertFavorite(ctx, &models.Favorite{UserID: "u2", ProductID: "42"}); err != nil {
		t.Fatalf("InsertFavorite(other user) error = %v", err)
	}

	favs, err := s.ListFavorites(ctx, "u1")
	if err != nil {
		t.Fatalf("ListFavorites() error = %v", err)
	}
	if len(favs) != 2 {
		t.Fatalf("ListFavorites() len = %d, want 2", len(favs))
	}
	if favs[0].ProductID != "43" {
		t.Errorf("ListFavorites()[0] = %q, want newest (43) first", favs[0].ProductID)
	}

	if _, err := s.GetFavorite(ctx, "u1", "42"); err != nil {
		t.Errorf("GetFavorite() error = %v", err)
	}
	if err := s.DeleteFavorite(ctx, "u1", "42"); err != nil {
		t.Fatalf("DeleteFavorite() error = %v", err)
	}
	if err := s.DeleteFavorite(ctx, "u1", "42"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeleteFavorite(twice) error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetFavorite(ctx, "u1", "42"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetFavorite(deleted) error = %v, want ErrNotFound", err)
	}

	all, err := s.ListAllFavorites(ctx)
	if err != nil {
		t.Fatalf("ListAllFavorites() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListAllFavorites() len = %d, want 2", len(all))
	}
}

// testFavoriteRace checks that exactly one of many concurrent inserts wins.
func testFavoriteRace(t *testing.T, s store.Store) {
	ctx := context.Background()
	const racers = 8

	results := make([]error, racers)
	var g errgroup.Group
	for i := 0; i < racers; i++ {
		g.Go(func() error {
			results[i] = s.InsertFavorite(ctx, &models.Favorite{UserID: "u1", ProductID: "42"})
			return nil
		})
	}
	_ = g.Wait()

	wins := 0
	for i, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, store.ErrDuplicate), errors.Is(err, store.ErrConflict):
		default:
			t.Errorf("racer %d error = %v", i, err)
		}
	}
	if wins != 1 {
		t.Errorf("successful inserts = %d, want exactly 1", wins)
	}

	favs, err := s.ListFavorites(ctx, "u1")
	if err != nil {
		t.Fatalf("ListFavorites() error = %v", err)
	}
	if len(favs) != 1 {
		t.Errorf("stored favorites = %d, want 1", len(favs))
	}
}

func testOrders(t *testing.T, s store.Store) {
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		o := &models.Order{
			UserID:        "u1",
			Items:         []models.CartLine{{ProductID: models.ProductID(fmt.Sprint(i + 1)), Name: "W", Price: 100, Quantity: 1}},
			Subtotal:      100,
			Tax:           8,
			Shipping:      150,
			Total:         258,
			PaymentMethod: "cod",
			Status:        models.OrderPending,
			PaymentStatus: models.PaymentPending,
			ShippingAddress: models.ShippingAddress{
				FullName: "Asha", Street: "1 Main", City: "Pune", PostalCode: "411001", Country: "IN",
			},
		}
		if err := s.CreateOrder(ctx, o); err != nil {
			t.Fatalf("CreateOrder() error = %v", err)
		}
		ids = append(ids, o.ID)
		time.Sleep(2 * time.Millisecond)
	}
	if err := s.CreateOrder(ctx, &models.Order{UserID: "u2", Status: models.OrderPending, PaymentStatus: models.PaymentPending}); err != nil {
		t.Fatalf("CreateOrder(u2) error = %v", err)
	}

	mine, err := s.ListOrdersByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListOrdersByUser() error = %v", err)
	}
	if len(mine) != 3 {
		t.Fatalf("ListOrdersByUser() len = %d, want 3", len(mine))
	}
	if mine[0].ID != ids[2] {
		t.Errorf("ListOrdersByUser()[0] = %q, want newest %q", mine[0].ID, ids[2])
	}
	if mine[0].ShippingAddress.City != "Pune" {
		t.Errorf("shipping address not round-tripped: %+v", mine[0].ShippingAddress)
	}

	all, err := s.ListOrders(ctx)
	if err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("ListOrders() len = %d, want 4", len(all))
	}

	shipped, err := s.UpdateOrder(ctx, ids[0], func(o *models.Order) error {
		o.Status = models.OrderShipped
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateOrder() error = %v", err)
	}
	if shipped.Status != models.OrderShipped {
		t.Errorf("UpdateOrder() status = %q, want shipped", shipped.Status)
	}
	got, err := s.GetOrder(ctx, ids[0])
	if err != nil {
		t.Fatalf("GetOrder() error = %v", err)
	}
	if got.Status != models.OrderShipped {
		t.Errorf("GetOrder() status = %q, want shipped", got.Status)
	}

	if _, err := s.GetOrder(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetOrder(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.UpdateOrder(ctx, "missing", func(*models.Order) error { return nil }); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateOrder(missing) error = %v, want ErrNotFound", err)
	}
}

func testComplaints(t *testing.T, s store.Store) {
	ctx := context.Background()

	empty, err := s.ListComplaints(ctx)
	if err != nil || len(empty) != 0 {
		t.Fatalf("ListComplaints() on empty store = %d, %v", len(empty), err)
	}

	var ids []string
	for _, subject := range []string{"Late delivery", "Scratched crystal"} {
		c := &models.Complaint{Name: "Asha", Email: "asha@example.com", Subject: subject, Message: "Please help."}
		if err := s.CreateComplaint(ctx, c); err != nil {
			t.Fatalf("CreateComplaint() error = %v", err)
		}
		if c.ID == "" || c.CreatedAt.IsZero() {
			t.Fatalf("CreateComplaint() did not assign id and timestamp: %+v", c)
		}
		ids = append(ids, c.ID)
		time.Sleep(2 * time.Millisecond)
	}

	got, err := s.GetComplaint(ctx, ids[0])
	if err != nil {
		t.Fatalf("GetComplaint() error = %v", err)
	}
	if got.Subject != "Late delivery" || got.Email != "asha@example.com" || got.Message != "Please help." {
		t.Errorf("GetComplaint() = %+v", got)
	}

	all, err := s.ListComplaints(ctx)
	if err != nil {
		t.Fatalf("ListComplaints() error = %v", err)
	}
	if len(all) != 2 || all[0].ID != ids[1] {
		t.Errorf("ListComplaints() = %d rows, first %v; want 2 newest first", len(all), all)
	}

	if err := s.DeleteComplaint(ctx, ids[0]); err != nil {
		t.Fatalf("DeleteComplaint() error = %v", err)
	}
	if err := s.DeleteComplaint(ctx, ids[0]); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second DeleteComplaint() error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetComplaint(ctx, ids[0]); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetComplaint(deleted) error = %v, want ErrNotFound", err)
	}
}

// testOwnerIsolation uses user IDs that contain separator characters and
// extend each other, so a backend that joins owner and product into one
// key without framing would leak rows across users.
func testOwnerIsolation(t *testing.T, s store.Store) {
	ctx := context.Background()

	if err := s.InsertFavorite(ctx, &models.Favorite{UserID: "u1:x", ProductID: "p9"}); err != nil {
		t.Fatalf("InsertFavorite(u1:x, p9) error = %v", err)
	}
	if err := s.InsertFavorite(ctx, &models.Favorite{UserID: "u1", ProductID: "x:p9"}); err != nil {
		t.Errorf("InsertFavorite(u1, x:p9) error = %v, want a distinct pair", err)
	}

	favs, err := s.ListFavorites(ctx, "u1")
	if err != nil {
		t.Fatalf("ListFavorites(u1) error = %v", err)
	}
	for _, f := range favs {
		if f.UserID != "u1" {
			t.Errorf("ListFavorites(u1) returned a row owned by %q", f.UserID)
		}
	}
	if len(favs) != 1 {
		t.Errorf("ListFavorites(u1) len = %d, want 1", len(favs))
	}

	if err := s.DeleteFavorite(ctx, "u1", "x:p9"); err != nil {
		t.Fatalf("DeleteFavorite(u1, x:p9) error = %v", err)
	}
	if _, err := s.GetFavorite(ctx, "u1:x", "p9"); err != nil {
		t.Errorf("GetFavorite(u1:x, p9) after deleting u1's row error = %v", err)
	}

	for _, uid := range []string{"u1", "u1:x", "u1:"} {
		if err := s.CreateOrder(ctx, &models.Order{UserID: uid, Status: models.OrderPending, PaymentStatus: models.PaymentPending}); err != nil {
			t.Fatalf("CreateOrder(%s) error = %v", uid, err)
		}
	}
	for _, uid := range []string{"u1", "u1:x", "u1:"} {
		orders, err := s.ListOrdersByUser(ctx, uid)
		if err != nil {
			t.Fatalf("ListOrdersByUser(%s) error = %v", uid, err)
		}
		if len(orders) != 1 || orders[0].UserID != uid {
			t.Errorf("ListOrdersByUser(%q) = %d orders, want only its own", uid, len(orders))
		}
	}
}
