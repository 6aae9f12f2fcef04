// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/samay/internal/config"
	"github.com/tomtom215/samay/internal/logging"
	"github.com/tomtom215/samay/internal/metrics"
	"github.com/tomtom215/samay/internal/models"
)

// Key prefixes for BadgerDB storage
const (
	userKeyPrefix      = "user:"
	userEmailKeyPrefix = "user_email:"
	cartKeyPrefix      = "cart:"
	favoriteKeyPrefix  = "favorite:"
	orderKeyPrefix     = "order:"
	orderUserKeyPrefix = "order_user:"
	complaintKeyPrefix = "complaint:"
)

// BadgerStore implements Store on an embedded BadgerDB. Unique constraints
// are checked inside read-write transactions; Badger's optimistic conflict
// detection (ErrConflict at commit) turns concurrent check-then-write races
// into retries, so the checks hold under concurrency.
type BadgerStore struct {
	db         *badger.DB
	maxRetries int
	now        func() time.Time
}

// OpenBadger opens (or creates) the database described by cfg.
func OpenBadger(cfg config.BadgerConfig, maxRetries int) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return NewBadgerStore(db, maxRetries), nil
}

// NewBadgerStore wraps an already open database.
func NewBadgerStore(db *badger.DB, maxRetries int) *BadgerStore {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &BadgerStore{
		db:         db,
		maxRetries: maxRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func userKey(id string) []byte         { return []byte(userKeyPrefix + id) }
func userEmailKey(email string) []byte { return []byte(userEmailKeyPrefix + email) }
func cartKey(userID string) []byte     { return []byte(cartKeyPrefix + userID) }
func orderKey(id string) []byte        { return []byte(orderKeyPrefix + id) }
func complaintKey(id string) []byte    { return []byte(complaintKeyPrefix + id) }

// ownerSegment encodes a user ID as "<len>:<id>:" so that no user's
// segment is a prefix of another's, whatever bytes the ID contains.
func ownerSegment(userID string) string {
	return strconv.Itoa(len(userID)) + ":" + userID + ":"
}

func favoritePrefix(userID string) []byte  { return []byte(favoriteKeyPrefix + ownerSegment(userID)) }
func orderUserPrefix(userID string) []byte { return []byte(orderUserKeyPrefix + ownerSegment(userID)) }

func favoriteKey(userID string, productID models.ProductID) []byte {
	return append(favoritePrefix(userID), productID...)
}

// orderUserKey sorts a user's orders by creation time.
func orderUserKey(userID string, createdAt time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", orderUserPrefix(userID), createdAt.UnixNano(), id))
}

func getJSON[T any](txn *badger.Txn, key []byte) (*T, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	var v T
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &v)
	}); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &v, nil
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set(key, data)
}

func scanPrefix[T any](txn *badger.Txn, prefix []byte) ([]*T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []*T
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var v T
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		}); err != nil {
			return nil, fmt.Errorf("decode %s: %w", it.Item().Key(), err)
		}
		out = append(out, &v)
	}
	return out, nil
}

// update runs fn in a read-write transaction, retrying on commit conflicts.
func (s *BadgerStore) update(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		metrics.StoreConflictRetries.WithLabelValues(config.BackendBadger, op).Inc()
		logging.Ctx(ctx).Debug().Str("op", op).Int("attempt", attempt).Msg("Badger transaction conflict, retrying")
	}
	return ErrConflict
}

// CreateUser stores a new account. ErrDuplicate if the email is taken.
func (s *BadgerStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now

	return s.update(ctx, "create_user", func(txn *badger.Txn) error {
		_, err := txn.Get(userEmailKey(user.Email))
		if err == nil {
			return ErrDuplicate
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check email: %w", err)
		}
		if err := setJSON(txn, userKey(user.ID), user); err != nil {
			return err
		}
		return txn.Set(userEmailKey(user.Email), []byte(user.ID))
	})
}

// GetUser returns the account with the given ID.
func (s *BadgerStore) GetUser(_ context.Context, id string) (*models.User, error) {
	var user *models.User
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getJSON[models.User](txn, userKey(id))
		return err
	})
	return user, err
}

// GetUserByEmail looks an account up through the email index.
func (s *BadgerStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	var user *models.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userEmailKey(email))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get email index: %w", err)
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		user, err = getJSON[models.User](txn, userKey(string(id)))
		return err
	})
	return user, err
}

// SetUserRole changes an account's role.
func (s *BadgerStore) SetUserRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	var out *models.User
	err := s.update(ctx, "set_user_role", func(txn *badger.Txn) error {
		user, err := getJSON[models.User](txn, userKey(id))
		if err != nil {
			return err
		}
		user.Role = role
		user.UpdatedAt = s.now()
		out = user
		return setJSON(txn, userKey(id), user)
	})
	return out, err
}

// ListUsers returns every account.
func (s *BadgerStore) ListUsers(_ context.Context) ([]*models.User, error) {
	var users []*models.User
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		users, err = scanPrefix[models.User](txn, []byte(userKeyPrefix))
		return err
	})
	return users, err
}

func (s *BadgerStore) newCart(userID string) *models.Cart {
	now := s.now()
	return &models.Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		Items:     []models.CartLine{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetCart returns the user's cart or ErrNotFound.
func (s *BadgerStore) GetCart(_ context.Context, userID string) (*models.Cart, error) {
	var cart *models.Cart
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		cart, err = getJSON[models.Cart](txn, cartKey(userID))
		return err
	})
	return cart, err
}

// GetOrCreateCart returns the user's cart, creating an empty one if needed.
func (s *BadgerStore) GetOrCreateCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return cart, err
	}

	err = s.update(ctx, "create_cart", func(txn *badger.Txn) error {
		existing, err := getJSON[models.Cart](txn, cartKey(userID))
		if err == nil {
			cart = existing
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		cart = s.newCart(userID)
		return setJSON(txn, cartKey(userID), cart)
	})
	return cart, err
}

// UpdateCart applies fn to an existing cart.
func (s *BadgerStore) UpdateCart(ctx context.Context, userID string, fn CartMutation) (*models.Cart, error) {
	return s.mutateCart(ctx, userID, false, fn)
}

// UpsertCart applies fn to the user's cart, creating it first if needed.
func (s *BadgerStore) UpsertCart(ctx context.Context, userID string, fn CartMutation) (*models.Cart, error) {
	return s.mutateCart(ctx, userID, true, fn)
}

func (s *BadgerStore) mutateCart(ctx context.Context, userID string, create bool, fn CartMutation) (*models.Cart, error) {
	var out *models.Cart
	err := s.update(ctx, "update_cart", func(txn *badger.Txn) error {
		cart, err := getJSON[models.Cart](txn, cartKey(userID))
		switch {
		case errors.Is(err, ErrNotFound) && create:
			cart = s.newCart(userID)
		case err != nil:
			return err
		}
		if err := fn(cart); err != nil {
			return err
		}
		cart.Version++
		cart.UpdatedAt = s.now()
		out = cart
		return setJSON(txn, cartKey(userID), cart)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteCart removes the user's cart.
func (s *BadgerStore) DeleteCart(ctx context.Context, userID string) error {
	return s.update(ctx, "delete_cart", func(txn *badger.Txn) error {
		if _, err := txn.Get(cartKey(userID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(cartKey(userID))
	})
}

// ListCarts returns every cart.
func (s *BadgerStore) ListCarts(_ context.Context) ([]*models.Cart, error) {
	var carts []*models.Cart
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		carts, err = scanPrefix[models.Cart](txn, []byte(cartKeyPrefix))
		return err
	})
	return carts, err
}

// GetFavorite returns the favorite for the pair or ErrNotFound.
func (s *BadgerStore) GetFavorite(_ context.Context, userID string, productID models.ProductID) (*models.Favorite, error) {
	var fav *models.Favorite
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		fav, err = getJSON[models.Favorite](txn, favoriteKey(userID, productID))
		return err
	})
	return fav, err
}

// InsertFavorite stores the pair unless it already exists.
func (s *BadgerStore) InsertFavorite(ctx context.Context, fav *models.Favorite) error {
	if fav.ID == "" {
		fav.ID = uuid.NewString()
	}
	if fav.CreatedAt.IsZero() {
		fav.CreatedAt = s.now()
	}
	key := favoriteKey(fav.UserID, fav.ProductID)

	return s.update(ctx, "insert_favorite", func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return ErrDuplicate
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check favorite: %w", err)
		}
		return setJSON(txn, key, fav)
	})
}

// DeleteFavorite removes the pair or returns ErrNotFound.
func (s *BadgerStore) DeleteFavorite(ctx context.Context, userID string, productID models.ProductID) error {
	key := favoriteKey(userID, productID)
	return s.update(ctx, "delete_favorite", func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

// ListFavorites returns the user's favorites, newest first.
func (s *BadgerStore) ListFavorites(_ context.Context, userID string) ([]*models.Favorite, error) {
	var favs []*models.Favorite
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		favs, err = scanPrefix[models.Favorite](txn, favoritePrefix(userID))
		return err
	})
	sortFavorites(favs)
	return favs, err
}

// ListAllFavorites returns every favorite, newest first.
func (s *BadgerStore) ListAllFavorites(_ context.Context) ([]*models.Favorite, error) {
	var favs []*models.Favorite
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		favs, err = scanPrefix[models.Favorite](txn, []byte(favoriteKeyPrefix))
		return err
	})
	sortFavorites(favs)
	return favs, err
}

func sortFavorites(favs []*models.Favorite) {
	sort.SliceStable(favs, func(i, j int) bool {
		return favs[i].CreatedAt.After(favs[j].CreatedAt)
	})
}

// CreateOrder stores a new order and its per-user index entry.
func (s *BadgerStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := s.now()
	order.CreatedAt, order.UpdatedAt = now, now

	return s.update(ctx, "create_order", func(txn *badger.Txn) error {
		if err := setJSON(txn, orderKey(order.ID), order); err != nil {
			return err
		}
		return txn.Set(orderUserKey(order.UserID, order.CreatedAt, order.ID), []byte(order.ID))
	})
}

// GetOrder returns the order with the given ID.
func (s *BadgerStore) GetOrder(_ context.Context, id string) (*models.Order, error) {
	var order *models.Order
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		order, err = getJSON[models.Order](txn, orderKey(id))
		return err
	})
	return order, err
}

// ListOrdersByUser walks the per-user index in reverse (newest first).
func (s *BadgerStore) ListOrdersByUser(_ context.Context, userID string) ([]*models.Order, error) {
	var orders []*models.Order
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := orderUserPrefix(userID)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			order, err := getJSON[models.Order](txn, orderKey(string(id)))
			if err != nil {
				return err
			}
			orders = append(orders, order)
		}
		return nil
	})
	return orders, err
}

// ListOrders returns every order, newest first.
func (s *BadgerStore) ListOrders(_ context.Context) ([]*models.Order, error) {
	var orders []*models.Order
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		orders, err = scanPrefix[models.Order](txn, []byte(orderKeyPrefix))
		return err
	})
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, err
}

// UpdateOrder applies fn to an existing order.
func (s *BadgerStore) UpdateOrder(ctx context.Context, id string, fn OrderMutation) (*models.Order, error) {
	var out *models.Order
	err := s.update(ctx, "update_order", func(txn *badger.Txn) error {
		order, err := getJSON[models.Order](txn, orderKey(id))
		if err != nil {
			return err
		}
		if err := fn(order); err != nil {
			return err
		}
		order.UpdatedAt = s.now()
		out = order
		return setJSON(txn, orderKey(id), order)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateComplaint stores a new complaint.
func (s *BadgerStore) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = s.now()
	return s.update(ctx, "create_complaint", func(txn *badger.Txn) error {
		return setJSON(txn, complaintKey(c.ID), c)
	})
}

// GetComplaint returns the complaint with the given ID.
func (s *BadgerStore) GetComplaint(_ context.Context, id string) (*models.Complaint, error) {
	var c *models.Complaint
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		c, err = getJSON[models.Complaint](txn, complaintKey(id))
		return err
	})
	return c, err
}

// ListComplaints returns every complaint, newest first.
func (s *BadgerStore) ListComplaints(_ context.Context) ([]*models.Complaint, error) {
	var out []*models.Complaint
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = scanPrefix[models.Complaint](txn, []byte(complaintKeyPrefix))
		return err
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

// DeleteComplaint removes the complaint or returns ErrNotFound.
func (s *BadgerStore) DeleteComplaint(ctx context.Context, id string) error {
	key := complaintKey(id)
	return s.update(ctx, "delete_complaint", func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

// Ping reports whether the database is open.
func (s *BadgerStore) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger store is closed")
	}
	return nil
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// RunValueLogGC rewrites value log files while Badger finds at least
// discardRatio of a file reclaimable, and returns how many were rewritten.
// In-memory databases have no value log and report zero.
func (s *BadgerStore) RunValueLogGC(discardRatio float64) (int, error) {
	rewritten := 0
	for {
		err := s.db.RunValueLogGC(discardRatio)
		switch {
		case err == nil:
			rewritten++
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrRejected), errors.Is(err, badger.ErrGCInMemoryMode):
			return rewritten, nil
		default:
			return rewritten, fmt.Errorf("value log gc: %w", err)
		}
	}
}
