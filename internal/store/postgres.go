// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/tomtom215/samay/internal/config"
	"github.com/tomtom215/samay/internal/models"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'user',
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS carts (
		user_id      TEXT PRIMARY KEY,
		id           TEXT NOT NULL,
		items        JSONB NOT NULL DEFAULT '[]',
		total_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
		version      BIGINT NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		product_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS favorites_user_product_unique ON favorites (user_id, product_id)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		items            JSONB NOT NULL,
		subtotal         DOUBLE PRECISION NOT NULL,
		tax              DOUBLE PRECISION NOT NULL,
		shipping         DOUBLE PRECISION NOT NULL,
		total            DOUBLE PRECISION NOT NULL,
		shipping_address JSONB NOT NULL,
		payment_method   TEXT NOT NULL,
		status           TEXT NOT NULL,
		payment_status   TEXT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_user_created ON orders (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS complaints (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		subject    TEXT NOT NULL,
		message    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS complaints_created ON complaints (created_at DESC)`,
}

// PostgresStore implements Store on PostgreSQL through lib/pq. Carts are
// mutated under SELECT ... FOR UPDATE, so concurrent writers to the same
// cart serialize on the row lock instead of retrying.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenPostgres connects, configures the pool and applies the schema.
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	s := NewPostgresStore(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an open handle without migrating.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Migrate creates tables and indexes that do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func mapPQError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

// withTx runs fn in a transaction, committing on nil and rolling back otherwise.
func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapPQError(err)
	}
	u.Role = models.Role(role)
	return &u, nil
}

// CreateUser inserts an account; the email unique index reports duplicates.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Name, user.Email, user.PasswordHash, string(user.Role), user.CreatedAt, user.UpdatedAt)
	return mapPQError(err)
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *PostgresStore) SetUserRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`UPDATE users SET role = $2, updated_at = $3 WHERE id = $1 RETURNING `+userColumns,
		id, string(role), s.now()))
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const cartColumns = `id, user_id, items, total_amount, version, created_at, updated_at`

func scanCart(row rowScanner) (*models.Cart, error) {
	var c models.Cart
	var items []byte
	if err := row.Scan(&c.ID, &c.UserID, &items, &c.TotalAmount, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, mapPQError(err)
	}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	if c.Items == nil {
		c.Items = []models.CartLine{}
	}
	return &c, nil
}

func (s *PostgresStore) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	return scanCart(s.db.QueryRowContext(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_id = $1`, userID))
}

// insertEmptyCart creates the cart row unless one exists.
func (s *PostgresStore) insertEmptyCart(ctx context.Context, q interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, userID string) error {
	now := s.now()
	_, err := q.ExecContext(ctx,
		`INSERT INTO carts (`+cartColumns+`) VALUES ($1, $2, '[]', 0, 0, $3, $3) ON CONFLICT (user_id) DO NOTHING`,
		uuid.NewString(), userID, now)
	return err
}

func (s *PostgresStore) GetOrCreateCart(ctx context.Context, userID string) (*models.Cart, error) {
	if err := s.insertEmptyCart(ctx, s.db, userID); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return s.GetCart(ctx, userID)
}

func (s *PostgresStore) UpdateCart(ctx context.Context, userID string, fn CartMutation) (*models.Cart, error) {
	return s.mutateCart(ctx, userID, false, fn)
}

func (s *PostgresStore) UpsertCart(ctx context.Context, userID string, fn CartMutation) (*models.Cart, error) {
	return s.mutateCart(ctx, userID, true, fn)
}

func (s *PostgresStore) mutateCart(ctx context.Context, userID string, create bool, fn CartMutation) (*models.Cart, error) {
	var out *models.Cart
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if create {
			if err := s.insertEmptyCart(ctx, tx, userID); err != nil {
				return fmt.Errorf("create cart: %w", err)
			}
		}

		cart, err := scanCart(tx.QueryRowContext(ctx,
			`SELECT `+cartColumns+` FROM carts WHERE user_id = $1 FOR UPDATE`, userID))
		if err != nil {
			return err
		}
		if err := fn(cart); err != nil {
			return err
		}

		items, err := json.Marshal(cart.Items)
		if err != nil {
			return fmt.Errorf("encode cart items: %w", err)
		}
		cart.Version++
		cart.UpdatedAt = s.now()
		if _, err := tx.ExecContext(ctx,
			`UPDATE carts SET items = $2, total_amount = $3, version = $4, updated_at = $5 WHERE user_id = $1`,
			userID, items, cart.TotalAmount, cart.Version, cart.UpdatedAt); err != nil {
			return fmt.Errorf("update cart: %w", err)
		}
		out = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) DeleteCart(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *PostgresStore) ListCarts(ctx context.Context) ([]*models.Cart, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+cartColumns+` FROM carts ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var carts []*models.Cart
	for rows.Next() {
		c, err := scanCart(rows)
		if err != nil {
			return nil, err
		}
		carts = append(carts, c)
	}
	return carts, rows.Err()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const favoriteColumns = `id, user_id, product_id, created_at`

func scanFavorite(row rowScanner) (*models.Favorite, error) {
	var f models.Favorite
	var pid string
	if err := row.Scan(&f.ID, &f.UserID, &pid, &f.CreatedAt); err != nil {
		return nil, mapPQError(err)
	}
	f.ProductID = models.ProductID(pid)
	return &f, nil
}

func (s *PostgresStore) GetFavorite(ctx context.Context, userID string, productID models.ProductID) (*models.Favorite, error) {
	return scanFavorite(s.db.QueryRowContext(ctx,
		`SELECT `+favoriteColumns+` FROM favorites WHERE user_id = $1 AND product_id = $2`, userID, string(productID)))
}

// InsertFavorite relies on favorites_user_product_unique for uniqueness.
func (s *PostgresStore) InsertFavorite(ctx context.Context, fav *models.Favorite) error {
	if fav.ID == "" {
		fav.ID = uuid.NewString()
	}
	if fav.CreatedAt.IsZero() {
		fav.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO favorites (`+favoriteColumns+`) VALUES ($1, $2, $3, $4)`,
		fav.ID, fav.UserID, string(fav.ProductID), fav.CreatedAt)
	return mapPQError(err)
}

func (s *PostgresStore) DeleteFavorite(ctx context.Context, userID string, productID models.ProductID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`, userID, string(productID))
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *PostgresStore) queryFavorites(ctx context.Context, query string, args ...any) ([]*models.Favorite, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var favs []*models.Favorite
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		favs = append(favs, f)
	}
	return favs, rows.Err()
}

func (s *PostgresStore) ListFavorites(ctx context.Context, userID string) ([]*models.Favorite, error) {
	return s.queryFavorites(ctx,
		`SELECT `+favoriteColumns+` FROM favorites WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (s *PostgresStore) ListAllFavorites(ctx context.Context) ([]*models.Favorite, error) {
	return s.queryFavorites(ctx, `SELECT `+favoriteColumns+` FROM favorites ORDER BY created_at DESC`)
}

const orderColumns = `id, user_id, items, subtotal, tax, shipping, total, shipping_address, payment_method, status, payment_status, created_at, updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var items, addr []byte
	var status, payment string
	if err := row.Scan(&o.ID, &o.UserID, &items, &o.Subtotal, &o.Tax, &o.Shipping, &o.Total,
		&addr, &o.PaymentMethod, &status, &payment, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, mapPQError(err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	o.Status = models.OrderStatus(status)
	o.PaymentStatus = models.PaymentStatus(payment)
	return &o, nil
}

func (s *PostgresStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := s.now()
	order.CreatedAt, order.UpdatedAt = now, now

	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	addr, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("encode shipping address: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		order.ID, order.UserID, items, order.Subtotal, order.Tax, order.Shipping, order.Total,
		addr, order.PaymentMethod, string(order.Status), string(order.PaymentStatus), order.CreatedAt, order.UpdatedAt)
	return mapPQError(err)
}

func (s *PostgresStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return scanOrder(s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

func (s *PostgresStore) queryOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *PostgresStore) ListOrdersByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	return s.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (s *PostgresStore) ListOrders(ctx context.Context) ([]*models.Order, error) {
	return s.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (s *PostgresStore) UpdateOrder(ctx context.Context, id string, fn OrderMutation) (*models.Order, error) {
	var out *models.Order
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		order, err := scanOrder(tx.QueryRowContext(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if err := fn(order); err != nil {
			return err
		}
		order.UpdatedAt = s.now()
		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = $2, payment_status = $3, updated_at = $4 WHERE id = $1`,
			id, string(order.Status), string(order.PaymentStatus), order.UpdatedAt); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

const complaintColumns = `id, name, email, subject, message, created_at`

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	var c models.Complaint
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Subject, &c.Message, &c.CreatedAt); err != nil {
		return nil, mapPQError(err)
	}
	return &c, nil
}

func (s *PostgresStore) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO complaints (`+complaintColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, c.Email, c.Subject, c.Message, c.CreatedAt)
	return mapPQError(err)
}

func (s *PostgresStore) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	return scanComplaint(s.db.QueryRowContext(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, id))
}

func (s *PostgresStore) ListComplaints(ctx context.Context) ([]*models.Complaint, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+complaintColumns+` FROM complaints ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteComplaint(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM complaints WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
