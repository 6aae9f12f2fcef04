// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tomtom215/samay/internal/config"
	"github.com/tomtom215/samay/internal/logging"
	"github.com/tomtom215/samay/internal/metrics"
	"github.com/tomtom215/samay/internal/models"
)

const (
	usersCollection      = "users"
	cartsCollection      = "carts"
	favoritesCollection  = "favorites"
	ordersCollection     = "orders"
	complaintsCollection = "complaints"
)

// MongoStore implements Store on MongoDB. Uniqueness comes from unique
// indexes; cart and order mutations are compare-and-swap replacements
// guarded by the document's version, retried on a lost race.
type MongoStore struct {
	client     *mongo.Client
	db         *mongo.Database
	maxRetries int
	now        func() time.Time
}

// OpenMongo connects to cfg.URI and ensures the indexes exist.
func OpenMongo(ctx context.Context, cfg config.MongoConfig, maxRetries int) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	s := NewMongoStore(client, cfg.Database, maxRetries)
	if err := s.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// NewMongoStore wraps a connected client.
func NewMongoStore(client *mongo.Client, database string, maxRetries int) *MongoStore {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &MongoStore{
		client:     client,
		db:         client.Database(database),
		maxRetries: maxRetries,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureIndexes creates the unique and ordering indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		cartsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		favoritesCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "productId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		ordersCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		complaintsCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
	}
	for coll, idx := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

func mapMongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}

// casLoop runs attempt until it reports success, retrying lost races.
func (s *MongoStore) casLoop(ctx context.Context, op string, attempt func() (bool, error)) error {
	for i := 1; i <= s.maxRetries; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := attempt()
		if err != nil || done {
			return err
		}
		metrics.StoreConflictRetries.WithLabelValues(config.BackendMongo, op).Inc()
		logging.Ctx(ctx).Debug().Str("op", op).Int("attempt", i).Msg("Mongo compare-and-swap lost, retrying")
	}
	return ErrConflict
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any) (*T, error) {
	var v T
	if err := coll.FindOne(ctx, filter).Decode(&v); err != nil {
		return nil, mapMongoError(err)
	}
	return &v, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, sort bson.D) ([]*T, error) {
	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*T
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now

	_, err := s.db.Collection(usersCollection).InsertOne(ctx, user)
	return mapMongoError(err)
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, s.db.Collection(usersCollection), bson.M{"_id": id})
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, s.db.Collection(usersCollection), bson.M{"email": email})
}

func (s *MongoStore) SetUserRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	var user models.User
	err := s.db.Collection(usersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"role": role, "updatedAt": s.now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, mapMongoError(err)
	}
	return &user, nil
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	return findAll[models.User](ctx, s.db.Collection(usersCollection), bson.M{}, bson.D{{Key: "createdAt", Value: 1}})
}

func normalizeCart(c *models.Cart) *models.Cart {
	if c != nil && c.Items == nil {
		c.Items = []models.CartLine{}
	}
	return c
}

func (s *MongoStore) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	c, err := findOne[models.Cart](ctx, s.db.Collection(cartsCollection), bson.M{"userId": userID})
	return normalizeCart(c), err
}

// GetOrCreateCart upserts an empty cart. Two concurrent upserts can both
// miss and collide on the userId index; the loser simply reads the winner.
func (s *MongoStore) GetOrCreateCart(ctx context.Context, userID string) (*models.Cart, error) {
	now := s.now()
	onInsert := bson.M{
		"_id":         uuid.NewString(),
		"items":       bson.A{},
		"totalAmount": 0.0,
		"version":     int64(0),
		"createdAt":   now,
		"updatedAt":   now,
	}

	var cart models.Cart
	err := s.db.Collection(cartsCollection).FindOneAndUpdate(ctx,
		bson.M{"userId": userID},
		bson.M{"$setOnInsert": onInsert},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&cart)
	if mongo.IsDuplicateKeyError(err) {
		return s.GetCart(ctx, userID)
	}
	if err != nil {
		return nil, mapMongoError(err)
	}
	return normalizeCart(&cart), nil
}

func (s *MongoStore) UpdateCart(ctx context.Context, userID string, fn CartMutation) (*models.Cart, error) {
	return s.mutateCart(ctx, userID, false, fn)
}

func (s *MongoStore) UpsertCart(ctx context.Context, userID string, fn CartMutation) (*models.Cart, error) {
	return s.mutateCart(ctx, userID, true, fn)
}

func (s *MongoStore) mutateCart(ctx context.Context, userID string, create bool, fn CartMutation) (*models.Cart, error) {
	var out *models.Cart
	err := s.casLoop(ctx, "update_cart", func() (bool, error) {
		var (
			cart *models.Cart
			err  error
		)
		if create {
			cart, err = s.GetOrCreateCart(ctx, userID)
		} else {
			cart, err = s.GetCart(ctx, userID)
		}
		if err != nil {
			return false, err
		}

		prev := cart.Version
		if err := fn(cart); err != nil {
			return false, err
		}
		cart.Version = prev + 1
		cart.UpdatedAt = s.now()

		res, err := s.db.Collection(cartsCollection).ReplaceOne(ctx,
			bson.M{"userId": userID, "version": prev}, cart)
		if err != nil {
			return false, mapMongoError(err)
		}
		if res.MatchedCount == 0 {
			return false, nil
		}
		out = cart
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) DeleteCart(ctx context.Context, userID string) error {
	res, err := s.db.Collection(cartsCollection).DeleteOne(ctx, bson.M{"userId": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListCarts(ctx context.Context) ([]*models.Cart, error) {
	carts, err := findAll[models.Cart](ctx, s.db.Collection(cartsCollection), bson.M{}, bson.D{{Key: "updatedAt", Value: -1}})
	for _, c := range carts {
		normalizeCart(c)
	}
	return carts, err
}

func (s *MongoStore) GetFavorite(ctx context.Context, userID string, productID models.ProductID) (*models.Favorite, error) {
	return findOne[models.Favorite](ctx, s.db.Collection(favoritesCollection),
		bson.M{"userId": userID, "productId": productID})
}

// InsertFavorite relies on the (userId, productId) unique index.
func (s *MongoStore) InsertFavorite(ctx context.Context, fav *models.Favorite) error {
	if fav.ID == "" {
		fav.ID = uuid.NewString()
	}
	if fav.CreatedAt.IsZero() {
		fav.CreatedAt = s.now()
	}
	_, err := s.db.Collection(favoritesCollection).InsertOne(ctx, fav)
	return mapMongoError(err)
}

func (s *MongoStore) DeleteFavorite(ctx context.Context, userID string, productID models.ProductID) error {
	res, err := s.db.Collection(favoritesCollection).DeleteOne(ctx,
		bson.M{"userId": userID, "productId": productID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListFavorites(ctx context.Context, userID string) ([]*models.Favorite, error) {
	return findAll[models.Favorite](ctx, s.db.Collection(favoritesCollection), bson.M{"userId": userID}, newestFirst)
}

func (s *MongoStore) ListAllFavorites(ctx context.Context) ([]*models.Favorite, error) {
	return findAll[models.Favorite](ctx, s.db.Collection(favoritesCollection), bson.M{}, newestFirst)
}

func (s *MongoStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := s.now()
	order.CreatedAt, order.UpdatedAt = now, now

	_, err := s.db.Collection(ordersCollection).InsertOne(ctx, order)
	return mapMongoError(err)
}

func (s *MongoStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return findOne[models.Order](ctx, s.db.Collection(ordersCollection), bson.M{"_id": id})
}

func (s *MongoStore) ListOrdersByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	return findAll[models.Order](ctx, s.db.Collection(ordersCollection), bson.M{"userId": userID}, newestFirst)
}

func (s *MongoStore) ListOrders(ctx context.Context) ([]*models.Order, error) {
	return findAll[models.Order](ctx, s.db.Collection(ordersCollection), bson.M{}, newestFirst)
}

// UpdateOrder swaps the document only if updatedAt is unchanged since the read.
func (s *MongoStore) UpdateOrder(ctx context.Context, id string, fn OrderMutation) (*models.Order, error) {
	var out *models.Order
	err := s.casLoop(ctx, "update_order", func() (bool, error) {
		order, err := s.GetOrder(ctx, id)
		if err != nil {
			return false, err
		}
		prev := order.UpdatedAt
		if err := fn(order); err != nil {
			return false, err
		}
		order.UpdatedAt = s.now()
		if !order.UpdatedAt.After(prev) {
			order.UpdatedAt = prev.Add(time.Millisecond)
		}

		res, err := s.db.Collection(ordersCollection).ReplaceOne(ctx,
			bson.M{"_id": id, "updatedAt": prev}, order)
		if err != nil {
			return false, mapMongoError(err)
		}
		if res.MatchedCount == 0 {
			return false, nil
		}
		out = order
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = s.now()
	_, err := s.db.Collection(complaintsCollection).InsertOne(ctx, c)
	return mapMongoError(err)
}

func (s *MongoStore) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	return findOne[models.Complaint](ctx, s.db.Collection(complaintsCollection), bson.M{"_id": id})
}

func (s *MongoStore) ListComplaints(ctx context.Context) ([]*models.Complaint, error) {
	return findAll[models.Complaint](ctx, s.db.Collection(complaintsCollection), bson.M{}, newestFirst)
}

func (s *MongoStore) DeleteComplaint(ctx context.Context, id string) error {
	res, err := s.db.Collection(complaintsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
