// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

// Package config loads Samay configuration from built-in defaults, an
// optional YAML file and environment variables (in that order of
// precedence, lowest first).
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Invalid configuration")
//	}
//
// Config is immutable after Load and safe for concurrent reads.
package config

import (
	"net"
	"strconv"
	"time"
)

// Store backends.
const (
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Favorites race policies applied when a toggle loses the insert race.
const (
	RacePolicyCoalesce = "coalesce"
	RacePolicyRemove   = "remove"
)

// Event transports.
const (
	TransportMemory = "memory"
	TransportNATS   = "nats"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Store     StoreConfig     `koanf:"store"`
	Cart      CartConfig      `koanf:"cart"`
	Favorites FavoritesConfig `koanf:"favorites"`
	Orders    OrdersConfig    `koanf:"orders"`
	Events    EventsConfig    `koanf:"events"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	BasePath        string        `koanf:"base_path"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// SecurityConfig holds authentication, CORS and rate limit settings.
type SecurityConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`

	// AllowDeclaredUserID lets cart and favorites routes fall back to a
	// userId supplied in the body, path or query when no valid bearer
	// token is present (demo storefront flows).
	AllowDeclaredUserID bool `koanf:"allow_declared_user_id"`

	BcryptCost        int           `koanf:"bcrypt_cost"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	AuthRateLimitReqs int           `koanf:"auth_rate_limit_reqs"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend            string         `koanf:"backend"`
	MaxConflictRetries int            `koanf:"max_conflict_retries"`
	Badger             BadgerConfig   `koanf:"badger"`
	Postgres           PostgresConfig `koanf:"postgres"`
	Mongo              MongoConfig    `koanf:"mongo"`
	Breaker            BreakerConfig  `koanf:"breaker"`
}

// BadgerConfig configures the embedded store.
type BadgerConfig struct {
	Path       string `koanf:"path"`
	InMemory   bool   `koanf:"in_memory"`
	SyncWrites bool   `koanf:"sync_writes"`

	// GCInterval is how often value log garbage collection runs. Zero
	// disables it.
	GCInterval     time.Duration `koanf:"gc_interval"`
	GCDiscardRatio float64       `koanf:"gc_discard_ratio"`
}

// PostgresConfig configures the lib/pq backend.
type PostgresConfig struct {
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// MongoConfig configures the MongoDB backend.
type MongoConfig struct {
	URI            string        `koanf:"uri"`
	Database       string        `koanf:"database"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// BreakerConfig configures the circuit breaker wrapped around the store.
type BreakerConfig struct {
	Enabled             bool          `koanf:"enabled"`
	MaxRequests         uint32        `koanf:"max_requests"`
	Interval            time.Duration `koanf:"interval"`
	Timeout             time.Duration `koanf:"timeout"`
	ConsecutiveFailures uint32        `koanf:"consecutive_failures"`
}

// CartConfig bounds cart contents.
type CartConfig struct {
	MaxLineQuantity int `koanf:"max_line_quantity"`
}

// FavoritesConfig configures the favorites toggle engine.
type FavoritesConfig struct {
	RacePolicy     string `koanf:"race_policy"`
	MaxRaceRetries int    `koanf:"max_race_retries"`
}

// OrdersConfig holds checkout pricing rules.
type OrdersConfig struct {
	TaxRate               float64 `koanf:"tax_rate"`
	FreeShippingThreshold float64 `koanf:"free_shipping_threshold"`
	ShippingFee           float64 `koanf:"shipping_fee"`
}

// EventsConfig configures domain event publishing.
type EventsConfig struct {
	Enabled       bool   `koanf:"enabled"`
	Transport     string `koanf:"transport"`
	NATSURL       string `koanf:"nats_url"`
	AutoProvision bool   `koanf:"auto_provision"`
	LogConsumer   bool   `koanf:"log_consumer"`
}

// LoggingConfig configures internal/logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// IsProduction reports whether the service runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}
