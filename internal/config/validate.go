// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/samay/internal/models"
)

const (
	minJWTSecretLength   = 32
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
	minBcryptCost        = 4
	maxBcryptCost        = 31
)

var (
	validLogLevels  = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "console": true}
	placeholders    = []string{"changeme", "change-me", "your-secret", "replace_me", "secret123"}
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateCart(); err != nil {
		return err
	}
	if err := c.validateFavorites(); err != nil {
		return err
	}
	if err := c.validateOrders(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("API_BASE_PATH must start with /")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if err := c.validateJWTSecret(); err != nil {
		return err
	}
	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.Security.BcryptCost < minBcryptCost || c.Security.BcryptCost > maxBcryptCost {
		return fmt.Errorf("security.bcrypt_cost must be between %d and %d", minBcryptCost, maxBcryptCost)
	}
	if c.Server.IsProduction() && c.Security.AllowDeclaredUserID {
		return fmt.Errorf("ALLOW_DECLARED_USER_ID must be false in production")
	}
	if err := c.validateCORS(); err != nil {
		return err
	}
	return c.validateRateLimits()
}

func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters for security", minJWTSecretLength)
	}
	lower := strings.ToLower(c.Security.JWTSecret)
	for _, p := range placeholders {
		if strings.Contains(lower, p) {
			return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
		}
	}
	return nil
}

// validateCORS rejects wildcard origins in production since tokens are
// carried in the Authorization header.
func (c *Config) validateCORS() error {
	if !c.Server.IsProduction() {
		return nil
	}
	for _, o := range c.Security.CORSOrigins {
		if o == "*" {
			return fmt.Errorf("CORS_ORIGINS must not contain * in production")
		}
	}
	return nil
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.AuthRateLimitReqs < minRateLimitRequests || c.Security.AuthRateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("security.auth_rate_limit_reqs must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.MaxConflictRetries < 1 {
		return fmt.Errorf("store.max_conflict_retries must be at least 1")
	}

	switch c.Store.Backend {
	case BackendBadger:
		if !c.Store.Badger.InMemory && c.Store.Badger.Path == "" {
			return fmt.Errorf("BADGER_PATH is required unless store.badger.in_memory is set")
		}
		if r := c.Store.Badger.GCDiscardRatio; c.Store.Badger.GCInterval > 0 && (r <= 0 || r >= 1) {
			return fmt.Errorf("store.badger.gc_discard_ratio must be between 0 and 1 (got %v)", r)
		}
	case BackendPostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	case BackendMongo:
		if err := validateMongoURI(c.Store.Mongo.URI); err != nil {
			return err
		}
		if c.Store.Mongo.Database == "" {
			return fmt.Errorf("MONGODB_DATABASE is required when STORE_BACKEND=mongo")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of: badger, postgres, mongo (got %q)", c.Store.Backend)
	}

	if c.Store.Breaker.Enabled && c.Store.Breaker.ConsecutiveFailures == 0 {
		return fmt.Errorf("store.breaker.consecutive_failures must be positive when the breaker is enabled")
	}
	return nil
}

func validateMongoURI(raw string) error {
	if raw == "" {
		return fmt.Errorf("MONGODB_URI is required when STORE_BACKEND=mongo")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("MONGODB_URI is invalid: %w", err)
	}
	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return fmt.Errorf("MONGODB_URI must use the mongodb:// or mongodb+srv:// scheme")
	}
	return nil
}

func (c *Config) validateCart() error {
	if c.Cart.MaxLineQuantity < 1 || c.Cart.MaxLineQuantity > models.MaxLineQuantity {
		return fmt.Errorf("CART_MAX_LINE_QUANTITY must be between 1 and %d", models.MaxLineQuantity)
	}
	return nil
}

func (c *Config) validateFavorites() error {
	switch c.Favorites.RacePolicy {
	case RacePolicyCoalesce, RacePolicyRemove:
	default:
		return fmt.Errorf("FAVORITES_RACE_POLICY must be one of: coalesce, remove")
	}
	if c.Favorites.MaxRaceRetries < 1 {
		return fmt.Errorf("favorites.max_race_retries must be at least 1")
	}
	return nil
}

func (c *Config) validateOrders() error {
	if c.Orders.TaxRate < 0 || c.Orders.TaxRate >= 1 {
		return fmt.Errorf("orders.tax_rate must be in [0, 1)")
	}
	if c.Orders.FreeShippingThreshold < 0 || c.Orders.ShippingFee < 0 {
		return fmt.Errorf("orders shipping values must not be negative")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	switch c.Events.Transport {
	case TransportMemory:
		return nil
	case TransportNATS:
		if !strings.HasPrefix(c.Events.NATSURL, "nats://") && !strings.HasPrefix(c.Events.NATSURL, "tls://") {
			return fmt.Errorf("NATS_URL must use the nats:// or tls:// scheme")
		}
		return nil
	default:
		return fmt.Errorf("EVENTS_TRANSPORT must be one of: memory, nats")
	}
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
