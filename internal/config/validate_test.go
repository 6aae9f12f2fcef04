// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = testSecret
	return cfg
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults with secret", mutate: func(*Config) {}},
		{name: "short secret", mutate: func(c *Config) { c.Security.JWTSecret = "short" }, wantErr: "at least 32"},
		{name: "placeholder secret", mutate: func(c *Config) { c.Security.JWTSecret = "changeme-changeme-changeme-changeme" }, wantErr: "placeholder"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "PORT"},
		{name: "relative base path", mutate: func(c *Config) { c.Server.BasePath = "api" }, wantErr: "API_BASE_PATH"},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "mysql" }, wantErr: "STORE_BACKEND"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Store.Backend = BackendPostgres }, wantErr: "DATABASE_URL"},
		{name: "mongo bad scheme", mutate: func(c *Config) {
			c.Store.Backend = BackendMongo
			c.Store.Mongo.URI = "http://localhost:27017"
		}, wantErr: "mongodb://"},
		{name: "mongo ok", mutate: func(c *Config) {
			c.Store.Backend = BackendMongo
			c.Store.Mongo.URI = "mongodb+srv://cluster0.example.net"
		}},
		{name: "badger in memory without path", mutate: func(c *Config) {
			c.Store.Badger.Path = ""
			c.Store.Badger.InMemory = true
		}},
		{name: "zero line quantity", mutate: func(c *Config) { c.Cart.MaxLineQuantity = 0 }, wantErr: "CART_MAX_LINE_QUANTITY"},
		{name: "line quantity above ceiling", mutate: func(c *Config) { c.Cart.MaxLineQuantity = 1_000_000 }, wantErr: "CART_MAX_LINE_QUANTITY"},
		{name: "unknown race policy", mutate: func(c *Config) { c.Favorites.RacePolicy = "ignore" }, wantErr: "FAVORITES_RACE_POLICY"},
		{name: "tax rate out of range", mutate: func(c *Config) { c.Orders.TaxRate = 1.5 }, wantErr: "tax_rate"},
		{name: "nats bad url", mutate: func(c *Config) {
			c.Events.Transport = TransportNATS
			c.Events.NATSURL = "http://nats"
		}, wantErr: "NATS_URL"},
		{name: "events disabled skips transport", mutate: func(c *Config) {
			c.Events.Enabled = false
			c.Events.Transport = "kafka"
		}},
		{name: "production rejects declared user ids", mutate: func(c *Config) { c.Server.Environment = "production" }, wantErr: "ALLOW_DECLARED_USER_ID"},
		{name: "production rejects wildcard cors", mutate: func(c *Config) {
			c.Server.Environment = "production"
			c.Security.AllowDeclaredUserID = false
			c.Security.CORSOrigins = []string{"*"}
		}, wantErr: "CORS_ORIGINS"},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 5000}
	if got := s.Addr(); got != "127.0.0.1:5000" {
		t.Errorf("Addr() = %q", got)
	}
}
