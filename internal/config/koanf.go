// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/samay/config.yaml",
	"/etc/samay/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix marks generic overrides: SAMAY_STORE__BADGER__PATH -> store.badger.path.
const EnvPrefix = "SAMAY_"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			BasePath:        "/api/v1",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Security: SecurityConfig{
			JWTSecret:           "",
			TokenTTL:            7 * 24 * time.Hour,
			AllowDeclaredUserID: true,
			BcryptCost:          12,
			RateLimitReqs:       300,
			RateLimitWindow:     time.Minute,
			RateLimitDisabled:   false,
			AuthRateLimitReqs:   20,
			CORSOrigins:         []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Store: StoreConfig{
			Backend:            BackendBadger,
			MaxConflictRetries: 10,
			Badger: BadgerConfig{
				Path:       "/data/samay",
				InMemory:   false,
				SyncWrites: true,

				GCInterval:     10 * time.Minute,
				GCDiscardRatio: 0.5,
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    20,
				MaxIdleConns:    5,
				ConnMaxLifetime: 30 * time.Minute,
			},
			Mongo: MongoConfig{
				URI:            "",
				Database:       "samay",
				ConnectTimeout: 10 * time.Second,
			},
			Breaker: BreakerConfig{
				Enabled:             true,
				MaxRequests:         3,
				Interval:            time.Minute,
				Timeout:             30 * time.Second,
				ConsecutiveFailures: 5,
			},
		},
		Cart: CartConfig{
			MaxLineQuantity: 999,
		},
		Favorites: FavoritesConfig{
			RacePolicy:     RacePolicyCoalesce,
			MaxRaceRetries: 3,
		},
		Orders: OrdersConfig{
			TaxRate:               0.08,
			FreeShippingThreshold: 5000,
			ShippingFee:           150,
		},
		Events: EventsConfig{
			Enabled:       true,
			Transport:     TransportMemory,
			NATSURL:       "nats://127.0.0.1:4222",
			AutoProvision: true,
			LogConsumer:   true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from three layers:
//  1. Defaults
//  2. Config file (optional, CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables (legacy names such as PORT, JWT_SECRET,
//     MONGODB_URI, plus SAMAY_ prefixed paths)
//
// The result is validated before it is returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps the environment variable names used by existing
// deployments of the storefront onto config paths.
var envMappings = map[string]string{
	"port":                   "server.port",
	"http_host":              "server.host",
	"api_base_path":          "server.base_path",
	"environment":            "server.environment",
	"jwt_secret":             "security.jwt_secret",
	"jwt_ttl":                "security.token_ttl",
	"allow_declared_user_id": "security.allow_declared_user_id",
	"cors_origins":           "security.cors_origins",
	"rate_limit_requests":    "security.rate_limit_reqs",
	"rate_limit_window":      "security.rate_limit_window",
	"disable_rate_limit":     "security.rate_limit_disabled",
	"store_backend":          "store.backend",
	"badger_path":            "store.badger.path",
	"database_url":           "store.postgres.dsn",
	"mongodb_uri":            "store.mongo.uri",
	"mongodb_database":       "store.mongo.database",
	"cart_max_line_quantity": "cart.max_line_quantity",
	"favorites_race_policy":  "favorites.race_policy",
	"events_transport":       "events.transport",
	"nats_url":               "events.nats_url",
	"log_level":              "logging.level",
	"log_format":             "logging.format",
	"log_caller":             "logging.caller",
}

// envTransformFunc returns the koanf path for an environment variable, or
// "" to skip it.
//
//	PORT                        -> server.port
//	MONGODB_URI                 -> store.mongo.uri
//	SAMAY_FAVORITES__RACE_POLICY -> favorites.race_policy
func envTransformFunc(key string) string {
	if strings.HasPrefix(key, EnvPrefix) {
		path := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		return strings.ReplaceAll(path, "__", ".")
	}
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
