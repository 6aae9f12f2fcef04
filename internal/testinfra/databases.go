// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultPostgresImage is the PostgreSQL image used for store tests
	DefaultPostgresImage = "postgres:16-alpine"

	// DefaultMongoImage is the MongoDB image used for store tests
	DefaultMongoImage = "mongo:7"

	// DefaultNATSImage is the NATS image used for event tests
	DefaultNATSImage = "nats:2.10-alpine"

	postgresUser     = "samay"
	postgresPassword = "samay"
	postgresDB       = "samay"
)

// PostgresContainer is a running PostgreSQL server.
type PostgresContainer struct {
	testcontainers.Container
	DSN string
}

// NewPostgresContainer starts PostgreSQL and waits until it accepts connections.
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	container, addr, err := startService(ctx, serviceSpec{
		image: DefaultPostgresImage,
		port:  "5432",
		env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDB,
		},
		// The entrypoint restarts the server once after init, so the
		// ready line shows up twice.
		waitFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	})
	if err != nil {
		return nil, err
	}

	return &PostgresContainer{
		Container: container,
		DSN:       fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", postgresUser, postgresPassword, addr, postgresDB),
	}, nil
}

// MongoContainer is a running MongoDB server.
type MongoContainer struct {
	testcontainers.Container
	URI string
}

// NewMongoContainer starts a standalone MongoDB.
func NewMongoContainer(ctx context.Context) (*MongoContainer, error) {
	container, addr, err := startService(ctx, serviceSpec{
		image:   DefaultMongoImage,
		port:    "27017",
		waitFor: wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	})
	if err != nil {
		return nil, err
	}

	return &MongoContainer{
		Container: container,
		URI:       "mongodb://" + addr,
	}, nil
}

// NATSContainer is a running JetStream-enabled NATS server.
type NATSContainer struct {
	testcontainers.Container
	URL string
}

// NewNATSContainer starts NATS with JetStream.
func NewNATSContainer(ctx context.Context) (*NATSContainer, error) {
	container, addr, err := startService(ctx, serviceSpec{
		image:   DefaultNATSImage,
		port:    "4222",
		cmd:     []string{"-js"},
		waitFor: wait.ForLog("Server is ready").WithStartupTimeout(30 * time.Second),
	})
	if err != nil {
		return nil, err
	}

	return &NATSContainer{
		Container: container,
		URL:       "nats://" + addr,
	}, nil
}
