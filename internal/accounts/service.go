// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

// Package accounts registers and authenticates storefront users and manages
// their roles.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/samay/internal/auth"
	"github.com/tomtom215/samay/internal/events"
	"github.com/tomtom215/samay/internal/logging"
	"github.com/tomtom215/samay/internal/metrics"
	"github.com/tomtom215/samay/internal/models"
	"github.com/tomtom215/samay/internal/store"
)

var (
	// ErrUserExists is returned by Register for a taken email.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password; callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is returned when the account does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrMissingFields is returned when a required field is empty.
	ErrMissingFields = errors.New("name, email and password are required")
)

// Session is an authenticated account with its bearer token.
type Session struct {
	User      models.UserProfile
	Token     string
	ExpiresAt time.Time
}

// Service implements the account operations.
type Service struct {
	users      store.Users
	tokens     *auth.JWTManager
	bcryptCost int
	events     events.Publisher
}

// NewService creates an account service. publisher may be nil.
func NewService(users store.Users, tokens *auth.JWTManager, bcryptCost int, publisher events.Publisher) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		events:     events.OrNop(publisher),
	}
}

// Register creates a user account with role user and signs it in.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = models.NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		metrics.AuthAttempts.WithLabelValues("register", "error").Inc()
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	metrics.AuthAttempts.WithLabelValues("register", "success").Inc()

	logging.Ctx(ctx).Info().Str("user_id", user.ID).Msg("User registered")
	s.events.Publish(ctx, events.TopicUserRegistered, user.ID, user.Profile())
	return s.session(user)
}

// Login verifies the password for email and signs the account in.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", user.ID).Msg("Stored password hash is unreadable")
	}
	if !ok {
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		return nil, ErrInvalidCredentials
	}
	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	return s.session(user)
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user.Profile(), Token: token, ExpiresAt: expires}, nil
}

// Me returns the profile of userID.
func (s *Service) Me(ctx context.Context, userID string) (models.UserProfile, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.UserProfile{}, ErrUserNotFound
		}
		return models.UserProfile{}, fmt.Errorf("get user: %w", err)
	}
	return user.Profile(), nil
}

// SetRole assigns role to userID. role must be one of the known roles.
func (s *Service) SetRole(ctx context.Context, userID, role string) (models.UserProfile, error) {
	r, err := models.ValidateRole(role)
	if err != nil {
		return models.UserProfile{}, err
	}

	user, err := s.users.SetUserRole(ctx, userID, r)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.UserProfile{}, ErrUserNotFound
		}
		return models.UserProfile{}, fmt.Errorf("set role: %w", err)
	}

	logging.Ctx(ctx).Info().Str("user_id", userID).Str("role", string(r)).Msg("User role changed")
	s.events.Publish(ctx, events.TopicUserRoleChanged, userID, user.Profile())
	return user.Profile(), nil
}

// NormalizeRoles rewrites every stored role to the value reads already
// resolve it to ("Admin" becomes admin, anything unknown becomes user) and
// returns how many accounts changed.
func (s *Service) NormalizeRoles(ctx context.Context) (int, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	fixed := 0
	for _, u := range users {
		want := models.ParseRole(string(u.Role))
		if u.Role == want {
			continue
		}
		if _, err := s.users.SetUserRole(ctx, u.ID, want); err != nil {
			return fixed, fmt.Errorf("normalize role for %s: %w", u.ID, err)
		}
		logging.Ctx(ctx).Info().
			Str("user_id", u.ID).
			Str("old_role", string(u.Role)).
			Str("role", string(want)).
			Msg("Normalized user role")
		fixed++
	}
	return fixed, nil
}
