// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

// Package complaints records contact-form complaints for staff review.
// Anyone may file one; listing, reading and deleting are admin operations
// enforced by the router.
package complaints

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/samay/internal/events"
	"github.com/tomtom215/samay/internal/logging"
	"github.com/tomtom215/samay/internal/metrics"
	"github.com/tomtom215/samay/internal/models"
	"github.com/tomtom215/samay/internal/store"
)

var (
	// ErrMissingFields is returned when a required field is blank.
	ErrMissingFields = errors.New("name, email, subject and message are required")

	// ErrComplaintNotFound is returned for an unknown complaint ID.
	ErrComplaintNotFound = errors.New("complaint not found")
)

// Input is a complaint as submitted.
type Input struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Service implements the complaint operations.
type Service struct {
	complaints store.Complaints
	events     events.Publisher
}

// NewService creates a complaint service. publisher may be nil.
func NewService(complaints store.Complaints, publisher events.Publisher) *Service {
	return &Service{complaints: complaints, events: events.OrNop(publisher)}
}

// Create stores a complaint after trimming every field.
func (s *Service) Create(ctx context.Context, in Input) (*models.Complaint, error) {
	c := &models.Complaint{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
	}
	if c.Name == "" || c.Email == "" || c.Subject == "" || c.Message == "" {
		return nil, ErrMissingFields
	}

	if err := s.complaints.CreateComplaint(ctx, c); err != nil {
		return nil, fmt.Errorf("create complaint: %w", err)
	}

	metrics.ComplaintsFiled.Inc()
	logging.Ctx(ctx).Info().Str("complaint_id", c.ID).Msg("Complaint filed")
	// The body and contact address stay out of the event stream.
	s.events.Publish(ctx, events.TopicComplaintFiled, "", complaintFiled{
		ComplaintID: c.ID,
		Subject:     c.Subject,
	})
	return c, nil
}

// Get returns one complaint.
func (s *Service) Get(ctx context.Context, id string) (*models.Complaint, error) {
	c, err := s.complaints.GetComplaint(ctx, id)
	if err != nil {
		return nil, s.mapErr("get complaint", err)
	}
	return c, nil
}

// List returns every complaint, newest first.
func (s *Service) List(ctx context.Context) ([]*models.Complaint, error) {
	out, err := s.complaints.ListComplaints(ctx)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	if out == nil {
		out = []*models.Complaint{}
	}
	return out, nil
}

// Delete removes a complaint.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.complaints.DeleteComplaint(ctx, id); err != nil {
		return s.mapErr("delete complaint", err)
	}
	logging.Ctx(ctx).Info().Str("complaint_id", id).Msg("Complaint deleted")
	return nil
}

func (s *Service) mapErr(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrComplaintNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

type complaintFiled struct {
	ComplaintID string `json:"complaintId"`
	Subject     string `json:"subject"`
}
