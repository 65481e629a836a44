// Package domain defines the business logic for the exercise tracker.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"example.com/exercisetracker/internal/observability"
)

var (
	// ErrValidation indicates a required field is missing or unusable.
	ErrValidation = errors.New("validation failed")
	// ErrUserNotFound is returned when no user exists for the supplied ID.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidDate is returned when a date string matches no supported layout.
	ErrInvalidDate = errors.New("invalid date")
)

// Store captures persistence operations for users and their exercise logs.
type Store interface {
	CreateUser(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	FindUser(ctx context.Context, id string) (*User, error)
	// AppendExercise adds rec to the end of the user's log and returns the
	// updated user, or ErrUserNotFound.
	AppendExercise(ctx context.Context, id string, rec ExerciseRecord) (*User, error)
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used to date exercises submitted without a date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service orchestrates exercise-log workflows.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser registers a new user with an empty log.
func (s *Service) CreateUser(ctx context.Context, username string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	user, err := s.store.CreateUser(ctx, username)
	if err != nil {
		return nil, err
	}
	observability.RecordUserCreated()
	return user, nil
}

// ListUsers returns every registered user.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.store.ListUsers(ctx)
}

// AddExercise normalizes input and appends it to the user's log.
func (s *Service) AddExercise(ctx context.Context, userID string, input ExerciseInput) (*User, ExerciseRecord, error) {
	rec, err := Normalize(input, s.now())
	if err != nil {
		return nil, ExerciseRecord{}, err
	}

	user, err := s.store.AppendExercise(ctx, userID, rec)
	if err != nil {
		return nil, ExerciseRecord{}, err
	}
	observability.RecordExerciseLogged(rec.DurationMin, s.now())
	return user, rec, nil
}

// GetLog returns the user's log narrowed by q.
func (s *Service) GetLog(ctx context.Context, userID string, q LogQuery) (LogResponse, error) {
	user, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return LogResponse{}, err
	}
	if user == nil {
		return LogResponse{}, ErrUserNotFound
	}

	resp := Shape(*user, FilterLog(user.Exercises, q))
	observability.RecordLogServed(resp.Count)
	return resp, nil
}
