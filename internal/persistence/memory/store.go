// Package memory provides an in-process Store for local development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"example.com/exercisetracker/internal/domain"
)

// Store keeps users and their logs in memory.
type Store struct {
	mu    sync.RWMutex
	users map[string]*domain.User
	order []string
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{users: make(map[string]*domain.User)}
}

// CreateUser implements domain.Store.
func (s *Store) CreateUser(ctx context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := &domain.User{ID: uuid.NewString(), Username: username}
	s.users[user.ID] = user
	s.order = append(s.order, user.ID)
	return clone(user), nil
}

// ListUsers returns users in registration order.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *clone(s.users[id]))
	}
	return out, nil
}

// FindUser implements domain.Store.
func (s *Store) FindUser(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(user), nil
}

// AppendExercise implements domain.Store.
func (s *Store) AppendExercise(ctx context.Context, id string, rec domain.ExerciseRecord) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user.Exercises = append(user.Exercises, rec)
	return clone(user), nil
}

func clone(u *domain.User) *domain.User {
	out := *u
	out.Exercises = make([]domain.ExerciseRecord, len(u.Exercises))
	copy(out.Exercises, u.Exercises)
	return &out
}
