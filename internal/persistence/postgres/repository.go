// Package postgres implements domain.Store on PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/events"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Option configures a Repository.
type Option func(*Repository)

// WithOutbox makes AppendExercise record an exercise.logged outbox row for topic
// inside the same transaction as the insert.
func WithOutbox(topic string) Option {
	return func(r *Repository) {
		r.outboxTopic = topic
	}
}

// Repository provides Postgres-backed persistence for users and their exercises.
type Repository struct {
	pool        *pgxpool.Pool
	outboxTopic string
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool, opts ...Option) *Repository {
	r := &Repository{pool: pool}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateUser inserts a user with a fresh uuid.
func (r *Repository) CreateUser(ctx context.Context, username string) (*domain.User, error) {
	user := &domain.User{ID: uuid.NewString(), Username: username}
	_, err := r.pool.Exec(ctx, `INSERT INTO users (user_id, username) VALUES ($1, $2)`, user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// ListUsers returns users in registration order. Exercise logs are not loaded.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, username FROM users ORDER BY created_at, user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// FindUser loads a user and the full exercise log in insertion order.
func (r *Repository) FindUser(ctx context.Context, id string) (*domain.User, error) {
	user := domain.User{ID: id}
	row := r.pool.QueryRow(ctx, `SELECT username FROM users WHERE user_id=$1`, id)
	if err := row.Scan(&user.Username); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	exercises, err := loadExercises(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	user.Exercises = exercises
	return &user, nil
}

// AppendExercise locks the user row, inserts the exercise, optionally records
// the outbox event, and returns the updated log, all in one transaction.
func (r *Repository) AppendExercise(ctx context.Context, id string, rec domain.ExerciseRecord) (*domain.User, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	user := domain.User{ID: id}
	row := tx.QueryRow(ctx, `SELECT username FROM users WHERE user_id=$1 FOR UPDATE`, id)
	if err := row.Scan(&user.Username); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	const insertExercise = `INSERT INTO exercises (user_id, description, duration_min, performed_on)
        VALUES ($1,$2,$3,$4)`
	if _, err := tx.Exec(ctx, insertExercise, id, rec.Description, rec.DurationMin, rec.Date); err != nil {
		return nil, fmt.Errorf("insert exercise: %w", err)
	}

	if r.outboxTopic != "" {
		if err := r.insertOutbox(ctx, tx, user, rec); err != nil {
			return nil, err
		}
	}

	exercises, err := loadExercises(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	user.Exercises = exercises

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, user domain.User, rec domain.ExerciseRecord) error {
	body, err := json.Marshal(events.ExerciseLogged{
		UserID:      user.ID,
		Username:    user.Username,
		Description: rec.Description,
		DurationMin: rec.DurationMin,
		Date:        rec.Date.Format("2006-01-02"),
		LoggedAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, partition_key, payload)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err = tx.Exec(ctx, stmt, "user", user.ID, events.ExerciseLoggedType, r.outboxTopic, user.ID, body)
	if err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return nil
}

func loadExercises(ctx context.Context, q querier, userID string) ([]domain.ExerciseRecord, error) {
	rows, err := q.Query(ctx, `SELECT description, duration_min, performed_on
        FROM exercises WHERE user_id=$1 ORDER BY exercise_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ExerciseRecord, 0)
	for rows.Next() {
		var rec domain.ExerciseRecord
		if err := rows.Scan(&rec.Description, &rec.DurationMin, &rec.Date); err != nil {
			return nil, err
		}
		rec.Date = domain.CalendarDate(rec.Date)
		out = append(out, rec)
	}
	return out, rows.Err()
}
