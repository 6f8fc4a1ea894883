package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrFeedbackStoreUnavailable is returned when the store has no usable connection
var ErrFeedbackStoreUnavailable = errors.New("feedback store unavailable")

//go:embed migrations/001_create_feedback.up.sql
var feedbackSchema string

// DBTX is an interface that both pgxpool.Pool and pgx.Tx satisfy.
// This allows Repository methods to work with either a connection pool
// or a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores chat feedback in PostgreSQL
type Repository struct {
	pool *pgxpool.Pool
	db   DBTX // The actual executor (pool or transaction)
}

// NewRepository creates a new Repository with a PostgreSQL connection pool
func NewRepository(ctx context.Context, connString string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &Repository{pool: pool, db: pool}, nil
}

// NewRepositoryWithDB wraps an existing executor, such as a transaction or a test double
func NewRepositoryWithDB(db DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a new Repository that uses the given transaction.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{pool: r.pool, db: tx}
}

// EnsureSchema creates the feedback table if it does not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, feedbackSchema); err != nil {
		return fmt.Errorf("failed to apply feedback schema: %w", err)
	}
	return nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// Health checks if the database connection is healthy
func (r *Repository) Health(ctx context.Context) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	if r.pool != nil {
		return r.pool.Ping(ctx)
	}
	var one int
	return r.db.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func (r *Repository) checkDB() error {
	if r == nil || r.db == nil {
		return ErrFeedbackStoreUnavailable
	}
	return nil
}
