package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq" // PostgreSQL driver
	"github.com/shenal-anthony/TMS-sub000/internal/config"
)

// ErrNotFound is returned by repositories when a row does not exist
var ErrNotFound = errors.New("record not found")

// DB is the subset of *sqlx.DB used by services and repositories
type DB interface {
	sqlx.ExtContext
	TxBeginner
	PingContext(ctx context.Context) error
	Close() error
}

// TxBeginner starts sqlx transactions
type TxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

var _ DB = (*sqlx.DB)(nil)

// NewConnection creates a new database connection
func NewConnection(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sqlx.Connect("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxLifetime / 2)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// RunInTx runs fn inside one transaction. Any error from fn rolls the whole unit back.
func RunInTx(ctx context.Context, db TxBeginner, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Postgres error codes inspected by callers
const (
	pqUniqueViolation     = "23505"
	pqExclusionViolation  = "23P01"
	pqForeignKeyViolation = "23503"
)

// IsConflict reports whether err is a unique or exclusion violation on the given constraint.
// An empty constraint matches any.
func IsConflict(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != pqUniqueViolation && pqErr.Code != pqExclusionViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// referenceFields maps foreign key constraints to the request field that carried the key
var referenceFields = map[string]string{
	"bookings_tourist_id_fkey":             "touristId",
	"bookings_tour_id_fkey":                "tourId",
	"bookings_user_id_fkey":                "userId",
	"bookings_event_id_fkey":               "eventId",
	"assigned_guides_user_id_fkey":         "guideId",
	"assigned_vehicles_vehicle_id_fkey":    "vehicleId",
	"guide_responses_guide_id_fkey":        "guideId",
	"guide_responses_vehicle_id_fkey":      "vehicleId",
	"booking_status_history_acted_by_fkey": "userId",
}

// ReferenceField returns the request field behind a foreign key violation.
// ok is false when err is not a foreign key violation; field is empty for unknown constraints.
func ReferenceField(err error) (field string, ok bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pqForeignKeyViolation {
		return "", false
	}
	return referenceFields[pqErr.Constraint], true
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
