package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
)

// ErrVersionConflict is returned when a booking changed since it was read
var ErrVersionConflict = errors.New("booking was modified concurrently")

const bookingColumns = `booking_id, headcount, check_in_date, check_out_date, status,
	tourist_id, tour_id, user_id, event_id, version, created_at, updated_at`

// BookingRepository handles database operations for bookings and their status history
type BookingRepository struct {
	db sqlx.ExtContext
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db sqlx.ExtContext) *BookingRepository {
	return &BookingRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *BookingRepository) WithTx(tx *sqlx.Tx) *BookingRepository {
	return &BookingRepository{db: tx}
}

// Create inserts a booking and fills its generated fields
func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	query := `
		INSERT INTO bookings (
			headcount, check_in_date, check_out_date, status,
			tourist_id, tour_id, user_id, event_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING booking_id, version, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		b.Headcount, b.CheckInDate, b.CheckOutDate, b.Status,
		b.TouristID, b.TourID, b.UserID, b.EventID,
	).Scan(&b.ID, &b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by id
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	var b models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = $1`
	if err := sqlx.GetContext(ctx, r.db, &b, query, id); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// GetForUpdate retrieves a booking and locks its row until the transaction ends
func (r *BookingRepository) GetForUpdate(ctx context.Context, id int64) (*models.Booking, error) {
	var b models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = $1 FOR UPDATE`
	if err := sqlx.GetContext(ctx, r.db, &b, query, id); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// List returns bookings matching the filter, newest check-in first
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		conditions = append(conditions, fmt.Sprintf("check_in_date >= $%d", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		conditions = append(conditions, fmt.Sprintf("check_in_date <= $%d", len(args)))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY check_in_date DESC, booking_id DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	bookings := []models.Booking{}
	if err := sqlx.SelectContext(ctx, r.db, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// ListPendingInRange returns pending bookings whose check-in falls in [start, end]
func (r *BookingRepository) ListPendingInRange(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = $1 AND check_in_date BETWEEN $2 AND $3
		ORDER BY check_in_date ASC, booking_id ASC
	`
	bookings := []models.Booking{}
	if err := sqlx.SelectContext(ctx, r.db, &bookings, query, models.BookingStatusPending, start, end); err != nil {
		return nil, fmt.Errorf("failed to list pending bookings: %w", err)
	}
	return bookings, nil
}

// UpdateStatus moves b to status if its version is unchanged. Entering a closing status
// stamps check_out_date with today. A non-nil assignedUserID replaces user_id.
// On success b is refreshed with the stored values.
func (r *BookingRepository) UpdateStatus(ctx context.Context, b *models.Booking, status models.BookingStatus, assignedUserID *int64) error {
	query := `
		UPDATE bookings
		SET status = $1,
			check_out_date = CASE WHEN $2 THEN CURRENT_DATE ELSE check_out_date END,
			user_id = COALESCE($3, user_id),
			version = version + 1,
			updated_at = NOW()
		WHERE booking_id = $4 AND version = $5
		RETURNING check_out_date, user_id, version, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		status, status.ClosesStay(), assignedUserID, b.ID, b.Version,
	).Scan(&b.CheckOutDate, &b.UserID, &b.Version, &b.UpdatedAt)
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return ErrVersionConflict
		}
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	b.Status = status
	return nil
}

// Delete hard-deletes a booking; dependent rows cascade
func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE booking_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertHistory records one status change
func (r *BookingRepository) InsertHistory(ctx context.Context, change *models.BookingStatusChange) error {
	query := `
		INSERT INTO booking_status_history (booking_id, from_status, to_status, acted_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		change.BookingID, change.FromStatus, change.ToStatus, change.ActedBy,
	).Scan(&change.ID, &change.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record booking status change: %w", err)
	}
	return nil
}

// ListHistory returns the status changes of a booking, oldest first
func (r *BookingRepository) ListHistory(ctx context.Context, bookingID int64) ([]models.BookingStatusChange, error) {
	query := `
		SELECT id, booking_id, from_status, to_status, acted_by, created_at
		FROM booking_status_history
		WHERE booking_id = $1
		ORDER BY created_at ASC, id ASC
	`
	changes := []models.BookingStatusChange{}
	if err := sqlx.SelectContext(ctx, r.db, &changes, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to list booking history: %w", err)
	}
	return changes, nil
}
