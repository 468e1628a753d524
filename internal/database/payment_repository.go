package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
)

const paymentColumns = `payment_id, booking_id, amount, payment_date, status, created_at, updated_at`

// PaymentRepository handles database operations for payments
type PaymentRepository struct {
	db sqlx.ExtContext
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db sqlx.ExtContext) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *PaymentRepository) WithTx(tx *sqlx.Tx) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

// Create inserts a payment row
func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (booking_id, amount, payment_date, status)
		VALUES ($1, $2, $3, $4)
		RETURNING payment_id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, p.BookingID, p.Amount, p.PaymentDate, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// ListByBooking returns all payments of a booking ordered by id
func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]models.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1 ORDER BY payment_id`, bookingID)
}

// ListByBookingForUpdate is ListByBooking with the payment rows locked
func (r *PaymentRepository) ListByBookingForUpdate(ctx context.Context, bookingID int64) ([]models.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1 ORDER BY payment_id FOR UPDATE`, bookingID)
}

func (r *PaymentRepository) list(ctx context.Context, query string, bookingID int64) ([]models.Payment, error) {
	payments := []models.Payment{}
	if err := sqlx.SelectContext(ctx, r.db, &payments, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// ApplyUpdate moves one payment from update.From to update.To.
// The row must still be in update.From, otherwise nothing is written and an error is returned.
func (r *PaymentRepository) ApplyUpdate(ctx context.Context, update models.PaymentUpdate) error {
	query := `
		UPDATE payments
		SET status = $1, updated_at = NOW()
		WHERE payment_id = $2 AND status = $3
	`
	result, err := r.db.ExecContext(ctx, query, update.To, update.PaymentID, update.From)
	if err != nil {
		return fmt.Errorf("failed to update payment %d: %w", update.PaymentID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update payment %d: %w", update.PaymentID, err)
	}
	if rows != 1 {
		return fmt.Errorf("payment %d is no longer %s", update.PaymentID, update.From)
	}
	return nil
}
