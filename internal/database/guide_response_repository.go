package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
)

// GuideResponseRepository tracks assignment offers sent to guides
type GuideResponseRepository struct {
	db sqlx.ExtContext
}

// NewGuideResponseRepository creates a new GuideResponseRepository
func NewGuideResponseRepository(db sqlx.ExtContext) *GuideResponseRepository {
	return &GuideResponseRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *GuideResponseRepository) WithTx(tx *sqlx.Tx) *GuideResponseRepository {
	return &GuideResponseRepository{db: tx}
}

// Upsert creates the offer or, when one exists for the same guide and booking,
// refreshes sent_at and the proposed vehicle. There is never more than one row per pair.
func (r *GuideResponseRepository) Upsert(ctx context.Context, resp *models.GuideResponse) error {
	query := `
		INSERT INTO guide_responses (guide_id, booking_id, vehicle_id, status, sent_at, updated_at)
		VALUES ($1, $2, $3, FALSE, NOW(), NOW())
		ON CONFLICT (guide_id, booking_id)
		DO UPDATE SET sent_at = NOW(), updated_at = NOW(), vehicle_id = EXCLUDED.vehicle_id
		RETURNING status, sent_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, resp.GuideID, resp.BookingID, resp.VehicleID).
		Scan(&resp.Status, &resp.SentAt, &resp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert guide response: %w", err)
	}
	return nil
}

// Get retrieves the offer for a guide and booking
func (r *GuideResponseRepository) Get(ctx context.Context, guideID, bookingID int64) (*models.GuideResponse, error) {
	var resp models.GuideResponse
	query := `
		SELECT guide_id, booking_id, vehicle_id, status, sent_at, updated_at
		FROM guide_responses
		WHERE guide_id = $1 AND booking_id = $2
	`
	if err := sqlx.GetContext(ctx, r.db, &resp, query, guideID, bookingID); err != nil {
		return nil, notFound(err)
	}
	return &resp, nil
}

// Delete removes the offer for a guide and booking
func (r *GuideResponseRepository) Delete(ctx context.Context, guideID, bookingID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM guide_responses WHERE guide_id = $1 AND booking_id = $2`, guideID, bookingID)
	if err != nil {
		return fmt.Errorf("failed to delete guide response: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete guide response: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAccepted flags the guide's offer as accepted, creating it when the admin assigned directly
func (r *GuideResponseRepository) MarkAccepted(ctx context.Context, guideID, bookingID int64, vehicleID *int64) error {
	query := `
		INSERT INTO guide_responses (guide_id, booking_id, vehicle_id, status, sent_at, updated_at)
		VALUES ($1, $2, $3, TRUE, NOW(), NOW())
		ON CONFLICT (guide_id, booking_id)
		DO UPDATE SET status = TRUE, vehicle_id = EXCLUDED.vehicle_id, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, guideID, bookingID, vehicleID); err != nil {
		return fmt.Errorf("failed to mark guide response accepted: %w", err)
	}
	return nil
}

// DeleteOthers drops every offer for the booking except the given guide's
func (r *GuideResponseRepository) DeleteOthers(ctx context.Context, bookingID, keepGuideID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM guide_responses WHERE booking_id = $1 AND guide_id <> $2`, bookingID, keepGuideID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete competing guide responses: %w", err)
	}
	return result.RowsAffected()
}

// ListPendingForGuide returns the guide's unanswered offers for bookings that are still pending
func (r *GuideResponseRepository) ListPendingForGuide(ctx context.Context, guideID int64) ([]models.GuideOffer, error) {
	query := `
		SELECT gr.guide_id, gr.booking_id, gr.vehicle_id, gr.status, gr.sent_at, gr.updated_at,
		       b.check_in_date, b.headcount, b.tour_id
		FROM guide_responses gr
		JOIN bookings b ON b.booking_id = gr.booking_id
		WHERE gr.guide_id = $1 AND gr.status = FALSE AND b.status = $2
		ORDER BY gr.sent_at DESC
	`
	offers := []models.GuideOffer{}
	if err := sqlx.SelectContext(ctx, r.db, &offers, query, guideID, models.BookingStatusPending); err != nil {
		return nil, fmt.Errorf("failed to list guide offers: %w", err)
	}
	return offers, nil
}

// DeleteStale removes unaccepted offers sent before cutoff
func (r *GuideResponseRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM guide_responses WHERE status = FALSE AND sent_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale guide responses: %w", err)
	}
	return result.RowsAffected()
}
