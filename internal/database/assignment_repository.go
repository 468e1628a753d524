package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
)

// Exclusion constraints backing the non-overlap rule
const (
	GuideOverlapConstraint   = "assigned_guides_no_overlap"
	VehicleOverlapConstraint = "assigned_vehicles_no_overlap"
)

// AssignmentRepository handles assigned_guides and assigned_vehicles
type AssignmentRepository struct {
	db sqlx.ExtContext
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(db sqlx.ExtContext) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *AssignmentRepository) WithTx(tx *sqlx.Tx) *AssignmentRepository {
	return &AssignmentRepository{db: tx}
}

// GuideHasOverlap reports whether the guide already holds a window intersecting [start, end]
func (r *AssignmentRepository) GuideHasOverlap(ctx context.Context, guideID int64, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM assigned_guides
			WHERE user_id = $1 AND NOT (end_date < $2 OR start_date > $3)
		)
	`
	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, query, guideID, start, end); err != nil {
		return false, fmt.Errorf("failed to check guide availability: %w", err)
	}
	return exists, nil
}

// VehicleHasOverlap reports whether the vehicle already holds a window intersecting [start, end]
func (r *AssignmentRepository) VehicleHasOverlap(ctx context.Context, vehicleID int64, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM assigned_vehicles
			WHERE vehicle_id = $1 AND NOT (end_date < $2 OR start_date > $3)
		)
	`
	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, query, vehicleID, start, end); err != nil {
		return false, fmt.Errorf("failed to check vehicle availability: %w", err)
	}
	return exists, nil
}

// InsertGuide records a guide assignment. The driver error stays wrapped so
// IsConflict can detect the exclusion violation.
func (r *AssignmentRepository) InsertGuide(ctx context.Context, a *models.AssignedGuide) error {
	query := `
		INSERT INTO assigned_guides (user_id, booking_id, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := r.db.QueryRowxContext(ctx, query, a.GuideID, a.BookingID, a.StartDate, a.EndDate).Scan(&a.ID); err != nil {
		return fmt.Errorf("failed to assign guide: %w", err)
	}
	return nil
}

// InsertVehicle records a vehicle assignment
func (r *AssignmentRepository) InsertVehicle(ctx context.Context, a *models.AssignedVehicle) error {
	query := `
		INSERT INTO assigned_vehicles (vehicle_id, booking_id, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := r.db.QueryRowxContext(ctx, query, a.VehicleID, a.BookingID, a.StartDate, a.EndDate).Scan(&a.ID); err != nil {
		return fmt.Errorf("failed to assign vehicle: %w", err)
	}
	return nil
}

// ReleaseBooking deletes the guide and vehicle windows held by a booking and
// returns how many rows were removed
func (r *AssignmentRepository) ReleaseBooking(ctx context.Context, bookingID int64) (int64, error) {
	var released int64
	for _, query := range []string{
		`DELETE FROM assigned_guides WHERE booking_id = $1`,
		`DELETE FROM assigned_vehicles WHERE booking_id = $1`,
	} {
		result, err := r.db.ExecContext(ctx, query, bookingID)
		if err != nil {
			return released, fmt.Errorf("failed to release booking assignments: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return released, fmt.Errorf("failed to release booking assignments: %w", err)
		}
		released += n
	}
	return released, nil
}

// ListGuideAssignments returns a guide's committed windows, earliest first
func (r *AssignmentRepository) ListGuideAssignments(ctx context.Context, guideID int64) ([]models.AssignedGuide, error) {
	query := `
		SELECT id, user_id, booking_id, start_date, end_date
		FROM assigned_guides
		WHERE user_id = $1
		ORDER BY start_date, id
	`
	assignments := []models.AssignedGuide{}
	if err := sqlx.SelectContext(ctx, r.db, &assignments, query, guideID); err != nil {
		return nil, fmt.Errorf("failed to list guide assignments: %w", err)
	}
	return assignments, nil
}
