package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
)

const vehicleColumns = `vehicle_id, vehicle_type, license_plate, capacity, status, suspended_from, suspended_until`

// VehicleRepository handles database operations for vehicles
type VehicleRepository struct {
	db sqlx.ExtContext
}

// NewVehicleRepository creates a new VehicleRepository
func NewVehicleRepository(db sqlx.ExtContext) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *VehicleRepository) WithTx(tx *sqlx.Tx) *VehicleRepository {
	return &VehicleRepository{db: tx}
}

// GetByID retrieves a vehicle by id
func (r *VehicleRepository) GetByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	var v models.Vehicle
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE vehicle_id = $1`
	if err := sqlx.GetContext(ctx, r.db, &v, query, id); err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// LockForUpdate locks a vehicle row for the rest of the transaction
func (r *VehicleRepository) LockForUpdate(ctx context.Context, id int64) (*models.Vehicle, error) {
	var v models.Vehicle
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE vehicle_id = $1 FOR UPDATE`
	if err := sqlx.GetContext(ctx, r.db, &v, query, id); err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// ListAvailable returns in-service vehicles whose suspension window and assignments
// do not overlap [start, end]
func (r *VehicleRepository) ListAvailable(ctx context.Context, start, end time.Time) ([]models.VehicleSummary, error) {
	query := `
		SELECT v.vehicle_id, v.vehicle_type, v.license_plate, v.capacity
		FROM vehicles v
		WHERE v.status = $1
		  AND NOT (
			v.suspended_from IS NOT NULL
			AND NOT (COALESCE(v.suspended_until, 'infinity'::date) < $2 OR v.suspended_from > $3)
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM assigned_vehicles av
			WHERE av.vehicle_id = v.vehicle_id
			  AND NOT (av.end_date < $2 OR av.start_date > $3)
		  )
		ORDER BY v.vehicle_id
	`
	vehicles := []models.VehicleSummary{}
	if err := sqlx.SelectContext(ctx, r.db, &vehicles, query, models.VehicleStatusAvailable, start, end); err != nil {
		return nil, fmt.Errorf("failed to list available vehicles: %w", err)
	}
	return vehicles, nil
}
