package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
)

// TouristRepository handles database operations for tourists
type TouristRepository struct {
	db sqlx.ExtContext
}

// NewTouristRepository creates a new TouristRepository
func NewTouristRepository(db sqlx.ExtContext) *TouristRepository {
	return &TouristRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *TouristRepository) WithTx(tx *sqlx.Tx) *TouristRepository {
	return &TouristRepository{db: tx}
}

// Create inserts a tourist
func (r *TouristRepository) Create(ctx context.Context, t *models.Tourist) error {
	query := `
		INSERT INTO tourists (first_name, last_name, email, contact_number, country)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING tourist_id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, t.FirstName, t.LastName, t.Email, t.ContactNumber, t.Country).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tourist: %w", err)
	}
	return nil
}

// Exists reports whether a tourist with the id exists
func (r *TouristRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists,
		`SELECT EXISTS (SELECT 1 FROM tourists WHERE tourist_id = $1)`, id); err != nil {
		return false, fmt.Errorf("failed to check tourist: %w", err)
	}
	return exists, nil
}
