package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
)

const userColumns = `user_id, first_name, last_name, email, contact_number, role, status, password_hash, created_at`

// UserRepository handles database operations for staff users (admins and guides)
type UserRepository struct {
	db sqlx.ExtContext
}

// NewUserRepository creates a new user repository
func NewUserRepository(db sqlx.ExtContext) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *UserRepository) WithTx(tx *sqlx.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	if err := sqlx.GetContext(ctx, r.db, &u, query, id); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	if err := sqlx.GetContext(ctx, r.db, &u, query, email); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// LockActiveGuide locks an active guide's row so concurrent assignments of the same guide serialise
func (r *UserRepository) LockActiveGuide(ctx context.Context, guideID int64) (*models.User, error) {
	var u models.User
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE user_id = $1 AND role = $2 AND status = $3
		FOR UPDATE
	`
	if err := sqlx.GetContext(ctx, r.db, &u, query, guideID, models.RoleGuide, models.UserStatusActive); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// ListAvailableGuides returns active guides with no assignment overlapping [start, end]
func (r *UserRepository) ListAvailableGuides(ctx context.Context, start, end time.Time) ([]models.GuideSummary, error) {
	query := `
		SELECT u.user_id, u.first_name, u.last_name, u.email
		FROM users u
		WHERE u.role = $1 AND u.status = $2
		  AND NOT EXISTS (
			SELECT 1 FROM assigned_guides ag
			WHERE ag.user_id = u.user_id
			  AND NOT (ag.end_date < $3 OR ag.start_date > $4)
		  )
		ORDER BY u.user_id
	`
	guides := []models.GuideSummary{}
	err := sqlx.SelectContext(ctx, r.db, &guides, query, models.RoleGuide, models.UserStatusActive, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list available guides: %w", err)
	}
	return guides, nil
}

// UpdatePassword replaces a user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE user_id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
