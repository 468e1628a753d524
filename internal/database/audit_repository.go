package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
)

// AuditRepository writes audit_logs rows
type AuditRepository struct {
	db sqlx.ExtContext
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db sqlx.ExtContext) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert stores one audit entry
func (r *AuditRepository) Insert(ctx context.Context, entry *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, ip_address, user_agent, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		entry.UserID, entry.Action, entry.EntityType, entry.EntityID,
		entry.IPAddress, entry.UserAgent, entry.Details,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}
