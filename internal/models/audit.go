package models

import "time"

// BookingStatusChange is one row of booking_status_history
type BookingStatusChange struct {
	ID         int64          `json:"id" db:"id"`
	BookingID  int64          `json:"bookingId" db:"booking_id"`
	FromStatus *BookingStatus `json:"fromStatus,omitempty" db:"from_status"`
	ToStatus   BookingStatus  `json:"toStatus" db:"to_status"`
	ActedBy    *int64         `json:"actedBy,omitempty" db:"acted_by"`
	CreatedAt  time.Time      `json:"createdAt" db:"created_at"`
}

// AuditLog is one row of audit_logs
type AuditLog struct {
	ID         int64     `json:"id" db:"id"`
	UserID     *int64    `json:"userId,omitempty" db:"user_id"`
	Action     string    `json:"action" db:"action"`
	EntityType string    `json:"entityType" db:"entity_type"`
	EntityID   *int64    `json:"entityId,omitempty" db:"entity_id"`
	IPAddress  string    `json:"ipAddress" db:"ip_address"`
	UserAgent  string    `json:"userAgent" db:"user_agent"`
	Details    []byte    `json:"details" db:"details"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
