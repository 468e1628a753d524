package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shenal-anthony/TMS-sub000/internal/models"
	"github.com/shenal-anthony/TMS-sub000/internal/utils"
	"github.com/sirupsen/logrus"
)

// AuditStore persists audit entries
type AuditStore interface {
	Insert(ctx context.Context, entry *models.AuditLog) error
}

// AuditService records who changed bookings and assignments, and from where
type AuditService struct {
	store  AuditStore
	logger *logrus.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(store AuditStore, logger *logrus.Logger) *AuditService {
	return &AuditService{store: store, logger: logger}
}

// RequestInfo identifies the client behind an audited action
type RequestInfo struct {
	IPAddress string
	UserAgent string
}

// AuditEvent represents an event to be logged
type AuditEvent struct {
	UserID     *int64 // nil for public checkout
	Action     string // e.g. "booking_transition", "guide_assigned", "staff_login"
	EntityType string
	EntityID   *int64
	Request    RequestInfo
	Details    map[string]interface{}
}

// SafeLog writes the event and only logs a failure; auditing never fails the request
func (s *AuditService) SafeLog(ctx context.Context, event AuditEvent) {
	if err := s.logEvent(ctx, event); err != nil {
		s.logger.WithError(err).WithField("action", event.Action).Error("Failed to write audit log")
	}
}

func (s *AuditService) logEvent(ctx context.Context, event AuditEvent) error {
	details := make(map[string]interface{}, len(event.Details)+1)
	for k, v := range event.Details {
		details[k] = v
	}
	details["device_info"] = utils.ParseUserAgent(event.Request.UserAgent)

	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	entry := &models.AuditLog{
		UserID:     event.UserID,
		Action:     event.Action,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		IPAddress:  event.Request.IPAddress,
		UserAgent:  event.Request.UserAgent,
		Details:    payload,
	}
	if err := s.store.Insert(ctx, entry); err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}
	return nil
}
