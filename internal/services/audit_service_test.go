package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shenal-anthony/TMS-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAuditStore struct {
	entries []*models.AuditLog
	err     error
}

func (s *recordingAuditStore) Insert(ctx context.Context, entry *models.AuditLog) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func TestAuditServiceSafeLog(t *testing.T) {
	t.Run("Writes entry with device info", func(t *testing.T) {
		store := &recordingAuditStore{}
		svc := NewAuditService(store, testLogger())

		actor := int64(2)
		bookingID := int64(12)
		svc.SafeLog(context.Background(), AuditEvent{
			UserID:     &actor,
			Action:     "booking_transition",
			EntityType: "booking",
			EntityID:   &bookingID,
			Request: RequestInfo{
				IPAddress: "203.0.113.7",
				UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			},
			Details: map[string]interface{}{"to": "confirmed"},
		})

		require.Len(t, store.entries, 1)
		entry := store.entries[0]
		assert.Equal(t, "booking_transition", entry.Action)
		assert.Equal(t, int64(12), *entry.EntityID)
		assert.Equal(t, "203.0.113.7", entry.IPAddress)

		var details map[string]interface{}
		require.NoError(t, json.Unmarshal(entry.Details, &details))
		assert.Equal(t, "confirmed", details["to"])
		assert.Contains(t, details, "device_info")
	})

	t.Run("Store failure is swallowed", func(t *testing.T) {
		svc := NewAuditService(&recordingAuditStore{err: errors.New("db down")}, testLogger())
		assert.NotPanics(t, func() {
			svc.SafeLog(context.Background(), AuditEvent{Action: "staff_login"})
		})
	})
}
