// Package realtime fans out guide request events to connected dashboards.
// Delivery is at-most-once: events published while nobody listens are lost.
package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType identifies what happened to a guide request
type EventType string

const (
	EventNewRequest      EventType = "new-request"
	EventRequestAccepted EventType = "request-accepted"
	EventRequestRejected EventType = "request-rejected"
	EventAssignFailed    EventType = "assignment-failed"
)

// Well-known channels
const (
	DecisionsChannel = "guide-decisions"
	AdminChannel     = "admins"
)

// GuideChannel returns the private channel of a guide
func GuideChannel(guideID int64) string {
	return fmt.Sprintf("guide:%d", guideID)
}

// Event is the payload delivered to subscribers
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	BookingID int64     `json:"bookingId"`
	GuideID   int64     `json:"guideId"`
	VehicleID *int64    `json:"vehicleId,omitempty"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event with a fresh id and the current time
func NewEvent(eventType EventType, bookingID, guideID int64) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		BookingID: bookingID,
		GuideID:   guideID,
		Timestamp: time.Now().UTC(),
	}
}

// Broker publishes events to named channels
type Broker interface {
	Publish(ctx context.Context, channel string, event Event) error
	// Subscribe delivers events published on channel until ctx is done or the subscription is closed
	Subscribe(ctx context.Context, channel string) (*Subscription, error)
	Close() error
}

// Subscription is a live feed of one channel
type Subscription struct {
	C       <-chan Event
	channel string
	cancel  func()
}

// Channel returns the subscribed channel name
func (s *Subscription) Channel() string { return s.channel }

// Close stops delivery and closes C
func (s *Subscription) Close() {
	s.cancel()
}
