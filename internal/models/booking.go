package models

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates (check-in, trip windows)
const DateLayout = "2006-01-02"

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusFinalized BookingStatus = "finalized"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// bookingTransitions is the booking state machine. No transition skips a state.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusFinalized, BookingStatusCancelled},
	BookingStatusFinalized: {},
	BookingStatusCancelled: {},
}

// IsValid returns true if the status is a recognized booking status
func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo returns true if moving from s to target is allowed
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ClosesStay reports whether entering this status stamps the check-out date
func (s BookingStatus) ClosesStay() bool {
	return s == BookingStatusFinalized || s == BookingStatusCancelled
}

// ParseBookingStatus converts a string to a BookingStatus
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// Booking represents a tourist's reservation for a tour over a date range
type Booking struct {
	ID           int64         `json:"bookingId" db:"booking_id"`
	Headcount    int           `json:"headcount" db:"headcount"`
	CheckInDate  time.Time     `json:"checkInDate" db:"check_in_date"`
	CheckOutDate time.Time     `json:"checkOutDate" db:"check_out_date"`
	Status       BookingStatus `json:"status" db:"status"`
	TouristID    int64         `json:"touristId" db:"tourist_id"`
	TourID       *int64        `json:"tourId,omitempty" db:"tour_id"`
	UserID       *int64        `json:"userId,omitempty" db:"user_id"` // assigned guide
	EventID      *int64        `json:"eventId,omitempty" db:"event_id"`
	Version      int           `json:"version" db:"version"`
	CreatedAt    time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time     `json:"updatedAt" db:"updated_at"`
}

// BookingWithPayments is the detail view of a booking
type BookingWithPayments struct {
	Booking
	Payments []Payment `json:"payments"`
}

// CreateBookingRequest represents the request to create a booking
type CreateBookingRequest struct {
	Headcount    int     `json:"headcount" binding:"required,min=1"`
	BookingDate  string  `json:"bookingDate" binding:"required"`
	CheckOutDate *string `json:"checkOutDate,omitempty"`
	TouristID    *int64  `json:"touristId"`
	TourID       *int64  `json:"tourId,omitempty"`
	UserID       *int64  `json:"userId,omitempty"`
	EventID      *int64  `json:"eventId,omitempty"`
	Status       *string `json:"status,omitempty"`
}

// UpdateBookingStatusRequest is the body of a lifecycle transition or cancellation
type UpdateBookingStatusRequest struct {
	Status  string `json:"status"`
	UserID  *int64 `json:"userId"`
	Version *int   `json:"version,omitempty"` // optional optimistic check
}

// BookingFilter narrows booking listings
type BookingFilter struct {
	Status    *BookingStatus
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// ParseDate parses a calendar date in DateLayout
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, errors.New("dates must use the YYYY-MM-DD format")
	}
	return t, nil
}

// TruncateToDate drops the time-of-day component in UTC
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
