package models

import "time"

// PaymentStatus represents the status of a single payment row
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusHalfPaid  PaymentStatus = "half_paid"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRefunded  PaymentStatus = "refunded"  // money received, booking cancelled
	PaymentStatusCancelled PaymentStatus = "cancelled" // money never collected, booking cancelled
)

// PaymentPlan is chosen by the tourist at checkout
type PaymentPlan string

const (
	PaymentPlanFull PaymentPlan = "full"
	PaymentPlanHalf PaymentPlan = "half"
)

// Payment represents one payment row attached to a booking
type Payment struct {
	ID          int64         `json:"paymentId" db:"payment_id"`
	BookingID   int64         `json:"bookingId" db:"booking_id"`
	Amount      float64       `json:"amount" db:"amount"`
	PaymentDate time.Time     `json:"paymentDate" db:"payment_date"`
	Status      PaymentStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" db:"updated_at"`
}

// PaymentUpdate is a planned status change produced by reconciliation
type PaymentUpdate struct {
	PaymentID int64
	From      PaymentStatus
	To        PaymentStatus
}
