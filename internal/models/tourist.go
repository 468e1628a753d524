package models

import "time"

// Tourist is the customer a booking belongs to
type Tourist struct {
	ID            int64     `json:"touristId" db:"tourist_id"`
	FirstName     string    `json:"firstName" db:"first_name"`
	LastName      string    `json:"lastName" db:"last_name"`
	Email         string    `json:"email" db:"email"`
	ContactNumber string    `json:"contactNumber" db:"contact_number"`
	Country       string    `json:"country" db:"country"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// CheckoutTourist is the registration part of a checkout request
type CheckoutTourist struct {
	FirstName     string `json:"firstName" binding:"required"`
	LastName      string `json:"lastName" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	ContactNumber string `json:"contactNumber" binding:"required,contact"`
	Country       string `json:"country" binding:"required"`
}

// CheckoutRequest completes the multi-step checkout: registration + payment + booking.
// Price and duration are never accepted from the client; they come from the booking token.
type CheckoutRequest struct {
	Token       string          `json:"token,omitempty"`
	BookingKey  string          `json:"bookingKey,omitempty"`
	Tourist     CheckoutTourist `json:"tourist" binding:"required"`
	TourID      *int64          `json:"tourId,omitempty"`
	EventID     *int64          `json:"eventId,omitempty"`
	PaymentPlan PaymentPlan     `json:"paymentPlan" binding:"required,oneof=full half"`
}

// CheckoutResponse is returned after a successful checkout
type CheckoutResponse struct {
	Booking  *Booking  `json:"booking"`
	Tourist  *Tourist  `json:"tourist"`
	Payments []Payment `json:"payments"`
	Total    float64   `json:"total"`
}
