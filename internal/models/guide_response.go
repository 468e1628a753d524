package models

import "time"

// GuideResponse tracks an outstanding assignment offer sent to a guide
type GuideResponse struct {
	GuideID   int64     `json:"guideId" db:"guide_id"`
	BookingID int64     `json:"bookingId" db:"booking_id"`
	VehicleID *int64    `json:"vehicleId,omitempty" db:"vehicle_id"`
	Status    bool      `json:"status" db:"status"` // true once accepted
	SentAt    time.Time `json:"sentAt" db:"sent_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// GuideOffer is a pending offer joined with the booking it refers to
type GuideOffer struct {
	GuideResponse
	CheckInDate time.Time `json:"checkInDate" db:"check_in_date"`
	Headcount   int       `json:"headcount" db:"headcount"`
	TourID      *int64    `json:"tourId,omitempty" db:"tour_id"`
}

// NotifyGuideRequest is the body of POST /api/guides/:bookingId/notify
type NotifyGuideRequest struct {
	GuideID   int64  `json:"guideId" binding:"required,min=1"`
	VehicleID *int64 `json:"vehicleId,omitempty"`
	Message   string `json:"message,omitempty"`
}

// GuideDecisionRequest is the body a guide sends to accept or reject an offer
type GuideDecisionRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}
