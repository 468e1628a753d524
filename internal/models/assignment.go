package models

import "time"

// AssignedGuide commits a guide to a booking's trip window
type AssignedGuide struct {
	ID        int64     `json:"id" db:"id"`
	GuideID   int64     `json:"guideId" db:"user_id"`
	BookingID int64     `json:"bookingId" db:"booking_id"`
	StartDate time.Time `json:"startDate" db:"start_date"`
	EndDate   time.Time `json:"endDate" db:"end_date"`
}

// AssignedVehicle commits a vehicle to a booking's trip window
type AssignedVehicle struct {
	ID        int64     `json:"id" db:"id"`
	VehicleID int64     `json:"vehicleId" db:"vehicle_id"`
	BookingID int64     `json:"bookingId" db:"booking_id"`
	StartDate time.Time `json:"startDate" db:"start_date"`
	EndDate   time.Time `json:"endDate" db:"end_date"`
}

// AssignRequest is the body of POST /api/guides/:bookingId/assign
type AssignRequest struct {
	GuideID   int64  `json:"guideId" binding:"required,min=1"`
	VehicleID *int64 `json:"vehicleId,omitempty"`
}

// AssignmentResult describes a committed assignment
type AssignmentResult struct {
	BookingID int64         `json:"bookingId"`
	GuideID   int64         `json:"guideId"`
	VehicleID *int64        `json:"vehicleId,omitempty"`
	StartDate string        `json:"startDate"`
	EndDate   string        `json:"endDate"`
	Status    BookingStatus `json:"status"`
}

// WindowsOverlap reports whether two inclusive date windows share at least one day.
// Matches the SQL predicate NOT (end < start OR start > end).
func WindowsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !(aEnd.Before(bStart) || aStart.After(bEnd))
}
