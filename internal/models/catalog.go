package models

import "time"

// Package is a sellable trip offering
type Package struct {
	ID              int64   `json:"packageId" db:"package_id"`
	Name            string  `json:"packageName" db:"package_name"`
	Price           float64 `json:"price" db:"price"`
	Duration        *int    `json:"duration,omitempty" db:"duration"` // days
	DestinationID   *int64  `json:"destinationId,omitempty" db:"destination_id"`
	AccommodationID *int64  `json:"accommodationId,omitempty" db:"accommodation_id"`
	Status          string  `json:"status" db:"status"`
}

// PackageStatusActive marks packages that can be booked
const PackageStatusActive = "Active"

// HasDuration reports whether the package carries a usable day count
func (p *Package) HasDuration() bool {
	return p != nil && p.Duration != nil && *p.Duration > 0
}

// TourLinks holds the destination and accommodation ids a tour is associated with
type TourLinks struct {
	TourID           int64
	DestinationIDs   []int64
	AccommodationIDs []int64
}

// Vehicle is a transport resource that can be assigned to a trip
type Vehicle struct {
	ID             int64      `json:"vehicleId" db:"vehicle_id"`
	VehicleType    string     `json:"vehicleType" db:"vehicle_type"`
	LicensePlate   string     `json:"licensePlate" db:"license_plate"`
	Capacity       int        `json:"capacity" db:"capacity"`
	Status         string     `json:"status" db:"status"`
	SuspendedFrom  *time.Time `json:"suspendedFrom,omitempty" db:"suspended_from"`
	SuspendedUntil *time.Time `json:"suspendedUntil,omitempty" db:"suspended_until"`
}

// VehicleStatusAvailable marks vehicles in service
const VehicleStatusAvailable = "Available"

// CheckAvailabilityRequest starts the checkout flow for a package
type CheckAvailabilityRequest struct {
	StartDate string `json:"startDate" binding:"required"`
}

// VerifyTokenRequest verifies a booking token and optionally amends headcount
type VerifyTokenRequest struct {
	Token      string `json:"token,omitempty"`
	BookingKey string `json:"bookingKey,omitempty"`
	Headcount  *int   `json:"headcount,omitempty" binding:"omitempty,min=1"`
}
