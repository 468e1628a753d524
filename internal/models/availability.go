package models

// Placeholder labels used when no guide or vehicle is free for a trip window
const (
	NoGuideLabel   = "No Guide"
	NoVehicleLabel = "No Vehicle"
)

// GuideSummary is a guide eligible for a trip window
type GuideSummary struct {
	ID        int64  `json:"guideId" db:"user_id"`
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName" db:"last_name"`
	Email     string `json:"email" db:"email"`
}

// VehicleSummary is a vehicle eligible for a trip window
type VehicleSummary struct {
	ID           int64  `json:"vehicleId" db:"vehicle_id"`
	VehicleType  string `json:"vehicleType" db:"vehicle_type"`
	LicensePlate string `json:"licensePlate" db:"license_plate"`
	Capacity     int    `json:"capacity" db:"capacity"`
}

// Combination is one guide x vehicle pairing offered to the administrator.
// A nil id means the placeholder label was used.
type Combination struct {
	GuideID      *int64 `json:"guideId"`
	GuideName    string `json:"guideName"`
	VehicleID    *int64 `json:"vehicleId"`
	VehicleLabel string `json:"vehicleLabel"`
}

// PendingBookingCandidates is the matcher result for one pending booking
type PendingBookingCandidates struct {
	Booking        Booking          `json:"booking"`
	StartDate      string           `json:"startDate"`
	EndDate        string           `json:"endDate"`
	PackageID      *int64           `json:"packageId,omitempty"`
	FallbackWindow bool             `json:"fallbackWindow"`
	Guides         []GuideSummary   `json:"guides"`
	Vehicles       []VehicleSummary `json:"vehicles"`
	Combinations   []Combination    `json:"combinations"`
}
