package services

import "errors"

// Booking lifecycle
var (
	ErrBookingNotFound        = errors.New("booking not found")
	ErrTouristRequired        = errors.New("touristId is required")
	ErrTouristNotFound        = errors.New("tourist not found")
	ErrInvalidHeadcount       = errors.New("headcount must be at least 1")
	ErrInvalidStatus          = errors.New("invalid booking status")
	ErrInvalidTransition      = errors.New("booking status transition is not allowed")
	ErrActingUserRequired     = errors.New("userId is required")
	ErrCancelStatusRequired   = errors.New("status must be 'cancelled'")
	ErrInvalidDate            = errors.New("dates must use the YYYY-MM-DD format")
	ErrInvalidDateRange       = errors.New("check-out date must not be before check-in date")
	ErrConcurrentModification = errors.New("booking was modified by another request")
	ErrReferenceNotFound      = errors.New("a referenced record does not exist")
)

// Payments
var (
	ErrInconsistentPaymentState = errors.New("payment records are in an unexpected state")
	ErrUnknownPaymentPlan       = errors.New("payment plan must be 'full' or 'half'")
)

// Packages and booking tokens
var (
	ErrPackageNotFound   = errors.New("package not found")
	ErrPackageInactive   = errors.New("package is not available for booking")
	ErrStartDateInPast   = errors.New("start date is in the past")
	ErrStaleBookingToken = errors.New("booking token no longer matches the package")
	ErrHeadcountRequired = errors.New("booking token does not carry a headcount")
)

// Assignment and guide offers
var (
	ErrMissingPackageDuration = errors.New("no package duration could be resolved for the booking")
	ErrBookingNotPending      = errors.New("booking is not pending")
	ErrGuideNotFound          = errors.New("guide not found or not active")
	ErrGuideUnavailable       = errors.New("guide is already assigned during the trip window")
	ErrVehicleNotFound        = errors.New("vehicle not found or not in service")
	ErrVehicleUnavailable     = errors.New("vehicle is already assigned during the trip window")
	ErrOfferNotFound          = errors.New("no pending request for this guide and booking")
	ErrDecisionNotDelivered   = errors.New("guide decision could not be delivered, please retry")
)

// Staff authentication
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
)
