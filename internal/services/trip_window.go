package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shenal-anthony/TMS-sub000/internal/models"
)

// WindowPolicy decides what happens when no package duration can be found
type WindowPolicy int

const (
	// WindowFallback uses a fixed number of days, for browsing candidates
	WindowFallback WindowPolicy = iota
	// WindowStrict fails with ErrMissingPackageDuration, for committing assignments
	WindowStrict
)

// TripWindow is the inclusive date span a guide or vehicle is committed for
type TripWindow struct {
	Start     time.Time
	End       time.Time
	PackageID *int64
	Fallback  bool
}

// StartDate returns the window start in the wire layout
func (w TripWindow) StartDate() string { return w.Start.Format(models.DateLayout) }

// EndDate returns the window end in the wire layout
func (w TripWindow) EndDate() string { return w.End.Format(models.DateLayout) }

// PackageFinder resolves the packages linked to a tour
type PackageFinder interface {
	GetTourLinks(ctx context.Context, tourID int64) (*models.TourLinks, error)
	FindPackagesByLinks(ctx context.Context, destinationIDs, accommodationIDs []int64) ([]models.Package, error)
}

// TripWindowResolver computes trip windows for the matcher and the committer alike
type TripWindowResolver struct {
	fallbackDays int
}

// NewTripWindowResolver creates a resolver with the fallback span used under WindowFallback
func NewTripWindowResolver(fallbackDays int) *TripWindowResolver {
	return &TripWindowResolver{fallbackDays: fallbackDays}
}

// Resolve returns [check-in, check-in + duration] using the booking tour's representative package
func (r *TripWindowResolver) Resolve(ctx context.Context, finder PackageFinder, booking *models.Booking, policy WindowPolicy) (*TripWindow, error) {
	start := models.TruncateToDate(booking.CheckInDate)

	pkg, err := r.representativePackage(ctx, finder, booking)
	if err != nil {
		return nil, err
	}

	if pkg.HasDuration() {
		return &TripWindow{
			Start:     start,
			End:       start.AddDate(0, 0, *pkg.Duration),
			PackageID: &pkg.ID,
		}, nil
	}

	if policy == WindowStrict {
		return nil, fmt.Errorf("%w: booking %d", ErrMissingPackageDuration, booking.ID)
	}

	window := &TripWindow{
		Start:    start,
		End:      start.AddDate(0, 0, r.fallbackDays),
		Fallback: true,
	}
	if pkg != nil {
		window.PackageID = &pkg.ID
	}
	return window, nil
}

func (r *TripWindowResolver) representativePackage(ctx context.Context, finder PackageFinder, booking *models.Booking) (*models.Package, error) {
	if booking.TourID == nil {
		return nil, nil
	}

	links, err := finder.GetTourLinks(ctx, *booking.TourID)
	if err != nil {
		return nil, err
	}

	packages, err := finder.FindPackagesByLinks(ctx, links.DestinationIDs, links.AccommodationIDs)
	if err != nil {
		return nil, err
	}

	return SelectRepresentativePackage(packages), nil
}

// SelectRepresentativePackage picks the cheapest package, lowest id on equal price.
// Returns nil for an empty list.
func SelectRepresentativePackage(packages []models.Package) *models.Package {
	var best *models.Package
	for i := range packages {
		p := &packages[i]
		if best == nil || p.Price < best.Price || (p.Price == best.Price && p.ID < best.ID) {
			best = p
		}
	}
	return best
}
