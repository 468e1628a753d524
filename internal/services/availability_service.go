package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shenal-anthony/TMS-sub000/internal/database"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
	"github.com/sirupsen/logrus"
)

// AvailabilityService lists pending bookings together with the guides and vehicles free for them
type AvailabilityService struct {
	bookings *database.BookingRepository
	catalog  *database.CatalogRepository
	users    *database.UserRepository
	vehicles *database.VehicleRepository
	windows  *TripWindowResolver
	logger   *logrus.Logger
	now      func() time.Time
}

// NewAvailabilityService creates a new AvailabilityService
func NewAvailabilityService(db database.DB, windows *TripWindowResolver, logger *logrus.Logger) *AvailabilityService {
	return &AvailabilityService{
		bookings: database.NewBookingRepository(db),
		catalog:  database.NewCatalogRepository(db),
		users:    database.NewUserRepository(db),
		vehicles: database.NewVehicleRepository(db),
		windows:  windows,
		logger:   logger,
		now:      time.Now,
	}
}

// PendingWithGuides returns every pending booking with check-in between startDate and endDate
// (inclusive) and the guide x vehicle combinations an administrator can pick from.
// An empty bound defaults to today and today + 30 days.
func (s *AvailabilityService) PendingWithGuides(ctx context.Context, startDate, endDate string) ([]models.PendingBookingCandidates, error) {
	today := models.TruncateToDate(s.now())
	if startDate == "" {
		startDate = today.Format(models.DateLayout)
	}
	if endDate == "" {
		endDate = today.AddDate(0, 0, 30).Format(models.DateLayout)
	}

	start, err := models.ParseDate(startDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	end, err := models.ParseDate(endDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	bookings, err := s.bookings.ListPendingInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	results := make([]models.PendingBookingCandidates, 0, len(bookings))
	for i := range bookings {
		candidates, err := s.candidatesFor(ctx, &bookings[i])
		if err != nil {
			return nil, err
		}
		results = append(results, *candidates)
	}

	s.logger.WithFields(logrus.Fields{
		"start_date": startDate,
		"end_date":   endDate,
		"bookings":   len(results),
	}).Debug("Pending bookings matched")

	return results, nil
}

func (s *AvailabilityService) candidatesFor(ctx context.Context, booking *models.Booking) (*models.PendingBookingCandidates, error) {
	window, err := s.windows.Resolve(ctx, s.catalog, booking, WindowFallback)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve trip window for booking %d: %w", booking.ID, err)
	}

	guides, err := s.users.ListAvailableGuides(ctx, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	vehicles, err := s.vehicles.ListAvailable(ctx, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	return &models.PendingBookingCandidates{
		Booking:        *booking,
		StartDate:      window.StartDate(),
		EndDate:        window.EndDate(),
		PackageID:      window.PackageID,
		FallbackWindow: window.Fallback,
		Guides:         guides,
		Vehicles:       vehicles,
		Combinations:   BuildCombinations(guides, vehicles),
	}, nil
}

// BuildCombinations cross-joins guides and vehicles. An empty side is replaced by a single
// placeholder so the result is never empty.
func BuildCombinations(guides []models.GuideSummary, vehicles []models.VehicleSummary) []models.Combination {
	type guideSlot struct {
		id   *int64
		name string
	}
	type vehicleSlot struct {
		id    *int64
		label string
	}

	guideSlots := []guideSlot{{name: models.NoGuideLabel}}
	if len(guides) > 0 {
		guideSlots = guideSlots[:0]
		for i := range guides {
			g := guides[i]
			guideSlots = append(guideSlots, guideSlot{id: &g.ID, name: guideName(g)})
		}
	}

	vehicleSlots := []vehicleSlot{{label: models.NoVehicleLabel}}
	if len(vehicles) > 0 {
		vehicleSlots = vehicleSlots[:0]
		for i := range vehicles {
			v := vehicles[i]
			vehicleSlots = append(vehicleSlots, vehicleSlot{id: &v.ID, label: vehicleLabel(v)})
		}
	}

	combinations := make([]models.Combination, 0, len(guideSlots)*len(vehicleSlots))
	for _, g := range guideSlots {
		for _, v := range vehicleSlots {
			combinations = append(combinations, models.Combination{
				GuideID:      g.id,
				GuideName:    g.name,
				VehicleID:    v.id,
				VehicleLabel: v.label,
			})
		}
	}
	return combinations
}

func guideName(g models.GuideSummary) string {
	if g.LastName == "" {
		return g.FirstName
	}
	return g.FirstName + " " + g.LastName
}

func vehicleLabel(v models.VehicleSummary) string {
	if v.VehicleType == "" {
		return v.LicensePlate
	}
	return fmt.Sprintf("%s (%s)", v.VehicleType, v.LicensePlate)
}
