package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shenal-anthony/TMS-sub000/internal/database"
	"github.com/shenal-anthony/TMS-sub000/internal/metrics"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
	"github.com/sirupsen/logrus"
)

// AssignmentService commits a guide, and optionally a vehicle, to a pending booking
type AssignmentService struct {
	db          database.DB
	bookings    *database.BookingRepository
	payments    *database.PaymentRepository
	catalog     *database.CatalogRepository
	users       *database.UserRepository
	vehicles    *database.VehicleRepository
	assignments *database.AssignmentRepository
	responses   *database.GuideResponseRepository
	windows     *TripWindowResolver
	logger      *logrus.Logger
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(db database.DB, windows *TripWindowResolver, logger *logrus.Logger) *AssignmentService {
	return &AssignmentService{
		db:          db,
		bookings:    database.NewBookingRepository(db),
		payments:    database.NewPaymentRepository(db),
		catalog:     database.NewCatalogRepository(db),
		users:       database.NewUserRepository(db),
		vehicles:    database.NewVehicleRepository(db),
		assignments: database.NewAssignmentRepository(db),
		responses:   database.NewGuideResponseRepository(db),
		windows:     windows,
		logger:      logger,
	}
}

// Assign confirms a pending booking by committing the guide (and vehicle) for the trip window.
// All writes happen in one transaction: the assignment rows, payment reconciliation,
// the booking status and the offer bookkeeping.
func (s *AssignmentService) Assign(ctx context.Context, bookingID, guideID int64, vehicleID *int64, actorID *int64) (*models.AssignmentResult, error) {
	var result *models.AssignmentResult

	err := database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		bookings := s.bookings.WithTx(tx)

		booking, err := bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("failed to load booking: %w", err)
		}
		if booking.Status != models.BookingStatusPending {
			return fmt.Errorf("%w: booking %d is %s", ErrBookingNotPending, booking.ID, booking.Status)
		}

		window, err := s.windows.Resolve(ctx, s.catalog.WithTx(tx), booking, WindowStrict)
		if err != nil {
			return err
		}

		if err := s.commitGuide(ctx, tx, booking.ID, guideID, window); err != nil {
			return err
		}
		if vehicleID != nil {
			if err := s.commitVehicle(ctx, tx, booking.ID, *vehicleID, window); err != nil {
				return err
			}
		}

		paymentRepo := s.payments.WithTx(tx)
		payments, err := paymentRepo.ListByBookingForUpdate(ctx, booking.ID)
		if err != nil {
			return err
		}
		updates, err := ReconcilePayments(payments, ReconcileAdvance)
		if err != nil {
			return err
		}
		for _, update := range updates {
			if err := paymentRepo.ApplyUpdate(ctx, update); err != nil {
				return err
			}
		}

		from := booking.Status
		if err := bookings.UpdateStatus(ctx, booking, models.BookingStatusConfirmed, &guideID); err != nil {
			if errors.Is(err, database.ErrVersionConflict) {
				return ErrConcurrentModification
			}
			return err
		}

		responses := s.responses.WithTx(tx)
		if err := responses.MarkAccepted(ctx, guideID, booking.ID, vehicleID); err != nil {
			return err
		}
		if _, err := responses.DeleteOthers(ctx, booking.ID, guideID); err != nil {
			return err
		}

		if err := bookings.InsertHistory(ctx, &models.BookingStatusChange{
			BookingID:  booking.ID,
			FromStatus: &from,
			ToStatus:   booking.Status,
			ActedBy:    actorID,
		}); err != nil {
			return err
		}

		result = &models.AssignmentResult{
			BookingID: booking.ID,
			GuideID:   guideID,
			VehicleID: vehicleID,
			StartDate: window.StartDate(),
			EndDate:   window.EndDate(),
			Status:    booking.Status,
		}
		return nil
	})

	fields := logrus.Fields{
		"booking_id": bookingID,
		"guide_id":   guideID,
	}
	if vehicleID != nil {
		fields["vehicle_id"] = *vehicleID
	}

	if err != nil {
		metrics.RecordAssignment(assignmentResult(err))
		s.logger.WithFields(fields).WithError(err).Warn("Assignment rolled back")
		return nil, err
	}

	metrics.RecordAssignment("ok")
	fields["start_date"] = result.StartDate
	fields["end_date"] = result.EndDate
	s.logger.WithFields(fields).Info("Guide assigned to booking")

	return result, nil
}

// GuideAssignments lists the trip windows a guide is committed to
func (s *AssignmentService) GuideAssignments(ctx context.Context, guideID int64) ([]models.AssignedGuide, error) {
	return s.assignments.ListGuideAssignments(ctx, guideID)
}

func (s *AssignmentService) commitGuide(ctx context.Context, tx *sqlx.Tx, bookingID, guideID int64, window *TripWindow) error {
	if _, err := s.users.WithTx(tx).LockActiveGuide(ctx, guideID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrGuideNotFound
		}
		return fmt.Errorf("failed to lock guide: %w", err)
	}

	assignments := s.assignments.WithTx(tx)
	overlap, err := assignments.GuideHasOverlap(ctx, guideID, window.Start, window.End)
	if err != nil {
		return err
	}
	if overlap {
		return fmt.Errorf("%w: guide %d between %s and %s", ErrGuideUnavailable, guideID, window.StartDate(), window.EndDate())
	}

	err = assignments.InsertGuide(ctx, &models.AssignedGuide{
		GuideID:   guideID,
		BookingID: bookingID,
		StartDate: window.Start,
		EndDate:   window.End,
	})
	if database.IsConflict(err, database.GuideOverlapConstraint) {
		return ErrGuideUnavailable
	}
	return err
}

func (s *AssignmentService) commitVehicle(ctx context.Context, tx *sqlx.Tx, bookingID, vehicleID int64, window *TripWindow) error {
	vehicle, err := s.vehicles.WithTx(tx).LockForUpdate(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrVehicleNotFound
		}
		return fmt.Errorf("failed to lock vehicle: %w", err)
	}
	if vehicle.Status != models.VehicleStatusAvailable {
		return ErrVehicleNotFound
	}
	if vehicle.SuspendedFrom != nil {
		until := window.End
		if vehicle.SuspendedUntil != nil {
			until = *vehicle.SuspendedUntil
		}
		if models.WindowsOverlap(*vehicle.SuspendedFrom, until, window.Start, window.End) {
			return fmt.Errorf("%w: vehicle %d is suspended", ErrVehicleUnavailable, vehicleID)
		}
	}

	assignments := s.assignments.WithTx(tx)
	overlap, err := assignments.VehicleHasOverlap(ctx, vehicleID, window.Start, window.End)
	if err != nil {
		return err
	}
	if overlap {
		return fmt.Errorf("%w: vehicle %d between %s and %s", ErrVehicleUnavailable, vehicleID, window.StartDate(), window.EndDate())
	}

	err = assignments.InsertVehicle(ctx, &models.AssignedVehicle{
		VehicleID: vehicleID,
		BookingID: bookingID,
		StartDate: window.Start,
		EndDate:   window.End,
	})
	if database.IsConflict(err, database.VehicleOverlapConstraint) {
		return ErrVehicleUnavailable
	}
	return err
}

func assignmentResult(err error) string {
	switch {
	case errors.Is(err, ErrGuideUnavailable), errors.Is(err, ErrVehicleUnavailable):
		return "conflict"
	case errors.Is(err, ErrBookingNotPending), errors.Is(err, ErrConcurrentModification):
		return "stale"
	default:
		return "error"
	}
}
