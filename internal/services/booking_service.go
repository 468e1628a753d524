package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shenal-anthony/TMS-sub000/internal/config"
	"github.com/shenal-anthony/TMS-sub000/internal/database"
	"github.com/shenal-anthony/TMS-sub000/internal/metrics"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
	"github.com/sirupsen/logrus"
)

// BookingService drives the booking lifecycle and keeps payment rows consistent with it
type BookingService struct {
	db          database.DB
	bookings    *database.BookingRepository
	payments    *database.PaymentRepository
	tourists    *database.TouristRepository
	assignments *database.AssignmentRepository
	tokens      *BookingTokenService
	cfg         config.BookingConfig
	logger      *logrus.Logger
	now         func() time.Time
}

// NewBookingService creates a new BookingService
func NewBookingService(db database.DB, tokens *BookingTokenService, cfg config.BookingConfig, logger *logrus.Logger) *BookingService {
	return &BookingService{
		db:          db,
		bookings:    database.NewBookingRepository(db),
		payments:    database.NewPaymentRepository(db),
		tourists:    database.NewTouristRepository(db),
		assignments: database.NewAssignmentRepository(db),
		tokens:      tokens,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// Create stores a pending booking for an existing tourist.
// Check-out defaults to check-in plus the configured stay length.
func (s *BookingService) Create(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error) {
	if req.TouristID == nil || *req.TouristID <= 0 {
		return nil, ErrTouristRequired
	}
	if req.Headcount < 1 {
		return nil, ErrInvalidHeadcount
	}
	if req.Status != nil && *req.Status != string(models.BookingStatusPending) {
		return nil, fmt.Errorf("%w: new bookings start as pending", ErrInvalidStatus)
	}

	checkIn, err := models.ParseDate(req.BookingDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	checkOut := checkIn.AddDate(0, 0, s.cfg.DefaultStayDays)
	if req.CheckOutDate != nil && *req.CheckOutDate != "" {
		if checkOut, err = models.ParseDate(*req.CheckOutDate); err != nil {
			return nil, ErrInvalidDate
		}
		if checkOut.Before(checkIn) {
			return nil, ErrInvalidDateRange
		}
	}

	booking := &models.Booking{
		Headcount:    req.Headcount,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		Status:       models.BookingStatusPending,
		TouristID:    *req.TouristID,
		TourID:       req.TourID,
		UserID:       req.UserID,
		EventID:      req.EventID,
	}

	err = database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		exists, err := s.tourists.WithTx(tx).Exists(ctx, booking.TouristID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrTouristNotFound
		}

		if err := s.bookings.WithTx(tx).Create(ctx, booking); err != nil {
			return err
		}
		return s.bookings.WithTx(tx).InsertHistory(ctx, &models.BookingStatusChange{
			BookingID: booking.ID,
			ToStatus:  booking.Status,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordBookingCreated("admin")
	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"tourist_id": booking.TouristID,
		"check_in":   booking.CheckInDate.Format(models.DateLayout),
	}).Info("Booking created")

	return booking, nil
}

// Checkout registers the tourist, creates the booking and records the chosen payment plan
// in one transaction. Price, duration and headcount come only from the verified token.
func (s *BookingService) Checkout(ctx context.Context, token string, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	claims, pkg, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if claims.Headcount == nil || *claims.Headcount < 1 {
		return nil, ErrHeadcountRequired
	}

	start, err := models.ParseDate(claims.StartDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	stay := claims.Duration
	if stay <= 0 {
		stay = s.cfg.DefaultStayDays
	}

	headcount := *claims.Headcount
	total := roundCents(claims.Price * float64(headcount))
	today := models.TruncateToDate(s.now())

	tourist := &models.Tourist{
		FirstName:     req.Tourist.FirstName,
		LastName:      req.Tourist.LastName,
		Email:         req.Tourist.Email,
		ContactNumber: req.Tourist.ContactNumber,
		Country:       req.Tourist.Country,
	}
	booking := &models.Booking{
		Headcount:    headcount,
		CheckInDate:  start,
		CheckOutDate: start.AddDate(0, 0, stay),
		Status:       models.BookingStatusPending,
		TourID:       req.TourID,
		EventID:      req.EventID,
	}

	payments, err := planPayments(req.PaymentPlan, total, today, start)
	if err != nil {
		return nil, err
	}

	err = database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.tourists.WithTx(tx).Create(ctx, tourist); err != nil {
			return err
		}

		booking.TouristID = tourist.ID
		bookings := s.bookings.WithTx(tx)
		if err := bookings.Create(ctx, booking); err != nil {
			return err
		}

		paymentRepo := s.payments.WithTx(tx)
		for i := range payments {
			payments[i].BookingID = booking.ID
			if err := paymentRepo.Create(ctx, &payments[i]); err != nil {
				return err
			}
		}

		return bookings.InsertHistory(ctx, &models.BookingStatusChange{
			BookingID: booking.ID,
			ToStatus:  booking.Status,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordBookingCreated("checkout")
	s.logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"package_id":   pkg.ID,
		"headcount":    headcount,
		"payment_plan": req.PaymentPlan,
		"total":        total,
	}).Info("Checkout completed")

	return &models.CheckoutResponse{
		Booking:  booking,
		Tourist:  tourist,
		Payments: payments,
		Total:    total,
	}, nil
}

// planPayments builds the payment rows for a checkout: one completed row for a full payment,
// or half_paid now plus pending due at check-in for a split payment.
func planPayments(plan models.PaymentPlan, total float64, today, due time.Time) ([]models.Payment, error) {
	switch plan {
	case models.PaymentPlanFull:
		return []models.Payment{{Amount: total, PaymentDate: today, Status: models.PaymentStatusCompleted}}, nil
	case models.PaymentPlanHalf:
		half := roundCents(total / 2)
		return []models.Payment{
			{Amount: half, PaymentDate: today, Status: models.PaymentStatusHalfPaid},
			{Amount: roundCents(total - half), PaymentDate: due, Status: models.PaymentStatusPending},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPaymentPlan, plan)
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// Transition moves a booking to req.Status and reconciles its payments.
// Everything happens in one transaction; any failure leaves the booking and payments untouched.
func (s *BookingService) Transition(ctx context.Context, bookingID int64, req models.UpdateBookingStatusRequest) (*models.BookingWithPayments, error) {
	if req.Status == "" {
		return nil, fmt.Errorf("%w: status is required", ErrInvalidStatus)
	}
	if req.UserID == nil {
		return nil, ErrActingUserRequired
	}
	target, err := models.ParseBookingStatus(req.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, req.Status)
	}
	return s.transition(ctx, bookingID, target, *req.UserID, req.Version)
}

// Cancel cancels a booking. The request must restate status 'cancelled'.
func (s *BookingService) Cancel(ctx context.Context, bookingID int64, req models.UpdateBookingStatusRequest) (*models.BookingWithPayments, error) {
	if req.Status != string(models.BookingStatusCancelled) {
		return nil, ErrCancelStatusRequired
	}
	if req.UserID == nil {
		return nil, ErrActingUserRequired
	}
	return s.transition(ctx, bookingID, models.BookingStatusCancelled, *req.UserID, req.Version)
}

func (s *BookingService) transition(ctx context.Context, bookingID int64, target models.BookingStatus, actorID int64, expectedVersion *int) (*models.BookingWithPayments, error) {
	var (
		booking  *models.Booking
		payments []models.Payment
		from     models.BookingStatus
		released int64
	)

	err := database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		bookings := s.bookings.WithTx(tx)
		paymentRepo := s.payments.WithTx(tx)

		var err error
		booking, err = bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("failed to load booking: %w", err)
		}
		from = booking.Status

		if expectedVersion != nil && *expectedVersion != booking.Version {
			return ErrConcurrentModification
		}
		if !booking.Status.CanTransitionTo(target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, target)
		}

		payments, err = paymentRepo.ListByBookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}

		updates, err := ReconcilePayments(payments, ReconcilePathFor(target))
		if err != nil {
			return err
		}
		for _, update := range updates {
			if err := paymentRepo.ApplyUpdate(ctx, update); err != nil {
				return err
			}
		}
		payments = applyPaymentUpdates(payments, updates)

		if err := bookings.UpdateStatus(ctx, booking, target, nil); err != nil {
			if errors.Is(err, database.ErrVersionConflict) {
				return ErrConcurrentModification
			}
			return err
		}

		// a cancelled booking frees its guide and vehicle for the window
		if target == models.BookingStatusCancelled {
			if released, err = s.assignments.WithTx(tx).ReleaseBooking(ctx, booking.ID); err != nil {
				return err
			}
		}

		return bookings.InsertHistory(ctx, &models.BookingStatusChange{
			BookingID:  booking.ID,
			FromStatus: &from,
			ToStatus:   target,
			ActedBy:    &actorID,
		})
	})
	if err != nil {
		metrics.RecordTransition(string(from), string(target), "rejected")
		s.logger.WithFields(logrus.Fields{
			"booking_id": bookingID,
			"to":         target,
			"acted_by":   actorID,
		}).WithError(err).Warn("Booking transition rolled back")
		return nil, err
	}

	metrics.RecordTransition(string(from), string(target), "ok")
	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"from":       from,
		"to":         target,
		"acted_by":   actorID,
		"released":   released,
	}).Info("Booking status changed")

	return &models.BookingWithPayments{Booking: *booking, Payments: payments}, nil
}

func applyPaymentUpdates(payments []models.Payment, updates []models.PaymentUpdate) []models.Payment {
	for _, u := range updates {
		for i := range payments {
			if payments[i].ID == u.PaymentID {
				payments[i].Status = u.To
			}
		}
	}
	return payments
}

// Get returns a booking with its payments
func (s *BookingService) Get(ctx context.Context, bookingID int64) (*models.BookingWithPayments, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}

	payments, err := s.payments.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return &models.BookingWithPayments{Booking: *booking, Payments: payments}, nil
}

// History returns the status changes of a booking, oldest first
func (s *BookingService) History(ctx context.Context, bookingID int64) ([]models.BookingStatusChange, error) {
	if _, err := s.bookings.GetByID(ctx, bookingID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return s.bookings.ListHistory(ctx, bookingID)
}

// List returns bookings matching the filter
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	return s.bookings.List(ctx, filter)
}

// Delete hard-deletes a booking and everything attached to it
func (s *BookingService) Delete(ctx context.Context, bookingID int64) error {
	if err := s.bookings.Delete(ctx, bookingID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrBookingNotFound
		}
		return err
	}
	s.logger.WithField("booking_id", bookingID).Warn("Booking deleted")
	return nil
}
