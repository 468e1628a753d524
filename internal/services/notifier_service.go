package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shenal-anthony/TMS-sub000/internal/database"
	"github.com/shenal-anthony/TMS-sub000/internal/metrics"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
	"github.com/shenal-anthony/TMS-sub000/pkg/realtime"
	"github.com/sirupsen/logrus"
)

// NotifierService sends assignment offers to guides and relays their answers
type NotifierService struct {
	bookings  *database.BookingRepository
	users     *database.UserRepository
	vehicles  *database.VehicleRepository
	responses *database.GuideResponseRepository
	broker    realtime.Broker
	logger    *logrus.Logger
}

// NewNotifierService creates a new NotifierService
func NewNotifierService(db database.DB, broker realtime.Broker, logger *logrus.Logger) *NotifierService {
	return &NotifierService{
		bookings:  database.NewBookingRepository(db),
		users:     database.NewUserRepository(db),
		vehicles:  database.NewVehicleRepository(db),
		responses: database.NewGuideResponseRepository(db),
		broker:    broker,
		logger:    logger,
	}
}

// Notify offers a pending booking to a guide. Sending again refreshes the existing offer.
// The realtime event is best effort; the stored offer is what the guide's dashboard lists.
func (s *NotifierService) Notify(ctx context.Context, bookingID int64, req models.NotifyGuideRequest) (*models.GuideResponse, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking.Status != models.BookingStatusPending {
		return nil, ErrBookingNotPending
	}

	guide, err := s.users.GetByID(ctx, req.GuideID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to load guide: %w", err)
	}
	if guide == nil || !guide.IsActiveGuide() {
		return nil, ErrGuideNotFound
	}

	if req.VehicleID != nil {
		if _, err := s.vehicles.GetByID(ctx, *req.VehicleID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil, ErrVehicleNotFound
			}
			return nil, fmt.Errorf("failed to load vehicle: %w", err)
		}
	}

	offer := &models.GuideResponse{
		GuideID:   req.GuideID,
		BookingID: booking.ID,
		VehicleID: req.VehicleID,
	}
	if err := s.responses.Upsert(ctx, offer); err != nil {
		return nil, err
	}

	event := realtime.NewEvent(realtime.EventNewRequest, booking.ID, req.GuideID)
	event.VehicleID = req.VehicleID
	event.Status = string(booking.Status)
	event.Message = req.Message
	if event.Message == "" {
		event.Message = fmt.Sprintf("New tour request for %s, %d guests", booking.CheckInDate.Format(models.DateLayout), booking.Headcount)
	}

	metrics.RecordNotification(string(realtime.EventNewRequest))
	if err := s.broker.Publish(ctx, realtime.GuideChannel(req.GuideID), event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"guide_id":   req.GuideID,
		}).Warn("Failed to publish guide request")
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"guide_id":   req.GuideID,
		"sent_at":    offer.SentAt,
	}).Info("Guide request sent")

	return offer, nil
}

// Respond records a guide's answer to an offer by handing it to the decision consumer
func (s *NotifierService) Respond(ctx context.Context, guideID, bookingID int64, accept bool) (*realtime.Event, error) {
	offer, err := s.responses.Get(ctx, guideID, bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to load guide request: %w", err)
	}
	if offer.Status {
		return nil, fmt.Errorf("%w: already accepted", ErrOfferNotFound)
	}

	eventType := realtime.EventRequestRejected
	if accept {
		eventType = realtime.EventRequestAccepted
	}
	event := realtime.NewEvent(eventType, bookingID, guideID)
	event.VehicleID = offer.VehicleID
	event.Status = "submitted"

	if err := s.broker.Publish(ctx, realtime.DecisionsChannel, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id": bookingID,
			"guide_id":   guideID,
		}).Error("Failed to submit guide decision")
		return nil, ErrDecisionNotDelivered
	}
	metrics.RecordNotification(string(eventType))

	s.logger.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"guide_id":   guideID,
		"accept":     accept,
	}).Info("Guide decision submitted")

	return &event, nil
}

// PendingOffers lists the guide's unanswered offers
func (s *NotifierService) PendingOffers(ctx context.Context, guideID int64) ([]models.GuideOffer, error) {
	return s.responses.ListPendingForGuide(ctx, guideID)
}

// Stream subscribes to a guide's private channel
func (s *NotifierService) Stream(ctx context.Context, guideID int64) (*realtime.Subscription, error) {
	return s.broker.Subscribe(ctx, realtime.GuideChannel(guideID))
}

// StreamAdmin subscribes to the administrators' channel
func (s *NotifierService) StreamAdmin(ctx context.Context) (*realtime.Subscription, error) {
	return s.broker.Subscribe(ctx, realtime.AdminChannel)
}
