package services

import (
	"context"
	"errors"
	"sync"

	"github.com/shenal-anthony/TMS-sub000/internal/database"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
	"github.com/shenal-anthony/TMS-sub000/pkg/realtime"
	"github.com/sirupsen/logrus"
)

// Assigner commits a guide to a booking
type Assigner interface {
	Assign(ctx context.Context, bookingID, guideID int64, vehicleID *int64, actorID *int64) (*models.AssignmentResult, error)
}

// OfferRemover deletes a guide's offer
type OfferRemover interface {
	Delete(ctx context.Context, guideID, bookingID int64) error
}

// DecisionConsumer applies guide decisions one at a time: an acceptance runs the
// assignment, a rejection removes the offer. Outcomes are published to administrators.
type DecisionConsumer struct {
	broker   realtime.Broker
	assigner Assigner
	offers   OfferRemover
	logger   *logrus.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDecisionConsumer creates a new DecisionConsumer
func NewDecisionConsumer(broker realtime.Broker, assigner Assigner, offers OfferRemover, logger *logrus.Logger) *DecisionConsumer {
	return &DecisionConsumer{
		broker:   broker,
		assigner: assigner,
		offers:   offers,
		logger:   logger,
	}
}

// Start subscribes to the decisions channel and processes events until Stop
func (c *DecisionConsumer) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	sub, err := c.broker.Subscribe(ctx, realtime.DecisionsChannel)
	if err != nil {
		c.cancel()
		return err
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer sub.Close()

		c.logger.Info("Guide decision consumer started")
		for event := range sub.C {
			c.handle(ctx, event)
		}
		c.logger.Info("Guide decision consumer stopped")
	}()
	return nil
}

// Stop ends the subscription and waits for the event in progress
func (c *DecisionConsumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

func (c *DecisionConsumer) handle(ctx context.Context, event realtime.Event) {
	log := c.logger.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"booking_id": event.BookingID,
		"guide_id":   event.GuideID,
		"type":       event.Type,
	})

	switch event.Type {
	case realtime.EventRequestAccepted:
		guideID := event.GuideID
		result, err := c.assigner.Assign(ctx, event.BookingID, guideID, event.VehicleID, &guideID)
		if err != nil {
			log.WithError(err).Warn("Accepted guide request could not be assigned")
			failed := realtime.NewEvent(realtime.EventAssignFailed, event.BookingID, guideID)
			failed.VehicleID = event.VehicleID
			failed.Status = "failed"
			failed.Message = err.Error()
			c.publish(ctx, log, failed, realtime.AdminChannel, realtime.GuideChannel(guideID))
			return
		}

		accepted := realtime.NewEvent(realtime.EventRequestAccepted, event.BookingID, guideID)
		accepted.VehicleID = result.VehicleID
		accepted.Status = string(result.Status)
		c.publish(ctx, log, accepted, realtime.AdminChannel, realtime.GuideChannel(guideID))
		log.Info("Guide request accepted")

	case realtime.EventRequestRejected:
		if err := c.offers.Delete(ctx, event.GuideID, event.BookingID); err != nil && !errors.Is(err, database.ErrNotFound) {
			log.WithError(err).Error("Failed to remove rejected guide request")
			return
		}

		rejected := realtime.NewEvent(realtime.EventRequestRejected, event.BookingID, event.GuideID)
		rejected.Status = "rejected"
		c.publish(ctx, log, rejected, realtime.AdminChannel)
		log.Info("Guide request rejected")

	default:
		log.Warn("Ignoring unknown guide decision")
	}
}

func (c *DecisionConsumer) publish(ctx context.Context, log *logrus.Entry, event realtime.Event, channels ...string) {
	for _, channel := range channels {
		if err := c.broker.Publish(ctx, channel, event); err != nil {
			log.WithError(err).WithField("channel", channel).Warn("Failed to publish decision outcome")
		}
	}
}
