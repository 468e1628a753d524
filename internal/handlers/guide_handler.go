package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shenal-anthony/TMS-sub000/internal/metrics"
	"github.com/shenal-anthony/TMS-sub000/internal/middleware"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
	"github.com/shenal-anthony/TMS-sub000/pkg/realtime"
	"github.com/sirupsen/logrus"
)

const defaultHeartbeat = 25 * time.Second

// GuideAssigner commits a guide (and optional vehicle) to a pending booking
type GuideAssigner interface {
	Assign(ctx context.Context, bookingID, guideID int64, vehicleID *int64, actorID *int64) (*models.AssignmentResult, error)
	GuideAssignments(ctx context.Context, guideID int64) ([]models.AssignedGuide, error)
}

// GuideNotifier sends offers to guides and streams their events
type GuideNotifier interface {
	Notify(ctx context.Context, bookingID int64, req models.NotifyGuideRequest) (*models.GuideResponse, error)
	Respond(ctx context.Context, guideID, bookingID int64, accept bool) (*realtime.Event, error)
	PendingOffers(ctx context.Context, guideID int64) ([]models.GuideOffer, error)
	Stream(ctx context.Context, guideID int64) (*realtime.Subscription, error)
	StreamAdmin(ctx context.Context) (*realtime.Subscription, error)
}

// GuideHandler handles assignment, guide offers and the guide event stream
type GuideHandler struct {
	assignments GuideAssigner
	notifier    GuideNotifier
	audit       AuditLogger
	errs        *ErrorResponder
	logger      *logrus.Logger
	heartbeat   time.Duration
}

// NewGuideHandler creates a new guide handler
func NewGuideHandler(assignments GuideAssigner, notifier GuideNotifier, audit AuditLogger, errs *ErrorResponder, logger *logrus.Logger) *GuideHandler {
	return &GuideHandler{
		assignments: assignments,
		notifier:    notifier,
		audit:       audit,
		errs:        errs,
		logger:      logger,
		heartbeat:   defaultHeartbeat,
	}
}

// Assign handles POST /api/guides/:bookingId/assign
func (h *GuideHandler) Assign(c *gin.Context) {
	bookingID, ok := parseIDParam(c, h.errs, "bookingId")
	if !ok {
		return
	}

	var req models.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.BindError(c, err)
		return
	}

	actor := actorID(c)
	result, err := h.assignments.Assign(c.Request.Context(), bookingID, req.GuideID, req.VehicleID, actor)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	details := map[string]interface{}{"guide_id": result.GuideID}
	if result.VehicleID != nil {
		details["vehicle_id"] = *result.VehicleID
	}
	safeLogBooking(c, h.audit, actor, "guide_assigned", bookingID, details)
	c.JSON(http.StatusOK, result)
}

// Notify handles POST /api/guides/:bookingId/notify
func (h *GuideHandler) Notify(c *gin.Context) {
	bookingID, ok := parseIDParam(c, h.errs, "bookingId")
	if !ok {
		return
	}

	var req models.NotifyGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.BindError(c, err)
		return
	}

	offer, err := h.notifier.Notify(c.Request.Context(), bookingID, req)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	safeLogBooking(c, h.audit, actorID(c), "guide_notified", bookingID, map[string]interface{}{
		"guide_id": req.GuideID,
	})
	c.JSON(http.StatusOK, offer)
}

// Respond handles POST /api/guides/requests/:bookingId/respond.
// The decision is applied asynchronously; the outcome arrives on the event stream.
func (h *GuideHandler) Respond(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "User not authenticated"})
		return
	}
	bookingID, ok := parseIDParam(c, h.errs, "bookingId")
	if !ok {
		return
	}

	var req models.GuideDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.BindError(c, err)
		return
	}

	event, err := h.notifier.Respond(c.Request.Context(), userCtx.UserID, bookingID, *req.Accept)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	c.JSON(http.StatusAccepted, event)
}

// ListRequests handles GET /api/guides/requests
func (h *GuideHandler) ListRequests(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "User not authenticated"})
		return
	}

	offers, err := h.notifier.PendingOffers(c.Request.Context(), userCtx.UserID)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	if offers == nil {
		offers = []models.GuideOffer{}
	}

	c.JSON(http.StatusOK, gin.H{"requests": offers})
}

// ListAssignments handles GET /api/guides/assignments: the caller's committed trip windows
func (h *GuideHandler) ListAssignments(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "User not authenticated"})
		return
	}

	assignments, err := h.assignments.GuideAssignments(c.Request.Context(), userCtx.UserID)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	if assignments == nil {
		assignments = []models.AssignedGuide{}
	}

	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

// Stream handles GET /api/guides/requests/stream: the caller's guide channel as Server-Sent Events
func (h *GuideHandler) Stream(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "User not authenticated"})
		return
	}

	sub, err := h.notifier.Stream(c.Request.Context(), userCtx.UserID)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	h.serveEvents(c, sub)
}

// StreamAdmin handles GET /api/guides/events/stream: assignment outcomes for administrators
func (h *GuideHandler) StreamAdmin(c *gin.Context) {
	sub, err := h.notifier.StreamAdmin(c.Request.Context())
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	h.serveEvents(c, sub)
}

func (h *GuideHandler) serveEvents(c *gin.Context, sub *realtime.Subscription) {
	defer sub.Close()

	metrics.SSEConnections.Inc()
	defer metrics.SSEConnections.Dec()

	log := h.logger.WithField("channel", sub.Channel())
	log.Info("Event stream opened")
	defer log.Info("Event stream closed")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent("ready", gin.H{"channel": sub.Channel()})
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			c.SSEvent(string(event.Type), event)
			c.Writer.Flush()
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"timestamp": time.Now().UTC()})
			c.Writer.Flush()
		}
	}
}
