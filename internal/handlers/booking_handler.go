package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
	"github.com/shenal-anthony/TMS-sub000/pkg/validator"
	"github.com/sirupsen/logrus"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// BookingManager runs the booking lifecycle
type BookingManager interface {
	Create(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error)
	Checkout(ctx context.Context, token string, req models.CheckoutRequest) (*models.CheckoutResponse, error)
	Transition(ctx context.Context, bookingID int64, req models.UpdateBookingStatusRequest) (*models.BookingWithPayments, error)
	Cancel(ctx context.Context, bookingID int64, req models.UpdateBookingStatusRequest) (*models.BookingWithPayments, error)
	Get(ctx context.Context, bookingID int64) (*models.BookingWithPayments, error)
	History(ctx context.Context, bookingID int64) ([]models.BookingStatusChange, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	Delete(ctx context.Context, bookingID int64) error
}

// CandidateFinder lists pending bookings with the guides and vehicles free for them
type CandidateFinder interface {
	PendingWithGuides(ctx context.Context, startDate, endDate string) ([]models.PendingBookingCandidates, error)
}

// BookingHandler handles booking HTTP requests
type BookingHandler struct {
	bookings     BookingManager
	availability CandidateFinder
	contacts     *validator.ContactValidator
	audit        AuditLogger
	errs         *ErrorResponder
	logger       *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(
	bookings BookingManager,
	availability CandidateFinder,
	contacts *validator.ContactValidator,
	audit AuditLogger,
	errs *ErrorResponder,
	logger *logrus.Logger,
) *BookingHandler {
	return &BookingHandler{
		bookings:     bookings,
		availability: availability,
		contacts:     contacts,
		audit:        audit,
		errs:         errs,
		logger:       logger,
	}
}

// Checkout handles POST /api/bookings/checkout
func (h *BookingHandler) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.BindError(c, err)
		return
	}

	token := bookingKey(c, req.Token, req.BookingKey)
	if token == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_booking_token",
			Message: "Booking token is required",
		})
		return
	}

	contact, err := h.contacts.Normalize(req.Tourist.ContactNumber)
	if err != nil {
		h.errs.BadRequest(c, err.Error())
		return
	}
	req.Tourist.ContactNumber = contact

	response, err := h.bookings.Checkout(c.Request.Context(), token, req)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	safeLogBooking(c, h.audit, nil, "booking_checkout", response.Booking.ID, map[string]interface{}{
		"payment_plan": req.PaymentPlan,
		"total":        response.Total,
	})
	c.JSON(http.StatusCreated, response)
}

// Create handles POST /api/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.BindError(c, err)
		return
	}

	booking, err := h.bookings.Create(c.Request.Context(), req)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	safeLogBooking(c, h.audit, actorID(c), "booking_created", booking.ID, nil)
	c.JSON(http.StatusCreated, booking)
}

// List handles GET /api/bookings?status=&startDate=&endDate=&limit=&offset=
func (h *BookingHandler) List(c *gin.Context) {
	filter := models.BookingFilter{Limit: defaultListLimit}

	if s := c.Query("status"); s != "" {
		status, err := models.ParseBookingStatus(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_status", Message: err.Error()})
			return
		}
		filter.Status = &status
	}
	dateParams := []struct {
		name   string
		target **time.Time
	}{
		{"startDate", &filter.StartDate},
		{"endDate", &filter.EndDate},
	}
	for _, p := range dateParams {
		if v := c.Query(p.name); v != "" {
			d, err := models.ParseDate(v)
			if err != nil {
				h.errs.BadRequest(c, p.name+": "+err.Error())
				return
			}
			*p.target = &d
		}
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			h.errs.BadRequest(c, "limit must be a positive integer")
			return
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}
		filter.Limit = limit
	}
	if v := c.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			h.errs.BadRequest(c, "offset must be a non-negative integer")
			return
		}
		filter.Offset = offset
	}

	bookings, err := h.bookings.List(c.Request.Context(), filter)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})
}

// Get handles GET /api/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	bookingID, ok := parseIDParam(c, h.errs, "id")
	if !ok {
		return
	}

	booking, err := h.bookings.Get(c.Request.Context(), bookingID)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// History handles GET /api/bookings/:id/history
func (h *BookingHandler) History(c *gin.Context) {
	bookingID, ok := parseIDParam(c, h.errs, "id")
	if !ok {
		return
	}

	history, err := h.bookings.History(c.Request.Context(), bookingID)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	if history == nil {
		history = []models.BookingStatusChange{}
	}

	c.JSON(http.StatusOK, gin.H{"bookingId": bookingID, "history": history})
}

// Transition handles PATCH /api/bookings/:id
func (h *BookingHandler) Transition(c *gin.Context) {
	bookingID, req, ok := h.bindStatusRequest(c)
	if !ok {
		return
	}

	booking, err := h.bookings.Transition(c.Request.Context(), bookingID, req)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	safeLogBooking(c, h.audit, req.UserID, "booking_transition", bookingID, map[string]interface{}{
		"status": booking.Status,
	})
	c.JSON(http.StatusOK, booking)
}

// Cancel handles DELETE /api/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	bookingID, req, ok := h.bindStatusRequest(c)
	if !ok {
		return
	}

	booking, err := h.bookings.Cancel(c.Request.Context(), bookingID, req)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	safeLogBooking(c, h.audit, req.UserID, "booking_cancelled", bookingID, nil)
	c.JSON(http.StatusOK, booking)
}

// Delete handles DELETE /api/bookings/:id
func (h *BookingHandler) Delete(c *gin.Context) {
	bookingID, ok := parseIDParam(c, h.errs, "id")
	if !ok {
		return
	}

	if err := h.bookings.Delete(c.Request.Context(), bookingID); err != nil {
		h.errs.Respond(c, err)
		return
	}

	safeLogBooking(c, h.audit, actorID(c), "booking_deleted", bookingID, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Booking deleted"})
}

// PendingWithGuides handles GET /api/bookings/pending-with-guides?startDate=&endDate=
func (h *BookingHandler) PendingWithGuides(c *gin.Context) {
	candidates, err := h.availability.PendingWithGuides(c.Request.Context(), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	if candidates == nil {
		candidates = []models.PendingBookingCandidates{}
	}

	c.JSON(http.StatusOK, gin.H{"bookings": candidates})
}

// bindStatusRequest reads the id and status body. The acting user is always the caller;
// a body userId may only restate it.
func (h *BookingHandler) bindStatusRequest(c *gin.Context) (int64, models.UpdateBookingStatusRequest, bool) {
	var req models.UpdateBookingStatusRequest

	caller := actorID(c)
	if caller == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "User not authenticated"})
		return 0, req, false
	}

	bookingID, ok := parseIDParam(c, h.errs, "id")
	if !ok {
		return 0, req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.BindError(c, err)
		return 0, req, false
	}
	if req.UserID != nil && *req.UserID != *caller {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "userId must match the authenticated user",
			Fields:  map[string]string{"userId": "must match the authenticated user"},
		})
		return 0, req, false
	}
	req.UserID = caller
	return bookingID, req, true
}
