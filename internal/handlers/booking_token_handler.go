package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
	"github.com/shenal-anthony/TMS-sub000/pkg/jwt"
	"github.com/sirupsen/logrus"
)

// BookingKeyHeader carries the booking token between checkout steps
const BookingKeyHeader = "x-booking-key"

// BookingTokenIssuer issues and verifies checkout booking tokens
type BookingTokenIssuer interface {
	CheckAvailability(ctx context.Context, packageID int64, startDate string) (string, *jwt.BookingDetails, error)
	VerifyOrAmend(ctx context.Context, token string, headcount *int) (string, *jwt.BookingClaims, error)
}

// BookingTokenHandler serves the public checkout token endpoints
type BookingTokenHandler struct {
	tokens BookingTokenIssuer
	errs   *ErrorResponder
	logger *logrus.Logger
}

// NewBookingTokenHandler creates a new booking token handler
func NewBookingTokenHandler(tokens BookingTokenIssuer, errs *ErrorResponder, logger *logrus.Logger) *BookingTokenHandler {
	return &BookingTokenHandler{tokens: tokens, errs: errs, logger: logger}
}

// BookingTokenResponse is returned by check-availability and verify-token
type BookingTokenResponse struct {
	Token     string             `json:"token"`
	Details   jwt.BookingDetails `json:"details"`
	ExpiresAt *time.Time         `json:"expiresAt,omitempty"`
}

// CheckAvailability handles POST /api/packages/:id/check-availability
func (h *BookingTokenHandler) CheckAvailability(c *gin.Context) {
	packageID, ok := parseIDParam(c, h.errs, "id")
	if !ok {
		return
	}

	var req models.CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.BindError(c, err)
		return
	}

	token, details, err := h.tokens.CheckAvailability(c.Request.Context(), packageID, req.StartDate)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	c.Header(BookingKeyHeader, token)
	c.JSON(http.StatusOK, BookingTokenResponse{Token: token, Details: *details})
}

// VerifyToken handles POST /api/packages/verify-token.
// With a headcount the token is amended and returned with its original expiry.
func (h *BookingTokenHandler) VerifyToken(c *gin.Context) {
	var req models.VerifyTokenRequest
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

	updated, claims, err := h.tokens.VerifyOrAmend(c.Request.Context(), token, req.Headcount)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	response := BookingTokenResponse{Token: updated, Details: claims.BookingDetails}
	if claims.ExpiresAt != nil {
		expiresAt := claims.ExpiresAt.Time.UTC()
		response.ExpiresAt = &expiresAt
	}

	c.Header(BookingKeyHeader, updated)
	c.JSON(http.StatusOK, response)
}

// bookingKey reads the token from the x-booking-key header, falling back to body fields
func bookingKey(c *gin.Context, bodyValues ...string) string {
	if key := strings.TrimSpace(c.GetHeader(BookingKeyHeader)); key != "" {
		return key
	}
	for _, v := range bodyValues {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func parseIDParam(c *gin.Context, errs *ErrorResponder, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errs.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}
