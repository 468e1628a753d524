package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	playground "github.com/go-playground/validator/v10"
	"github.com/shenal-anthony/TMS-sub000/internal/database"
	"github.com/shenal-anthony/TMS-sub000/internal/services"
	"github.com/shenal-anthony/TMS-sub000/pkg/jwt"
	"github.com/sirupsen/logrus"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// errorMappings is checked in order; the first errors.Is match wins
var errorMappings = []errorMapping{
	{services.ErrTouristRequired, http.StatusBadRequest, "missing_tourist"},
	{services.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{services.ErrCancelStatusRequired, http.StatusBadRequest, "invalid_status"},
	{services.ErrInvalidTransition, http.StatusBadRequest, "invalid_transition"},
	{services.ErrBookingNotPending, http.StatusBadRequest, "invalid_transition"},
	{services.ErrInconsistentPaymentState, http.StatusBadRequest, "payment_state_inconsistent"},
	{services.ErrMissingPackageDuration, http.StatusBadRequest, "missing_package_duration"},
	{services.ErrGuideUnavailable, http.StatusBadRequest, "guide_unavailable"},
	{services.ErrVehicleUnavailable, http.StatusBadRequest, "vehicle_unavailable"},
	{services.ErrUnknownPaymentPlan, http.StatusBadRequest, "validation_error"},
	{services.ErrReferenceNotFound, http.StatusBadRequest, "validation_error"},
	{services.ErrInvalidHeadcount, http.StatusBadRequest, "validation_error"},
	{services.ErrHeadcountRequired, http.StatusBadRequest, "validation_error"},
	{services.ErrActingUserRequired, http.StatusBadRequest, "validation_error"},
	{services.ErrInvalidDate, http.StatusBadRequest, "validation_error"},
	{services.ErrInvalidDateRange, http.StatusBadRequest, "validation_error"},
	{services.ErrStartDateInPast, http.StatusBadRequest, "validation_error"},
	{services.ErrPackageInactive, http.StatusBadRequest, "validation_error"},

	{services.ErrBookingNotFound, http.StatusNotFound, "booking_not_found"},
	{services.ErrPackageNotFound, http.StatusNotFound, "package_not_found"},
	{services.ErrGuideNotFound, http.StatusNotFound, "guide_not_found"},
	{services.ErrVehicleNotFound, http.StatusNotFound, "vehicle_not_found"},
	{services.ErrTouristNotFound, http.StatusNotFound, "tourist_not_found"},
	{services.ErrOfferNotFound, http.StatusNotFound, "offer_not_found"},
	{database.ErrNotFound, http.StatusNotFound, "not_found"},

	{services.ErrConcurrentModification, http.StatusConflict, "concurrent_modification"},

	{services.ErrDecisionNotDelivered, http.StatusServiceUnavailable, "decision_unavailable"},

	{jwt.ErrBookingTokenExpired, http.StatusUnauthorized, "booking_token_expired"},
	{jwt.ErrInvalidBookingToken, http.StatusUnauthorized, "invalid_booking_token"},
	{services.ErrStaleBookingToken, http.StatusForbidden, "stale_booking_token"},

	{services.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{services.ErrInvalidRefresh, http.StatusUnauthorized, "invalid_refresh_token"},
	{services.ErrAccountInactive, http.StatusForbidden, "account_inactive"},
}

// ErrorResponder renders service errors as ErrorResponse bodies.
// Unmapped errors become 500 internal_error; their text is only sent when exposeInternal is set.
type ErrorResponder struct {
	logger         *logrus.Logger
	exposeInternal bool
}

// NewErrorResponder creates a responder. Pass exposeInternal=false in production.
func NewErrorResponder(logger *logrus.Logger, exposeInternal bool) *ErrorResponder {
	return &ErrorResponder{logger: logger, exposeInternal: exposeInternal}
}

// Respond writes the error response for err
func (r *ErrorResponder) Respond(c *gin.Context, err error) {
	_ = c.Error(err)

	if field, ok := database.ReferenceField(err); ok {
		response := ErrorResponse{Error: "validation_error", Message: services.ErrReferenceNotFound.Error()}
		if field != "" {
			response.Fields = map[string]string{field: "does not exist"}
		}
		c.JSON(http.StatusBadRequest, response)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.JSON(m.status, ErrorResponse{Error: m.code, Message: err.Error()})
			return
		}
	}

	r.logger.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).WithError(err).Error("Unhandled error")

	message := "An internal error occurred"
	if r.exposeInternal {
		message = err.Error()
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: message})
}

// BindError writes a 400 validation_error for a failed ShouldBind call
func (r *ErrorResponder) BindError(c *gin.Context, err error) {
	var fieldErrs playground.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Request validation failed",
			Fields:  fields,
		})
		return
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	message := "Invalid request body"
	switch {
	case errors.As(err, &typeErr):
		message = "Invalid value for field " + typeErr.Field
	case errors.As(err, &syntaxErr):
		message = "Malformed JSON"
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: message})
}

// BadRequest writes a 400 validation_error with message
func (r *ErrorResponder) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: message})
}

func fieldMessage(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "contact":
		return "must be a valid phone number"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
