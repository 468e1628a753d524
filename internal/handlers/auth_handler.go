package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenal-anthony/TMS-sub000/internal/middleware"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
	"github.com/sirupsen/logrus"
)

// StaffAuthenticator issues staff tokens
type StaffAuthenticator interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, *models.User, error)
	Refresh(ctx context.Context, refreshToken string) (*models.LoginResponse, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
}

// AuthHandler handles staff authentication HTTP requests
type AuthHandler struct {
	auth   StaffAuthenticator
	audit  AuditLogger
	errs   *ErrorResponder
	logger *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth StaffAuthenticator, audit AuditLogger, errs *ErrorResponder, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		audit:  audit,
		errs:   errs,
		logger: logger,
	}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.BindError(c, err)
		return
	}

	response, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var userID *int64
		if user != nil {
			userID = &user.ID
		}
		safeLogLogin(c, h.audit, userID, req.Email, false)
		h.logger.WithFields(logrus.Fields{
			"email": req.Email,
			"ip":    c.ClientIP(),
		}).WithError(err).Warn("Staff login failed")
		h.errs.Respond(c, err)
		return
	}

	safeLogLogin(c, h.audit, &user.ID, user.Email, true)
	c.JSON(http.StatusOK, response)
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.BindError(c, err)
		return
	}

	response, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.logger.WithError(err).Warn("Token refresh failed")
		h.errs.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "User not authenticated"})
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.BindError(c, err)
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), userCtx.UserID, req.OldPassword, req.NewPassword); err != nil {
		h.errs.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}
