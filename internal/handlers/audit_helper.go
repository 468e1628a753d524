package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/shenal-anthony/TMS-sub000/internal/middleware"
	"github.com/shenal-anthony/TMS-sub000/internal/services"
	"github.com/shenal-anthony/TMS-sub000/internal/utils"
)

// AuditLogger records audited actions; failures never fail the request
type AuditLogger interface {
	SafeLog(ctx context.Context, event services.AuditEvent)
}

// requestInfo captures the client behind the current request
func requestInfo(c *gin.Context) services.RequestInfo {
	return services.RequestInfo{
		IPAddress: utils.GetRealIP(c),
		UserAgent: utils.GetUserAgent(c),
	}
}

// actorID returns the authenticated staff user, or nil on public routes
func actorID(c *gin.Context) *int64 {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		return nil
	}
	id := userCtx.UserID
	return &id
}

func safeLogBooking(c *gin.Context, audit AuditLogger, actor *int64, action string, bookingID int64, details map[string]interface{}) {
	if audit == nil {
		return
	}
	audit.SafeLog(c.Request.Context(), services.AuditEvent{
		UserID:     actor,
		Action:     action,
		EntityType: "booking",
		EntityID:   &bookingID,
		Request:    requestInfo(c),
		Details:    details,
	})
}

func safeLogLogin(c *gin.Context, audit AuditLogger, userID *int64, email string, success bool) {
	if audit == nil {
		return
	}
	action := "staff_login_failed"
	if success {
		action = "staff_login"
	}
	audit.SafeLog(c.Request.Context(), services.AuditEvent{
		UserID:     userID,
		Action:     action,
		EntityType: "user",
		EntityID:   userID,
		Request:    requestInfo(c),
		Details:    map[string]interface{}{"email": email},
	})
}
