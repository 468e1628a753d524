package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shenal-anthony/TMS-sub000/internal/middleware"
	"github.com/shenal-anthony/TMS-sub000/internal/services"
	"github.com/shenal-anthony/TMS-sub000/pkg/jwt"
	"github.com/shenal-anthony/TMS-sub000/pkg/validator"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var testContacts = validator.NewContactValidator("94")

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(testContacts); err != nil {
		panic(err)
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testResponder() *ErrorResponder {
	return NewErrorResponder(testLogger(), false)
}

func testJWTService() *jwt.Service {
	return jwt.NewService("handler-access-secret-0123456789", "handler-refresh-secret-012345678", time.Hour, 24*time.Hour)
}

// withStaff authenticates requests on router as userID holding role
func withStaff(t *testing.T, req *http.Request, userID int64, role string) {
	t.Helper()
	token, err := testJWTService().GenerateAccessToken(userID, "staff@example.com", []string{role})
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
}

func authenticated(roles ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		middleware.AuthMiddleware(testJWTService(), testLogger()),
		middleware.RequireRole(roles...),
	}
}

func jsonRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

type recordingAudit struct {
	events []services.AuditEvent
}

func (a *recordingAudit) SafeLog(ctx context.Context, event services.AuditEvent) {
	a.events = append(a.events, event)
}

func int64Ptr(v int64) *int64 { return &v }
