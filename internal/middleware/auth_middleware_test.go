package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shenal-anthony/TMS-sub000/pkg/jwt"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestJWTService() *jwt.Service {
	return jwt.NewService(
		"test-access-secret-key-123456789",
		"test-refresh-secret-key-123456789",
		time.Hour,
		24*time.Hour,
	)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestAuthMiddleware_Success(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()

	token, err := jwtService.GenerateAccessToken(42, "ada@example.com", []string{RoleAdmin})
	require.NoError(t, err)

	router.GET("/protected", AuthMiddleware(jwtService, testLogger()), func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		require.True(t, exists)
		c.JSON(http.StatusOK, gin.H{
			"message": "success",
			"user_id": userCtx.UserID,
			"email":   userCtx.Email,
		})
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "success")
	assert.Contains(t, w.Body.String(), "ada@example.com")
	assert.Contains(t, w.Body.String(), `"user_id":42`)
}

func TestAuthMiddleware_QueryToken(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()

	token, err := jwtService.GenerateAccessToken(7, "guide@example.com", []string{RoleGuide})
	require.NoError(t, err)

	router.GET("/stream", AuthMiddleware(jwtService, testLogger()), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest("GET", "/stream?access_token="+token, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	jwtService := setupTestJWTService()
	expiredService := jwt.NewService("test-access-secret-key-123456789", "test-refresh-secret-key-123456789", -time.Minute, time.Hour)
	otherService := jwt.NewService("another-secret-key-000000000000", "another-refresh-secret-00000000", time.Hour, time.Hour)

	expired, err := expiredService.GenerateAccessToken(1, "a@example.com", []string{RoleAdmin})
	require.NoError(t, err)
	foreign, err := otherService.GenerateAccessToken(1, "a@example.com", []string{RoleAdmin})
	require.NoError(t, err)
	refresh, err := jwtService.GenerateRefreshToken(1, "a@example.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"Missing header", "", "MISSING_AUTH_HEADER"},
		{"Wrong scheme", "Basic abc", "INVALID_AUTH_FORMAT"},
		{"Empty bearer", "Bearer   ", "INVALID_AUTH_FORMAT"},
		{"Garbage token", "Bearer not.a.token", "INVALID_TOKEN"},
		{"Expired token", "Bearer " + expired, "TOKEN_EXPIRED"},
		{"Wrong secret", "Bearer " + foreign, "INVALID_TOKEN"},
		{"Refresh token", "Bearer " + refresh, "INVALID_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.GET("/protected", AuthMiddleware(jwtService, testLogger()), func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
			})

			req := httptest.NewRequest("GET", "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
			assert.NotContains(t, w.Body.String(), "should not reach here")
		})
	}
}

func TestRequireRole(t *testing.T) {
	jwtService := setupTestJWTService()

	tests := []struct {
		name       string
		roles      []string
		allowed    []string
		wantStatus int
	}{
		{"Admin on admin route", []string{RoleAdmin}, []string{RoleAdmin}, http.StatusOK},
		{"Guide on admin route", []string{RoleGuide}, []string{RoleAdmin}, http.StatusForbidden},
		{"Guide on shared route", []string{RoleGuide}, []string{RoleAdmin, RoleGuide}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.GET("/r", AuthMiddleware(jwtService, testLogger()), RequireRole(tt.allowed...), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			token, err := jwtService.GenerateAccessToken(1, "x@example.com", tt.roles)
			require.NoError(t, err)

			req := httptest.NewRequest("GET", "/r", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	t.Run("Without auth middleware", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/r", RequireRole(RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/r", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "MISSING_USER_CONTEXT")
	})
}

func TestGetUserContext(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserContext(c)
	assert.False(t, ok)

	c.Set(UserContextKey, "not a user context")
	_, ok = GetUserContext(c)
	assert.False(t, ok)

	c.Set(UserContextKey, UserContext{UserID: 3, Roles: []string{RoleGuide}})
	userCtx, ok := GetUserContext(c)
	require.True(t, ok)
	assert.Equal(t, int64(3), userCtx.UserID)
	assert.True(t, userCtx.HasRole(RoleGuide))
	assert.False(t, userCtx.HasRole(RoleAdmin))
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(1, 2, time.Minute)
	defer limiter.Close()

	router := setupTestRouter()
	router.POST("/limited", RateLimit(limiter), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/limited", nil)
		req.RemoteAddr = "203.0.113.5:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest("POST", "/limited", nil)
	req.RemoteAddr = "198.51.100.9:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "other clients keep their own bucket")
}

func TestRequestIDAndLogger(t *testing.T) {
	router := setupTestRouter()
	router.Use(RequestID(), RequestLogger(testLogger()), Metrics())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
