package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// JobReporter describes the scheduled background jobs
type JobReporter interface {
	GetJobStatus() map[string]interface{}
}

// HealthCheck handles GET /health. jobs may be nil.
func HealthCheck(db Pinger, jobs JobReporter, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
			})
			return
		}

		response := gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		}
		if jobs != nil {
			response["cron"] = jobs.GetJobStatus()
		}
		c.JSON(http.StatusOK, response)
	}
}
