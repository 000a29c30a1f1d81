package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const athleteIDKey = "athleteID"

// AthleteIDHeader carries the authenticated athlete on API requests.
// Authentication itself happens upstream; this service trusts the header.
const AthleteIDHeader = "X-Athlete-ID"

// RequireAthlete rejects requests that don't identify an athlete.
func RequireAthlete(c *gin.Context) {
	athleteID := strings.TrimSpace(c.GetHeader(AthleteIDHeader))
	if athleteID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":             "unauthorized",
			"error_description": "X-Athlete-ID header required.",
		})
		return
	}
	c.Set(athleteIDKey, athleteID)
	c.Next()
}

// AthleteID returns the athlete bound to the request by RequireAthlete.
func AthleteID(c *gin.Context) string {
	return c.GetString(athleteIDKey)
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
