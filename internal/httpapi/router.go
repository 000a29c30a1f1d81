package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(handler *Handler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/strava")
	{
		// the callback is reached by provider redirect and authenticates
		// through the stored state token instead of the athlete header
		api.GET("/callback", handler.Callback)

		api.GET("/auth", RequireAthlete, handler.Auth)
		api.POST("/sync", RequireAthlete, handler.Sync)
		api.POST("/disconnect", RequireAthlete, handler.Disconnect)
		api.GET("/status", RequireAthlete, handler.Status)
	}

	return r
}
