package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stridesync/internal/service"
	"stridesync/internal/store"
	"stridesync/internal/strava"
)

// settingsPath is where the browser lands after the OAuth callback
const settingsPath = "/settings"

// Handler serves the Strava connection and sync endpoints.
type Handler struct {
	connect *service.ConnectService
	sync    *service.SyncService
	logger  *zap.Logger
}

// NewHandler creates the handler set.
func NewHandler(connect *service.ConnectService, sync *service.SyncService, logger *zap.Logger) *Handler {
	return &Handler{connect: connect, sync: sync, logger: logger}
}

// Auth starts the OAuth flow and returns the provider authorization URL.
func (h *Handler) Auth(c *gin.Context) {
	authURL, err := h.connect.InitiateConnect(c.Request.Context(), AthleteID(c))
	if err != nil {
		if errors.Is(err, strava.ErrNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":             "not_configured",
				"error_description": "Strava integration is not configured.",
			})
			return
		}
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authorization_url": authURL})
}

// Callback finishes the OAuth flow. It is reached by provider redirect, so
// every outcome is itself a redirect back to settings rather than a JSON
// response.
func (h *Handler) Callback(c *gin.Context) {
	if c.Query("error") != "" {
		h.settingsRedirect(c, "strava_error", "access_denied")
		return
	}

	code := strings.TrimSpace(c.Query("code"))
	state := strings.TrimSpace(c.Query("state"))
	if code == "" || state == "" {
		h.settingsRedirect(c, "strava_error", "invalid_request")
		return
	}

	_, err := h.connect.CompleteConnect(c.Request.Context(), code, state, c.Query("scope"))
	if err != nil {
		h.logger.Warn("strava callback failed", zap.Error(err))
		if errors.Is(err, store.ErrStateNotFound) {
			h.settingsRedirect(c, "strava_error", "invalid_request")
			return
		}
		h.settingsRedirect(c, "strava_error", "exchange_failed")
		return
	}

	h.settingsRedirect(c, "strava_connected", "true")
}

// Sync runs one sync attempt for the athlete.
func (h *Handler) Sync(c *gin.Context) {
	res, err := h.sync.Sync(c.Request.Context(), AthleteID(c))
	if err != nil {
		h.respondSyncError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"synced":  res.Synced,
		"total":   res.Total,
	})
}

// Disconnect removes the athlete's Strava credentials.
func (h *Handler) Disconnect(c *gin.Context) {
	if err := h.connect.Disconnect(c.Request.Context(), AthleteID(c)); err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Status reports connection state, sync history and activity summary.
func (h *Handler) Status(c *gin.Context) {
	status, err := h.sync.Status(c.Request.Context(), AthleteID(c))
	if err != nil {
		h.serverError(c, err)
		return
	}

	resp := gin.H{
		"connected":                  status.Connected,
		"sync_status":                status.SyncStatus,
		"error_count":                status.ErrorCount,
		"initial_backfill_completed": status.InitialBackfillCompleted,
		"stats": gin.H{
			"total_activities":     status.Summary.TotalActivities,
			"total_distance":       status.Summary.TotalDistance,
			"total_time":           status.Summary.TotalTime,
			"total_elevation_gain": status.Summary.TotalElevation,
		},
	}
	if status.StravaAthleteID != nil {
		resp["athlete"] = gin.H{
			"id":    *status.StravaAthleteID,
			"name":  status.AthleteName,
			"image": status.AthleteImage,
		}
	}
	if status.LastSync != nil {
		resp["last_sync"] = status.LastSync.UTC().Format(time.RFC3339)
	}
	if status.LastError != nil {
		resp["last_error"] = *status.LastError
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) respondSyncError(c *gin.Context, err error) {
	var authErr *strava.AuthError
	var apiErr *strava.APIError
	switch {
	case errors.Is(err, store.ErrNotConnected):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "not_connected",
			"error_description": "Strava account is not connected.",
		})
	case errors.Is(err, store.ErrSyncInProgress):
		c.JSON(http.StatusConflict, gin.H{
			"error":             "sync_in_progress",
			"error_description": "A sync is already running for this athlete.",
		})
	case errors.As(err, &authErr):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "reconnect_required",
			"error_description": "Strava authorization was rejected, reconnect required.",
		})
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":             "upstream_unavailable",
			"error_description": "Strava is unavailable, try again later.",
		})
	default:
		h.serverError(c, err)
	}
}

func (h *Handler) serverError(c *gin.Context, err error) {
	h.logger.Error("request failed",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":             "server_error",
		"error_description": "Internal server error.",
	})
}

func (h *Handler) settingsRedirect(c *gin.Context, key, value string) {
	q := url.Values{}
	q.Set(key, value)
	c.Redirect(http.StatusFound, settingsPath+"?"+q.Encode())
}
