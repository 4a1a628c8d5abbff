package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"production-tracking-backend/internal/alert"
	"production-tracking-backend/internal/analytics"
	"production-tracking-backend/internal/report"
	"production-tracking-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	builder   *report.Builder
	analytics *analytics.Service
	alerts    *alert.Service
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, b *report.Builder, a *analytics.Service, al *alert.Service) *Handler {
	return &Handler{
		store:     s,
		builder:   b,
		analytics: a,
		alerts:    al,
	}
}

// parseDateQuery reads a required YYYY-MM-DD query parameter. It aborts with
// 400 and returns false when the value is missing or malformed.
func parseDateQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing '" + name + "' date parameter"})
		return time.Time{}, false
	}
	d, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid '" + name + "' date. Use YYYY-MM-DD."})
		return time.Time{}, false
	}
	return d, true
}

// parseLineQuery reads the optional "line" query parameter.
func parseLineQuery(c *gin.Context) (*int64, bool) {
	raw := c.Query("line")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'line' ID"})
		return nil, false
	}
	return &id, true
}

func parseRunID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("run_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid run ID"})
		return 0, false
	}
	return id, true
}
