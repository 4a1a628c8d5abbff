package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"production-tracking-backend/internal/store"
)

// GetShiftSummary handles GET /api/reports/shift-summary?date=&line=&shift=.
func (h *Handler) GetShiftSummary(c *gin.Context) {
	date, ok := parseDateQuery(c, "date")
	if !ok {
		return
	}
	lineID, ok := parseLineQuery(c)
	if !ok {
		return
	}

	summary, err := h.analytics.ShiftSummary(c.Request.Context(), date, lineID, c.Query("shift"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to build shift summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetDailySummary handles GET /api/reports/daily-summary?date=&line=.
func (h *Handler) GetDailySummary(c *gin.Context) {
	date, ok := parseDateQuery(c, "date")
	if !ok {
		return
	}
	lineID, ok := parseLineQuery(c)
	if !ok {
		return
	}

	summary, err := h.analytics.DailySummary(c.Request.Context(), date, lineID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to build daily summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetWeeklySummary handles GET /api/reports/weekly-summary?week_start=&line=.
func (h *Handler) GetWeeklySummary(c *gin.Context) {
	weekStart, ok := parseDateQuery(c, "week_start")
	if !ok {
		return
	}
	lineID, ok := parseLineQuery(c)
	if !ok {
		return
	}

	summary, err := h.analytics.WeeklySummary(c.Request.Context(), weekStart, lineID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to build weekly summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetOEETrend handles GET /api/reports/oee-trend?start=&end=&line=.
func (h *Handler) GetOEETrend(c *gin.Context) {
	start, ok := parseDateQuery(c, "start")
	if !ok {
		return
	}
	end, ok := parseDateQuery(c, "end")
	if !ok {
		return
	}
	lineID, ok := parseLineQuery(c)
	if !ok {
		return
	}

	trend, err := h.analytics.OEETrend(c.Request.Context(), start, end, lineID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to build OEE trend"})
		return
	}
	c.JSON(http.StatusOK, trend)
}

func downtimeFilter(c *gin.Context) (store.DowntimeFilter, bool) {
	start, ok := parseDateQuery(c, "start")
	if !ok {
		return store.DowntimeFilter{}, false
	}
	end, ok := parseDateQuery(c, "end")
	if !ok {
		return store.DowntimeFilter{}, false
	}
	lineID, ok := parseLineQuery(c)
	if !ok {
		return store.DowntimeFilter{}, false
	}

	f := store.DowntimeFilter{From: start, To: end, LineID: lineID}
	if raw := c.Query("machine"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'machine' ID"})
			return store.DowntimeFilter{}, false
		}
		f.MachineID = &id
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit'"})
			return store.DowntimeFilter{}, false
		}
		f.Limit = limit
	}
	return f, true
}

// GetTopDowntime handles GET /api/reports/downtime/top.
func (h *Handler) GetTopDowntime(c *gin.Context) {
	f, ok := downtimeFilter(c)
	if !ok {
		return
	}
	rows, err := h.analytics.TopDowntimeReasons(c.Request.Context(), f)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to rank downtime"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetDowntimePareto handles GET /api/reports/downtime/pareto.
func (h *Handler) GetDowntimePareto(c *gin.Context) {
	f, ok := downtimeFilter(c)
	if !ok {
		return
	}
	pareto, err := h.analytics.DowntimePareto(c.Request.Context(), f)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to build Pareto data"})
		return
	}
	c.JSON(http.StatusOK, pareto)
}

// GetLineUtilization handles GET /api/reports/utilization?start=&end=&line=.
// The line parameter is required here: utilization is a per-line report.
func (h *Handler) GetLineUtilization(c *gin.Context) {
	start, ok := parseDateQuery(c, "start")
	if !ok {
		return
	}
	end, ok := parseDateQuery(c, "end")
	if !ok {
		return
	}
	lineID, ok := parseLineQuery(c)
	if !ok {
		return
	}
	if lineID == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing 'line' parameter"})
		return
	}

	data, err := h.analytics.LineUtilization(c.Request.Context(), start, end, *lineID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute utilization"})
		return
	}
	c.JSON(http.StatusOK, data)
}

// GetProductTrend handles GET /api/reports/product-trend?start=&end=&line=.
func (h *Handler) GetProductTrend(c *gin.Context) {
	start, ok := parseDateQuery(c, "start")
	if !ok {
		return
	}
	end, ok := parseDateQuery(c, "end")
	if !ok {
		return
	}
	lineID, ok := parseLineQuery(c)
	if !ok {
		return
	}

	trend, err := h.analytics.ProductTrend(c.Request.Context(), start, end, lineID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to build product trend"})
		return
	}
	c.JSON(http.StatusOK, trend)
}

// GetProductMix handles GET /api/reports/product-mix?start=&end=&line=.
func (h *Handler) GetProductMix(c *gin.Context) {
	start, ok := parseDateQuery(c, "start")
	if !ok {
		return
	}
	end, ok := parseDateQuery(c, "end")
	if !ok {
		return
	}
	lineID, ok := parseLineQuery(c)
	if !ok {
		return
	}

	mix, err := h.analytics.ProductMix(c.Request.Context(), start, end, lineID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to build product mix"})
		return
	}
	c.JSON(http.StatusOK, mix)
}

// GetAlerts handles GET /api/alerts?line=.
func (h *Handler) GetAlerts(c *gin.Context) {
	lineID, ok := parseLineQuery(c)
	if !ok {
		return
	}
	alerts, err := h.alerts.Alerts(c.Request.Context(), lineID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute alerts"})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// GetLines handles GET /api/lines.
func (h *Handler) GetLines(c *gin.Context) {
	lines, err := h.store.ListLines(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to list production lines"})
		return
	}
	c.JSON(http.StatusOK, lines)
}

// recalculateRequest is the body of POST /api/reports/recalculate.
type recalculateRequest struct {
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate"`
	Force     bool   `json:"force"`
}

// RecalculateReports handles POST /api/reports/recalculate: a batch rebuild
// of reports over a date range. Per-run failures are reported, not fatal.
func (h *Handler) RecalculateReports(c *gin.Context) {
	var req recalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	start, err := time.ParseInLocation("2006-01-02", req.StartDate, time.UTC)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'startDate'. Use YYYY-MM-DD."})
		return
	}
	end := start
	if req.EndDate != "" {
		end, err = time.ParseInLocation("2006-01-02", req.EndDate, time.UTC)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'endDate'. Use YYYY-MM-DD."})
			return
		}
	}

	result, err := h.builder.RecalculateRange(c.Request.Context(), start, end, req.Force)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Batch recalculation failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}
