package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"production-tracking-backend/internal/alert"
	"production-tracking-backend/internal/analytics"
	"production-tracking-backend/internal/mw"
	"production-tracking-backend/internal/report"
	"production-tracking-backend/internal/store"
)

// RouterOptions tunes the middleware on the API group.
type RouterOptions struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, b *report.Builder, opts RouterOptions) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, b, analytics.NewService(s), alert.NewService(s))

	rateLimiter := mw.RateLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst)
	cacheStore := cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	caching := mw.Cache(cacheStore, opts.CacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Aggregate report reads; cached.
		reports := api.Group("/reports")
		reports.Use(caching)
		{
			reports.GET("/shift-summary", handler.GetShiftSummary)
			reports.GET("/daily-summary", handler.GetDailySummary)
			reports.GET("/weekly-summary", handler.GetWeeklySummary)
			reports.GET("/oee-trend", handler.GetOEETrend)
			reports.GET("/downtime/top", handler.GetTopDowntime)
			reports.GET("/downtime/pareto", handler.GetDowntimePareto)
			reports.GET("/utilization", handler.GetLineUtilization)
			reports.GET("/product-trend", handler.GetProductTrend)
			reports.GET("/product-mix", handler.GetProductMix)
		}
		api.POST("/reports/recalculate", handler.RecalculateReports)

		// Alerts are recomputed on every call by design.
		api.GET("/alerts", handler.GetAlerts)

		api.GET("/lines", handler.GetLines)
		api.GET("/runs/:run_id", handler.GetRun)

		api.POST("/orders", handler.CreateOrder)
		api.POST("/runs", handler.CreateRun)
		api.POST("/runs/:run_id/stop-events", handler.CreateStopEvent)
		api.PUT("/runs/:run_id/packaging", handler.PutPackaging)
		api.PUT("/runs/:run_id/utility", handler.PutUtility)
		api.POST("/runs/:run_id/finalize", handler.FinalizeRun)
	}

	return r
}
