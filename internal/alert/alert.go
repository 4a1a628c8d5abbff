// Package alert derives threshold alerts from today's production reports.
// Alerts are a read-time projection: nothing is persisted and every call
// recomputes from the current data.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"production-tracking-backend/internal/store"
)

// Alert types.
const (
	TypeLowOEE       = "LOW_OEE"
	TypeHighDowntime = "HIGH_DOWNTIME"
	TypeLowQuality   = "LOW_QUALITY"
)

// Severities.
const (
	SeverityMedium = "MEDIUM"
	SeverityHigh   = "HIGH"
)

// Thresholds. A run can breach several independently and then carries one
// alert per breach.
var (
	oeeWarn     = decimal.NewFromInt(60)
	oeeCritical = decimal.NewFromInt(40)

	downtimeWarnMinutes     = int64(60)
	downtimeCriticalMinutes = int64(120)

	qualityWarn     = decimal.NewFromInt(95)
	qualityCritical = decimal.NewFromInt(90)
)

// Alert is one threshold breach on one run.
type Alert struct {
	Type        string          `json:"type"`
	Severity    string          `json:"severity"`
	Message     string          `json:"message"`
	RunID       int64           `json:"runId"`
	BatchNumber string          `json:"batchNumber"`
	Value       decimal.Decimal `json:"value"`
}

// Service scans recent runs for threshold breaches.
type Service struct {
	store store.Store
	// now is swappable for tests.
	now func() time.Time
}

// NewService creates an alert service on top of the given store.
func NewService(s store.Store) *Service {
	return &Service{store: s, now: time.Now}
}

// Alerts scans today's runs that have a report attached and emits one alert
// per threshold breach. lineID narrows the scan to one line.
func (s *Service) Alerts(ctx context.Context, lineID *int64) ([]Alert, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	runs, err := s.store.ListRuns(ctx, store.RunFilter{From: today, LineID: lineID})
	if err != nil {
		return nil, err
	}

	alerts := []Alert{}
	for i := range runs {
		run := &runs[i]
		if run.Report == nil {
			continue
		}
		rep := run.Report

		// A zero metric means "not yet computable" (e.g. no packaging record
		// entered), not a genuine breach; skip it.
		if !rep.OEE.IsZero() && rep.OEE.LessThan(oeeWarn) {
			severity := SeverityMedium
			if rep.OEE.LessThan(oeeCritical) {
				severity = SeverityHigh
			}
			alerts = append(alerts, Alert{
				Type:        TypeLowOEE,
				Severity:    severity,
				Message:     fmt.Sprintf("Low OEE (%s%%) in %s", rep.OEE, run.BatchNumber),
				RunID:       run.ID,
				BatchNumber: run.BatchNumber,
				Value:       rep.OEE,
			})
		}

		if run.TotalDowntimeMinutes > downtimeWarnMinutes {
			severity := SeverityMedium
			if run.TotalDowntimeMinutes > downtimeCriticalMinutes {
				severity = SeverityHigh
			}
			alerts = append(alerts, Alert{
				Type:        TypeHighDowntime,
				Severity:    severity,
				Message:     fmt.Sprintf("High downtime (%d min) in %s", run.TotalDowntimeMinutes, run.BatchNumber),
				RunID:       run.ID,
				BatchNumber: run.BatchNumber,
				Value:       decimal.NewFromInt(run.TotalDowntimeMinutes),
			})
		}

		if !rep.Quality.IsZero() && rep.Quality.LessThan(qualityWarn) {
			severity := SeverityMedium
			if rep.Quality.LessThan(qualityCritical) {
				severity = SeverityHigh
			}
			alerts = append(alerts, Alert{
				Type:        TypeLowQuality,
				Severity:    severity,
				Message:     fmt.Sprintf("Low quality (%s%%) in %s", rep.Quality, run.BatchNumber),
				RunID:       run.ID,
				BatchNumber: run.BatchNumber,
				Value:       rep.Quality,
			})
		}
	}
	return alerts, nil
}
