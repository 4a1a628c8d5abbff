// Package analytics rolls production runs and their reports up into
// shift/daily/weekly summaries, downtime rankings and utilization figures
// for the reporting layer. The service is stateless; all data access goes
// through the injected store.
package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"production-tracking-backend/internal/metrics"
	"production-tracking-backend/internal/model"
	"production-tracking-backend/internal/store"
)

var hundred = decimal.NewFromInt(100)

// Service computes aggregate production reports.
type Service struct {
	store store.Store
}

// NewService creates an analytics service on top of the given store.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// LineProduction is one line's pack output within a summary.
type LineProduction struct {
	Line            string `json:"line"`
	ProductionPacks int64  `json:"productionPacks"`
}

// ShiftSummary aggregates the runs of one date (optionally narrowed to a
// line and shift type).
type ShiftSummary struct {
	Date                     time.Time        `json:"date"`
	RunCount                 int              `json:"runCount"`
	TotalProductionPacks     int64            `json:"totalProductionPacks"`
	TotalSyrupVolume         decimal.Decimal  `json:"totalSyrupVolume"`
	UnplannedDowntimeMinutes int64            `json:"unplannedDowntimeMinutes"`
	PlannedDowntimeMinutes   int64            `json:"plannedDowntimeMinutes"`
	TotalPlannedTimeMinutes  decimal.Decimal  `json:"totalPlannedTimeMinutes"`
	AvailabilityPercentage   decimal.Decimal  `json:"availabilityPercentage"`
	AverageOEE               decimal.Decimal  `json:"averageOee"`
	WeightedSyrupYield       decimal.Decimal  `json:"weightedSyrupYield"`
	ProductionByLine         []LineProduction `json:"productionByLine"`
}

// ShiftSummary sums production and downtime across the matching runs,
// averages OEE over runs that have a report, and weights the syrup yield by
// each run's pack output. Total planned time is the sum of each run's own
// planned-time computation.
func (s *Service) ShiftSummary(ctx context.Context, date time.Time, lineID *int64, shiftType string) (*ShiftSummary, error) {
	runs, err := s.store.ListRuns(ctx, store.RunFilter{
		From:      date,
		LineID:    lineID,
		ShiftName: shiftType,
	})
	if err != nil {
		return nil, err
	}

	summary := &ShiftSummary{Date: date, RunCount: len(runs)}

	var (
		oeeSum      decimal.Decimal
		oeeCount    int64
		yieldWeight decimal.Decimal
		yieldSum    decimal.Decimal
	)
	for i := range runs {
		run := &runs[i]
		summary.TotalProductionPacks += run.GoodProductsPack
		summary.TotalSyrupVolume = summary.TotalSyrupVolume.Add(run.FinalSyrupVolume)
		summary.UnplannedDowntimeMinutes += run.TotalDowntimeMinutes
		for _, ev := range run.StopEvents {
			if ev.IsPlanned {
				summary.PlannedDowntimeMinutes += ev.DurationMinutes
			}
		}
		summary.TotalPlannedTimeMinutes = summary.TotalPlannedTimeMinutes.Add(plannedMinutes(run))

		if run.Report != nil {
			oeeSum = oeeSum.Add(run.Report.OEE)
			oeeCount++
			weight := decimal.NewFromInt(run.GoodProductsPack)
			yieldSum = yieldSum.Add(run.Report.SyrupYieldPercentage.Mul(weight))
			yieldWeight = yieldWeight.Add(weight)
		}
	}

	if oeeCount > 0 {
		summary.AverageOEE = oeeSum.Div(decimal.NewFromInt(oeeCount)).Round(2)
	}
	if yieldWeight.IsPositive() {
		summary.WeightedSyrupYield = yieldSum.Div(yieldWeight).Round(2)
	}
	if summary.TotalPlannedTimeMinutes.IsPositive() {
		downtime := decimal.NewFromInt(summary.UnplannedDowntimeMinutes)
		summary.AvailabilityPercentage = summary.TotalPlannedTimeMinutes.
			Sub(downtime).
			Div(summary.TotalPlannedTimeMinutes).
			Mul(hundred).
			Round(2)
	}
	summary.ProductionByLine = productionByLine(runs)

	return summary, nil
}

// ShiftBreakdown is one shift's slice of a daily summary.
type ShiftBreakdown struct {
	Shift                    string `json:"shift"`
	TeamLeader               string `json:"teamLeader"`
	RunCount                 int    `json:"runCount"`
	TotalProductionPacks     int64  `json:"totalProductionPacks"`
	UnplannedDowntimeMinutes int64  `json:"unplannedDowntimeMinutes"`
}

// DailySummary aggregates one day across all shifts. AverageOEE averages over
// RunsWithReports, not RunCount; runs without a report do not dilute it.
type DailySummary struct {
	Date                     time.Time        `json:"date"`
	Shifts                   []ShiftBreakdown `json:"shifts"`
	RunCount                 int              `json:"runCount"`
	RunsWithReports          int              `json:"runsWithReports"`
	TotalProductionPacks     int64            `json:"totalProductionPacks"`
	UnplannedDowntimeMinutes int64            `json:"unplannedDowntimeMinutes"`
	AverageOEE               decimal.Decimal  `json:"averageOee"`
}

// DailySummary groups the day's runs by shift and totals them.
func (s *Service) DailySummary(ctx context.Context, date time.Time, lineID *int64) (*DailySummary, error) {
	runs, err := s.store.ListRuns(ctx, store.RunFilter{From: date, LineID: lineID})
	if err != nil {
		return nil, err
	}

	summary := &DailySummary{Date: date, RunCount: len(runs)}

	byShift := make(map[string]*ShiftBreakdown)
	var shiftOrder []string
	var oeeSum decimal.Decimal
	var oeeCount int64
	for i := range runs {
		run := &runs[i]
		key := run.Shift.Name
		b, ok := byShift[key]
		if !ok {
			b = &ShiftBreakdown{Shift: key, TeamLeader: run.TeamLeader}
			byShift[key] = b
			shiftOrder = append(shiftOrder, key)
		}
		b.RunCount++
		b.TotalProductionPacks += run.GoodProductsPack
		b.UnplannedDowntimeMinutes += run.TotalDowntimeMinutes

		summary.TotalProductionPacks += run.GoodProductsPack
		summary.UnplannedDowntimeMinutes += run.TotalDowntimeMinutes
		if run.Report != nil {
			oeeSum = oeeSum.Add(run.Report.OEE)
			oeeCount++
		}
	}
	summary.RunsWithReports = int(oeeCount)
	if oeeCount > 0 {
		summary.AverageOEE = oeeSum.Div(decimal.NewFromInt(oeeCount)).Round(2)
	}
	for _, key := range shiftOrder {
		summary.Shifts = append(summary.Shifts, *byShift[key])
	}
	return summary, nil
}

// WeeklySummary aggregates seven days starting at WeekStart.
type WeeklySummary struct {
	WeekStart                time.Time       `json:"weekStart"`
	WeekEnd                  time.Time       `json:"weekEnd"`
	Days                     []DailySummary  `json:"days"`
	RunCount                 int             `json:"runCount"`
	TotalProductionPacks     int64           `json:"totalProductionPacks"`
	UnplannedDowntimeMinutes int64           `json:"unplannedDowntimeMinutes"`
	AverageOEE               decimal.Decimal `json:"averageOee"`
}

// WeeklySummary builds a daily breakdown for each of the seven days plus
// weekly totals.
func (s *Service) WeeklySummary(ctx context.Context, weekStart time.Time, lineID *int64) (*WeeklySummary, error) {
	weekEnd := weekStart.AddDate(0, 0, 6)
	summary := &WeeklySummary{WeekStart: weekStart, WeekEnd: weekEnd}

	var oeeSum decimal.Decimal
	var oeeCount int64
	for day := 0; day < 7; day++ {
		daily, err := s.DailySummary(ctx, weekStart.AddDate(0, 0, day), lineID)
		if err != nil {
			return nil, err
		}
		summary.Days = append(summary.Days, *daily)
		summary.RunCount += daily.RunCount
		summary.TotalProductionPacks += daily.TotalProductionPacks
		summary.UnplannedDowntimeMinutes += daily.UnplannedDowntimeMinutes
		// Weight by runs that actually have a report, so report-less runs
		// do not drag the weekly average down.
		if daily.RunsWithReports > 0 {
			oeeSum = oeeSum.Add(daily.AverageOEE.Mul(decimal.NewFromInt(int64(daily.RunsWithReports))))
			oeeCount += int64(daily.RunsWithReports)
		}
	}
	if oeeCount > 0 {
		summary.AverageOEE = oeeSum.Div(decimal.NewFromInt(oeeCount)).Round(2)
	}
	return summary, nil
}

// plannedMinutes mirrors the per-run planned-time computation without
// needing the full calculation snapshot.
func plannedMinutes(run *model.ProductionRun) decimal.Decimal {
	d := metrics.RunData{Run: *run, Shift: run.Shift}
	return d.PlannedMinutes()
}

// Preferred display order for known lines; unknown lines sort after them
// alphabetically.
var lineOrder = map[string]int{
	"Line A":   1,
	"Line B":   2,
	"Line C":   3,
	"Line CAN": 4,
}

func productionByLine(runs []model.ProductionRun) []LineProduction {
	totals := make(map[string]int64)
	for i := range runs {
		totals[runs[i].ProductionLine.Name] += runs[i].GoodProductsPack
	}
	out := make([]LineProduction, 0, len(totals))
	for name, packs := range totals {
		out = append(out, LineProduction{Line: name, ProductionPacks: packs})
	}
	sortLines(out)
	return out
}

func sortLines(lines []LineProduction) {
	rank := func(name string) int {
		if r, ok := lineOrder[name]; ok {
			return r
		}
		return 999
	}
	sort.Slice(lines, func(i, j int) bool {
		ri, rj := rank(lines[i].Line), rank(lines[j].Line)
		if ri != rj {
			return ri < rj
		}
		return lines[i].Line < lines[j].Line
	})
}
