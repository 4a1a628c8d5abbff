package analytics

import (
	"context"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"production-tracking-backend/internal/model"
	"production-tracking-backend/internal/store"
)

// fakeStore serves canned runs, machines and downtime rows. ListRuns honors
// the date filter so the daily/weekly roll-ups see realistic slices.
type fakeStore struct {
	store.Store
	runs     []model.ProductionRun
	machines []model.Machine
	rows     []store.DowntimeRow
}

func (f *fakeStore) ListRuns(_ context.Context, filter store.RunFilter) ([]model.ProductionRun, error) {
	to := filter.To
	if to.IsZero() {
		to = filter.From
	}
	var out []model.ProductionRun
	for _, run := range f.runs {
		if run.Date.Before(filter.From) || run.Date.After(to) {
			continue
		}
		if filter.LineID != nil && run.ProductionLineID != *filter.LineID {
			continue
		}
		if filter.ShiftName != "" && run.Shift.Name != filter.ShiftName {
			continue
		}
		out = append(out, run)
	}
	return out, nil
}

func (f *fakeStore) ActiveMachines(_ context.Context, _ int64) ([]model.Machine, error) {
	return f.machines, nil
}

func (f *fakeStore) DowntimeTotals(_ context.Context, _ store.DowntimeFilter) ([]store.DowntimeRow, error) {
	return f.rows, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
}

// testRun builds a completed 8-hour run on the given date and line.
func testRun(date time.Time, line string, shift string, packs, downtime int64, rep *model.ProductionReport) model.ProductionRun {
	start := date.Add(6 * time.Hour)
	end := start.Add(8 * time.Hour)
	return model.ProductionRun{
		Date:                 date,
		ProductionStart:      start,
		ProductionEnd:        &end,
		GoodProductsPack:     packs,
		TotalDowntimeMinutes: downtime,
		IsCompleted:          true,
		ProductionLine:       model.ProductionLine{Name: line},
		Shift:                model.Shift{Name: shift, DurationHours: dec("8")},
		Report:               rep,
	}
}

func report(oee, yield string) *model.ProductionReport {
	return &model.ProductionReport{
		OEE:                  dec(oee),
		SyrupYieldPercentage: dec(yield),
	}
}

func TestShiftSummary(t *testing.T) {
	date := day(30)
	svc := NewService(&fakeStore{runs: []model.ProductionRun{
		testRun(date, "Line A", model.Shift8H1, 100, 60, report("72.00", "90.00")),
		testRun(date, "Line B", model.Shift8H1, 300, 36, report("68.00", "80.00")),
	}})

	summary, err := svc.ShiftSummary(context.Background(), date, nil, "")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.RunCount)
	assert.Equal(t, int64(400), summary.TotalProductionPacks)
	assert.Equal(t, int64(96), summary.UnplannedDowntimeMinutes)
	assert.True(t, summary.TotalPlannedTimeMinutes.Equal(dec("960")))
	// (960 - 96) / 960 * 100
	assert.True(t, summary.AvailabilityPercentage.Equal(dec("90")),
		"got %s", summary.AvailabilityPercentage)
	assert.True(t, summary.AverageOEE.Equal(dec("70")), "got %s", summary.AverageOEE)
	// (90*100 + 80*300) / 400
	assert.True(t, summary.WeightedSyrupYield.Equal(dec("82.5")),
		"got %s", summary.WeightedSyrupYield)
}

func TestShiftSummaryWeightedYieldSingleRun(t *testing.T) {
	date := day(30)
	svc := NewService(&fakeStore{runs: []model.ProductionRun{
		testRun(date, "Line A", model.Shift8H1, 250, 0, report("85.00", "93.40")),
	}})

	summary, err := svc.ShiftSummary(context.Background(), date, nil, "")
	require.NoError(t, err)
	assert.True(t, summary.WeightedSyrupYield.Equal(dec("93.4")),
		"single run must report its own yield, got %s", summary.WeightedSyrupYield)
}

func TestShiftSummaryEqualWeightsIsSimpleMean(t *testing.T) {
	date := day(30)
	svc := NewService(&fakeStore{runs: []model.ProductionRun{
		testRun(date, "Line A", model.Shift8H1, 200, 0, report("70.00", "92.00")),
		testRun(date, "Line B", model.Shift8H1, 200, 0, report("70.00", "88.00")),
	}})

	summary, err := svc.ShiftSummary(context.Background(), date, nil, "")
	require.NoError(t, err)
	assert.True(t, summary.WeightedSyrupYield.Equal(dec("90")),
		"got %s", summary.WeightedSyrupYield)
}

func TestShiftSummaryPlannedDowntime(t *testing.T) {
	date := day(30)
	run := testRun(date, "Line A", model.Shift8H1, 100, 45, nil)
	run.StopEvents = []model.StopEvent{
		{DurationMinutes: 30, IsPlanned: true},
		{DurationMinutes: 45, IsPlanned: false},
		{DurationMinutes: 15, IsPlanned: true},
	}
	svc := NewService(&fakeStore{runs: []model.ProductionRun{run}})

	summary, err := svc.ShiftSummary(context.Background(), date, nil, "")
	require.NoError(t, err)
	assert.Equal(t, int64(45), summary.PlannedDowntimeMinutes)
	assert.Equal(t, int64(45), summary.UnplannedDowntimeMinutes)
	// No reports in the slice.
	assert.True(t, summary.AverageOEE.IsZero())
	assert.True(t, summary.WeightedSyrupYield.IsZero())
}

func TestProductionByLineOrdering(t *testing.T) {
	date := day(30)
	svc := NewService(&fakeStore{runs: []model.ProductionRun{
		testRun(date, "Line X", model.Shift8H1, 10, 0, nil),
		testRun(date, "Line CAN", model.Shift8H1, 40, 0, nil),
		testRun(date, "Line B", model.Shift8H1, 20, 0, nil),
		testRun(date, "Line A", model.Shift8H1, 30, 0, nil),
		testRun(date, "Line A", model.Shift8H2, 5, 0, nil),
	}})

	summary, err := svc.ShiftSummary(context.Background(), date, nil, "")
	require.NoError(t, err)

	var names []string
	for _, lp := range summary.ProductionByLine {
		names = append(names, lp.Line)
	}
	assert.Equal(t, []string{"Line A", "Line B", "Line CAN", "Line X"}, names)
	assert.Equal(t, int64(35), summary.ProductionByLine[0].ProductionPacks)
}

func TestDailySummaryGroupsByShift(t *testing.T) {
	date := day(30)
	svc := NewService(&fakeStore{runs: []model.ProductionRun{
		testRun(date, "Line A", model.Shift8H1, 100, 30, report("80.00", "90.00")),
		testRun(date, "Line B", model.Shift8H1, 150, 10, nil),
		testRun(date, "Line A", model.Shift8H2, 200, 20, report("60.00", "85.00")),
	}})

	summary, err := svc.DailySummary(context.Background(), date, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.RunCount)
	assert.Equal(t, int64(450), summary.TotalProductionPacks)
	assert.Equal(t, int64(60), summary.UnplannedDowntimeMinutes)
	// Average over the two runs that have a report.
	assert.True(t, summary.AverageOEE.Equal(dec("70")), "got %s", summary.AverageOEE)

	assert.Equal(t, 2, summary.RunsWithReports)

	require.Len(t, summary.Shifts, 2)
	assert.Equal(t, model.Shift8H1, summary.Shifts[0].Shift)
	assert.Equal(t, 2, summary.Shifts[0].RunCount)
	assert.Equal(t, int64(250), summary.Shifts[0].TotalProductionPacks)
	assert.Equal(t, model.Shift8H2, summary.Shifts[1].Shift)
	assert.Equal(t, 1, summary.Shifts[1].RunCount)
}

func TestWeeklySummary(t *testing.T) {
	weekStart := day(24)
	svc := NewService(&fakeStore{runs: []model.ProductionRun{
		testRun(day(24), "Line A", model.Shift8H1, 100, 10, report("90.00", "90.00")),
		testRun(day(26), "Line A", model.Shift8H1, 200, 20, report("60.00", "90.00")),
		testRun(day(26), "Line B", model.Shift8H1, 300, 30, report("60.00", "90.00")),
		// Outside the week, must not contribute.
		testRun(day(31), "Line A", model.Shift8H1, 999, 99, report("10.00", "10.00")),
	}})

	summary, err := svc.WeeklySummary(context.Background(), weekStart, nil)
	require.NoError(t, err)

	assert.Equal(t, weekStart, summary.WeekStart)
	assert.Equal(t, day(30), summary.WeekEnd)
	require.Len(t, summary.Days, 7)
	assert.Equal(t, 3, summary.RunCount)
	assert.Equal(t, int64(600), summary.TotalProductionPacks)
	assert.Equal(t, int64(60), summary.UnplannedDowntimeMinutes)
	// Run-count weighted: (90*1 + 60*2) / 3.
	assert.True(t, summary.AverageOEE.Equal(dec("70")), "got %s", summary.AverageOEE)
}

func TestWeeklySummaryIgnoresReportlessRuns(t *testing.T) {
	weekStart := day(24)
	svc := NewService(&fakeStore{runs: []model.ProductionRun{
		testRun(day(24), "Line A", model.Shift8H1, 100, 0, report("80.00", "90.00")),
		testRun(day(26), "Line A", model.Shift8H1, 100, 0, report("40.00", "90.00")),
		// Still awaiting its report; must not dilute the weekly average.
		testRun(day(26), "Line B", model.Shift8H1, 100, 0, nil),
	}})

	summary, err := svc.WeeklySummary(context.Background(), weekStart, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.RunCount)
	// Average over the two runs with reports: (80 + 40) / 2.
	assert.True(t, summary.AverageOEE.Equal(dec("60")), "got %s", summary.AverageOEE)
}

func TestLineUtilization(t *testing.T) {
	lineID := int64(1)
	runs := []model.ProductionRun{
		testRun(day(29), "Line A", model.Shift8H1, 100, 60, nil),
		testRun(day(30), "Line A", model.Shift8H1, 100, 60, nil),
	}
	runs[0].ProductionLineID = lineID
	runs[1].ProductionLineID = lineID

	svc := NewService(&fakeStore{
		runs: runs,
		machines: []model.Machine{
			{MachineName: "Blower", RatedOutput: dec("9000")},
			{MachineName: "Filler", RatedOutput: dec("600")},
		},
	})

	out, err := svc.LineUtilization(context.Background(), day(29), day(30), lineID)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Downtime is pooled at line level: both machines report the same figure.
	for _, m := range out {
		assert.True(t, m.UtilizationPercentage.Equal(dec("87.5")),
			"%s: got %s", m.Machine, m.UtilizationPercentage)
		assert.True(t, m.TotalPlannedTimeMinutes.Equal(dec("960")))
		assert.Equal(t, int64(120), m.TotalDowntimeMinutes)
		assert.True(t, m.ActualRuntimeMinutes.Equal(dec("840")))
	}
}

func TestOEETrend(t *testing.T) {
	runs := []model.ProductionRun{
		testRun(day(29), "Line A", model.Shift8H1, 100, 0, &model.ProductionReport{
			OEE: dec("80.00"), Availability: dec("90.00"),
			Performance: dec("95.00"), Quality: dec("99.00"),
		}),
		testRun(day(29), "Line A", model.Shift8H2, 100, 0, &model.ProductionReport{
			OEE: dec("60.00"), Availability: dec("70.00"),
			Performance: dec("85.00"), Quality: dec("97.00"),
		}),
		testRun(day(30), "Line A", model.Shift8H1, 100, 0, &model.ProductionReport{
			OEE: dec("50.00"), Availability: dec("60.00"),
			Performance: dec("75.00"), Quality: dec("95.00"),
		}),
		// No report: excluded from the trend entirely.
		testRun(day(30), "Line A", model.Shift8H2, 100, 0, nil),
	}
	svc := NewService(&fakeStore{runs: runs})

	points, err := svc.OEETrend(context.Background(), day(29), day(30), nil)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, day(29), points[0].Date)
	assert.Equal(t, 2, points[0].RunCount)
	assert.True(t, points[0].AvgOEE.Equal(dec("70")), "got %s", points[0].AvgOEE)
	assert.True(t, points[0].AvgAvailability.Equal(dec("80")))

	assert.Equal(t, day(30), points[1].Date)
	assert.Equal(t, 1, points[1].RunCount)
	assert.True(t, points[1].AvgOEE.Equal(dec("50")))
}

func TestProductTrend(t *testing.T) {
	mk := func(d time.Time, product string) model.ProductionRun {
		run := testRun(d, "Line A", model.Shift8H1, 100, 0, nil)
		run.Product = model.Product{Name: product}
		return run
	}
	svc := NewService(&fakeStore{runs: []model.ProductionRun{
		mk(day(29), "Cola"),
		mk(day(29), "Cola"),
		mk(day(29), "Orange"),
		mk(day(30), "Orange"),
	}})

	trend, err := svc.ProductTrend(context.Background(), day(29), day(30), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Cola", "Orange"}, trend.Products)
	require.Len(t, trend.Rows, 2)
	assert.Equal(t, int64(2), trend.Rows[0].Counts["Cola"])
	assert.Equal(t, int64(3), trend.Rows[0].Total)
	assert.Equal(t, int64(2), trend.ColumnTotals["Orange"])
	assert.Equal(t, int64(4), trend.GrandTotal)
}

func TestProductMix(t *testing.T) {
	mk := func(line, product, size string, pkgType model.PackageType, packs int64) model.ProductionRun {
		run := testRun(day(30), line, model.Shift8H1, packs, 0, nil)
		run.Product = model.Product{Name: product}
		run.PackageSize = model.PackageSize{Size: size, PackageType: pkgType}
		return run
	}
	svc := NewService(&fakeStore{runs: []model.ProductionRun{
		mk("Line A", "Cola", "500ml", model.PackageTypePET, 100),
		mk("Line A", "Cola", "500ml", model.PackageTypePET, 150),
		mk("Line CAN", "Cola", "330ml", model.PackageTypeCan, 200),
		mk("Line A", "Orange", "500ml", model.PackageTypePET, 50),
	}})

	mix, err := svc.ProductMix(context.Background(), day(30), day(30), nil)
	require.NoError(t, err)

	require.Len(t, mix.Rows, 3)
	assert.Equal(t, "Line A", mix.Rows[0].Line)
	assert.Equal(t, "Cola", mix.Rows[0].Product)
	assert.Equal(t, int64(2), mix.Rows[0].RunCount)
	assert.Equal(t, int64(250), mix.Rows[0].TotalPacks)
	assert.Equal(t, int64(300), mix.TotalsByLine["Line A"])
	assert.Equal(t, int64(450), mix.TotalsByProduct["Cola"])
	assert.Equal(t, int64(500), mix.GrandTotalPacks)
}

func TestBuildPareto(t *testing.T) {
	t.Run("cumulative curve and 80 percent cutoff", func(t *testing.T) {
		p := BuildPareto([]store.DowntimeRow{
			{Code: "MECH", CodeReason: "Mechanical failure", TotalDuration: 50},
			{Code: "ELEC", CodeReason: "Electrical failure", TotalDuration: 30},
			{Code: "CHG", CodeReason: "Changeover", TotalDuration: 20},
		})

		assert.Equal(t, []int64{50, 30, 20}, p.Values)
		assert.Equal(t, []float64{50.0, 80.0, 100.0}, p.CumulativePercentages)
		assert.Equal(t, int64(100), p.TotalDuration)
		require.NotNil(t, p.Pareto80Index)
		assert.Equal(t, 1, *p.Pareto80Index)
		assert.Equal(t, "MECH - Mechanical failure", p.Categories[0])
	})

	t.Run("curve is monotonic and ends at 100", func(t *testing.T) {
		p := BuildPareto([]store.DowntimeRow{
			{Code: "A", TotalDuration: 17},
			{Code: "B", TotalDuration: 13},
			{Code: "C", TotalDuration: 7},
			{Code: "D", TotalDuration: 3},
		})
		for i := 1; i < len(p.CumulativePercentages); i++ {
			assert.GreaterOrEqual(t, p.CumulativePercentages[i], p.CumulativePercentages[i-1])
		}
		assert.InDelta(t, 100.0, p.CumulativePercentages[len(p.CumulativePercentages)-1], 0.05)
	})

	t.Run("empty input yields empty structure", func(t *testing.T) {
		p := BuildPareto(nil)
		assert.Empty(t, p.Categories)
		assert.Empty(t, p.Values)
		assert.Empty(t, p.CumulativePercentages)
		assert.Zero(t, p.TotalDuration)
		assert.Nil(t, p.Pareto80Index)
	})

	t.Run("long reasons are truncated and missing ones labelled", func(t *testing.T) {
		p := BuildPareto([]store.DowntimeRow{
			{Code: "X1", CodeReason: "An exceptionally verbose downtime reason", TotalDuration: 10},
			{Code: "X2", TotalDuration: 5},
		})
		assert.Equal(t, "X1 - An exceptionally verbo...", p.Categories[0])
		assert.Equal(t, "X2 - Unknown", p.Categories[1])
	})

	t.Run("multi-byte reasons are truncated on rune boundaries", func(t *testing.T) {
		reason := "灌装机故障灌装机故障灌装机故障灌装机故障灌装机故障灌装机故障"
		p := BuildPareto([]store.DowntimeRow{
			{Code: "X3", CodeReason: reason, TotalDuration: 10},
		})
		want := "X3 - " + string([]rune(reason)[:22]) + "..."
		assert.Equal(t, want, p.Categories[0])
		assert.True(t, utf8.ValidString(p.Categories[0]))
	})
}

func TestTopDowntimeReasonsDefaultLimit(t *testing.T) {
	fs := &fakeStore{rows: []store.DowntimeRow{{Code: "MECH", TotalDuration: 10}}}
	svc := NewService(fs)

	rows, err := svc.TopDowntimeReasons(context.Background(), store.DowntimeFilter{
		From: day(29), To: day(30),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "MECH", rows[0].Code)
}
