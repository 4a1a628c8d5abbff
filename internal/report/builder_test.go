package report

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"production-tracking-backend/internal/metrics"
	"production-tracking-backend/internal/model"
	"production-tracking-backend/internal/store"
)

type fakeStore struct {
	store.Store

	mu         sync.Mutex
	data       map[int64]*metrics.RunData
	runs       []model.ProductionRun
	saved      []*model.ProductionReport
	lastFilter store.RunFilter
}

func (f *fakeStore) RunData(_ context.Context, runID int64) (*metrics.RunData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.data[runID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) SaveReport(_ context.Context, rep *model.ProductionReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, rep)
	return nil
}

func (f *fakeStore) ListRuns(_ context.Context, filter store.RunFilter) ([]model.ProductionRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	return f.runs, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fullRunData is a complete snapshot: every calculator has its inputs.
func fullRunData(runID int64) *metrics.RunData {
	start := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)
	preformUsed, preformReject := int64(9000), int64(200)
	productReject, bottleReject := int64(100), int64(50)
	return &metrics.RunData{
		Run: model.ProductionRun{
			ID:                   runID,
			ProductionStart:      start,
			ProductionEnd:        &end,
			TotalDowntimeMinutes: 48,
			GoodProductsPack:     700,
			MixingRatio:          dec("5"),
			FinalSyrupVolume:     dec("900"),
			IsCompleted:          true,
		},
		PackageSize: model.PackageSize{VolumeML: 500, BottlePerPack: 12},
		Shift:       model.Shift{Name: model.Shift8H1, DurationHours: dec("8")},
		MainMachine: &model.Machine{RatedOutput: dec("1400"), MainMachine: true, IsActive: true},
		Packaging: &model.PackagingMaterial{
			QtyPreformUsed:   &preformUsed,
			QtyPreformReject: &preformReject,
			QtyProductReject: &productReject,
			QtyBottleReject:  &bottleReject,
		},
		Utility: &model.Utility{
			KgCO2: decimal.NullDecimal{Decimal: dec("80"), Valid: true},
		},
	}
}

func TestComputeFillsEveryMetric(t *testing.T) {
	rep := Compute(fullRunData(1))

	assert.Equal(t, int64(1), rep.ProductionRunID)
	// 480 planned, 48 downtime.
	assert.True(t, rep.Availability.Equal(dec("90")), "got %s", rep.Availability)
	// 8400 units over 432 operating minutes at 1400/h -> 10080 theoretical.
	assert.True(t, rep.Performance.Equal(dec("83.33")), "got %s", rep.Performance)
	// 8400 / 8550.
	assert.True(t, rep.Quality.Equal(dec("98.25")), "got %s", rep.Quality)
	assert.True(t, rep.OEE.Equal(metrics.OEE(rep.Availability, rep.Performance, rep.Quality)))
	assert.True(t, rep.SyrupYieldPercentage.Equal(dec("93.33")), "got %s", rep.SyrupYieldPercentage)
	assert.True(t, rep.PreformYieldPercentage.Valid)
	assert.True(t, rep.BottleRejectPercentage.Valid)
	assert.True(t, rep.CO2UtilizationPercentage.Valid)
	// Never derived by the calculators; stays "not measured".
	assert.False(t, rep.LabelRejectPercentage.Valid)
	assert.False(t, rep.ShrinkWrapPercentage.Valid)
}

func TestComputeIsDeterministic(t *testing.T) {
	first := Compute(fullRunData(1))
	second := Compute(fullRunData(1))
	assert.Equal(t, first, second)
}

func TestRecalculateIdempotent(t *testing.T) {
	fs := &fakeStore{data: map[int64]*metrics.RunData{1: fullRunData(1)}}
	b := NewBuilder(fs)

	first, err := b.Recalculate(context.Background(), 1)
	require.NoError(t, err)
	second, err := b.Recalculate(context.Background(), 1)
	require.NoError(t, err)

	assert.True(t, first.OEE.Equal(second.OEE))
	assert.True(t, first.Availability.Equal(second.Availability))
	assert.True(t, first.Performance.Equal(second.Performance))
	assert.True(t, first.Quality.Equal(second.Quality))
	assert.True(t, first.SyrupYieldPercentage.Equal(second.SyrupYieldPercentage))
	assert.Len(t, fs.saved, 2, "every recalculation persists the report")
}

func TestRecalculateUnknownRun(t *testing.T) {
	b := NewBuilder(&fakeStore{data: map[int64]*metrics.RunData{}})
	_, err := b.Recalculate(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecalculateConcurrentTriggers(t *testing.T) {
	fs := &fakeStore{data: map[int64]*metrics.RunData{1: fullRunData(1)}}
	b := NewBuilder(fs)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = b.Recalculate(context.Background(), 1)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, fs.saved, 8)
	for _, rep := range fs.saved {
		assert.True(t, rep.OEE.Equal(fs.saved[0].OEE))
	}
}

func TestRecalculateRangeContinuesOnFailure(t *testing.T) {
	fs := &fakeStore{
		data: map[int64]*metrics.RunData{
			1: fullRunData(1),
			3: fullRunData(3),
		},
		runs: []model.ProductionRun{
			{ID: 1, BatchNumber: "B1"},
			{ID: 2, BatchNumber: "B2"}, // no snapshot: calculation fails
			{ID: 3, BatchNumber: "B3"},
		},
	}
	b := NewBuilder(fs)

	result, err := b.RecalculateRange(context.Background(), day(29), day(30), false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, int64(2), result.Failures[0].RunID)
	assert.Equal(t, "B2", result.Failures[0].BatchNumber)
	assert.Contains(t, result.Failures[0].Err, store.ErrNotFound.Error())
}

func TestRecalculateRangeFilter(t *testing.T) {
	fs := &fakeStore{}
	b := NewBuilder(fs)

	_, err := b.RecalculateRange(context.Background(), day(29), day(30), false)
	require.NoError(t, err)
	assert.True(t, fs.lastFilter.CompletedOnly)
	assert.True(t, fs.lastFilter.WithoutReport, "without force, existing reports are skipped")

	_, err = b.RecalculateRange(context.Background(), day(29), day(30), true)
	require.NoError(t, err)
	assert.False(t, fs.lastFilter.WithoutReport, "force rebuilds existing reports too")
}

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
}
