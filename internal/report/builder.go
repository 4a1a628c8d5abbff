// Package report turns a production run's raw data into its persisted
// ProductionReport. Recalculation is an explicit call from every write path
// (stop events, packaging, utility, finalize) rather than an implicit
// save hook, so the dependency stays visible and testable.
package report

import (
	"context"
	"log"
	"sync"
	"time"

	"production-tracking-backend/internal/metrics"
	"production-tracking-backend/internal/model"
	"production-tracking-backend/internal/store"
)

// Builder recalculates and persists production reports. Recalculation for a
// single run is serialized through a per-run lock so concurrent triggers
// (a stop-event save racing a finalize) cannot interleave the
// read-calculate-overwrite cycle.
type Builder struct {
	store store.Store

	mu sync.Mutex
	// locks holds one mutex per run ID for the process lifetime; entries are
	// a few dozen bytes each and are never evicted.
	locks map[int64]*sync.Mutex
}

// NewBuilder creates a report builder on top of the given store.
func NewBuilder(s store.Store) *Builder {
	return &Builder{
		store: s,
		locks: make(map[int64]*sync.Mutex),
	}
}

func (b *Builder) runLock(runID int64) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.locks[runID]
	if !ok {
		l = &sync.Mutex{}
		b.locks[runID] = l
	}
	return l
}

// Recalculate rebuilds the report for one run from its current data and
// upserts it. Calling it twice on unchanged inputs yields identical metric
// values.
func (b *Builder) Recalculate(ctx context.Context, runID int64) (*model.ProductionReport, error) {
	l := b.runLock(runID)
	l.Lock()
	defer l.Unlock()

	data, err := b.store.RunData(ctx, runID)
	if err != nil {
		return nil, err
	}

	rep := Compute(data)
	rep.CalculatedAt = time.Now().UTC()
	if err := b.store.SaveReport(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// Compute runs every calculator over the snapshot. Pure; no storage access.
func Compute(d *metrics.RunData) *model.ProductionReport {
	availability := metrics.Availability(d)
	performance := metrics.Performance(d)
	quality := metrics.Quality(d)

	return &model.ProductionReport{
		ProductionRunID:          d.Run.ID,
		Availability:             availability,
		Performance:              performance,
		Quality:                  quality,
		OEE:                      metrics.OEE(availability, performance, quality),
		SyrupYieldPercentage:     metrics.SyrupYield(d),
		PreformYieldPercentage:   metrics.PreformYield(d),
		BottleRejectPercentage:   metrics.BottleRejectPercentage(d),
		CO2UtilizationPercentage: metrics.CO2Utilization(d),
	}
}

// RunFailure records one run a batch recalculation could not process.
type RunFailure struct {
	RunID       int64  `json:"runId"`
	BatchNumber string `json:"batchNumber"`
	Err         string `json:"error"`
}

// RangeResult summarizes a batch recalculation.
type RangeResult struct {
	Processed int          `json:"processed"`
	Failures  []RunFailure `json:"failures,omitempty"`
}

// RecalculateRange rebuilds reports for every completed run in the inclusive
// date range. Unless force is set, runs that already have a report are
// skipped. A failing run is logged and counted; processing continues with
// the next run.
func (b *Builder) RecalculateRange(ctx context.Context, from, to time.Time, force bool) (*RangeResult, error) {
	runs, err := b.store.ListRuns(ctx, store.RunFilter{
		From:          from,
		To:            to,
		CompletedOnly: true,
		WithoutReport: !force,
	})
	if err != nil {
		return nil, err
	}

	result := &RangeResult{}
	for _, run := range runs {
		if _, err := b.Recalculate(ctx, run.ID); err != nil {
			log.Printf("report: failed to calculate %s: %v", run.BatchNumber, err)
			result.Failures = append(result.Failures, RunFailure{
				RunID:       run.ID,
				BatchNumber: run.BatchNumber,
				Err:         err.Error(),
			})
			continue
		}
		result.Processed++
	}
	return result, nil
}
