package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"production-tracking-backend/internal/metrics"
	"production-tracking-backend/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	GetRun(ctx context.Context, id int64) (*model.ProductionRun, error)
	ListRuns(ctx context.Context, f RunFilter) ([]model.ProductionRun, error)
	// RunData assembles the calculation snapshot for one run, including the
	// line's main machine and the optional packaging/utility records.
	RunData(ctx context.Context, runID int64) (*metrics.RunData, error)

	ListLines(ctx context.Context) ([]model.ProductionLine, error)
	GetLine(ctx context.Context, id int64) (*model.ProductionLine, error)
	ActiveMachines(ctx context.Context, lineID int64) ([]model.Machine, error)

	CreateOrder(ctx context.Context, order *model.ManufacturingOrder) error
	CreateRun(ctx context.Context, run *model.ProductionRun) error
	FinalizeRun(ctx context.Context, runID int64, end time.Time) error

	// CreateStopEvent persists the event and recomputes the owning run's
	// unplanned-downtime total in the same transaction.
	CreateStopEvent(ctx context.Context, ev *model.StopEvent) error
	UpsertPackaging(ctx context.Context, p *model.PackagingMaterial) error
	UpsertUtility(ctx context.Context, u *model.Utility) error

	// SaveReport upserts the run's report row, overwriting every calculated
	// column (get-or-create-then-overwrite in a single statement).
	SaveReport(ctx context.Context, report *model.ProductionReport) error

	DowntimeTotals(ctx context.Context, f DowntimeFilter) ([]DowntimeRow, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

func (s *gormStore) GetRun(ctx context.Context, id int64) (*model.ProductionRun, error) {
	var run model.ProductionRun
	err := s.db.WithContext(ctx).
		Preload("ProductionLine").
		Preload("Product").
		Preload("PackageSize").
		Preload("Shift").
		Preload("StopEvents").
		Preload("StopEvents.Machine").
		Preload("StopEvents.Code").
		Preload("PackagingMaterial").
		Preload("Utility").
		Preload("Report").
		First(&run, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch production run %d: %w", id, err)
	}
	return &run, nil
}

func (s *gormStore) ListRuns(ctx context.Context, f RunFilter) ([]model.ProductionRun, error) {
	q := s.db.WithContext(ctx).
		Preload("ProductionLine").
		Preload("Product").
		Preload("PackageSize").
		Preload("Shift").
		Preload("StopEvents").
		Preload("Report")

	if f.To.IsZero() {
		q = q.Where("date = ?", f.From)
	} else {
		q = q.Where("date BETWEEN ? AND ?", f.From, f.To)
	}
	if f.LineID != nil {
		q = q.Where("production_line_id = ?", *f.LineID)
	}
	if f.ShiftName != "" {
		q = q.Where("shift_id IN (?)",
			s.db.Model(&model.Shift{}).Select("id").Where("name = ?", f.ShiftName))
	}
	if f.CompletedOnly {
		q = q.Where("is_completed = ?", true)
	}
	if f.WithoutReport {
		q = q.Where("NOT EXISTS (SELECT 1 FROM production_reports pr WHERE pr.production_run_id = production_runs.id)")
	}

	var runs []model.ProductionRun
	if err := q.Order("date, production_start").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list production runs: %w", err)
	}
	return runs, nil
}

func (s *gormStore) RunData(ctx context.Context, runID int64) (*metrics.RunData, error) {
	var run model.ProductionRun
	err := s.db.WithContext(ctx).
		Preload("PackageSize").
		Preload("Shift").
		Preload("PackagingMaterial").
		Preload("Utility").
		First(&run, runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch run %d for calculation: %w", runID, err)
	}

	data := &metrics.RunData{
		Run:         run,
		PackageSize: run.PackageSize,
		Shift:       run.Shift,
		Packaging:   run.PackagingMaterial,
		Utility:     run.Utility,
	}

	var main model.Machine
	err = s.db.WithContext(ctx).
		Where("production_line_id = ? AND main_machine = ? AND is_active = ?",
			run.ProductionLineID, true, true).
		Order("id").
		First(&main).Error
	switch {
	case err == nil:
		data.MainMachine = &main
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No main machine configured; performance degrades to zero.
	default:
		return nil, fmt.Errorf("failed to fetch main machine for line %d: %w", run.ProductionLineID, err)
	}
	return data, nil
}

func (s *gormStore) ListLines(ctx context.Context) ([]model.ProductionLine, error) {
	var lines []model.ProductionLine
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name").
		Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("failed to list production lines: %w", err)
	}
	return lines, nil
}

func (s *gormStore) GetLine(ctx context.Context, id int64) (*model.ProductionLine, error) {
	var line model.ProductionLine
	err := s.db.WithContext(ctx).First(&line, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch production line %d: %w", id, err)
	}
	return &line, nil
}

func (s *gormStore) ActiveMachines(ctx context.Context, lineID int64) ([]model.Machine, error) {
	var machines []model.Machine
	if err := s.db.WithContext(ctx).
		Where("production_line_id = ? AND is_active = ?", lineID, true).
		Order("machine_name").
		Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("failed to list machines for line %d: %w", lineID, err)
	}
	return machines, nil
}

func (s *gormStore) CreateOrder(ctx context.Context, order *model.ManufacturingOrder) error {
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create manufacturing order %s: %w", order.OrderNumber, err)
	}
	return nil
}

func (s *gormStore) CreateRun(ctx context.Context, run *model.ProductionRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create production run %s: %w", run.BatchNumber, err)
	}
	return nil
}

func (s *gormStore) FinalizeRun(ctx context.Context, runID int64, end time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&model.ProductionRun{}).
		Where("id = ?", runID).
		Updates(map[string]any{
			"production_end": end,
			"is_completed":   true,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to finalize run %d: %w", runID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateStopEvent persists the event and keeps the run's unplanned downtime
// total equal to the sum of its non-planned stop-event durations.
func (s *gormStore) CreateStopEvent(ctx context.Context, ev *model.StopEvent) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ev).Error; err != nil {
			return fmt.Errorf("failed to create stop event for run %d: %w", ev.ProductionRunID, err)
		}
		var total int64
		if err := tx.Model(&model.StopEvent{}).
			Where("production_run_id = ? AND is_planned = ?", ev.ProductionRunID, false).
			Select("COALESCE(SUM(duration_minutes), 0)").
			Scan(&total).Error; err != nil {
			return fmt.Errorf("failed to sum downtime for run %d: %w", ev.ProductionRunID, err)
		}
		if err := tx.Model(&model.ProductionRun{}).
			Where("id = ?", ev.ProductionRunID).
			Update("total_downtime_minutes", total).Error; err != nil {
			return fmt.Errorf("failed to update downtime total for run %d: %w", ev.ProductionRunID, err)
		}
		return nil
	})
}

func (s *gormStore) UpsertPackaging(ctx context.Context, p *model.PackagingMaterial) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "production_run_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"qty_preform_used", "qty_cap_used", "qty_bottle_used", "qty_can_used",
			"qty_carton_used", "qty_product_reject", "qty_preform_reject",
			"qty_bottle_reject", "qty_cap_reject", "label_reject_g",
			"shrink_wrap_kg", "stretch_wrap_g", "updated_at",
		}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("failed to upsert packaging for run %d: %w", p.ProductionRunID, err)
	}
	return nil
}

func (s *gormStore) UpsertUtility(ctx context.Context, u *model.Utility) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "production_run_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"kg_co2", "boiler_fuel_l", "generator_fuel_l",
			"power_consumption_kwh", "updated_at",
		}),
	}).Create(u).Error
	if err != nil {
		return fmt.Errorf("failed to upsert utility for run %d: %w", u.ProductionRunID, err)
	}
	return nil
}

func (s *gormStore) SaveReport(ctx context.Context, report *model.ProductionReport) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "production_run_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"availability", "performance", "quality", "oee",
			"syrup_yield_percentage", "preform_yield_percentage",
			"bottle_reject_percentage", "label_reject_percentage",
			"shrink_wrap_percentage", "co2_utilization_percentage",
			"calculated_at",
		}),
	}).Create(report).Error
	if err != nil {
		return fmt.Errorf("failed to save report for run %d: %w", report.ProductionRunID, err)
	}
	return nil
}

func (s *gormStore) DowntimeTotals(ctx context.Context, f DowntimeFilter) ([]DowntimeRow, error) {
	q := s.db.WithContext(ctx).
		Model(&model.StopEvent{}).
		Select("downtime_codes.code AS code, "+
			"downtime_codes.reason AS code_reason, "+
			"stop_events.reason AS reason, "+
			"machines.machine_name AS machine_name, "+
			"SUM(stop_events.duration_minutes) AS total_duration, "+
			"COUNT(stop_events.id) AS occurrence_count").
		Joins("JOIN production_runs ON production_runs.id = stop_events.production_run_id").
		Joins("JOIN downtime_codes ON downtime_codes.id = stop_events.code_id").
		Joins("JOIN machines ON machines.id = stop_events.machine_id").
		Where("production_runs.date BETWEEN ? AND ?", f.From, f.To)

	if f.LineID != nil {
		q = q.Where("production_runs.production_line_id = ?", *f.LineID)
	}
	if f.MachineID != nil {
		q = q.Where("stop_events.machine_id = ?", *f.MachineID)
	}

	q = q.Group("downtime_codes.code, downtime_codes.reason, stop_events.reason, machines.machine_name").
		Order("total_duration DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []DowntimeRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate downtime: %w", err)
	}
	return rows, nil
}
