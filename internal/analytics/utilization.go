package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"production-tracking-backend/internal/store"
)

// MachineUtilization is one machine's utilization over a date range.
// Downtime is counted at line level, not attributed to the machine that
// caused it, so every machine on a line reports the same percentage. That is
// the intended semantic, not a bug.
type MachineUtilization struct {
	Machine                 string          `json:"machine"`
	UtilizationPercentage   decimal.Decimal `json:"utilizationPercentage"`
	TotalPlannedTimeMinutes decimal.Decimal `json:"totalPlannedTimeMinutes"`
	TotalDowntimeMinutes    int64           `json:"totalDowntimeMinutes"`
	ActualRuntimeMinutes    decimal.Decimal `json:"actualRuntimeMinutes"`
	RatedOutput             decimal.Decimal `json:"ratedOutput"`
}

// LineUtilization computes utilization for every active machine on a line.
func (s *Service) LineUtilization(ctx context.Context, from, to time.Time, lineID int64) ([]MachineUtilization, error) {
	machines, err := s.store.ActiveMachines(ctx, lineID)
	if err != nil {
		return nil, err
	}
	runs, err := s.store.ListRuns(ctx, store.RunFilter{From: from, To: to, LineID: &lineID})
	if err != nil {
		return nil, err
	}

	var totalPlanned decimal.Decimal
	var totalDowntime int64
	for i := range runs {
		totalPlanned = totalPlanned.Add(plannedMinutes(&runs[i]))
		totalDowntime += runs[i].TotalDowntimeMinutes
	}

	var pct decimal.Decimal
	runtime := totalPlanned.Sub(decimal.NewFromInt(totalDowntime))
	if totalPlanned.IsPositive() {
		pct = runtime.Div(totalPlanned).Mul(hundred).Round(2)
	}

	out := make([]MachineUtilization, 0, len(machines))
	for _, m := range machines {
		out = append(out, MachineUtilization{
			Machine:                 m.MachineName,
			UtilizationPercentage:   pct,
			TotalPlannedTimeMinutes: totalPlanned.Round(2),
			TotalDowntimeMinutes:    totalDowntime,
			ActualRuntimeMinutes:    runtime.Round(2),
			RatedOutput:             m.RatedOutput,
		})
	}
	return out, nil
}
