package analytics

import (
	"context"
	"fmt"
	"math"

	"production-tracking-backend/internal/store"
)

// TopDowntimeReasons returns the limit largest downtime buckets by total
// duration for the inclusive date range.
func (s *Service) TopDowntimeReasons(ctx context.Context, f store.DowntimeFilter) ([]store.DowntimeRow, error) {
	if f.Limit <= 0 {
		f.Limit = 10
	}
	return s.store.DowntimeTotals(ctx, f)
}

// Pareto is chart-ready downtime Pareto data. CumulativePercentages is
// monotonically non-decreasing and ends at 100.0 (within rounding) over the
// full ranked set. Pareto80Index is the index of the first category at or
// past 80% of the total, nil when there is no downtime data.
type Pareto struct {
	Categories            []string  `json:"categories"`
	Values                []int64   `json:"values"`
	CumulativePercentages []float64 `json:"cumulativePercentages"`
	TotalDuration         int64     `json:"totalDuration"`
	Pareto80Index         *int      `json:"pareto80Index"`
}

// DowntimePareto ranks downtime buckets and derives the cumulative curve.
// No downtime in the range yields an empty structure, not an error.
func (s *Service) DowntimePareto(ctx context.Context, f store.DowntimeFilter) (*Pareto, error) {
	rows, err := s.TopDowntimeReasons(ctx, f)
	if err != nil {
		return nil, err
	}
	return BuildPareto(rows), nil
}

// BuildPareto computes the Pareto curve from rows already ranked by total
// duration descending.
func BuildPareto(rows []store.DowntimeRow) *Pareto {
	p := &Pareto{
		Categories:            []string{},
		Values:                []int64{},
		CumulativePercentages: []float64{},
	}
	if len(rows) == 0 {
		return p
	}

	for _, row := range rows {
		p.TotalDuration += row.TotalDuration
	}

	var cumulative int64
	for _, row := range rows {
		p.Categories = append(p.Categories, categoryLabel(row))
		p.Values = append(p.Values, row.TotalDuration)

		cumulative += row.TotalDuration
		var pct float64
		if p.TotalDuration > 0 {
			pct = math.Round(float64(cumulative)/float64(p.TotalDuration)*1000) / 10
		}
		p.CumulativePercentages = append(p.CumulativePercentages, pct)

		if p.Pareto80Index == nil && pct >= 80 {
			idx := len(p.CumulativePercentages) - 1
			p.Pareto80Index = &idx
		}
	}
	return p
}

func categoryLabel(row store.DowntimeRow) string {
	reason := row.CodeReason
	if reason == "" {
		reason = "Unknown"
	}
	// Truncate on runes so a multi-byte reason is never cut mid-character.
	if r := []rune(reason); len(r) > 25 {
		reason = string(r[:22]) + "..."
	}
	return fmt.Sprintf("%s - %s", row.Code, reason)
}
