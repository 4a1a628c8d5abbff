package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"production-tracking-backend/internal/store"
)

// OEETrendPoint holds one day's average OEE components.
type OEETrendPoint struct {
	Date            time.Time       `json:"date"`
	AvgOEE          decimal.Decimal `json:"avgOee"`
	AvgAvailability decimal.Decimal `json:"avgAvailability"`
	AvgPerformance  decimal.Decimal `json:"avgPerformance"`
	AvgQuality      decimal.Decimal `json:"avgQuality"`
	RunCount        int             `json:"runCount"`
}

// OEETrend averages report metrics per day over the inclusive date range.
// Runs without a report do not contribute.
func (s *Service) OEETrend(ctx context.Context, from, to time.Time, lineID *int64) ([]OEETrendPoint, error) {
	runs, err := s.store.ListRuns(ctx, store.RunFilter{From: from, To: to, LineID: lineID})
	if err != nil {
		return nil, err
	}

	type bucket struct {
		oee, availability, performance, quality decimal.Decimal
		count                                   int64
	}
	buckets := make(map[time.Time]*bucket)
	for i := range runs {
		run := &runs[i]
		if run.Report == nil {
			continue
		}
		b, ok := buckets[run.Date]
		if !ok {
			b = &bucket{}
			buckets[run.Date] = b
		}
		b.oee = b.oee.Add(run.Report.OEE)
		b.availability = b.availability.Add(run.Report.Availability)
		b.performance = b.performance.Add(run.Report.Performance)
		b.quality = b.quality.Add(run.Report.Quality)
		b.count++
	}

	points := make([]OEETrendPoint, 0, len(buckets))
	for date, b := range buckets {
		n := decimal.NewFromInt(b.count)
		points = append(points, OEETrendPoint{
			Date:            date,
			AvgOEE:          b.oee.Div(n).Round(2),
			AvgAvailability: b.availability.Div(n).Round(2),
			AvgPerformance:  b.performance.Div(n).Round(2),
			AvgQuality:      b.quality.Div(n).Round(2),
			RunCount:        int(b.count),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

// ProductTrendRow is one date's run counts per product with a row total.
type ProductTrendRow struct {
	Date   time.Time        `json:"date"`
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

// ProductTrend pivots run counts by date and product for chart rendering.
type ProductTrend struct {
	Products     []string          `json:"products"`
	Rows         []ProductTrendRow `json:"rows"`
	ColumnTotals map[string]int64  `json:"columnTotals"`
	GrandTotal   int64             `json:"grandTotal"`
}

// ProductTrend counts runs per date and product over the inclusive range.
func (s *Service) ProductTrend(ctx context.Context, from, to time.Time, lineID *int64) (*ProductTrend, error) {
	runs, err := s.store.ListRuns(ctx, store.RunFilter{From: from, To: to, LineID: lineID})
	if err != nil {
		return nil, err
	}

	trend := &ProductTrend{ColumnTotals: make(map[string]int64)}
	rowIndex := make(map[time.Time]int)
	seen := make(map[string]bool)
	for i := range runs {
		run := &runs[i]
		product := run.Product.Name

		if !seen[product] {
			seen[product] = true
			trend.Products = append(trend.Products, product)
		}

		idx, ok := rowIndex[run.Date]
		if !ok {
			idx = len(trend.Rows)
			rowIndex[run.Date] = idx
			trend.Rows = append(trend.Rows, ProductTrendRow{
				Date:   run.Date,
				Counts: make(map[string]int64),
			})
		}
		trend.Rows[idx].Counts[product]++
		trend.Rows[idx].Total++
		trend.ColumnTotals[product]++
		trend.GrandTotal++
	}

	sort.Strings(trend.Products)
	sort.Slice(trend.Rows, func(i, j int) bool { return trend.Rows[i].Date.Before(trend.Rows[j].Date) })
	return trend, nil
}

// ProductMixRow is one (line, product, package size) bucket of a cross-tab.
type ProductMixRow struct {
	Line        string `json:"line"`
	Product     string `json:"product"`
	PackageSize string `json:"packageSize"`
	RunCount    int64  `json:"runCount"`
	TotalPacks  int64  `json:"totalPacks"`
}

// ProductMix is the line×product×package-size cross-tab with totals.
type ProductMix struct {
	Rows            []ProductMixRow  `json:"rows"`
	TotalsByLine    map[string]int64 `json:"totalsByLine"`
	TotalsByProduct map[string]int64 `json:"totalsByProduct"`
	GrandTotalPacks int64            `json:"grandTotalPacks"`
}

// ProductMix sums pack output grouped by line, product and package size.
func (s *Service) ProductMix(ctx context.Context, from, to time.Time, lineID *int64) (*ProductMix, error) {
	runs, err := s.store.ListRuns(ctx, store.RunFilter{From: from, To: to, LineID: lineID})
	if err != nil {
		return nil, err
	}

	mix := &ProductMix{
		TotalsByLine:    make(map[string]int64),
		TotalsByProduct: make(map[string]int64),
	}
	type key struct{ line, product, pkg string }
	index := make(map[key]int)
	for i := range runs {
		run := &runs[i]
		k := key{
			line:    run.ProductionLine.Name,
			product: run.Product.Name,
			pkg:     run.PackageSize.Size + " " + string(run.PackageSize.PackageType),
		}
		idx, ok := index[k]
		if !ok {
			idx = len(mix.Rows)
			index[k] = idx
			mix.Rows = append(mix.Rows, ProductMixRow{
				Line:        k.line,
				Product:     k.product,
				PackageSize: k.pkg,
			})
		}
		mix.Rows[idx].RunCount++
		mix.Rows[idx].TotalPacks += run.GoodProductsPack
		mix.TotalsByLine[k.line] += run.GoodProductsPack
		mix.TotalsByProduct[k.product] += run.GoodProductsPack
		mix.GrandTotalPacks += run.GoodProductsPack
	}

	sort.Slice(mix.Rows, func(i, j int) bool {
		a, b := mix.Rows[i], mix.Rows[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Product != b.Product {
			return a.Product < b.Product
		}
		return a.PackageSize < b.PackageSize
	})
	return mix, nil
}
