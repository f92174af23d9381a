package engine

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ============================================================================
// AGGREGATORS: Counting, grouping and the SummaryBundle
// ============================================================================
// All functions read through Dataset views and never mutate them.
// ============================================================================

// Summarize computes every aggregate the dashboard shows for ds.
// It never fails: absent columns yield empty or missing outputs.
func Summarize(ds *Dataset, opts ...Option) SummaryBundle {
	cfg := applyOptions(opts)
	sch := ds.Schema()

	bundle := SummaryBundle{
		RowCount:        ds.Len(),
		CategoryColumns: []string{},
		CategoryCounts:  make(map[string][]ValueCount),
		DailyCounts:     []DateCount{},
	}

	for _, col := range sch.CategoryColumns {
		if !ds.HasColumn(col) {
			continue
		}
		bundle.CategoryColumns = append(bundle.CategoryColumns, col)
		bundle.CategoryCounts[col] = ValueCounts(ds, col)
	}

	if ds.DateColumn() != "" {
		bundle.HasDates = true
		bundle.DailyCounts = DailyCounts(ds)
	}

	numeric := ds.NumericColumns()
	bundle.Stats = Describe(ds, numeric)
	if len(numeric) >= 2 && ds.Len() > 0 {
		bundle.Correlation = Correlate(ds, numeric)
	}

	bundle.Metric = MetricSummary{Values: []float64{}}
	if m := sch.MetricColumn; m != "" && ds.HasColumn(m) {
		vals := ds.Floats(m)
		bundle.Metric = MetricSummary{Column: m, Values: vals, Mean: mean(vals)}
	}

	cfg.logger.Debug("dataset summarized",
		"rows", bundle.RowCount,
		"numeric_columns", len(numeric),
		"category_columns", len(bundle.CategoryColumns))
	return bundle
}

// ============================================================================
// GROUPING
// ============================================================================

// ValueCounts counts distinct non-missing values of col, most frequent
// first. Ties keep the order in which values first appear.
func ValueCounts(ds *Dataset, col string) []ValueCount {
	counts := make(map[string]int)
	order := make([]string, 0)

	for i := 0; i < ds.Len(); i++ {
		v, ok := ds.Category(i, col)
		if !ok {
			continue
		}
		if _, exists := counts[v]; !exists {
			order = append(order, v)
		}
		counts[v]++
	}

	out := make([]ValueCount, 0, len(order))
	for _, v := range order {
		out = append(out, ValueCount{Value: v, Count: counts[v]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// DailyCounts groups rows by exact date value in ascending order.
// Rows with a missing date are skipped.
func DailyCounts(ds *Dataset) []DateCount {
	counts := make(map[time.Time]int)
	for i := 0; i < ds.Len(); i++ {
		d := ds.Date(i)
		if !d.Valid {
			continue
		}
		counts[d.Time]++
	}

	out := make([]DateCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, DateCount{Date: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatFloat renders a NullFloat with the given precision, or placeholder
// when the value is missing.
func FormatFloat(v NullFloat, precision int, placeholder string) string {
	if !v.Valid {
		return placeholder
	}
	return fmt.Sprintf("%.*f", precision, v.Value)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatDate renders a date key for chart labels. Midnight UTC values print
// as a bare date.
func FormatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
