package engine

import (
	"strconv"

	"github.com/spektr-org/clinicdash/schema"
)

// ============================================================================
// KPI BUILDER: Headline number cards
// ============================================================================
//   total     → row count
//   services  → distinct values of the first category role (0 if absent)
//   avg_age   → mean of the metric column, one decimal, "-" if undefined
// ============================================================================

// KPI keys.
const (
	KPITotal    = "total"
	KPIServices = "services"
	KPIAvgAge   = "avg_age"
)

// BuildKPIs produces the three headline cards from a bundle.
func BuildKPIs(sch *schema.Schema, b SummaryBundle, opts ...Option) []KPI {
	cfg := applyOptions(opts)
	t := cfg.Titles

	services := 0
	if col := sch.CategorySlot(0); col != "" {
		services = len(b.CategoryCounts[col])
	}

	return []KPI{
		{
			Key:   KPITotal,
			Title: t.TotalRecords,
			Value: strconv.Itoa(b.RowCount),
			Raw:   Float(float64(b.RowCount)),
		},
		{
			Key:   KPIServices,
			Title: t.DistinctServices,
			Value: strconv.Itoa(services),
			Raw:   Float(float64(services)),
		},
		{
			Key:   KPIAvgAge,
			Title: t.AverageAge,
			Value: FormatFloat(b.Metric.Mean, 1, missingCell),
			Raw:   b.Metric.Mean,
		},
	}
}

// FindKPI returns the card with the given key.
func FindKPI(kpis []KPI, key string) (KPI, bool) {
	for _, k := range kpis {
		if k.Key == key {
			return k, true
		}
	}
	return KPI{}, false
}
