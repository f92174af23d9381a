package engine

import (
	"time"

	"github.com/spektr-org/clinicdash/schema"
)

// ============================================================================
// EXECUTOR: handle(request) → response
// ============================================================================
// Entry point: Execute(ds, spec, opts...)
//
// Pipeline:
//   1. Filter the dataset by FilterSpec → zero-copy view
//   2. Summarize the view → SummaryBundle
//   3. Build KPI cards, charts and the statistics table
//   4. Attach non-fatal schema problems as Errors
//
// Execute is pure: the same dataset and spec always give the same Result.
// An empty FilterSpec yields the initial, unfiltered dashboard.
// ============================================================================

// Execute runs one dashboard request against ds.
func Execute(ds *Dataset, spec FilterSpec, opts ...Option) *Result {
	cfg := applyOptions(opts)
	started := time.Now()

	filtered := Filter(ds, spec)
	result := Assemble(ds.Schema(), spec, Summarize(filtered, opts...), opts...)

	cfg.logger.Debug("dashboard request executed",
		"rows_in", ds.Len(),
		"rows_out", filtered.Len(),
		"filtered", !spec.IsEmpty(),
		"elapsed", time.Since(started))
	return result
}

// Assemble builds the render-ready Result for an already summarized view.
// Callers that time or trace the stages separately use it in place of
// Execute.
func Assemble(sch *schema.Schema, spec FilterSpec, bundle SummaryBundle, opts ...Option) *Result {
	result := &Result{
		Success:    true,
		Filter:     spec,
		Summary:    bundle,
		KPIs:       BuildKPIs(sch, bundle, opts...),
		Charts:     BuildCharts(sch, bundle, opts...),
		StatsTable: BuildStatsTable(bundle.Stats, opts...),
	}
	if sch != nil {
		for _, m := range sch.Missing {
			result.Errors = append(result.Errors, m.Error())
		}
	}
	return result
}
