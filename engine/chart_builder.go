package engine

import (
	"fmt"
	"math"

	"github.com/spektr-org/clinicdash/schema"
)

// ============================================================================
// CHART BUILDER: Produces ChartConfigs from a SummaryBundle
// ============================================================================
// Slots are fixed:
//   bar       → counts of the first category role
//   pie       → counts of the second category role (donut)
//   line      → daily counts
//   histogram → metric values in equal-width bins
//   heatmap   → correlation matrix on a fixed [-1, 1] scale
// A slot with nothing to show still gets a titled config marked Empty.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// BuildCharts produces every dashboard chart from a bundle.
func BuildCharts(sch *schema.Schema, b SummaryBundle, opts ...Option) Charts {
	cfg := applyOptions(opts)
	t := cfg.Titles
	return Charts{
		Bar:       buildBar(sch.CategorySlot(0), b, t),
		Pie:       buildPie(sch.CategorySlot(1), b, t),
		Line:      buildLine(b, t),
		Histogram: buildHistogram(sch, b, cfg.HistogramBins, t),
		Heatmap:   buildHeatmap(b, t),
	}
}

func emptyChart(chartType, title string) *ChartConfig {
	return &ChartConfig{
		ChartType: chartType,
		Title:     title,
		Empty:     true,
		Series:    []ChartSeries{},
	}
}

func buildBar(col string, b SummaryBundle, t Titles) *ChartConfig {
	counts := b.CategoryCounts[col]
	if col == "" || b.RowCount == 0 || len(counts) == 0 {
		return emptyChart("bar", t.Bar)
	}
	return &ChartConfig{
		ChartType:  "bar",
		Title:      t.Bar,
		XAxis:      col,
		YAxis:      t.RecordCount,
		Series:     countSeries(t.RecordCount, counts),
		Colors:     assignColors(len(counts)),
		ShowLegend: true,
		ShowGrid:   true,
	}
}

func buildPie(col string, b SummaryBundle, t Titles) *ChartConfig {
	counts := b.CategoryCounts[col]
	if col == "" || b.RowCount == 0 || len(counts) == 0 {
		return emptyChart("pie", t.Pie)
	}
	return &ChartConfig{
		ChartType:  "pie",
		Title:      t.Pie,
		Series:     countSeries(col, counts),
		Colors:     assignColors(len(counts)),
		ShowLegend: true,
		Hole:       0.3,
	}
}

func buildLine(b SummaryBundle, t Titles) *ChartConfig {
	if !b.HasDates || b.RowCount == 0 || len(b.DailyCounts) == 0 {
		return emptyChart("line", t.Line)
	}
	points := make([]ChartPoint, 0, len(b.DailyCounts))
	for _, d := range b.DailyCounts {
		points = append(points, ChartPoint{Label: FormatDate(d.Date), Value: float64(d.Count)})
	}
	return &ChartConfig{
		ChartType: "line",
		Title:     t.Line,
		YAxis:     t.DailyCount,
		Series:    []ChartSeries{{Name: t.DailyCount, Data: points, Color: defaultColors[0]}},
		ShowGrid:  true,
		Markers:   true,
	}
}

func buildHistogram(sch *schema.Schema, b SummaryBundle, bins int, t Titles) *ChartConfig {
	if b.Metric.Column == "" || len(b.Metric.Values) == 0 {
		return emptyChart("histogram", t.Histogram)
	}

	hb := Histogram(b.Metric.Values, bins)
	points := make([]ChartPoint, 0, len(hb))
	for _, bin := range hb {
		points = append(points, ChartPoint{
			Label: fmt.Sprintf("%g-%g", RoundTo2(bin.Start), RoundTo2(bin.End)),
			Value: float64(bin.Count),
		})
	}

	xAxis := b.Metric.Column
	if col, ok := sch.Lookup(b.Metric.Column); ok && col.DisplayName != "" {
		xAxis = col.DisplayName
	}
	return &ChartConfig{
		ChartType: "histogram",
		Title:     t.Histogram,
		XAxis:     xAxis,
		YAxis:     "count",
		Series:    []ChartSeries{{Name: b.Metric.Column, Data: points, Color: defaultColors[0]}},
		ShowGrid:  true,
		Bins:      hb,
	}
}

func buildHeatmap(b SummaryBundle, t Titles) *ChartConfig {
	m := b.Correlation
	if m == nil || len(m.Columns) < 2 {
		return emptyChart("heatmap", t.Heatmap)
	}
	return &ChartConfig{
		ChartType: "heatmap",
		Title:     t.Heatmap,
		Series:    []ChartSeries{},
		Matrix: &HeatmapMatrix{
			X:          m.Columns,
			Y:          m.Columns,
			Z:          m.Values,
			ZMin:       -1,
			ZMax:       1,
			ColorScale: "RdBu",
		},
	}
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func countSeries(name string, counts []ValueCount) []ChartSeries {
	points := make([]ChartPoint, 0, len(counts))
	for _, vc := range counts {
		points = append(points, ChartPoint{Label: vc.Value, Value: float64(vc.Count)})
	}
	return []ChartSeries{{Name: name, Data: points}}
}

// Histogram splits values into n equal-width bins over [min, max].
// When every value is equal the range is widened by 0.5 on each side.
func Histogram(values []float64, n int) []HistogramBin {
	if len(values) == 0 {
		return []HistogramBin{}
	}
	if n < 1 {
		n = 10
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	width := (hi - lo) / float64(n)
	bins := make([]HistogramBin, n)
	for i := range bins {
		bins[i].Start = lo + float64(i)*width
		bins[i].End = lo + float64(i+1)*width
	}
	bins[n-1].End = hi

	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= n {
			idx = n - 1
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx].Count++
	}
	return bins
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
