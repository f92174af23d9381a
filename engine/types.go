package engine

import (
	"encoding/json"
	"math"
	"time"
)

// ============================================================================
// CLINICDASH ENGINE TYPES
// ============================================================================
// The engine turns a Dataset plus a FilterSpec into a SummaryBundle and then
// into render-ready chart, table and KPI configs.
//
// Missing values are explicit everywhere: NullFloat and NullTime encode as
// JSON null, never as 0 or the zero time.
// ============================================================================

// ============================================================================
// NULLABLE VALUES
// ============================================================================

// NullFloat is a float64 that may be missing.
type NullFloat struct {
	Value float64
	Valid bool
}

// Float returns a valid NullFloat. NaN and infinities are stored as missing.
func Float(v float64) NullFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat{}
	}
	return NullFloat{Value: v, Valid: true}
}

// MarshalJSON encodes a missing value as null.
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON accepts a number or null.
func (n *NullFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}

// NullTime is a timestamp that may be missing.
type NullTime struct {
	Time  time.Time
	Valid bool
}

// Time wraps t as a valid NullTime.
func Time(t time.Time) NullTime {
	return NullTime{Time: t, Valid: true}
}

// MarshalJSON encodes a missing value as null and a present one as RFC 3339.
func (n NullTime) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Time.Format(time.RFC3339))
}

// UnmarshalJSON accepts an RFC 3339 string or null.
func (n *NullTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*n = Time(t)
	return nil
}

// ============================================================================
// FILTERSPEC: What the user selected
// ============================================================================

// FilterSpec restricts a Dataset by date range and categorical allow-lists.
// Categories are OR within a column and AND across columns. An empty or
// absent list means no restriction. Columns the dataset lacks are ignored.
type FilterSpec struct {
	DateStart  NullTime            `json:"dateStart"`
	DateEnd    NullTime            `json:"dateEnd"`
	Categories map[string][]string `json:"categories,omitempty"`
}

// HasDateRange reports whether both bounds are set.
func (f FilterSpec) HasDateRange() bool {
	return f.DateStart.Valid && f.DateEnd.Valid
}

// HasFilter returns true if a restriction on column is set.
func (f FilterSpec) HasFilter(column string) bool {
	if f.Categories == nil {
		return false
	}
	vals, ok := f.Categories[column]
	return ok && len(vals) > 0
}

// IsEmpty returns true if no restriction of any kind is set.
func (f FilterSpec) IsEmpty() bool {
	if f.HasDateRange() {
		return false
	}
	for _, vals := range f.Categories {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// ============================================================================
// SUMMARY BUNDLE: Aggregates for one (filtered) dataset
// ============================================================================

// ValueCount is one distinct value of a categorical column and its frequency.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// DateCount is the number of rows sharing one exact timestamp.
type DateCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// ColumnStats is the descriptive summary of one numeric column.
type ColumnStats struct {
	Column string    `json:"column"`
	Count  int       `json:"count"`
	Mean   NullFloat `json:"mean"`
	Std    NullFloat `json:"std"`
	Min    NullFloat `json:"min"`
	P25    NullFloat `json:"p25"`
	P50    NullFloat `json:"p50"`
	P75    NullFloat `json:"p75"`
	Max    NullFloat `json:"max"`
}

// StatsTable holds per-column statistics, or the NoNumericColumns sentinel.
type StatsTable struct {
	NoNumericColumns bool          `json:"noNumericColumns"`
	Columns          []ColumnStats `json:"columns"`
}

// CorrelationMatrix is a square, symmetric Pearson matrix.
// Values[i][j] pairs Columns[i] with Columns[j].
type CorrelationMatrix struct {
	Columns []string      `json:"columns"`
	Values  [][]NullFloat `json:"values"`
}

// At returns the coefficient for two named columns.
func (m *CorrelationMatrix) At(a, b string) NullFloat {
	if m == nil {
		return NullFloat{}
	}
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return NullFloat{}
	}
	return m.Values[i][j]
}

// MetricSummary carries the metric column's values for the histogram and
// its mean for the KPI card.
type MetricSummary struct {
	Column string    `json:"column,omitempty"`
	Values []float64 `json:"values"`
	Mean   NullFloat `json:"mean"`
}

// SummaryBundle is the fixed set of aggregates computed from a dataset.
type SummaryBundle struct {
	RowCount        int                     `json:"rowCount"`
	CategoryColumns []string                `json:"categoryColumns"`
	CategoryCounts  map[string][]ValueCount `json:"categoryCounts"`
	HasDates        bool                    `json:"hasDates"`
	DailyCounts     []DateCount             `json:"dailyCounts"`
	Stats           StatsTable              `json:"stats"`
	Correlation     *CorrelationMatrix      `json:"correlation"`
	Metric          MetricSummary           `json:"metric"`
}

// ============================================================================
// RESULT: Render-ready output
// ============================================================================

// Result is the engine's render-ready response to one request.
type Result struct {
	Success    bool          `json:"success"`
	Filter     FilterSpec    `json:"filter"`
	Summary    SummaryBundle `json:"summary"`
	KPIs       []KPI         `json:"kpis"`
	Charts     Charts        `json:"charts"`
	StatsTable *TableData    `json:"statsTable"`
	Errors     []string      `json:"errors,omitempty"`
}

// Charts groups the dashboard's fixed chart slots.
type Charts struct {
	Bar       *ChartConfig `json:"bar"`
	Pie       *ChartConfig `json:"pie"`
	Line      *ChartConfig `json:"line"`
	Histogram *ChartConfig `json:"histogram"`
	Heatmap   *ChartConfig `json:"heatmap"`
}

// KPI is one headline number card.
type KPI struct {
	Key   string    `json:"key"`
	Title string    `json:"title"`
	Value string    `json:"value"`
	Raw   NullFloat `json:"raw"`
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
// Empty charts keep their type and title and carry no series.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	Empty      bool          `json:"empty"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`

	Hole    float64        `json:"hole,omitempty"`    // pie: donut hole ratio
	Markers bool           `json:"markers,omitempty"` // line: draw point markers
	Bins    []HistogramBin `json:"bins,omitempty"`
	Matrix  *HeatmapMatrix `json:"matrix,omitempty"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// HistogramBin is one half-open interval [Start, End); the last bin is closed.
type HistogramBin struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
}

// HeatmapMatrix is the cell grid of a heatmap with a fixed color scale.
type HeatmapMatrix struct {
	X          []string      `json:"x"`
	Y          []string      `json:"y"`
	Z          [][]NullFloat `json:"z"`
	ZMin       float64       `json:"zmin"`
	ZMax       float64       `json:"zmax"`
	ColorScale string        `json:"colorScale"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides a footer line for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
