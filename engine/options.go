package engine

import (
	"io"
	"log/slog"
)

// ============================================================================
// ENGINE OPTIONS: Functional options for Execute() and Summarize()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	HistogramBins int
	Titles        Titles
	logger        *slog.Logger
}

// Titles holds the user-facing labels of every dashboard element.
type Titles struct {
	Bar        string `yaml:"bar"`
	Pie        string `yaml:"pie"`
	Line       string `yaml:"line"`
	Histogram  string `yaml:"histogram"`
	Heatmap    string `yaml:"heatmap"`
	StatsTable string `yaml:"stats_table"`

	TotalRecords     string `yaml:"total_records"`
	DistinctServices string `yaml:"distinct_services"`
	AverageAge       string `yaml:"average_age"`
	DailyCount       string `yaml:"daily_count"`
	RecordCount      string `yaml:"record_count"`
	NoNumeric        string `yaml:"no_numeric"`
}

// DefaultTitles returns the English dashboard labels.
func DefaultTitles() Titles {
	return Titles{
		Bar:              "Distribution by Service Type",
		Pie:              "Source Distribution",
		Line:             "Daily Registration Trend",
		Histogram:        "Patient Age Distribution",
		Heatmap:          "Correlation Heatmap",
		StatsTable:       "Descriptive Statistics",
		TotalRecords:     "Total Records",
		DistinctServices: "Distinct Services",
		AverageAge:       "Average Age",
		DailyCount:       "Daily Registrations",
		RecordCount:      "Record Count",
		NoNumeric:        "No numeric columns found",
	}
}

// merge fills blank fields of t from d.
func (t Titles) merge(d Titles) Titles {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return Titles{
		Bar:              pick(t.Bar, d.Bar),
		Pie:              pick(t.Pie, d.Pie),
		Line:             pick(t.Line, d.Line),
		Histogram:        pick(t.Histogram, d.Histogram),
		Heatmap:          pick(t.Heatmap, d.Heatmap),
		StatsTable:       pick(t.StatsTable, d.StatsTable),
		TotalRecords:     pick(t.TotalRecords, d.TotalRecords),
		DistinctServices: pick(t.DistinctServices, d.DistinctServices),
		AverageAge:       pick(t.AverageAge, d.AverageAge),
		DailyCount:       pick(t.DailyCount, d.DailyCount),
		RecordCount:      pick(t.RecordCount, d.RecordCount),
		NoNumeric:        pick(t.NoNumeric, d.NoNumeric),
	}
}

// WithHistogramBins sets the number of equal-width histogram bins.
// Values below 1 keep the default of 10.
func WithHistogramBins(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.HistogramBins = n
		}
	}
}

// WithTitles overrides chart, table and KPI labels. Blank fields keep
// their defaults.
func WithTitles(t Titles) Option {
	return func(c *config) {
		c.Titles = t.merge(DefaultTitles())
	}
}

// WithLogger routes engine diagnostics to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		HistogramBins: 10,
		Titles:        DefaultTitles(),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
