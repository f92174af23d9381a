package engine

import (
	"fmt"
)

// ============================================================================
// TABLE BUILDER: Descriptive statistics as TableData
// ============================================================================

// statsHeader lists the describe() columns in display order.
var statsHeader = []Column{
	{Key: "variable", Label: "Variable", Type: "text", Align: "left"},
	{Key: "count", Label: "count", Type: "number", Align: "right"},
	{Key: "mean", Label: "mean", Type: "number", Align: "right"},
	{Key: "std", Label: "std", Type: "number", Align: "right"},
	{Key: "min", Label: "min", Type: "number", Align: "right"},
	{Key: "p25", Label: "25%", Type: "number", Align: "right"},
	{Key: "p50", Label: "50%", Type: "number", Align: "right"},
	{Key: "p75", Label: "75%", Type: "number", Align: "right"},
	{Key: "max", Label: "max", Type: "number", Align: "right"},
}

// missingCell is shown for statistics that are undefined.
const missingCell = "-"

// BuildStatsTable renders a StatsTable with two decimals per cell.
// The NoNumericColumns sentinel becomes a single message row.
func BuildStatsTable(stats StatsTable, opts ...Option) *TableData {
	cfg := applyOptions(opts)

	if stats.NoNumericColumns {
		return &TableData{
			Title:   cfg.Titles.StatsTable,
			Columns: []Column{{Key: "message", Label: "", Type: "text", Align: "left"}},
			Rows:    [][]string{{cfg.Titles.NoNumeric}},
		}
	}

	rows := make([][]string, 0, len(stats.Columns))
	for _, cs := range stats.Columns {
		rows = append(rows, []string{
			cs.Column,
			fmt.Sprintf("%.2f", float64(cs.Count)),
			FormatFloat(cs.Mean, 2, missingCell),
			FormatFloat(cs.Std, 2, missingCell),
			FormatFloat(cs.Min, 2, missingCell),
			FormatFloat(cs.P25, 2, missingCell),
			FormatFloat(cs.P50, 2, missingCell),
			FormatFloat(cs.P75, 2, missingCell),
			FormatFloat(cs.Max, 2, missingCell),
		})
	}

	columns := make([]Column, len(statsHeader))
	copy(columns, statsHeader)

	return &TableData{
		Title:   cfg.Titles.StatsTable,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label:  fmt.Sprintf("%d numeric columns", len(stats.Columns)),
			Values: map[string]string{},
		},
	}
}
