package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/spektr-org/clinicdash/engine"
)

// ============================================================================
// TEXT OUTPUT: KPI cards, count tables, statistics
// ============================================================================

var styles = struct {
	Title    lipgloss.Style
	Muted    lipgloss.Style
	KPIBox   lipgloss.Style
	KPILabel lipgloss.Style
	KPIValue lipgloss.Style
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Number   lipgloss.Style
	Warning  lipgloss.Style
}{
	Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).MarginTop(1),
	Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),

	KPIBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("42")).
		Padding(0, 1).
		Width(24),
	KPILabel: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	KPIValue: lipgloss.NewStyle().Bold(true),

	Header:  lipgloss.NewStyle().Bold(true).Padding(0, 1),
	Cell:    lipgloss.NewStyle().Padding(0, 1),
	Number:  lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right),
	Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
}

func renderText(res *engine.Result) string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Clinic Dashboard"))
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render(describeFilter(res.Filter)))
	b.WriteString("\n")

	cards := make([]string, 0, len(res.KPIs))
	for _, k := range res.KPIs {
		cards = append(cards, styles.KPIBox.Render(
			styles.KPILabel.Render(k.Title)+"\n"+styles.KPIValue.Render(k.Value)))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	b.WriteString("\n")

	for _, chart := range []*engine.ChartConfig{res.Charts.Bar, res.Charts.Pie, res.Charts.Line} {
		b.WriteString(renderCounts(chart))
	}

	if res.StatsTable != nil {
		b.WriteString(styles.Title.Render(res.StatsTable.Title))
		b.WriteString("\n")
		b.WriteString(renderTable(res.StatsTable))
		b.WriteString("\n")
	}

	for _, e := range res.Errors {
		b.WriteString(styles.Warning.Render("! " + e))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeFilter(f engine.FilterSpec) string {
	if f.IsEmpty() {
		return "All records"
	}
	var parts []string
	if f.HasDateRange() {
		parts = append(parts, fmt.Sprintf("%s to %s",
			engine.FormatDate(f.DateStart.Time), engine.FormatDate(f.DateEnd.Time)))
	}
	for col, vals := range f.Categories {
		if len(vals) > 0 {
			parts = append(parts, fmt.Sprintf("%s in [%s]", col, strings.Join(vals, ", ")))
		}
	}
	return strings.Join(parts, "; ")
}

// renderCounts prints a single-series chart as a two-column table.
func renderCounts(chart *engine.ChartConfig) string {
	if chart == nil {
		return ""
	}
	head := styles.Title.Render(chart.Title) + "\n"
	if chart.Empty || len(chart.Series) == 0 {
		return head + styles.Muted.Render("No data") + "\n"
	}

	label := chart.XAxis
	if label == "" {
		label = "Label"
	}
	rows := make([][]string, 0, len(chart.Series[0].Data))
	for _, p := range chart.Series[0].Data {
		rows = append(rows, []string{p.Label, fmtNum(p.Value)})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(cellStyle).
		Headers(label, "count").
		Rows(rows...)
	return head + t.String() + "\n"
}

func renderTable(td *engine.TableData) string {
	headers := make([]string, len(td.Columns))
	for i, c := range td.Columns {
		headers[i] = c.Label
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(cellStyle).
		Rows(td.Rows...)
	if len(td.Columns) > 1 {
		t = t.Headers(headers...)
	}
	return t.String()
}

func cellStyle(row, col int) lipgloss.Style {
	switch {
	case row == table.HeaderRow:
		return styles.Header
	case col > 0:
		return styles.Number
	default:
		return styles.Cell
	}
}

// ============================================================================
// JSON / CSV OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v any, format string) error {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// writeTableCSV writes table headers and rows, ready for a spreadsheet.
func writeTableCSV(w io.Writer, td *engine.TableData) error {
	cw := csv.NewWriter(w)
	if td != nil {
		headers := make([]string, len(td.Columns))
		for i, c := range td.Columns {
			headers[i] = c.Label
		}
		if err := cw.Write(headers); err != nil {
			return err
		}
		if err := cw.WriteAll(td.Rows); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func fmtNum(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
