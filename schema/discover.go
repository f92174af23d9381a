package schema

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ============================================================================
// AUTO-DISCOVERY: Column classification from raw cells
// ============================================================================
// Classification per column:
//   1. Drop missing tokens ("", NA, NaN, null, ...)
//   2. The date role column is always a date column (cells coerced later)
//   3. true/false only → bool
//   4. Every remaining cell parses as a float → numeric
//   5. Anything else → categorical
// A column with no values at all is numeric, matching the behavior of the
// spreadsheet tooling the clinic exports come from.
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	Name       string // Dataset name (otherwise "Pre-registrations")
	Source     string // Where the data came from, e.g. a file path
	MaxSamples int    // Sample values kept per column. Default: 10
}

// Discover classifies each column of a column-major table.
// columns[i] holds every cell of headers[i]; short rows are padded by the caller.
func Discover(headers []string, columns [][]string, roles Roles, opts ...DiscoverOptions) *Schema {
	opt := DiscoverOptions{MaxSamples: 10}
	if len(opts) > 0 {
		opt = opts[0]
		if opt.MaxSamples <= 0 {
			opt.MaxSamples = 10
		}
	}
	if opt.Name == "" {
		opt.Name = "Pre-registrations"
	}

	// Resolve the date role on bare headers first: its kind is fixed
	// regardless of content.
	probe := New(opt.Name, headerColumns(headers))
	dateName, _ := probe.Resolve(roles.Date)

	rows := 0
	cols := make([]Column, len(headers))
	for i, h := range headers {
		var cells []string
		if i < len(columns) {
			cells = columns[i]
		}
		if len(cells) > rows {
			rows = len(cells)
		}
		cols[i] = analyzeColumn(h, i, cells, h == dateName && dateName != "", opt.MaxSamples)
	}

	s := New(opt.Name, cols)
	s.RowCount = rows
	s.DiscoveredFrom = opt.Source
	s.DiscoveredAt = time.Now().UTC().Format(time.RFC3339)
	s.applyRoles(roles)
	return s
}

func headerColumns(headers []string) []Column {
	cols := make([]Column, len(headers))
	for i, h := range headers {
		cols[i] = Column{Name: h, Key: toSnakeCase(h), Index: i}
	}
	return cols
}

// analyzeColumn inspects every cell of one column.
func analyzeColumn(header string, index int, cells []string, isDate bool, maxSamples int) Column {
	col := Column{
		Name:        header,
		Key:         toSnakeCase(header),
		DisplayName: toDisplayName(header),
		Index:       index,
	}

	values := make([]string, 0, len(cells))
	unique := make(map[string]bool)
	for _, c := range cells {
		if IsMissing(c) {
			col.MissingCount++
			continue
		}
		values = append(values, c)
		unique[c] = true
	}
	col.UniqueCount = len(unique)
	col.SampleValues = collectSamples(unique, maxSamples)

	switch {
	case isDate:
		col.Kind = KindDate
	default:
		col.Kind = detectKind(values)
	}

	switch {
	case col.UniqueCount <= 10:
		col.CardinalityHint = "low"
	case col.UniqueCount <= 100:
		col.CardinalityHint = "medium"
	default:
		col.CardinalityHint = "high"
	}
	return col
}

// detectKind requires every non-missing value to match for bool/numeric.
func detectKind(values []string) Kind {
	if len(values) == 0 {
		return KindNumeric
	}
	allBool, allNum := true, true
	for _, v := range values {
		if allBool {
			if _, ok := ParseBool(v); !ok {
				allBool = false
			}
		}
		if allNum {
			if _, ok := ParseNumber(v); !ok {
				allNum = false
			}
		}
		if !allBool && !allNum {
			return KindCategorical
		}
	}
	if allBool {
		return KindBool
	}
	return KindNumeric
}

// ============================================================================
// CELL PARSING
// ============================================================================

var missingTokens = map[string]bool{
	"": true, "NA": true, "N/A": true, "n/a": true, "NaN": true, "nan": true,
	"-NaN": true, "-nan": true, "NULL": true, "null": true, "None": true,
	"<NA>": true, "#N/A": true, "#NA": true, "<nil>": true,
}

// IsMissing reports whether a raw cell denotes a missing value.
func IsMissing(s string) bool {
	return missingTokens[strings.TrimSpace(s)]
}

// ParseNumber parses a numeric cell. Missing cells and infinities return false.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if IsMissing(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseBool accepts the literal true/false spellings only.
func ParseBool(s string) (bool, bool) {
	switch strings.TrimSpace(s) {
	case "true", "True", "TRUE":
		return true, true
	case "false", "False", "FALSE":
		return false, true
	}
	return false, false
}

var dateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// ParseDate parses an ISO-ish date cell. Anything unparsable is missing.
// Zone-less values are taken as UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if IsMissing(s) {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toSnakeCase converts "Column Name" or "columnName" → "column_name".
func toSnakeCase(s string) string {
	var result strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(r)
	}

	s = result.String()
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "_")
	return s
}

// toDisplayName cleans a header for human display.
// "Hizmet_Turu" → "Hizmet Turu", "patient_age" → "Patient Age"
func toDisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			words[i] = strings.ToUpper(string(r[:1])) + string(r[1:])
		}
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples values in sorted order.
func collectSamples(unique map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(unique))
	for v := range unique {
		samples = append(samples, v)
	}
	sort.Strings(samples)
	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
