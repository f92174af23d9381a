package schema

import (
	"fmt"
	"strings"
)

// ============================================================================
// SCHEMA: Typed column descriptors for a loaded dataset
// ============================================================================
// Computed once at load by Discover. The engine queries this object for
// column presence and kind instead of probing rows.
// Roles bind the dashboard's conventional columns (date, tracked categories,
// metric) to concrete headers of the file at hand.
// ============================================================================

// Kind classifies how a column's cells are interpreted.
type Kind int

const (
	KindCategorical Kind = iota
	KindNumeric
	KindDate
	KindBool
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindCategorical:
		return "categorical"
	case KindNumeric:
		return "numeric"
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "categorical":
		*k = KindCategorical
	case "numeric":
		*k = KindNumeric
	case "date":
		*k = KindDate
	case "bool":
		*k = KindBool
	default:
		return fmt.Errorf("unknown column kind %q", string(b))
	}
	return nil
}

// Column describes one column of the source file.
type Column struct {
	Name            string   `json:"name"` // header text, exactly as in the file
	Key             string   `json:"key"`  // snake_case form used for loose matching
	DisplayName     string   `json:"displayName"`
	Kind            Kind     `json:"kind"`
	Index           int      `json:"index"`
	MissingCount    int      `json:"missingCount"`
	UniqueCount     int      `json:"uniqueCount"`
	SampleValues    []string `json:"sampleValues,omitempty"`
	CardinalityHint string   `json:"cardinalityHint,omitempty"` // "low", "medium", "high"
}

// Roles names the columns the dashboard looks for.
// Empty fields mean the role is not tracked at all.
type Roles struct {
	Date       string   `json:"date" yaml:"date_column"`
	Categories []string `json:"categories" yaml:"category_columns"`
	Metric     string   `json:"metric" yaml:"metric_column"`
}

// DefaultRoles returns the headers used by the clinic's pre-registration export.
func DefaultRoles() Roles {
	return Roles{
		Date:       "Tarih",
		Categories: []string{"Hizmet_Turu", "Kaynak"},
		Metric:     "Hasta_Yasi",
	}
}

// Schema is the ordered set of columns plus resolved roles.
type Schema struct {
	Name       string   `json:"name"`
	Columns    []Column `json:"columns"`
	RowCount   int      `json:"rowCount"`
	DateColumn string   `json:"dateColumn,omitempty"`
	// CategoryColumns holds resolved tracked categories in role order.
	// Unresolved roles are dropped here and reported in Missing.
	CategoryColumns []string `json:"categoryColumns,omitempty"`
	MetricColumn    string   `json:"metricColumn,omitempty"`

	// categorySlots keeps one entry per configured category role, "" where
	// the role did not resolve.
	categorySlots []string

	Missing []MissingColumnError `json:"missing,omitempty"`

	DiscoveredFrom string `json:"discoveredFrom,omitempty"`
	DiscoveredAt   string `json:"discoveredAt,omitempty"`

	index map[string]int
}

// New builds a Schema over columns and rebuilds the name index.
func New(name string, columns []Column) *Schema {
	s := &Schema{Name: name, Columns: columns}
	s.reindex()
	return s
}

func (s *Schema) reindex() {
	s.index = make(map[string]int, len(s.Columns))
	for i, c := range s.Columns {
		s.index[c.Name] = i
	}
}

// Has reports whether a column with this exact header exists.
func (s *Schema) Has(name string) bool {
	if name == "" {
		return false
	}
	if s.index == nil {
		s.reindex()
	}
	_, ok := s.index[name]
	return ok
}

// Lookup returns the column with this exact header.
func (s *Schema) Lookup(name string) (Column, bool) {
	if s == nil {
		return Column{}, false
	}
	if s.index == nil {
		s.reindex()
	}
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.Columns[i], true
}

// Resolve maps a configured name onto an existing header.
// Exact match wins; otherwise the snake_case keys are compared, so
// "ServiceType" finds "service_type" and "Hizmet Turu" finds "Hizmet_Turu".
func (s *Schema) Resolve(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if s.Has(name) {
		return name, true
	}
	key := toSnakeCase(strings.TrimSpace(name))
	for _, c := range s.Columns {
		if c.Key == key {
			return c.Name, true
		}
	}
	return "", false
}

// Names returns headers in file order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// NumericColumns returns numeric columns in file order.
func (s *Schema) NumericColumns() []Column {
	var out []Column
	for _, c := range s.Columns {
		if c.Kind == KindNumeric {
			out = append(out, c)
		}
	}
	return out
}

// IsTracked reports whether name is one of the resolved category columns.
func (s *Schema) IsTracked(name string) bool {
	for _, c := range s.CategoryColumns {
		if c == name {
			return true
		}
	}
	return false
}

// CategorySlot returns the column bound to the i-th configured category
// role, or "" when that role is unresolved or was never configured.
func (s *Schema) CategorySlot(i int) string {
	if s == nil || i < 0 || i >= len(s.categorySlots) {
		return ""
	}
	return s.categorySlots[i]
}

// applyRoles resolves configured role names against the columns.
func (s *Schema) applyRoles(roles Roles) {
	s.Missing = nil
	s.CategoryColumns = nil
	s.categorySlots = make([]string, len(roles.Categories))

	if roles.Date != "" {
		if name, ok := s.Resolve(roles.Date); ok {
			s.DateColumn = name
		} else {
			s.Missing = append(s.Missing, MissingColumnError{Role: RoleDate, Column: roles.Date})
		}
	}

	seen := make(map[string]bool)
	for i, want := range roles.Categories {
		name, ok := s.Resolve(want)
		if !ok {
			s.Missing = append(s.Missing, MissingColumnError{Role: RoleCategory, Column: want})
			continue
		}
		s.categorySlots[i] = name
		if seen[name] {
			continue
		}
		seen[name] = true
		s.CategoryColumns = append(s.CategoryColumns, name)
	}

	if roles.Metric != "" {
		if name, ok := s.Resolve(roles.Metric); ok {
			s.MetricColumn = name
		} else {
			s.Missing = append(s.Missing, MissingColumnError{Role: RoleMetric, Column: roles.Metric})
		}
	}
}

// ============================================================================
// ERRORS
// ============================================================================

// Role names used in MissingColumnError.
const (
	RoleDate     = "date"
	RoleCategory = "category"
	RoleMetric   = "metric"
)

// MissingColumnError reports a configured column that the file lacks.
// It is never fatal: the outputs depending on it degrade to empty.
type MissingColumnError struct {
	Role   string `json:"role"`
	Column string `json:"column"`
}

func (e MissingColumnError) Error() string {
	return fmt.Sprintf("missing %s column %q", e.Role, e.Column)
}
