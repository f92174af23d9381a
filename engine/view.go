package engine

import (
	"sort"
	"strings"

	"github.com/spektr-org/clinicdash/schema"
)

// ============================================================================
// DATASET: Immutable columnar table with zero-copy filtered views
// ============================================================================
// Storage is built once from column-major raw cells and never written again.
// Every Dataset holds a row index list into that storage; Filter returns a new
// Dataset with a shorter list over the same storage.
//
// Typed cells are parsed at construction:
//   numeric columns → []NullFloat
//   date column     → []NullTime
// Raw text is kept for every column so export reproduces the input.
// ============================================================================

// storage is shared by a dataset and all of its derived views.
type storage struct {
	raw     [][]string    // raw[col][row]
	numbers [][]NullFloat // numbers[col] is nil unless the column is numeric
	dates   []NullTime    // parsed date role column, nil if absent
	dateCol int           // -1 if absent
	rows    int
}

// Dataset is an immutable table of records sharing a schema.
// Safe for concurrent reads.
type Dataset struct {
	schema *schema.Schema
	data   *storage
	rows   []int
}

// NewDataset builds a Dataset from column-major raw cells.
// columns[i] belongs to sch.Columns[i]; short columns are padded as missing.
func NewDataset(sch *schema.Schema, columns [][]string) *Dataset {
	if sch == nil {
		sch = schema.New("", nil)
	}

	n := sch.RowCount
	for _, c := range columns {
		if len(c) > n {
			n = len(c)
		}
	}

	st := &storage{
		raw:     make([][]string, len(sch.Columns)),
		numbers: make([][]NullFloat, len(sch.Columns)),
		dateCol: -1,
		rows:    n,
	}

	for i, col := range sch.Columns {
		cells := make([]string, n)
		if i < len(columns) {
			copy(cells, columns[i])
		}
		st.raw[i] = cells

		switch {
		case col.Name == sch.DateColumn && sch.DateColumn != "":
			st.dateCol = i
			st.dates = make([]NullTime, n)
			for r, c := range cells {
				if t, ok := schema.ParseDate(c); ok {
					st.dates[r] = Time(t)
				}
			}
		case col.Kind == schema.KindNumeric:
			nums := make([]NullFloat, n)
			for r, c := range cells {
				if f, ok := schema.ParseNumber(c); ok {
					nums[r] = NullFloat{Value: f, Valid: true}
				}
			}
			st.numbers[i] = nums
		}
	}

	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	sch.RowCount = n
	return &Dataset{schema: sch, data: st, rows: rows}
}

// subset returns a view over the given positions of ds (positions, not
// storage rows). The slice is owned by the new Dataset.
func (ds *Dataset) subset(positions []int) *Dataset {
	rows := make([]int, len(positions))
	for i, p := range positions {
		rows[i] = ds.rows[p]
	}
	return &Dataset{schema: ds.schema, data: ds.data, rows: rows}
}

// Len returns the number of rows in this view.
func (ds *Dataset) Len() int {
	if ds == nil {
		return 0
	}
	return len(ds.rows)
}

// Schema returns the shared schema.
func (ds *Dataset) Schema() *schema.Schema {
	if ds == nil {
		return schema.New("", nil)
	}
	return ds.schema
}

// Columns returns headers in file order.
func (ds *Dataset) Columns() []string {
	return ds.Schema().Names()
}

// HasColumn reports whether the dataset has a column with this exact header.
func (ds *Dataset) HasColumn(name string) bool {
	return ds.Schema().Has(name)
}

// DateColumn returns the resolved date column, or "".
func (ds *Dataset) DateColumn() string {
	if ds == nil || ds.data.dateCol < 0 {
		return ""
	}
	return ds.schema.DateColumn
}

func (ds *Dataset) colIndex(name string) int {
	if ds == nil {
		return -1
	}
	c, ok := ds.schema.Lookup(name)
	if !ok {
		return -1
	}
	return c.Index
}

// Raw returns the cell text at row i of column col, "" if out of range.
func (ds *Dataset) Raw(i int, col string) string {
	c := ds.colIndex(col)
	if c < 0 || i < 0 || i >= ds.Len() {
		return ""
	}
	return ds.data.raw[c][ds.rows[i]]
}

// Category returns the trimmed cell text and false for missing cells.
func (ds *Dataset) Category(i int, col string) (string, bool) {
	c := ds.colIndex(col)
	if c < 0 || i < 0 || i >= ds.Len() {
		return "", false
	}
	return categoryAt(ds.data.raw[c], ds.rows[i])
}

func categoryAt(cells []string, row int) (string, bool) {
	v := cells[row]
	if schema.IsMissing(v) {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Number returns the numeric value at row i of col. Columns not classified
// as numeric are parsed on read; unparsable cells are missing.
func (ds *Dataset) Number(i int, col string) NullFloat {
	c := ds.colIndex(col)
	if c < 0 || i < 0 || i >= ds.Len() {
		return NullFloat{}
	}
	return ds.numberAt(c, ds.rows[i])
}

func (ds *Dataset) numberAt(c, row int) NullFloat {
	if nums := ds.data.numbers[c]; nums != nil {
		return nums[row]
	}
	if f, ok := schema.ParseNumber(ds.data.raw[c][row]); ok {
		return NullFloat{Value: f, Valid: true}
	}
	return NullFloat{}
}

// Date returns the parsed date of row i, or a missing value when the
// dataset has no date column.
func (ds *Dataset) Date(i int) NullTime {
	if ds == nil || ds.data.dateCol < 0 || i < 0 || i >= ds.Len() {
		return NullTime{}
	}
	return ds.data.dates[ds.rows[i]]
}

// NumericColumns returns numeric column names in file order.
func (ds *Dataset) NumericColumns() []string {
	cols := ds.Schema().NumericColumns()
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		if c.Name == ds.DateColumn() {
			continue
		}
		names = append(names, c.Name)
	}
	return names
}

// Floats returns the non-missing values of col in row order.
func (ds *Dataset) Floats(col string) []float64 {
	c := ds.colIndex(col)
	if c < 0 {
		return nil
	}
	out := make([]float64, 0, ds.Len())
	for _, r := range ds.rows {
		if v := ds.numberAt(c, r); v.Valid {
			out = append(out, v.Value)
		}
	}
	return out
}

// Distinct returns the sorted distinct non-missing values of col.
func (ds *Dataset) Distinct(col string) []string {
	c := ds.colIndex(col)
	if c < 0 {
		return []string{}
	}
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range ds.rows {
		v, ok := categoryAt(ds.data.raw[c], r)
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// DateBounds returns the earliest and latest valid dates. Both are missing
// when there is no date column or every date is missing.
func (ds *Dataset) DateBounds() (NullTime, NullTime) {
	var lo, hi NullTime
	if ds == nil || ds.data.dateCol < 0 {
		return lo, hi
	}
	for _, r := range ds.rows {
		d := ds.data.dates[r]
		if !d.Valid {
			continue
		}
		if !lo.Valid || d.Time.Before(lo.Time) {
			lo = d
		}
		if !hi.Valid || d.Time.After(hi.Time) {
			hi = d
		}
	}
	return lo, hi
}

// Records returns the rows of this view as raw text in column order.
// The returned slices are fresh copies.
func (ds *Dataset) Records() [][]string {
	if ds == nil {
		return nil
	}
	out := make([][]string, len(ds.rows))
	for i, r := range ds.rows {
		rec := make([]string, len(ds.data.raw))
		for c := range ds.data.raw {
			rec[c] = ds.data.raw[c][r]
		}
		out[i] = rec
	}
	return out
}
