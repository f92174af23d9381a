package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ============================================================================
// STATS: Descriptive statistics and Pearson correlation
// ============================================================================
// std is the sample standard deviation (N-1). It is missing when fewer than
// two values are present or when every value is identical.
// Percentiles interpolate linearly at position p·(n-1) of the sorted values.
// ============================================================================

// Describe computes ColumnStats for each named numeric column.
// An empty column list yields the NoNumericColumns sentinel.
func Describe(ds *Dataset, columns []string) StatsTable {
	if len(columns) == 0 {
		return StatsTable{NoNumericColumns: true, Columns: []ColumnStats{}}
	}
	out := StatsTable{Columns: make([]ColumnStats, 0, len(columns))}
	for _, col := range columns {
		out.Columns = append(out.Columns, describeValues(col, ds.Floats(col)))
	}
	return out
}

func describeValues(col string, values []float64) ColumnStats {
	cs := ColumnStats{Column: col, Count: len(values)}
	if len(values) == 0 {
		return cs
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	cs.Mean = mean(values)
	cs.Std = sampleStd(values)
	cs.Min = Float(sorted[0])
	cs.P25 = Float(Percentile(sorted, 25))
	cs.P50 = Float(Percentile(sorted, 50))
	cs.P75 = Float(Percentile(sorted, 75))
	cs.Max = Float(sorted[len(sorted)-1])
	return cs
}

func mean(values []float64) NullFloat {
	if len(values) == 0 {
		return NullFloat{}
	}
	return Float(stat.Mean(values, nil))
}

func sampleStd(values []float64) NullFloat {
	if len(values) < 2 || constant(values) {
		return NullFloat{}
	}
	return Float(stat.StdDev(values, nil))
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// Percentile returns the p-th percentile (0-100) of already sorted values
// using linear interpolation between closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}

	pos := (p / 100) * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// ============================================================================
// CORRELATION
// ============================================================================

// Correlate builds the Pearson matrix over pairwise-complete rows.
// Pairs with fewer than two complete rows or zero variance are missing.
// Returns nil for fewer than two columns.
func Correlate(ds *Dataset, columns []string) *CorrelationMatrix {
	k := len(columns)
	if k < 2 {
		return nil
	}

	cols := make([][]NullFloat, k)
	for c, name := range columns {
		vals := make([]NullFloat, ds.Len())
		for i := range vals {
			vals[i] = ds.Number(i, name)
		}
		cols[c] = vals
	}

	m := &CorrelationMatrix{
		Columns: append([]string(nil), columns...),
		Values:  make([][]NullFloat, k),
	}
	for i := range m.Values {
		m.Values[i] = make([]NullFloat, k)
	}

	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			r := pearson(cols[i], cols[j])
			if i == j && r.Valid {
				r = Float(1)
			}
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

func pearson(a, b []NullFloat) NullFloat {
	x := make([]float64, 0, len(a))
	y := make([]float64, 0, len(a))
	for i := range a {
		if a[i].Valid && b[i].Valid {
			x = append(x, a[i].Value)
			y = append(y, b[i].Value)
		}
	}
	if len(x) < 2 || constant(x) || constant(y) {
		return NullFloat{}
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return NullFloat{}
	}
	return Float(math.Max(-1, math.Min(1, r)))
}
