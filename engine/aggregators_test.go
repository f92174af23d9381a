package engine

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/clinicdash/schema"
)

var threeRowRoles = schema.Roles{Date: "Date", Categories: []string{"ServiceType"}}

var threeRows = [][]string{
	{"2024-01-01", "Cleaning"},
	{"2024-01-01", "Cleaning"},
	{"2024-01-02", "Filling"},
}

func TestSummarize_ThreeRowScenario(t *testing.T) {
	ds := buildDataset(t, []string{"Date", "ServiceType"}, threeRows, threeRowRoles)

	b := Summarize(Filter(ds, FilterSpec{}))

	assert.Equal(t, 3, b.RowCount)
	assert.Equal(t, []ValueCount{{"Cleaning", 2}, {"Filling", 1}}, b.CategoryCounts["ServiceType"])
	assert.True(t, b.HasDates)
	assert.Equal(t, []DateCount{
		{Date: day("2024-01-01"), Count: 2},
		{Date: day("2024-01-02"), Count: 1},
	}, b.DailyCounts)
}

func TestSummarize_FillingRestriction(t *testing.T) {
	ds := buildDataset(t, []string{"Date", "ServiceType"}, threeRows, threeRowRoles)

	b := Summarize(Filter(ds, FilterSpec{Categories: map[string][]string{"ServiceType": {"Filling"}}}))

	assert.Equal(t, 1, b.RowCount)
	assert.Equal(t, []DateCount{{Date: day("2024-01-02"), Count: 1}}, b.DailyCounts)
}

func TestSummarize_SingleValueStdIsMissing(t *testing.T) {
	one := buildDataset(t, []string{"Age"}, [][]string{{"40"}}, schema.Roles{})
	b := Summarize(one)
	require.Len(t, b.Stats.Columns, 1)
	assert.Equal(t, 1, b.Stats.Columns[0].Count)
	assert.False(t, b.Stats.Columns[0].Std.Valid)
	assert.Equal(t, Float(40), b.Stats.Columns[0].Mean)

	same := buildDataset(t, []string{"Age"}, [][]string{{"40"}, {"40"}, {"40"}}, schema.Roles{})
	b = Summarize(same)
	require.Len(t, b.Stats.Columns, 1)
	assert.False(t, b.Stats.Columns[0].Std.Valid, "a constant column has no defined std")
	assert.Equal(t, Float(40), b.Stats.Columns[0].P50)
}

func TestSummarize_NoNumericColumns(t *testing.T) {
	ds := buildDataset(t, []string{"Date", "ServiceType"}, threeRows, threeRowRoles)
	b := Summarize(ds)

	assert.True(t, b.Stats.NoNumericColumns)
	assert.Empty(t, b.Stats.Columns)
	assert.Nil(t, b.Correlation)
}

func TestSummarize_CategoryCountsSumToRowCount(t *testing.T) {
	ds := clinicDataset(t)
	specs := []FilterSpec{
		{},
		dateRange("2024-01-01", "2024-01-02"),
		{Categories: map[string][]string{"Kaynak": {"Google"}}},
	}
	for _, spec := range specs {
		b := Summarize(Filter(ds, spec))
		sum := 0
		for _, vc := range b.CategoryCounts["Hizmet_Turu"] {
			sum += vc.Count
		}
		assert.Equal(t, b.RowCount, sum)
	}
}

func TestSummarize_ClinicFixture(t *testing.T) {
	b := Summarize(clinicDataset(t))

	assert.Equal(t, 6, b.RowCount)
	assert.Equal(t, []string{"Hizmet_Turu", "Kaynak"}, b.CategoryColumns)
	// Missing cells are not counted; ties keep first-seen order.
	assert.Equal(t, []ValueCount{{"Instagram", 2}, {"Google", 2}, {"Referral", 1}}, b.CategoryCounts["Kaynak"])
	assert.Len(t, b.DailyCounts, 3)

	assert.Equal(t, "Hasta_Yasi", b.Metric.Column)
	assert.Equal(t, []float64{34, 51, 27, 45, 62}, b.Metric.Values)
	assert.InDelta(t, 43.8, b.Metric.Mean.Value, 1e-9)

	require.NotNil(t, b.Correlation)
	assert.Equal(t, []string{"Hasta_Yasi", "Ucret"}, b.Correlation.Columns)
}

func TestSummarize_ZeroRows(t *testing.T) {
	ds := clinicDataset(t)
	b := Summarize(Filter(ds, FilterSpec{Categories: map[string][]string{"Kaynak": {"TV"}}}))

	assert.Equal(t, 0, b.RowCount)
	assert.Empty(t, b.CategoryCounts["Kaynak"])
	assert.Empty(t, b.DailyCounts)
	assert.False(t, b.Metric.Mean.Valid)
	assert.Nil(t, b.Correlation)
	require.Len(t, b.Stats.Columns, 2)
	assert.Equal(t, 0, b.Stats.Columns[0].Count)
	assert.False(t, b.Stats.Columns[0].Mean.Valid)
}

func TestSummarize_MetricAbsent(t *testing.T) {
	ds := buildDataset(t, []string{"Tarih", "Hizmet_Turu"}, [][]string{{"2024-01-01", "Cleaning"}}, schema.DefaultRoles())
	b := Summarize(ds)
	assert.Equal(t, "", b.Metric.Column)
	assert.False(t, b.Metric.Mean.Valid)
	assert.NotNil(t, b.Metric.Values)
}

func TestSummarize_Idempotent(t *testing.T) {
	ds := clinicDataset(t)
	spec := FilterSpec{Categories: map[string][]string{"Hizmet_Turu": {"Cleaning", "Implant"}}}

	first := Summarize(Filter(ds, spec))
	second := Summarize(Filter(ds, spec))
	assert.Equal(t, first, second)
}

func TestValueCounts_TieOrder(t *testing.T) {
	ds := buildDataset(t, []string{"C"}, [][]string{{"b"}, {"a"}, {"c"}, {"a"}, {"b"}, {"NA"}}, schema.Roles{})
	assert.Equal(t, []ValueCount{{"b", 2}, {"a", 2}, {"c", 1}}, ValueCounts(ds, "C"))
	assert.Empty(t, ValueCounts(ds, "Nope"))
}

func TestDailyCounts_ExactTimestamps(t *testing.T) {
	rows := [][]string{
		{"2024-01-01 10:00:00"},
		{"2024-01-01 09:00:00"},
		{"2024-01-01 10:00:00"},
	}
	ds := buildDataset(t, []string{"Tarih"}, rows, schema.Roles{Date: "Tarih"})
	got := DailyCounts(ds)
	require.Len(t, got, 2)
	assert.Equal(t, 9, got[0].Date.Hour())
	assert.Equal(t, 1, got[0].Count)
	assert.Equal(t, 2, got[1].Count)
}

func TestNullFloatJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A NullFloat `json:"a"`
		B NullFloat `json:"b"`
	}{A: Float(1.5), B: Float(math.NaN())})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null}`, string(b))

	var n NullFloat
	require.NoError(t, json.Unmarshal([]byte("null"), &n))
	assert.False(t, n.Valid)
}

func TestNullTimeJSON(t *testing.T) {
	b, err := json.Marshal([]NullTime{Time(day("2024-01-02")), {}})
	require.NoError(t, err)
	assert.JSONEq(t, `["2024-01-02T00:00:00Z", null]`, string(b))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatInt(1234567))
	assert.Equal(t, "-", FormatFloat(NullFloat{}, 1, "-"))
	assert.Equal(t, "43.8", FormatFloat(Float(43.8), 1, "-"))
	assert.Equal(t, "2024-01-02", FormatDate(day("2024-01-02")))
}
