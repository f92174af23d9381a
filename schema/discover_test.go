package schema

import (
	"testing"
	"time"
)

// ============================================================================
// DISCOVERY TESTS
// ============================================================================

var clinicHeaders = []string{"Tarih", "Hizmet_Turu", "Kaynak", "Hasta_Yasi", "Onayli", "Not"}

// Column-major fixture: one slice per header.
var clinicColumns = [][]string{
	{"2024-01-01", "2024-01-01", "2024-01-02", "not a date", ""},
	{"Cleaning", "Cleaning", "Filling", "Implant", "NA"},
	{"Instagram", "Google", "Instagram", "Referral", "Google"},
	{"34", "51.5", "", "27", "NaN"},
	{"true", "false", "True", "", "FALSE"},
	{"call after 5", "", "vip", "12", "n/a"},
}

func TestDiscoverClinicColumns(t *testing.T) {
	sch := Discover(clinicHeaders, clinicColumns, DefaultRoles(), DiscoverOptions{Source: "veri.csv"})

	wantKinds := map[string]Kind{
		"Tarih":       KindDate,
		"Hizmet_Turu": KindCategorical,
		"Kaynak":      KindCategorical,
		"Hasta_Yasi":  KindNumeric,
		"Onayli":      KindBool,
		"Not":         KindCategorical,
	}
	for name, want := range wantKinds {
		col, ok := sch.Lookup(name)
		if !ok {
			t.Fatalf("column %q not found", name)
		}
		if col.Kind != want {
			t.Errorf("%s kind = %s, want %s", name, col.Kind, want)
		}
	}

	if sch.RowCount != 5 {
		t.Errorf("RowCount = %d, want 5", sch.RowCount)
	}
	if sch.DateColumn != "Tarih" {
		t.Errorf("DateColumn = %q, want Tarih", sch.DateColumn)
	}
	if sch.MetricColumn != "Hasta_Yasi" {
		t.Errorf("MetricColumn = %q, want Hasta_Yasi", sch.MetricColumn)
	}
	assertContains(t, sch.CategoryColumns, "Hizmet_Turu", "service type should be tracked")
	assertContains(t, sch.CategoryColumns, "Kaynak", "source should be tracked")
	if len(sch.Missing) != 0 {
		t.Errorf("expected no missing roles, got %v", sch.Missing)
	}
	if sch.DiscoveredFrom != "veri.csv" {
		t.Errorf("DiscoveredFrom = %q", sch.DiscoveredFrom)
	}

	age, _ := sch.Lookup("Hasta_Yasi")
	if age.MissingCount != 2 {
		t.Errorf("Hasta_Yasi missing = %d, want 2", age.MissingCount)
	}

	numeric := sch.NumericColumns()
	if len(numeric) != 1 || numeric[0].Name != "Hasta_Yasi" {
		t.Errorf("NumericColumns = %v, want only Hasta_Yasi", numeric)
	}
}

func TestDiscoverMissingRoles(t *testing.T) {
	headers := []string{"Hizmet_Turu", "Ucret"}
	columns := [][]string{{"Cleaning"}, {"100"}}

	sch := Discover(headers, columns, DefaultRoles())

	if sch.DateColumn != "" {
		t.Errorf("DateColumn = %q, want empty", sch.DateColumn)
	}
	if sch.MetricColumn != "" {
		t.Errorf("MetricColumn = %q, want empty", sch.MetricColumn)
	}
	if len(sch.CategoryColumns) != 1 || sch.CategoryColumns[0] != "Hizmet_Turu" {
		t.Errorf("CategoryColumns = %v", sch.CategoryColumns)
	}

	roles := map[string]bool{}
	for _, m := range sch.Missing {
		roles[m.Role+":"+m.Column] = true
	}
	for _, want := range []string{"date:Tarih", "category:Kaynak", "metric:Hasta_Yasi"} {
		if !roles[want] {
			t.Errorf("expected missing %s, got %v", want, sch.Missing)
		}
	}
}

func TestCategorySlotKeepsRolePosition(t *testing.T) {
	// First category role absent: the second must stay in slot 1.
	sch := Discover([]string{"Kaynak"}, [][]string{{"Google"}}, DefaultRoles())

	if got := sch.CategorySlot(0); got != "" {
		t.Errorf("slot 0 = %q, want empty", got)
	}
	if got := sch.CategorySlot(1); got != "Kaynak" {
		t.Errorf("slot 1 = %q, want Kaynak", got)
	}
	if got := sch.CategorySlot(5); got != "" {
		t.Errorf("out of range slot = %q", got)
	}

	var nilSchema *Schema
	if got := nilSchema.CategorySlot(0); got != "" {
		t.Errorf("nil schema slot = %q", got)
	}
}

func TestDiscoverAllMissingColumnIsNumeric(t *testing.T) {
	sch := Discover([]string{"Bos"}, [][]string{{"", "NA", ""}}, Roles{})
	col, _ := sch.Lookup("Bos")
	if col.Kind != KindNumeric {
		t.Errorf("all-missing column kind = %s, want numeric", col.Kind)
	}
}

func TestResolveLooseNames(t *testing.T) {
	sch := New("x", headerColumns([]string{"service_type", "Patient Age", "Date"}))

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"service_type", "service_type", true},
		{"ServiceType", "service_type", true},
		{"patient_age", "Patient Age", true},
		{"PatientAge", "Patient Age", true},
		{"Date", "Date", true},
		{"Source", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := sch.Resolve(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
		ok    bool
	}{
		{"2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"2024-01-02 09:30:00", time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC), true},
		{"2024-01-02T09:30:00Z", time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC), true},
		{"2024/01/02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"01/02/2024", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"Jan 2, 2024", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"2024-13-45", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"", time.Time{}, false},
		{"NaN", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.input)
		if ok != tt.ok || !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"42", 42, true},
		{" 3.5 ", 3.5, true},
		{"-7", -7, true},
		{"1e2", 100, true},
		{"NaN", 0, false},
		{"NAN", 0, false},
		{"Inf", 0, false},
		{"", 0, false},
		{"forty", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseNumber(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hizmet_Turu", "hizmet_turu"},
		{"Hizmet Turu", "hizmet_turu"},
		{"ServiceType", "service_type"},
		{"PatientAge", "patient_age"},
		{"ID", "id"},
		{"created_at", "created_at"},
		{"Tarih", "tarih"},
	}

	for _, tt := range tests {
		got := toSnakeCase(tt.input)
		if got != tt.expected {
			t.Errorf("toSnakeCase(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hasta_Yasi", "Hasta Yasi"},
		{"patient_age", "Patient Age"},
		{"Kaynak", "Kaynak"},
		{"Service Type", "Service Type"},
	}

	for _, tt := range tests {
		got := toDisplayName(tt.input)
		if got != tt.expected {
			t.Errorf("toDisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestKindTextRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindCategorical, KindNumeric, KindDate, KindBool} {
		b, _ := k.MarshalText()
		var got Kind
		if err := got.UnmarshalText(b); err != nil || got != k {
			t.Errorf("kind %s did not survive text encoding: %v", k, err)
		}
	}
	var k Kind
	if err := k.UnmarshalText([]byte("blob")); err == nil {
		t.Error("expected error for unknown kind")
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func assertContains(t *testing.T, slice []string, item string, msg string) {
	t.Helper()
	for _, s := range slice {
		if s == item {
			return
		}
	}
	t.Errorf("%s: %q not found in %v", msg, item, slice)
}
