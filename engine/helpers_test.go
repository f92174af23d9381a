package engine

import (
	"testing"
	"time"

	"github.com/spektr-org/clinicdash/schema"
)

// ============================================================================
// TEST FIXTURES
// ============================================================================

var clinicHeaders = []string{"Tarih", "Hizmet_Turu", "Kaynak", "Hasta_Yasi", "Ucret"}

var clinicRows = [][]string{
	{"2024-01-01", "Cleaning", "Instagram", "34", "500"},
	{"2024-01-01", "Cleaning", "Google", "51", "650"},
	{"2024-01-02", "Filling", "Instagram", "", "800"},
	{"2024-01-03", "Implant", "Referral", "27", "4000"},
	{"bad-date", "Filling", "Google", "45", "900"},
	{"2024-01-03", "Cleaning", "", "62", "550"},
}

// buildDataset discovers a schema over row-major cells and loads them.
func buildDataset(t *testing.T, headers []string, rows [][]string, roles schema.Roles) *Dataset {
	t.Helper()
	columns := make([][]string, len(headers))
	for c := range headers {
		columns[c] = make([]string, len(rows))
		for r, row := range rows {
			if c < len(row) {
				columns[c][r] = row[c]
			}
		}
	}
	sch := schema.Discover(headers, columns, roles)
	return NewDataset(sch, columns)
}

func clinicDataset(t *testing.T) *Dataset {
	t.Helper()
	return buildDataset(t, clinicHeaders, clinicRows, schema.DefaultRoles())
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func dateRange(start, end string) FilterSpec {
	return FilterSpec{DateStart: Time(day(start)), DateEnd: Time(day(end))}
}
