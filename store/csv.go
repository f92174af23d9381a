package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/spektr-org/clinicdash/engine"
	"github.com/spektr-org/clinicdash/schema"
)

// ============================================================================
// CSV: Raw rows in, column-major string frame out (and back)
// ============================================================================
// Rows are tokenized leniently (short rows padded, lazy quotes) and then
// handed to a gota DataFrame with every column typed as string. Type
// classification is left to schema.Discover so that the missing-token rules
// stay in one place.
// ============================================================================

// ErrNoHeader is returned for input without a header row.
var ErrNoHeader = errors.New("csv has no header row")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readRecords tokenizes r into padded rows. The first row is the header.
func readRecords(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoHeader
	}

	width := len(records[0])
	for _, rec := range records[1:] {
		if len(rec) > width {
			width = len(rec)
		}
	}
	for i, rec := range records {
		for len(rec) < width {
			rec = append(rec, "")
		}
		records[i] = rec
	}
	return records, nil
}

// frameColumns loads the records into a string-typed gota frame and returns
// its headers and column-major cells.
func frameColumns(records [][]string) ([]string, [][]string, error) {
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}
	if len(records) == 1 {
		return headers, make([][]string, len(headers)), nil
	}

	body := append([][]string{headers}, records[1:]...)
	df := dataframe.LoadRecords(body,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.HasHeader(true),
	)
	if df.Err != nil {
		return nil, nil, fmt.Errorf("failed to build frame: %w", df.Err)
	}

	names := df.Names()
	columns := make([][]string, len(names))
	for i, name := range names {
		columns[i] = df.Col(name).Records()
	}
	return names, columns, nil
}

// WriteCSV writes the rows of ds with the original header and column order.
// Missing cells are written as empty strings; no index column is added.
func WriteCSV(w io.Writer, ds *engine.Dataset) error {
	headers := ds.Columns()
	records := ds.Records()

	for _, rec := range records {
		for c, v := range rec {
			if schema.IsMissing(v) {
				rec[c] = ""
			}
		}
	}

	if len(records) == 0 {
		cw := csv.NewWriter(w)
		if err := cw.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		cw.Flush()
		return cw.Error()
	}

	df := dataframe.LoadRecords(append([][]string{headers}, records...),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.HasHeader(true),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return fmt.Errorf("failed to build export frame: %w", df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
