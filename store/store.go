package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spektr-org/clinicdash/engine"
	"github.com/spektr-org/clinicdash/schema"
)

// ============================================================================
// RECORD STORE: Load once, read forever
// ============================================================================
// A Store owns the immutable Dataset built from one CSV source plus the
// read-only views the dashboard controls need (dropdown values, date range).
// Nothing here mutates after Load returns.
// ============================================================================

// ErrSourceNotFound is returned when the CSV source does not exist.
var ErrSourceNotFound = errors.New("data source not found")

// Store is the loaded record store.
type Store struct {
	source   string
	dataset  *engine.Dataset
	loadedAt time.Time
}

// Options bundles the values the dashboard filter controls are built from.
type Options struct {
	Categories map[string][]string `json:"categories"`
	DateColumn string              `json:"dateColumn,omitempty"`
	DateMin    engine.NullTime     `json:"dateMin"`
	DateMax    engine.NullTime     `json:"dateMax"`
}

// Load reads the CSV at path. A missing file yields ErrSourceNotFound.
func Load(path string, roles schema.Roles) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return LoadReader(f, path, roles)
}

// LoadReader reads CSV from r. name labels the source in the schema and
// in errors. Unparsable cells become missing values and never fail the load.
func LoadReader(r io.Reader, name string, roles schema.Roles) (*Store, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	headers, columns, err := frameColumns(records)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	sch := schema.Discover(headers, columns, roles, schema.DiscoverOptions{
		Name:   datasetName(name),
		Source: name,
	})

	return &Store{
		source:   name,
		dataset:  engine.NewDataset(sch, columns),
		loadedAt: time.Now().UTC(),
	}, nil
}

func datasetName(source string) string {
	base := filepath.Base(source)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return ""
	}
	return base[:len(base)-len(filepath.Ext(base))]
}

// Dataset returns the full, unfiltered dataset.
func (s *Store) Dataset() *engine.Dataset { return s.dataset }

// Schema returns the discovered schema.
func (s *Store) Schema() *schema.Schema { return s.dataset.Schema() }

// Source returns the path or name the data was loaded from.
func (s *Store) Source() string { return s.source }

// LoadedAt returns when the store finished loading.
func (s *Store) LoadedAt() time.Time { return s.loadedAt }

// Len returns the total number of rows.
func (s *Store) Len() int { return s.dataset.Len() }

// Categories returns the sorted distinct non-missing values of column.
// An absent column yields an empty list.
func (s *Store) Categories(column string) []string {
	return s.dataset.Distinct(column)
}

// DateBounds returns min and max of the date column, ignoring missing cells.
func (s *Store) DateBounds() (engine.NullTime, engine.NullTime) {
	return s.dataset.DateBounds()
}

// Options returns dropdown values for each tracked category column and
// the date range.
func (s *Store) Options() Options {
	opts := Options{
		Categories: make(map[string][]string),
		DateColumn: s.dataset.DateColumn(),
	}
	for _, col := range s.Schema().CategoryColumns {
		opts.Categories[col] = s.Categories(col)
	}
	opts.DateMin, opts.DateMax = s.DateBounds()
	return opts
}
