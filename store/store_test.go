package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/clinicdash/engine"
	"github.com/spektr-org/clinicdash/schema"
)

var clinicCSV = []byte(`Tarih,Hizmet_Turu,Kaynak,Hasta_Yasi
2024-01-01,Cleaning,Instagram,34
2024-01-01,Cleaning,Google,NA
2024-01-02,Filling,Instagram,29
not-a-date,Implant,,41
`)

func loadClinic(t *testing.T) *Store {
	t.Helper()
	s, err := LoadReader(bytes.NewReader(clinicCSV), "veri.csv", schema.DefaultRoles())
	require.NoError(t, err)
	return s
}

func TestLoadReader_Clinic(t *testing.T) {
	s := loadClinic(t)

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, "veri.csv", s.Source())
	assert.Equal(t, "veri", s.Schema().Name)
	assert.Empty(t, s.Schema().Missing)

	col, ok := s.Schema().Lookup("Hasta_Yasi")
	require.True(t, ok)
	assert.Equal(t, schema.KindNumeric, col.Kind)
	assert.Equal(t, 1, col.MissingCount)

	assert.Equal(t, []string{"Google", "Instagram"}, s.Categories("Kaynak"))
	assert.Equal(t, []string{"Cleaning", "Filling", "Implant"}, s.Categories("Hizmet_Turu"))
	assert.Equal(t, []string{}, s.Categories("Doktor"))

	lo, hi := s.DateBounds()
	assert.Equal(t, "2024-01-01", lo.Time.Format("2006-01-02"))
	assert.Equal(t, "2024-01-02", hi.Time.Format("2006-01-02"))
	assert.False(t, s.Dataset().Date(3).Valid, "bad date coerced to missing")
}

func TestStore_Options(t *testing.T) {
	opts := loadClinic(t).Options()

	assert.Equal(t, "Tarih", opts.DateColumn)
	assert.Equal(t, map[string][]string{
		"Hizmet_Turu": {"Cleaning", "Filling", "Implant"},
		"Kaynak":      {"Google", "Instagram"},
	}, opts.Categories)
	assert.True(t, opts.DateMin.Valid)
	assert.True(t, opts.DateMax.Valid)
}

func TestLoad_SourceNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"), schema.DefaultRoles())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceNotFound))
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "veri.csv")
	require.NoError(t, os.WriteFile(path, clinicCSV, 0o644))

	s, err := Load(path, schema.DefaultRoles())
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, path, s.Schema().DiscoveredFrom)
}

func TestLoadReader_Structural(t *testing.T) {
	_, err := LoadReader(strings.NewReader(""), "empty.csv", schema.DefaultRoles())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoHeader))

	s, err := LoadReader(strings.NewReader("Tarih,Hizmet_Turu\n"), "header.csv", schema.DefaultRoles())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	lo, hi := s.DateBounds()
	assert.False(t, lo.Valid)
	assert.False(t, hi.Valid)
}

func TestLoadReader_RaggedRowsPadded(t *testing.T) {
	in := "\xEF\xBB\xBFTarih,Hizmet_Turu,Kaynak\n2024-01-01,Cleaning\n2024-01-02,Filling,Google\n"
	s, err := LoadReader(strings.NewReader(in), "ragged.csv", schema.DefaultRoles())
	require.NoError(t, err)

	assert.Equal(t, []string{"Tarih", "Hizmet_Turu", "Kaynak"}, s.Dataset().Columns())
	assert.Equal(t, 2, s.Len())
	_, ok := s.Dataset().Category(0, "Kaynak")
	assert.False(t, ok)
}

func TestLoadReader_RolesMissing(t *testing.T) {
	s, err := LoadReader(strings.NewReader("Kaynak,Puan\nGoogle,4\n"), "x.csv", schema.DefaultRoles())
	require.NoError(t, err)
	assert.Len(t, s.Schema().Missing, 3)
	assert.Equal(t, []string{"Kaynak"}, s.Schema().CategoryColumns)
}

func TestWriteCSV_Full(t *testing.T) {
	s := loadClinic(t)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s.Dataset()))

	want := "Tarih,Hizmet_Turu,Kaynak,Hasta_Yasi\n" +
		"2024-01-01,Cleaning,Instagram,34\n" +
		"2024-01-01,Cleaning,Google,\n" +
		"2024-01-02,Filling,Instagram,29\n" +
		"not-a-date,Implant,,41\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_Filtered(t *testing.T) {
	s := loadClinic(t)
	filtered := engine.Filter(s.Dataset(), engine.FilterSpec{
		Categories: map[string][]string{"Kaynak": {"Instagram"}},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, filtered))

	want := "Tarih,Hizmet_Turu,Kaynak,Hasta_Yasi\n" +
		"2024-01-01,Cleaning,Instagram,34\n" +
		"2024-01-02,Filling,Instagram,29\n"
	assert.Equal(t, want, buf.String())

	// Reloading the export yields the same rows.
	again, err := LoadReader(&buf, "export.csv", schema.DefaultRoles())
	require.NoError(t, err)
	assert.Equal(t, filtered.Records(), again.Dataset().Records())
}

func TestWriteCSV_Empty(t *testing.T) {
	s := loadClinic(t)
	filtered := engine.Filter(s.Dataset(), engine.FilterSpec{
		Categories: map[string][]string{"Kaynak": {"TV"}},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, filtered))
	assert.Equal(t, "Tarih,Hizmet_Turu,Kaynak,Hasta_Yasi\n", buf.String())
}

func TestWatcher_ReportsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "veri.csv")
	require.NoError(t, os.WriteFile(path, clinicCSV, 0o644))

	changed := make(chan fsnotify.Event, 8)
	w, err := NewWatcher(path, nil, func(ev fsnotify.Event) { changed <- ev })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, append(clinicCSV, []byte("2024-01-05,Cleaning,Google,50\n")...), 0o644))

	select {
	case ev := <-changed:
		assert.Equal(t, filepath.Clean(path), filepath.Clean(ev.Name))
	case <-time.After(5 * time.Second):
		t.Fatal("no change event received")
	}

	cancel()
	require.NoError(t, <-done)
}
