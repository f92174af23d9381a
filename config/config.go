package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/clinicdash/engine"
	"github.com/spektr-org/clinicdash/schema"
)

// =============================================================================
// Configuration
// =============================================================================
// A YAML file is decoded over Default(), so any key left out keeps its
// default. Command-line flags are applied by the caller afterwards and the
// result is checked with Validate.
// =============================================================================

var validate = validator.New()

// Config is the full clinicdash configuration.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// DataConfig locates the CSV and names its role columns.
type DataConfig struct {
	Path            string   `yaml:"path" validate:"required"`
	DateColumn      string   `yaml:"date_column"`
	CategoryColumns []string `yaml:"category_columns" validate:"dive,required"`
	MetricColumn    string   `yaml:"metric_column"`
	Watch           bool     `yaml:"watch"`
}

// ServerConfig controls the HTTP adapter.
type ServerConfig struct {
	Addr         string        `yaml:"addr" validate:"required"`
	Mode         string        `yaml:"mode" validate:"oneof=debug release test"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`
	RateLimit    float64       `yaml:"rate_limit" validate:"gte=0"`
	RateBurst    int           `yaml:"rate_burst" validate:"gte=1"`
}

// LogConfig controls the slog logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
	File   string `yaml:"file"`
}

// TelemetryConfig toggles metrics and tracing.
type TelemetryConfig struct {
	Metrics bool   `yaml:"metrics"`
	Tracing string `yaml:"tracing" validate:"oneof=none stdout"`
	Service string `yaml:"service"`
}

// ServiceName is the name reported in logs and spans.
func (t TelemetryConfig) ServiceName() string {
	if t.Service == "" {
		return "clinicdash"
	}
	return t.Service
}

// DashboardConfig tunes the rendered dashboard.
type DashboardConfig struct {
	HistogramBins  int           `yaml:"histogram_bins" validate:"gte=1,lte=200"`
	ExportFilename string        `yaml:"export_filename" validate:"required"`
	Titles         engine.Titles `yaml:"titles"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	roles := schema.DefaultRoles()
	return Config{
		Data: DataConfig{
			Path:            "veri.csv",
			DateColumn:      roles.Date,
			CategoryColumns: roles.Categories,
			MetricColumn:    roles.Metric,
		},
		Server: ServerConfig{
			Addr:         ":8050",
			Mode:         "release",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateBurst:    20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Metrics: true,
			Tracing: "none",
		},
		Dashboard: DashboardConfig{
			HistogramBins:  10,
			ExportFilename: "filtered_data.csv",
		},
	}
}

// Load reads path over the defaults. An empty path returns Default().
// The result is not validated; call Validate after applying flags.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("config file %s not found: %w", path, err)
		}
		return cfg, fmt.Errorf("failed to read the config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Roles returns the column roles for schema discovery.
func (c Config) Roles() schema.Roles {
	return schema.Roles{
		Date:       c.Data.DateColumn,
		Categories: append([]string(nil), c.Data.CategoryColumns...),
		Metric:     c.Data.MetricColumn,
	}
}

// EngineOptions returns the engine options implied by the dashboard section.
func (c Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithHistogramBins(c.Dashboard.HistogramBins),
		engine.WithTitles(c.Dashboard.Titles),
	}
}
