package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/stmtfilter/internal/export"
	"github.com/cleared-dev/stmtfilter/internal/importer"
)

// FileName is the conventional config file name written by "stmtfilter init".
const FileName = "stmtfilter.yaml"

// Config represents the top-level stmtfilter.yaml configuration.
type Config struct {
	Extract ExtractConfig `yaml:"extract"`
	Report  ReportConfig  `yaml:"report"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// ExtractConfig controls statement parsing.
type ExtractConfig struct {
	DateLayouts []string `yaml:"date_layouts"` // Go reference-time layouts, tried in order
}

// ReportConfig controls the PDF export layout.
type ReportConfig struct {
	TruncateAbove int        `yaml:"truncate_above"`
	TruncateTo    int        `yaml:"truncate_to"`
	Ellipsis      string     `yaml:"ellipsis"`
	ColumnWidths  [4]float64 `yaml:"column_widths,flow"` // mm: date, description, amount, balance
	RowHeight     float64    `yaml:"row_height"`
	FontFamily    string     `yaml:"font_family"`
	FontSize      float64    `yaml:"font_size"`
	MissingMarker string     `yaml:"missing_marker"`
}

// ServerConfig controls "stmtfilter serve".
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// Load reads a stmtfilter.yaml file from disk. Keys absent from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path, or returns the defaults when path is empty.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config matching the built-in behaviour.
func Default() *Config {
	layout := export.DefaultLayout()
	return &Config{
		Extract: ExtractConfig{
			DateLayouts: append([]string(nil), importer.DefaultDateLayouts...),
		},
		Report: ReportConfig{
			TruncateAbove: layout.TruncateAbove,
			TruncateTo:    layout.TruncateTo,
			Ellipsis:      layout.Ellipsis,
			ColumnWidths:  layout.ColumnWidths,
			RowHeight:     layout.RowHeight,
			FontFamily:    layout.FontFamily,
			FontSize:      layout.FontSize,
			MissingMarker: layout.MissingMarker,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 20 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate rejects values the pipeline cannot work with.
func (c *Config) Validate() error {
	if len(c.Extract.DateLayouts) == 0 {
		return fmt.Errorf("extract.date_layouts must not be empty")
	}
	if c.Report.TruncateTo < 0 || c.Report.TruncateAbove < c.Report.TruncateTo {
		return fmt.Errorf("report.truncate_to (%d) must be between 0 and truncate_above (%d)",
			c.Report.TruncateTo, c.Report.TruncateAbove)
	}
	for i, w := range c.Report.ColumnWidths {
		if w <= 0 {
			return fmt.Errorf("report.column_widths[%d] must be positive, got %v", i, w)
		}
	}
	if c.Report.RowHeight <= 0 || c.Report.FontSize <= 0 {
		return fmt.Errorf("report.row_height and report.font_size must be positive")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// Layout converts the report settings into an export layout.
func (c *Config) Layout() export.Layout {
	l := export.DefaultLayout()
	l.TruncateAbove = c.Report.TruncateAbove
	l.TruncateTo = c.Report.TruncateTo
	l.Ellipsis = c.Report.Ellipsis
	l.ColumnWidths = c.Report.ColumnWidths
	l.RowHeight = c.Report.RowHeight
	l.FontFamily = c.Report.FontFamily
	l.FontSize = c.Report.FontSize
	l.MissingMarker = c.Report.MissingMarker
	return l
}
