package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/stmtfilter/internal/export"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Extract.DateLayouts = []string{"02/01/2006"}
	cfg.Report.TruncateAbove = 40
	cfg.Report.TruncateTo = 37
	cfg.Server.Addr = "127.0.0.1:9000"

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 33, cfg.Report.TruncateAbove)
	assert.Equal(t, 30, cfg.Report.TruncateTo)
	assert.Equal(t, "...", cfg.Report.Ellipsis)
	assert.Equal(t, [4]float64{35, 70, 30, 30}, cfg.Report.ColumnWidths)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.NotEmpty(t, cfg.Extract.DateLayouts)
	assert.Equal(t, export.DefaultLayout(), cfg.Layout())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("report:\n  truncate_above: 50\n  truncate_to: 45\nlog:\n  format: json\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Report.TruncateAbove)
	assert.Equal(t, 45, cfg.Report.TruncateTo)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "...", cfg.Report.Ellipsis)
	assert.Equal(t, Default().Extract.DateLayouts, cfg.Extract.DateLayouts)
	assert.Equal(t, 45, cfg.Layout().TruncateTo)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":       "report: [",
		"truncate order": "report:\n  truncate_above: 10\n  truncate_to: 20\n",
		"no layouts":     "extract:\n  date_layouts: []\n",
		"zero width":     "report:\n  column_widths: [35, 0, 30, 30]\n",
		"log format":     "log:\n  format: xml\n",
		"upload limit":   "server:\n  max_upload_bytes: 0\n",
	}
	for name, body := range tests {
		path := filepath.Join(t.TempDir(), FileName)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, err := Load(path)
		assert.Error(t, err, name)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "truncate_above: 33")
	assert.Contains(t, contents, "column_widths:")
	assert.Contains(t, contents, "max_upload_bytes: 20971520")
	assert.Contains(t, contents, "format: console")
}
