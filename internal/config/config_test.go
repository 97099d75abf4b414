package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 250*time.Millisecond, cfg.PersistDelay())
	assert.Equal(t, 3.0, cfg.Export.Scale)
	assert.Equal(t, 794.0, cfg.Export.PageWidth)
	assert.Equal(t, 1123.0, cfg.Export.PageHeight)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Backup.Schedule)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Export, cfg.Export)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
data_dir: /tmp/arafiles-test
persist:
  debounce: 1s
export:
  scale: 2
  block_gap: 8
backup:
  schedule: "@daily"
  keep: 3
inbox:
  dir: /tmp/drop
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/tmp/arafiles-test", cfg.DataDir)
	assert.Equal(t, time.Second, cfg.PersistDelay())
	assert.Equal(t, 2.0, cfg.Export.Scale)
	assert.Equal(t, 8.0, cfg.Export.BlockGap)
	assert.Equal(t, 794.0, cfg.Export.PageWidth, "unset keys keep their defaults")
	assert.Equal(t, "@daily", cfg.Backup.Schedule)
	assert.Equal(t, 3, cfg.Backup.Keep)
	assert.Equal(t, "Inbox", cfg.Inbox.Folder)
	assert.Equal(t, "/tmp/drop", cfg.Inbox.Dir)
	assert.Equal(t, "/tmp/arafiles-test/arafiles.db", cfg.DBPath())
	assert.Equal(t, "/tmp/arafiles-test/backups", cfg.BackupDir())

	page := cfg.PageSpec()
	assert.Equal(t, 2.0, page.Scale)
	assert.Equal(t, 8.0, page.BlockGap)
	assert.Equal(t, 2.0, cfg.SheetSpec().Scale)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("export: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ARAFILES_DATA_DIR", "/env/data")
	t.Setenv("ARAFILES_LOG_LEVEL", "warn")
	t.Setenv("ARAFILES_BACKUP_SCHEDULE", "@every 6h")
	t.Setenv("ARAFILES_BACKUP_KEEP", "4")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/env/data", cfg.DataDir)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "@every 6h", cfg.Backup.Schedule)
	assert.Equal(t, 4, cfg.Backup.Keep)
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverrides_IgnoresBadKeep(t *testing.T) {
	t.Setenv("ARAFILES_BACKUP_KEEP", "many")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	assert.Equal(t, 10, cfg.Backup.Keep)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"bad debounce", func(c *Config) { c.Persist.Debounce = "soon" }},
		{"zero scale", func(c *Config) { c.Export.Scale = 0 }},
		{"huge scale", func(c *Config) { c.Export.Scale = 20 }},
		{"negative gap", func(c *Config) { c.Export.BlockGap = -1 }},
		{"padding eats page", func(c *Config) { c.Export.Padding = 500 }},
		{"bad schedule", func(c *Config) { c.Backup.Schedule = "every tuesday" }},
		{"negative keep", func(c *Config) { c.Backup.Keep = -1 }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.DataDir = "/saved"
	cfg.Backup.Schedule = "@weekly"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
