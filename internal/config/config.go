package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"arafiles/internal/render"
)

// Config holds all arafiles configuration.
type Config struct {
	// Directory holding arafiles.db. Backups and the inbox default to
	// subdirectories of it.
	DataDir string `yaml:"data_dir"`

	Persist PersistConfig `yaml:"persist"`
	Export  ExportConfig  `yaml:"export"`
	Fonts   FontsConfig   `yaml:"fonts"`
	Backup  BackupConfig  `yaml:"backup"`
	Inbox   InboxConfig   `yaml:"inbox"`
	Logging LoggingConfig `yaml:"logging"`
}

// PersistConfig configures the debounced document save.
type PersistConfig struct {
	Debounce string `yaml:"debounce"`
}

// ExportConfig overrides page geometry, in CSS pixels.
type ExportConfig struct {
	Scale          float64 `yaml:"scale"`
	PageWidth      float64 `yaml:"page_width"`
	PageHeight     float64 `yaml:"page_height"`
	Padding        float64 `yaml:"padding"`
	ColumnGap      float64 `yaml:"column_gap"`
	BlockGap       float64 `yaml:"block_gap"`
	ImageMaxHeight float64 `yaml:"image_max_height"`
}

// FontsConfig points at TTF/OTF files. Empty uses the embedded Go fonts,
// which have no Arabic glyphs.
type FontsConfig struct {
	Regular string `yaml:"regular"`
	Bold    string `yaml:"bold"`
}

// BackupConfig configures scheduled backups. An empty schedule disables them.
type BackupConfig struct {
	Schedule string `yaml:"schedule"` // cron spec, e.g. "@daily"
	Dir      string `yaml:"dir"`
	Keep     int    `yaml:"keep"` // 0 keeps everything
}

// InboxConfig configures the watched drop directory. An empty dir
// disables the watcher.
type InboxConfig struct {
	Dir    string `yaml:"dir"`
	Folder string `yaml:"folder"` // folder name images are filed under
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	page := render.DefaultPageSpec()
	return &Config{
		DataDir: defaultDataDir(),
		Persist: PersistConfig{Debounce: "250ms"},
		Export: ExportConfig{
			Scale:          page.Scale,
			PageWidth:      page.Width,
			PageHeight:     page.Height,
			Padding:        page.Padding,
			ColumnGap:      page.ColumnGap,
			BlockGap:       page.BlockGap,
			ImageMaxHeight: page.Block.ImageMaxHeight,
		},
		Backup: BackupConfig{Keep: 10},
		Inbox:  InboxConfig{Folder: "Inbox"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "arafiles")
	}
	return ".arafiles"
}

// DefaultPath is ~/.config/arafiles/config.yaml on Linux.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("ARAFILES_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if level := os.Getenv("ARAFILES_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if spec := os.Getenv("ARAFILES_BACKUP_SCHEDULE"); spec != "" {
		c.Backup.Schedule = spec
	}
	if keep := os.Getenv("ARAFILES_BACKUP_KEEP"); keep != "" {
		if n, err := strconv.Atoi(keep); err == nil {
			c.Backup.Keep = n
		}
	}
}

// Validate rejects values the services cannot run with.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if _, err := time.ParseDuration(c.Persist.Debounce); err != nil {
		return fmt.Errorf("persist.debounce: %w", err)
	}
	e := c.Export
	if e.Scale < 1 || e.Scale > 8 {
		return fmt.Errorf("export.scale must be between 1 and 8, got %v", e.Scale)
	}
	if e.PageWidth <= 0 || e.PageHeight <= 0 {
		return fmt.Errorf("export page size must be positive")
	}
	if e.Padding < 0 || e.ColumnGap < 0 || e.BlockGap < 0 || e.ImageMaxHeight <= 0 {
		return fmt.Errorf("export spacing must not be negative")
	}
	if e.PageWidth <= 2*e.Padding+e.ColumnGap || e.PageHeight <= 2*e.Padding {
		return fmt.Errorf("export padding leaves no room for content")
	}
	if c.Backup.Schedule != "" {
		if _, err := cron.ParseStandard(c.Backup.Schedule); err != nil {
			return fmt.Errorf("backup.schedule: %w", err)
		}
	}
	if c.Backup.Keep < 0 {
		return fmt.Errorf("backup.keep must not be negative")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q: must be debug, info, warn or error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q: must be json or console", c.Logging.Format)
	}
	return nil
}

// DBPath is the SQLite database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "arafiles.db")
}

// BackupDir is where scheduled backups are written.
func (c *Config) BackupDir() string {
	if c.Backup.Dir != "" {
		return c.Backup.Dir
	}
	return filepath.Join(c.DataDir, "backups")
}

// PersistDelay returns the parsed debounce delay, or 0 when invalid.
func (c *Config) PersistDelay() time.Duration {
	d, _ := time.ParseDuration(c.Persist.Debounce)
	return d
}

// PageSpec applies the export overrides to the default PDF page.
func (c *Config) PageSpec() render.PageSpec {
	s := render.DefaultPageSpec()
	s.Scale = c.Export.Scale
	s.Width = c.Export.PageWidth
	s.Height = c.Export.PageHeight
	s.Padding = c.Export.Padding
	s.ColumnGap = c.Export.ColumnGap
	s.BlockGap = c.Export.BlockGap
	s.Block.ImageMaxHeight = c.Export.ImageMaxHeight
	return s
}

// SheetSpec applies the export scale to the default PNG sheet. The sheet
// keeps its own geometry.
func (c *Config) SheetSpec() render.SheetSpec {
	s := render.DefaultSheetSpec()
	s.Scale = c.Export.Scale
	return s
}

// LoadFonts loads the configured font pair.
func (c *Config) LoadFonts() (*render.FontSet, error) {
	return render.LoadFonts(c.Fonts.Regular, c.Fonts.Bold)
}
