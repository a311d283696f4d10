package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

var (
	// ErrConfigNotFound is returned by Load when an explicit path does not exist.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrConfigInvalid wraps parse and validation failures.
	ErrConfigInvalid = errors.New("invalid config")
)

// Config holds all user-configurable settings loaded from config.yaml / config.json
type Config struct {
	LibraryID  string           `mapstructure:"library_id" json:"library_id"`
	Locations  []LocationConfig `mapstructure:"locations" json:"locations"`
	Thumbnails ThumbnailConfig  `mapstructure:"thumbnails" json:"thumbnails"`
	Store      StoreConfig      `mapstructure:"store" json:"store"`
	Metrics    MetricsConfig    `mapstructure:"metrics" json:"metrics"`
	Log        LogConfig        `mapstructure:"log" json:"log"`
	Platform   PlatformConfig   `mapstructure:"platform" json:"platform"`
	Explorer   ExplorerConfig   `mapstructure:"explorer" json:"explorer"`
	Hotkeys    HotkeysConfig    `mapstructure:"hotkeys" json:"hotkeys"`
	Debug      []string         `mapstructure:"debug" json:"debug"` // debug categories, debug builds only
}

// LocationConfig is a directory the development backend indexes
type LocationConfig struct {
	Name string `mapstructure:"name" json:"name"`
	Path string `mapstructure:"path" json:"path"`
}

// ThumbnailConfig controls the development backend's thumbnail jobs
type ThumbnailConfig struct {
	Dir       string `mapstructure:"dir" json:"dir"`
	MaxPixels int    `mapstructure:"max_pixels" json:"max_pixels"` // longest edge of a generated thumbnail
	Workers   int    `mapstructure:"workers" json:"workers"`
}

// StoreConfig holds the settings database location
type StoreConfig struct {
	Path string `mapstructure:"path" json:"path"`
}

// MetricsConfig holds the optional Prometheus endpoint
type MetricsConfig struct {
	Addr string `mapstructure:"addr" json:"addr"` // empty disables the endpoint
}

// LogConfig mirrors logging.Config
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"` // "console" | "json"
	Output string `mapstructure:"output" json:"output"`
}

// PlatformConfig holds host integration settings
type PlatformConfig struct {
	ThumbnailScheme string `mapstructure:"thumbnail_scheme" json:"thumbnail_scheme"` // "file" | "orbit"
}

// ExplorerConfig holds explorer defaults; persisted values in the store win
type ExplorerConfig struct {
	ShowInspector bool `mapstructure:"show_inspector" json:"show_inspector"`
	RowHeight     int  `mapstructure:"row_height" json:"row_height"` // dp
}

// Manager handles loading and accessing configuration
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	parseErr error // Stores parsing error if config failed to load
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config: DefaultConfig(),
	}
}

// Dir returns the orbit configuration directory: <user config dir>/orbit
func Dir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "orbit")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "orbit")
}

// DefaultConfigPaths returns the default paths to search for config files
func DefaultConfigPaths() []string {
	return []string{".", Dir()}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dir := Dir()
	return &Config{
		LibraryID: "",
		Locations: []LocationConfig{
			{Name: "Home", Path: home},
		},
		Thumbnails: ThumbnailConfig{
			Dir:       filepath.Join(dir, "thumbnails"),
			MaxPixels: 256,
			Workers:   2,
		},
		Store: StoreConfig{
			Path: filepath.Join(dir, "orbit.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Platform: PlatformConfig{
			ThumbnailScheme: "file",
		},
		Explorer: ExplorerConfig{
			ShowInspector: true,
			RowHeight:     36,
		},
		Hotkeys: DefaultHotkeys(),
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("library_id", d.LibraryID)
	v.SetDefault("locations", d.Locations)
	v.SetDefault("thumbnails.dir", d.Thumbnails.Dir)
	v.SetDefault("thumbnails.max_pixels", d.Thumbnails.MaxPixels)
	v.SetDefault("thumbnails.workers", d.Thumbnails.Workers)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("platform.thumbnail_scheme", d.Platform.ThumbnailScheme)
	v.SetDefault("explorer.show_inspector", d.Explorer.ShowInspector)
	v.SetDefault("explorer.row_height", d.Explorer.RowHeight)
	v.SetDefault("hotkeys.back", d.Hotkeys.Back)
	v.SetDefault("hotkeys.forward", d.Hotkeys.Forward)
	v.SetDefault("hotkeys.refresh", d.Hotkeys.Refresh)
	v.SetDefault("hotkeys.open", d.Hotkeys.Open)
	v.SetDefault("hotkeys.select_prev", d.Hotkeys.SelectPrev)
	v.SetDefault("hotkeys.select_next", d.Hotkeys.SelectNext)
	v.SetDefault("hotkeys.toggle_inspector", d.Hotkeys.ToggleInspector)
	v.SetDefault("hotkeys.lock", d.Hotkeys.Lock)
	v.SetDefault("hotkeys.escape", d.Hotkeys.Escape)
}

// Load reads the configuration. An explicit path must exist; with an empty
// path the default locations are searched and a missing file means defaults.
// A file that fails to parse is kept as ParseError and defaults are used.
func (m *Manager) Load(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ORBIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	m.parseErr = nil
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		for _, p := range DefaultConfigPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			m.parseErr = fmt.Errorf("%w: %v", ErrConfigInvalid, err)
		}
	}
	m.path = v.ConfigFileUsed()

	cfg := DefaultConfig()
	if m.parseErr == nil {
		if err := v.Unmarshal(cfg); err != nil {
			m.parseErr = fmt.Errorf("%w: %v", ErrConfigInvalid, err)
			cfg = DefaultConfig()
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Validate checks the configuration and fills derived defaults.
func (c *Config) Validate() error {
	if c.LibraryID != "" {
		if _, err := uuid.Parse(c.LibraryID); err != nil {
			return fmt.Errorf("%w: library_id %q: %v", ErrConfigInvalid, c.LibraryID, err)
		}
	}
	for i, loc := range c.Locations {
		if loc.Path == "" {
			return fmt.Errorf("%w: locations[%d] has no path", ErrConfigInvalid, i)
		}
		if loc.Name == "" {
			c.Locations[i].Name = filepath.Base(loc.Path)
		}
	}
	if c.Thumbnails.MaxPixels <= 0 {
		c.Thumbnails.MaxPixels = 256
	}
	if c.Thumbnails.Workers <= 0 {
		c.Thumbnails.Workers = 1
	}
	switch c.Platform.ThumbnailScheme {
	case "file", "orbit":
	case "":
		c.Platform.ThumbnailScheme = "file"
	default:
		return fmt.Errorf("%w: platform.thumbnail_scheme %q", ErrConfigInvalid, c.Platform.ThumbnailScheme)
	}
	if c.Explorer.RowHeight <= 0 {
		c.Explorer.RowHeight = 36
	}
	return nil
}

// Library returns the configured library id, generating a stable-for-process
// id when none is configured.
func (c *Config) Library() uuid.UUID {
	if id, err := uuid.Parse(c.LibraryID); err == nil {
		return id
	}
	id := uuid.New()
	c.LibraryID = id.String()
	return id
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return *DefaultConfig()
	}
	return *m.config
}

// Path returns the file the configuration was read from, if any.
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// ParseError returns the parsing error if config failed to load
func (m *Manager) ParseError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseErr
}

// GenerateConfig backs up an existing config and writes a fresh default one
// to <Dir>/config.yaml. Returns the backup path if a backup was created.
func GenerateConfig() (backupPath string, err error) {
	configPath := filepath.Join(Dir(), "config.yaml")

	if data, err := os.ReadFile(configPath); err == nil {
		timestamp := time.Now().Format("20060102-150405")
		backupPath = filepath.Join(filepath.Dir(configPath), "config.backup."+timestamp+".yaml")
		if err := os.WriteFile(backupPath, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write backup: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return backupPath, fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.Set("library_id", uuid.NewString())
	if err := v.WriteConfigAs(configPath); err != nil {
		return backupPath, fmt.Errorf("failed to write config: %w", err)
	}
	return backupPath, nil
}
