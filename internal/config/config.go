// Package config loads StudyBeats settings from TOML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
	"github.com/tejashwikalptaru/studybeats/internal/logger"
)

// AppName names the XDG config and data subdirectories.
const AppName = "studybeats"

// Engine kinds.
const (
	EngineStream = "stream"
	EngineMock   = "mock"
)

// Storage backends.
const (
	StorageSQLite      = "sqlite"
	StoragePreferences = "preferences"
	StorageMemory      = "memory"
)

// Notifiers.
const (
	NotifierConsole = "console"
	NotifierDesktop = "desktop"
)

type Config struct {
	Player  PlayerConfig  `koanf:"player"`
	Engine  EngineConfig  `koanf:"engine"`
	Storage StorageConfig `koanf:"storage"`
	Log     LogConfig     `koanf:"log"`
	UI      UIConfig      `koanf:"ui"`
}

// PlayerConfig holds session controller settings.
type PlayerConfig struct {
	DefaultVolume    float64       `koanf:"default_volume"`    // clamped to [0, 1]
	FallbackDuration time.Duration `koanf:"fallback_duration"` // assumed while a track's length is unknown
	RetryDelay       time.Duration `koanf:"retry_delay"`       // wait before skipping a failed track
}

// EngineConfig selects and tunes the playback engine.
type EngineConfig struct {
	Kind             string        `koanf:"kind"` // "stream" or "mock"
	HTTPTimeout      time.Duration `koanf:"http_timeout"`
	ProgressInterval time.Duration `koanf:"progress_interval"`
}

// StorageConfig selects where the session is persisted.
type StorageConfig struct {
	Backend string `koanf:"backend"` // "sqlite", "preferences" or "memory"
	Path    string `koanf:"path"`    // sqlite file; empty means the XDG data dir
	Key     string `koanf:"key"`
	AppID   string `koanf:"app_id"` // fyne application ID for the preferences backend
}

// UIConfig selects how user-facing notices are shown.
type UIConfig struct {
	Notifier string `koanf:"notifier"` // "console" or "desktop"
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "text" or "json"
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Player: PlayerConfig{
			DefaultVolume:    domain.DefaultVolume,
			FallbackDuration: domain.FallbackTrackDuration,
			RetryDelay:       2 * time.Second,
		},
		Engine: EngineConfig{
			Kind:             EngineStream,
			HTTPTimeout:      30 * time.Second,
			ProgressInterval: 500 * time.Millisecond,
		},
		Storage: StorageConfig{
			Backend: StorageSQLite,
			Key:     "audio_session",
			AppID:   "com.studybeats.app",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		UI: UIConfig{
			Notifier: NotifierConsole,
		},
	}
}

// Load reads the configuration. With an explicit path only that file is read
// and it must exist; otherwise the default search paths are used.
func Load(explicit string) (*Config, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		return LoadFrom(explicit)
	}
	return LoadFrom(SearchPaths()...)
}

// LoadFrom applies every existing file in paths over the defaults, in order (last wins).
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SearchPaths returns the config files consulted by Load, lowest priority first.
func SearchPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/studybeats/config.toml
		filepath.Join(xdg.ConfigHome, AppName, "config.toml"),
		// 2. ./studybeats.toml (pwd, highest priority)
		AppName + ".toml",
	}
}

func (c *Config) normalize() {
	c.Player.DefaultVolume = domain.ClampVolume(c.Player.DefaultVolume)
	c.Engine.Kind = strings.ToLower(strings.TrimSpace(c.Engine.Kind))
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.Storage.Path = expandPath(c.Storage.Path)
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.UI.Notifier = strings.ToLower(strings.TrimSpace(c.UI.Notifier))
}

// Validate rejects unknown enum values and non-positive durations.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains([]string{EngineStream, EngineMock}, c.Engine.Kind) {
		errs = append(errs, fmt.Errorf("engine.kind: unknown engine %q", c.Engine.Kind))
	}
	if !slices.Contains([]string{StorageSQLite, StoragePreferences, StorageMemory}, c.Storage.Backend) {
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend))
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		errs = append(errs, errors.New("storage.key: must not be empty"))
	}
	if c.UI.Notifier != NotifierConsole && c.UI.Notifier != NotifierDesktop {
		errs = append(errs, fmt.Errorf("ui.notifier: unknown notifier %q", c.UI.Notifier))
	}
	needsFyne := c.Storage.Backend == StoragePreferences || c.UI.Notifier == NotifierDesktop
	if needsFyne && strings.TrimSpace(c.Storage.AppID) == "" {
		errs = append(errs, errors.New("storage.app_id: required by the preferences backend and desktop notifier"))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	for name, d := range map[string]time.Duration{
		"player.fallback_duration": c.Player.FallbackDuration,
		"player.retry_delay":       c.Player.RetryDelay,
		"engine.http_timeout":      c.Engine.HTTPTimeout,
		"engine.progress_interval": c.Engine.ProgressInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive, got %s", name, d))
		}
	}

	return errors.Join(errs...)
}

// LoggerConfig converts the log section into a logger configuration.
func (c *Config) LoggerConfig() logger.Config {
	return logger.FromSettings(c.Log.Level, c.Log.Format)
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
