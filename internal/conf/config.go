// Package conf loads and validates application settings from the YAML
// configuration file and environment, using viper.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// LogSettings contains file logging configuration
type LogSettings struct {
	Enabled bool   // true to enable file logging
	Path    string // path to the log file
	Level   string // minimum level: debug, info, warn, error
}

// MainSettings contains process-level configuration
type MainSettings struct {
	Name string      // application name used in log output
	Log  LogSettings // file log settings
}

// AudioSettings contains capture pipeline configuration
type AudioSettings struct {
	Device     string // capture device name, empty or "default" for default output
	QueueDepth int    // capture packet queue depth between device callback and capture loop
	MirrorMono bool   // report a mono source's level on both meter channels

	// MeterRefreshMs throttles console meter redraws; snapshots between
	// redraws are still counted in telemetry
	MeterRefreshMs int
}

// ExportSettings contains WAV export configuration
type ExportSettings struct {
	Enabled bool   // true to record normalized audio to a WAV file
	Path    string // directory for exported WAV files
}

// TelemetrySettings contains Prometheus endpoint configuration
type TelemetrySettings struct {
	Enabled bool   // true to expose a /metrics endpoint
	Listen  string // listen address, e.g. "localhost:8090"
}

// Settings is the root of the configuration tree
type Settings struct {
	Debug     bool
	Main      MainSettings
	Audio     AudioSettings
	Export    ExportSettings
	Telemetry TelemetrySettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// Setting returns the current settings instance, or nil before Load.
func Setting() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// No config file is fine, defaults apply
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// ValidateSettings checks settings invariants that viper cannot express.
func ValidateSettings(settings *Settings) error {
	if settings.Audio.QueueDepth < 1 {
		return fmt.Errorf("audio.queuedepth must be at least 1, got %d", settings.Audio.QueueDepth)
	}
	if settings.Audio.MeterRefreshMs < 0 {
		return fmt.Errorf("audio.meterrefreshms must not be negative, got %d", settings.Audio.MeterRefreshMs)
	}
	if settings.Telemetry.Enabled && settings.Telemetry.Listen == "" {
		return fmt.Errorf("telemetry.listen must be set when telemetry is enabled")
	}
	if settings.Export.Enabled && settings.Export.Path == "" {
		return fmt.Errorf("export.path must be set when export is enabled")
	}
	return nil
}

// GetDefaultConfigPaths returns OS specific config paths, most specific first.
func GetDefaultConfigPaths() ([]string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return []string{"."}, nil //nolint:nilerr // fall back to working directory
	}
	return []string{
		filepath.Join(configDir, "openmeters"),
		".",
	}, nil
}
