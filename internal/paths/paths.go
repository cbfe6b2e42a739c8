// Package paths resolves configuration, data, and photo locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

// appName names the per-user platform directories.
const appName = "criminalintent"

// DefaultDataDirName is the CWD-relative data directory used when nothing
// else is configured.
const DefaultDataDirName = ".criminalintent-db"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "CRIMINALINTENT_CONFIG_DIR"
	EnvDataDir   = "CRIMINALINTENT_DATA_DIR"
)

// ConfigFileName is the configuration file read from the config directory.
const ConfigFileName = "config.yaml"

// PhotoDirName is the subdirectory of the data directory holding photos.
const PhotoDirName = "photos"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/criminalintent (fallback ~/.config/criminalintent)
// macOS:   ~/Library/Application Support/criminalintent
// Windows: %APPDATA%/criminalintent
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appName), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/criminalintent (fallback ~/.local/share/criminalintent)
// macOS:   ~/Library/Application Support/criminalintent
// Windows: %APPDATA%/criminalintent
func DefaultDataDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", appName), nil
	default:
		// macOS and Windows: same as config dir.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > CRIMINALINTENT_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > CRIMINALINTENT_DATA_DIR env > $(CWD)/.criminalintent-db.
//
// DefaultDataDir is not part of the chain; it is offered by init as the
// suggested location for a per-user store.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// PhotoDir returns the directory holding crime photos under dataDir.
func PhotoDir(dataDir string) string {
	return filepath.Join(dataDir, PhotoDirName)
}

// PhotoPath returns where the photo for a crime is stored. The file may
// not exist.
func PhotoPath(dataDir string, c types.Crime) string {
	return filepath.Join(PhotoDir(dataDir), c.PhotoFileName())
}

// ConfigFile returns the configuration file path inside configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}
