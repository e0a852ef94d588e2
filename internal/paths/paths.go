// Package paths resolves configuration and data directory locations.
// Implements: prd008-configuration-directories (R1.2, R1.3, R2.2, R2.3, R8).
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// CWD-relative directory names per prd008 R1.2 and R2.2.
const (
	DefaultConfigDirName = ".atlas"
	DefaultDataDirName   = ".atlas-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "ATLAS_CONFIG_DIR"
	EnvDataDir   = "ATLAS_DATA_DIR"
)

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
// Linux:   $XDG_CONFIG_HOME/atlas (fallback ~/.config/atlas)
// macOS:   ~/Library/Application Support/atlas
// Windows: %APPDATA%/atlas
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "atlas"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "atlas"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "atlas"), nil
	}
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/atlas (fallback ~/.local/share/atlas)
// macOS:   ~/Library/Application Support/atlas
// Windows: %APPDATA%/atlas
func DefaultDataDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "atlas"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", "atlas"), nil
	default:
		// macOS and Windows: same as config dir.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "atlas"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > ATLAS_CONFIG_DIR env > DefaultConfigDir().
//
// If flag is non-empty it wins. Otherwise the ATLAS_CONFIG_DIR environment
// variable is checked. If neither is set, the platform default is returned.
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
// flag > configYAMLValue > ATLAS_DATA_DIR env > DefaultDataDir().
//
// The CWD-relative default ($(CWD)/.atlas-db) is preserved as the primary
// mode when no override is active, so an archive travels with the project
// directory it describes.
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
	// CWD-relative default keeps the archive next to the project.
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
