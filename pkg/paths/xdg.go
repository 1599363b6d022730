// Package paths provides XDG-compliant path resolution for widgetdeck.
//
// Resolution order:
// 1. WIDGETDECK_HOME (portable root) → $WIDGETDECK_HOME/{config,data,state,cache}
// 2. XDG env vars → $XDG_*_HOME/widgetdeck
// 3. Platform defaults → ~/.config/widgetdeck, ~/.local/share/widgetdeck, etc.
package paths

import (
	"os"
	"path/filepath"
)

const appDir = "widgetdeck"

// homeOr resolves one base directory following the order documented above.
func homeOr(portable, xdgEnv string, fallback ...string) string {
	if home := os.Getenv("WIDGETDECK_HOME"); home != "" {
		return filepath.Join(home, portable)
	}
	if xdg := os.Getenv(xdgEnv); xdg != "" {
		return xdg
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(append([]string{homeDir}, fallback...)...)
	}
	return ""
}

func withApp(base string) string {
	if base == "" {
		return ""
	}
	if os.Getenv("WIDGETDECK_HOME") != "" {
		return base
	}
	return filepath.Join(base, appDir)
}

// ConfigDir returns the configuration directory.
// Used for the global widgetdeck.yml.
func ConfigDir() string {
	return withApp(homeOr("config", "XDG_CONFIG_HOME", ".config"))
}

// DataDir returns the data directory.
func DataDir() string {
	return withApp(homeOr("data", "XDG_DATA_HOME", ".local", "share"))
}

// StateDir returns the state directory.
// Used for persisted application state and logs.
func StateDir() string {
	return withApp(homeOr("state", "XDG_STATE_HOME", ".local", "state"))
}

// CacheDir returns the cache directory.
func CacheDir() string {
	return withApp(homeOr("cache", "XDG_CACHE_HOME", ".cache"))
}

// LogDir returns the directory for log files.
func LogDir() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "logs")
}

// EnsureDirs creates all widgetdeck directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		DataDir(),
		StateDir(),
		CacheDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// PidFilePath returns the file recording the PID of a running engine.
func PidFilePath() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "widgetdeck.pid")
}
