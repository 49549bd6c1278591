package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/kime/
//   - Linux:   $XDG_CONFIG_HOME/kime/ or ~/.config/kime/
//   - Windows: %APPDATA%\kime\
//
// KIME_CONFIG_DIR overrides all of them.
func PlatformConfigDir() string {
	if dir := os.Getenv("KIME_CONFIG_DIR"); dir != "" {
		return dir
	}

	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "kime")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "kime")
		}
		return filepath.Join(home, "AppData", "Roaming", "kime")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "kime")
		}
		return filepath.Join(home, ".config", "kime")
	}
}
