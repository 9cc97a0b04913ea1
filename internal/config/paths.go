package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName  = "ngpt"
	fileName = "ngpt.conf"
)

// Dir returns the platform config directory for ngpt:
// $XDG_CONFIG_HOME/ngpt or ~/.config/ngpt on Unix,
// ~/Library/Application Support/ngpt on macOS, %APPDATA%\ngpt on Windows.
func Dir() string {
	if base, err := os.UserConfigDir(); err == nil && base != "" {
		return filepath.Join(base, appName)
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), appName)
	}
	return filepath.Join(os.Getenv("HOME"), ".config", appName)
}

// File returns custom when set, the default config file otherwise.
func File(custom string) string {
	if custom != "" {
		return custom
	}
	return filepath.Join(Dir(), fileName)
}
