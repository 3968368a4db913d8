// Package where resolves application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"

	"github.com/nadav-o/sipurim/internal/filesystem"
)

const appName = "sipurim"

// EnvConfigPath overrides the default configuration directory.
const EnvConfigPath = "SIPURIM_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config returns the configuration directory, honoring EnvConfigPath.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}
	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, appName))
}

// Cache returns the persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, appName))
}

// Audio returns the directory holding downloaded story audio.
func Audio() string {
	return ensureDir(filepath.Join(Cache(), "audio"))
}

// Logs returns the diagnostic log directory.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Progress returns the path of the persisted playback-position map.
func Progress() string {
	return filepath.Join(Config(), "playstate.json")
}

// Heard returns the path of the persisted heard-story set.
func Heard() string {
	return filepath.Join(Config(), "heard.json")
}
