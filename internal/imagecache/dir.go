package imagecache

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the platform's per-user application data directory:
// $XDG_DATA_HOME (or ~/.local/share) on Linux and BSD, the user config
// directory on macOS and Windows.
func DataDir() (string, error) {
	switch runtime.GOOS {
	case "darwin", "windows", "ios", "android", "plan9":
		return os.UserConfigDir()
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share"), nil
}

// DefaultDir resolves <data dir>/<appID>/clipnext/file and creates it.
func DefaultDir(appID string) (string, error) {
	base, err := DataDir()
	if err != nil {
		return "", fmt.Errorf("%w: resolve data dir: %w", ErrInvalidPath, err)
	}
	return Dir(filepath.Join(base, appID))
}

// Dir resolves <appDataDir>/clipnext/file and creates it.
func Dir(appDataDir string) (string, error) {
	dir, err := resolve(filepath.Join(appDataDir, PluginDir, FileDir))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}
	return dir, nil
}
