// Package paths resolves the directories pawku reads and writes: its config
// and data directories, the desktop it plays on and the trash it uses.
package paths

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// AppName names the per-user config and data directories.
const AppName = "pawku"

// Environment variable names for directory overrides.
const (
	EnvConfigDir  = "PAWKU_CONFIG_DIR"
	EnvDataDir    = "PAWKU_DATA_DIR"
	EnvDesktopDir = "PAWKU_DESKTOP_DIR"
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
// Linux:   $XDG_CONFIG_HOME/pawku (fallback ~/.config/pawku)
// macOS:   ~/Library/Application Support/pawku
// Windows: %APPDATA%/pawku
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config", AppName)
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultDataDir returns the platform-specific default data directory, where
// the action log, status file and history live.
//
// Linux:   $XDG_DATA_HOME/pawku (fallback ~/.local/share/pawku)
// Others:  same as the config directory
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"), AppName)
	}
	return DefaultConfigDir()
}

// DefaultTrashDir returns the FreeDesktop home trash:
// $XDG_DATA_HOME/Trash, falling back to ~/.local/share/Trash.
func DefaultTrashDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"), "Trash")
}

// DefaultDesktopDir returns the user's desktop folder. $XDG_DESKTOP_DIR wins,
// then the XDG_DESKTOP_DIR entry of ~/.config/user-dirs.dirs, then ~/Desktop.
func DefaultDesktopDir() (string, error) {
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	if env := os.Getenv("XDG_DESKTOP_DIR"); env != "" {
		return expandHome(env, home), nil
	}
	if runtime.GOOS == "linux" {
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			configHome = filepath.Join(home, ".config")
		}
		if dir, ok := readUserDirs(filepath.Join(configHome, "user-dirs.dirs"), home); ok {
			return dir, nil
		}
	}
	return filepath.Join(home, "Desktop"), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > PAWKU_CONFIG_DIR env > DefaultConfigDir().
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
// flag > configYAMLValue > PAWKU_DATA_DIR env > DefaultDataDir().
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	return resolve(flag, configYAMLValue, EnvDataDir, DefaultDataDir)
}

// ResolveDesktopDir returns the desktop directory following the precedence
// chain: flag > configYAMLValue > PAWKU_DESKTOP_DIR env > DefaultDesktopDir().
func ResolveDesktopDir(flag, configYAMLValue string) (string, error) {
	return resolve(flag, configYAMLValue, EnvDesktopDir, DefaultDesktopDir)
}

// ResolveTrashDir returns configYAMLValue when set, else DefaultTrashDir().
func ResolveTrashDir(configYAMLValue string) (string, error) {
	return resolve("", configYAMLValue, "", DefaultTrashDir)
}

func resolve(flag, configYAMLValue, envName string, fallback func() (string, error)) (string, error) {
	home, _ := platformDir.homeDir()
	for _, v := range []string{flag, configYAMLValue} {
		if v != "" {
			return filepath.Abs(expandHome(v, home))
		}
	}
	if envName != "" {
		if env := os.Getenv(envName); env != "" {
			return filepath.Abs(expandHome(env, home))
		}
	}
	return fallback()
}

func xdgDir(envName, fallbackRel, name string) (string, error) {
	if xdg := os.Getenv(envName); xdg != "" {
		return filepath.Join(xdg, name), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallbackRel, name), nil
}

// expandHome replaces a leading "~" or "$HOME" with home.
func expandHome(p, home string) string {
	if home == "" {
		return p
	}
	switch {
	case p == "~" || p == "$HOME":
		return home
	case strings.HasPrefix(p, "~/"):
		return filepath.Join(home, p[2:])
	case strings.HasPrefix(p, "$HOME/"):
		return filepath.Join(home, p[len("$HOME/"):])
	}
	return p
}

// readUserDirs extracts XDG_DESKTOP_DIR from an xdg-user-dirs file, whose
// lines look like XDG_DESKTOP_DIR="$HOME/Desktop".
func readUserDirs(path, home string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		value, found := strings.CutPrefix(line, "XDG_DESKTOP_DIR=")
		if !found {
			continue
		}
		value = strings.Trim(value, `"`)
		if value == "" {
			return "", false
		}
		return expandHome(value, home), true
	}
	return "", false
}
