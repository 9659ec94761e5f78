// Package config loads pawku's configuration with viper: built-in defaults,
// then config.yaml in the config directory, then PAWKU_* environment
// variables. Directory settings are finally resolved through internal/paths.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/pawku/internal/paths"
	"github.com/mesh-intelligence/pawku/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// FileName is the config file inside the config directory.
	FileName = "config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. PAWKU_HUNGER_TICK_INTERVAL.
	EnvPrefix = "PAWKU"
)

// Config keys.
const (
	KeyDesktopDir     = "desktop_dir"
	KeyDataDir        = "data_dir"
	KeyLogFormat      = "log_format"
	KeyExclude        = "exclude"
	KeyTickInterval   = "hunger.tick_interval"
	KeyTicksPerLevel  = "hunger.ticks_per_level"
	KeyFuriousPolicy  = "hunger.furious_policy"
	KeyMischief       = "mischief.interval"
	KeyAdjectives     = "words.adjectives"
	KeyNouns          = "words.nouns"
	KeyFallbackWidth  = "screen.fallback_width"
	KeyFallbackHeight = "screen.fallback_height"
	KeyMarginX        = "screen.margin_x"
	KeyMarginY        = "screen.margin_y"
	KeyMovesPerSecond = "screen.moves_per_second"
	KeyTrashDir       = "trash.dir"
	KeyTrashCommand   = "trash.command"
	KeyHistory        = "history.enabled"
	KeyLogLevel       = "logging.level"
	KeyLogJSON        = "logging.json"
)

// Options locate the configuration. Flag values win over everything else.
type Options struct {
	ConfigDir      string
	DataDirFlag    string
	DesktopDirFlag string
}

// Defaults returns the built-in configuration. Directory fields are left
// empty; Load fills them from the platform defaults.
func Defaults() types.Config {
	return types.Config{
		LogFormat: types.LogFormatTagged,
		Hunger: types.HungerConfig{
			TickInterval:  types.DefaultTickInterval,
			TicksPerLevel: types.DefaultTicksPerLevel,
			FuriousPolicy: types.FuriousRefire,
		},
		Mischief: types.MischiefConfig{Interval: types.DefaultTickInterval},
		Screen: types.ScreenConfig{
			FallbackWidth:  types.DefaultFallbackWidth,
			FallbackHeight: types.DefaultFallbackHeight,
			MarginX:        types.DefaultMarginX,
			MarginY:        types.DefaultMarginY,
			MovesPerSecond: types.DefaultMovesPerSecond,
		},
		History: types.HistoryConfig{Enabled: true},
		Logging: types.LoggingConfig{Level: types.DefaultLogLevel},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(KeyDesktopDir, "")
	v.SetDefault(KeyDataDir, "")
	v.SetDefault(KeyLogFormat, d.LogFormat)
	v.SetDefault(KeyExclude, []string{})
	v.SetDefault(KeyTickInterval, d.Hunger.TickInterval)
	v.SetDefault(KeyTicksPerLevel, d.Hunger.TicksPerLevel)
	v.SetDefault(KeyFuriousPolicy, d.Hunger.FuriousPolicy)
	v.SetDefault(KeyMischief, d.Mischief.Interval)
	v.SetDefault(KeyAdjectives, []string{})
	v.SetDefault(KeyNouns, []string{})
	v.SetDefault(KeyFallbackWidth, d.Screen.FallbackWidth)
	v.SetDefault(KeyFallbackHeight, d.Screen.FallbackHeight)
	v.SetDefault(KeyMarginX, d.Screen.MarginX)
	v.SetDefault(KeyMarginY, d.Screen.MarginY)
	v.SetDefault(KeyMovesPerSecond, d.Screen.MovesPerSecond)
	v.SetDefault(KeyTrashDir, "")
	v.SetDefault(KeyTrashCommand, "")
	v.SetDefault(KeyHistory, d.History.Enabled)
	v.SetDefault(KeyLogLevel, d.Logging.Level)
	v.SetDefault(KeyLogJSON, d.Logging.JSON)
}

// Load reads and validates the configuration. The config directory and a
// default config.yaml are created on first run; a config.yaml removed
// afterwards is not an error.
func Load(opts Options) (types.Config, error) {
	if opts.ConfigDir == "" {
		return types.Config{}, errors.New("config directory is required")
	}
	if err := os.MkdirAll(opts.ConfigDir, 0o755); err != nil {
		return types.Config{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if _, err := WriteDefault(opts.ConfigDir, Defaults()); err != nil {
		return types.Config{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(opts.ConfigDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := resolveDirs(&cfg, opts); err != nil {
		return types.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

func resolveDirs(cfg *types.Config, opts Options) error {
	var err error
	if cfg.DataDir, err = paths.ResolveDataDir(opts.DataDirFlag, cfg.DataDir); err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	if cfg.DesktopDir, err = paths.ResolveDesktopDir(opts.DesktopDirFlag, cfg.DesktopDir); err != nil {
		return fmt.Errorf("resolve desktop dir: %w", err)
	}
	if cfg.Trash.Dir, err = paths.ResolveTrashDir(cfg.Trash.Dir); err != nil {
		return fmt.Errorf("resolve trash dir: %w", err)
	}
	return nil
}

const header = "# pawku configuration\n# Environment variables PAWKU_<SECTION>_<KEY> override these values.\n\n"

// WriteDefault writes cfg to config.yaml in configDir unless the file
// already exists. It reports whether a file was written.
func WriteDefault(configDir string, cfg types.Config) (bool, error) {
	path := filepath.Join(configDir, FileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}
	if err := Write(path, cfg); err != nil {
		return false, err
	}
	return true, nil
}

// Write marshals cfg to path as YAML, replacing any existing file.
func Write(path string, cfg types.Config) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, append([]byte(header), data...), 0o644)
}
