package types

import (
	"errors"
	"time"
)

// Config holds everything the daemon, executor and restore engine need.
// It is populated by internal/config from config.yaml and PAWKU_ variables.
type Config struct {
	DesktopDir string   `mapstructure:"desktop_dir" yaml:"desktop_dir,omitempty"`
	DataDir    string   `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	LogFormat  string   `mapstructure:"log_format" yaml:"log_format"`
	Exclude    []string `mapstructure:"exclude" yaml:"exclude,omitempty"`

	Hunger   HungerConfig   `mapstructure:"hunger" yaml:"hunger"`
	Mischief MischiefConfig `mapstructure:"mischief" yaml:"mischief"`
	Words    WordsConfig    `mapstructure:"words" yaml:"words,omitempty"`
	Screen   ScreenConfig   `mapstructure:"screen" yaml:"screen"`
	Trash    TrashConfig    `mapstructure:"trash" yaml:"trash,omitempty"`
	History  HistoryConfig  `mapstructure:"history" yaml:"history"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// HungerConfig controls the hunger state machine.
type HungerConfig struct {
	TickInterval  time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`
	TicksPerLevel int           `mapstructure:"ticks_per_level" yaml:"ticks_per_level"`
	FuriousPolicy string        `mapstructure:"furious_policy" yaml:"furious_policy"`
}

// MischiefConfig controls the idle worker that renames files or scatters
// icons regardless of hunger. A zero interval disables it.
type MischiefConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// WordsConfig overrides the built-in word banks used for new names.
type WordsConfig struct {
	Adjectives []string `mapstructure:"adjectives" yaml:"adjectives,omitempty"`
	Nouns      []string `mapstructure:"nouns" yaml:"nouns,omitempty"`
}

// ScreenConfig holds the fallback resolution and icon margins used when
// scattering icons.
type ScreenConfig struct {
	FallbackWidth  int     `mapstructure:"fallback_width" yaml:"fallback_width"`
	FallbackHeight int     `mapstructure:"fallback_height" yaml:"fallback_height"`
	MarginX        int     `mapstructure:"margin_x" yaml:"margin_x"`
	MarginY        int     `mapstructure:"margin_y" yaml:"margin_y"`
	MovesPerSecond float64 `mapstructure:"moves_per_second" yaml:"moves_per_second"`
}

// TrashConfig selects the trash location and, optionally, an external
// command used to move files into it (for example "gio trash").
type TrashConfig struct {
	Dir     string `mapstructure:"dir" yaml:"dir,omitempty"`
	Command string `mapstructure:"command" yaml:"command,omitempty"`
}

// HistoryConfig toggles the SQLite archive of restore runs.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// LoggingConfig selects the diagnostic log level and encoding.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

// Action log line formats.
const (
	LogFormatTagged = "tagged"
	LogFormatLegacy = "legacy"
)

// Defaults applied by internal/config.
const (
	DefaultTickInterval   = 5 * time.Minute
	DefaultTicksPerLevel  = 1
	DefaultFallbackWidth  = 1920
	DefaultFallbackHeight = 1080
	DefaultMarginX        = 100
	DefaultMarginY        = 150
	DefaultMovesPerSecond = 20
	DefaultLogLevel       = "info"
)

// Config validation errors.
var (
	ErrDesktopDirEmpty      = errors.New("desktop_dir must not be empty")
	ErrDataDirEmpty         = errors.New("data_dir must not be empty")
	ErrLogFormatUnknown     = errors.New("unknown log format")
	ErrTickIntervalInvalid  = errors.New("hunger tick interval must be positive")
	ErrTicksPerLevelInvalid = errors.New("ticks per level must be positive")
	ErrFuriousPolicyUnknown = errors.New("unknown furious policy")
	ErrMischiefInvalid      = errors.New("mischief interval must not be negative")
	ErrScreenInvalid        = errors.New("fallback resolution must be positive")
	ErrMarginInvalid        = errors.New("icon margins must not be negative")
)

var knownLogFormats = map[string]bool{
	LogFormatTagged: true,
	LogFormatLegacy: true,
}

var knownFuriousPolicies = map[string]bool{
	FuriousRefire:   true,
	FuriousSaturate: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.DesktopDir == "" {
		return ErrDesktopDirEmpty
	}
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if !knownLogFormats[c.LogFormat] {
		return ErrLogFormatUnknown
	}
	if c.Hunger.TickInterval <= 0 {
		return ErrTickIntervalInvalid
	}
	if c.Hunger.TicksPerLevel <= 0 {
		return ErrTicksPerLevelInvalid
	}
	if !knownFuriousPolicies[c.Hunger.FuriousPolicy] {
		return ErrFuriousPolicyUnknown
	}
	if c.Mischief.Interval < 0 {
		return ErrMischiefInvalid
	}
	if c.Screen.FallbackWidth <= 0 || c.Screen.FallbackHeight <= 0 {
		return ErrScreenInvalid
	}
	if c.Screen.MarginX < 0 || c.Screen.MarginY < 0 {
		return ErrMarginInvalid
	}
	return nil
}
