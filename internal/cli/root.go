// Package cli implements the pawku command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pawku/internal/config"
	"github.com/mesh-intelligence/pawku/internal/logging"
	"github.com/mesh-intelligence/pawku/internal/paths"
	"github.com/mesh-intelligence/pawku/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir  string
	dataDir    string
	desktopDir string
	logLevel   string
	jsonMode   bool
}

var flags rootFlags

// NewRootCmd creates the top-level "pawku" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags = rootFlags{}

	root := &cobra.Command{
		Use:   "pawku",
		Short: "A desktop pet that gets into your files when it is hungry",
		Long: "Pawku lives on your desktop. Left unfed it renames files, scatters icons\n" +
			"and eventually throws files into the trash. Every action is logged and\n" +
			"can be undone with \"pawku restore\".",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/pawku)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "data directory for the action log and status (default: $XDG_DATA_HOME/pawku)")
	pf.StringVar(&flags.desktopDir, "desktop-dir", "", "desktop folder the pet plays on (default: XDG desktop dir)")
	pf.StringVar(&flags.logLevel, "log-level", "", "diagnostic log level (debug, info, warn, error)")
	pf.BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newFeedCmd())
	root.AddCommand(newRestoreCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newLogCmd())
	root.AddCommand(newHistoryCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// app is the loaded configuration shared by the subcommands.
type app struct {
	configDir string
	cfg       types.Config
	logger    zerolog.Logger
}

// resolveConfigDir returns the config directory from flag, env, or default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flags.configDir)
}

// loadApp reads the configuration and builds the logger. Configuration
// mistakes are user errors; everything else is a system error.
func loadApp(cmd *cobra.Command) (*app, error) {
	configDir, err := resolveConfigDir()
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := config.Load(config.Options{
		ConfigDir:      configDir,
		DataDirFlag:    flags.dataDir,
		DesktopDirFlag: flags.desktopDir,
	})
	if err != nil {
		return nil, userError(err)
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, userError(err)
	}
	return &app{configDir: configDir, cfg: cfg, logger: logger}, nil
}

func out(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
