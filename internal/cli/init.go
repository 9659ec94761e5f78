package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pawku/internal/config"
	"github.com/mesh-intelligence/pawku/internal/paths"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration and prepare the data directory",
		Long: "Create the configuration and data directories, write config.yaml with the\n" +
			"resolved desktop and data directories, and create the restore history.\n" +
			"An existing config.yaml is left unchanged.",
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := resolveConfigDir()
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}

	cfg := config.Defaults()
	if cfg.DesktopDir, err = paths.ResolveDesktopDir(flags.desktopDir, ""); err != nil {
		return sysError(fmt.Errorf("resolve desktop dir: %w", err))
	}
	if cfg.DataDir, err = paths.ResolveDataDir(flags.dataDir, ""); err != nil {
		return sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return sysError(fmt.Errorf("create config directory: %w", err))
	}
	written, err := config.WriteDefault(configDir, cfg)
	if err != nil {
		return sysError(fmt.Errorf("write config: %w", err))
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
		return sysError(fmt.Errorf("create data directory: %w", err))
	}
	if a.cfg.History.Enabled {
		store, err := openHistory(a.cfg, a.logger)
		if err != nil {
			return sysError(fmt.Errorf("initialize history: %w", err))
		}
		if err := store.Close(); err != nil {
			return sysError(fmt.Errorf("finalize history: %w", err))
		}
	}
	if _, err := os.Stat(a.cfg.DesktopDir); err != nil {
		a.logger.Warn().Str("desktop", a.cfg.DesktopDir).Msg("desktop directory does not exist yet")
	}

	if flags.jsonMode {
		return printJSON(cmd, map[string]any{
			"config_file":   filepath.Join(configDir, config.FileName),
			"config_exists": !written,
			"data_dir":      a.cfg.DataDir,
			"desktop_dir":   a.cfg.DesktopDir,
		})
	}
	w := out(cmd)
	if !written {
		fmt.Fprintln(w, "config.yaml already exists, left unchanged")
	}
	fmt.Fprintln(w, "Pawku initialized successfully")
	fmt.Fprintf(w, "  config:  %s\n", filepath.Join(configDir, config.FileName))
	fmt.Fprintf(w, "  data:    %s\n", a.cfg.DataDir)
	fmt.Fprintf(w, "  desktop: %s\n", a.cfg.DesktopDir)
	return nil
}
