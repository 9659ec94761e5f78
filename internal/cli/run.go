package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pawku/internal/daemon"
	"github.com/mesh-intelligence/pawku/internal/pet"
)

func newRunCmd() *cobra.Command {
	var (
		tick     time.Duration
		mischief time.Duration
		fresh    bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pet in the foreground until interrupted",
		Long: "Start the hunger clock. The pet gets hungrier every tick, scatters icons\n" +
			"when it turns mad and trashes files when furious. Feed it with\n" +
			"\"pawku feed\"; stop it with Ctrl-C or SIGTERM.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			cfg := a.cfg
			if cmd.Flags().Changed("tick") {
				cfg.Hunger.TickInterval = tick
			}
			if cmd.Flags().Changed("mischief") {
				cfg.Mischief.Interval = mischief
			}
			if cfg.Hunger.TickInterval <= 0 {
				return userError(errors.New("--tick must be positive"))
			}
			if info, err := os.Stat(cfg.DesktopDir); err != nil || !info.IsDir() {
				return userError(fmt.Errorf("desktop directory %s does not exist", cfg.DesktopDir))
			}

			log, err := openActionLog(cfg, a.logger)
			if err != nil {
				return sysError(err)
			}
			exec, err := newExecutor(cfg, log, newTrashStore(cfg, a.logger), a.logger)
			if err != nil {
				return sysError(err)
			}

			opts := pet.Options{
				TicksPerLevel: cfg.Hunger.TicksPerLevel,
				FuriousPolicy: cfg.Hunger.FuriousPolicy,
				Logger:        a.logger,
			}
			if !fresh {
				opts.Initial = daemon.LastSnapshot(cfg.DataDir)
			}
			d := daemon.New(daemon.Config{
				DataDir:          cfg.DataDir,
				TickInterval:     cfg.Hunger.TickInterval,
				MischiefInterval: cfg.Mischief.Interval,
				Logger:           a.logger,
			}, pet.New(exec, opts), exec)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := d.Run(ctx); err != nil {
				if errors.Is(err, daemon.ErrAlreadyRunning) {
					return userError(err)
				}
				return sysError(err)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&tick, "tick", 0, "override the hunger tick interval")
	cmd.Flags().DurationVar(&mischief, "mischief", 0, "override the idle mischief interval (0 disables)")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "start content instead of resuming the last saved hunger")
	return cmd
}
