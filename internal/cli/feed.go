package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pawku/internal/daemon"
	"github.com/mesh-intelligence/pawku/pkg/types"
)

func newFeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Feed the running pet, resetting its hunger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			pid, err := daemon.SendFeed(a.cfg.DataDir)
			if errors.Is(err, types.ErrDaemonNotRunning) {
				return userError(err)
			}
			if err != nil {
				return sysError(err)
			}
			if flags.jsonMode {
				return printJSON(cmd, map[string]any{"fed": true, "pid": pid})
			}
			fmt.Fprintf(out(cmd), "Fed pawku (pid %d)\n", pid)
			return nil
		},
	}
}
