package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pawku/internal/daemon"
)

type statusJSON struct {
	Running bool           `json:"running"`
	PID     int            `json:"pid,omitempty"`
	Status  *daemon.Status `json:"status,omitempty"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the pet is running and how hungry it is",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			running, pid, err := daemon.IsRunning(a.cfg.DataDir)
			if err != nil {
				return sysError(err)
			}
			st, err := daemon.ReadStatus(filepath.Join(a.cfg.DataDir, daemon.StatusFileName))
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return sysError(err)
			}
			var stp *daemon.Status
			if err == nil {
				stp = &st
			}

			if flags.jsonMode {
				return printJSON(cmd, statusJSON{Running: running, PID: pid, Status: stp})
			}
			w := out(cmd)
			if running {
				fmt.Fprintf(w, "Pawku is running (pid %d)\n", pid)
			} else {
				fmt.Fprintln(w, "Pawku is not running")
			}
			if stp == nil {
				return nil
			}
			fmt.Fprintf(w, "Hunger:      %s\n", stp.Pet.Level)
			if !stp.Pet.LastFeed.IsZero() {
				fmt.Fprintf(w, "Last fed:    %s\n", stp.Pet.LastFeed.Local().Format(time.DateTime))
			}
			if stp.Pet.LastAction != "" {
				fmt.Fprintf(w, "Last action: %s\n", stp.Pet.LastAction)
			}
			if stp.LastEvent != "" {
				fmt.Fprintf(w, "Last event:  %s\n", stp.LastEvent)
			}
			return nil
		},
	}
}
