package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pawku/internal/restore"
	"github.com/mesh-intelligence/pawku/pkg/types"
)

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Undo every logged action and clear the log",
		Long: "Replay the action log newest first: renamed files get their names back\n" +
			"and trashed files come back from the trash. Records that cannot be undone\n" +
			"are reported as warnings. The log is cleared afterwards either way.\n" +
			"Safe to run while the pet is running.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			log, err := openActionLog(a.cfg, a.logger)
			if err != nil {
				return sysError(err)
			}
			opts := restore.Options{
				Trash:  newTrashStore(a.cfg, a.logger),
				Logger: a.logger,
			}
			if a.cfg.History.Enabled {
				store, err := openHistory(a.cfg, a.logger)
				if err != nil {
					a.logger.Warn().Err(err).Msg("restore history unavailable")
				} else {
					defer store.Close()
					opts.Archiver = store
				}
			}

			report, err := restore.New(log, opts).Restore(cmd.Context())
			if report != nil {
				if perr := printReport(cmd, report); perr != nil {
					return perr
				}
			}
			if err != nil {
				return sysError(err)
			}
			return nil
		},
	}
}

type reportJSON struct {
	Total    int          `json:"total"`
	Restored int          `json:"restored"`
	Skipped  int          `json:"skipped"`
	Failed   int          `json:"failed"`
	Canceled bool         `json:"canceled,omitempty"`
	Warnings []resultJSON `json:"warnings"`
}

type resultJSON struct {
	Record types.ActionRecord `json:"record"`
	Error  string             `json:"error"`
}

func printReport(cmd *cobra.Command, r *restore.Report) error {
	warnings := r.Warnings()
	if flags.jsonMode {
		doc := reportJSON{
			Total: r.Total, Restored: r.Restored, Skipped: r.Skipped, Failed: r.Failed,
			Canceled: r.Canceled, Warnings: []resultJSON{},
		}
		for _, w := range warnings {
			doc.Warnings = append(doc.Warnings, resultJSON{Record: w.Record, Error: w.Err.Error()})
		}
		return printJSON(cmd, doc)
	}

	w := out(cmd)
	if r.Total == 0 {
		fmt.Fprintln(w, "Nothing to restore")
		return nil
	}
	for _, res := range warnings {
		fmt.Fprintf(w, "warning: %s: %v\n", res.Record, res.Err)
	}
	fmt.Fprintf(w, "Restored %d of %d actions (%d skipped, %d failed)\n", r.Restored, r.Total, r.Skipped, r.Failed)
	if r.Canceled {
		fmt.Fprintf(w, "Interrupted after %d actions; the rest were discarded\n", r.Processed())
	}
	return nil
}
