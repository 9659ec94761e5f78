package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pawku/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past restore runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return sysError(err)
			}
			if flags.jsonMode {
				if runs == nil {
					runs = []history.Run{}
				}
				return printJSON(cmd, runs)
			}
			w := out(cmd)
			if len(runs) == 0 {
				fmt.Fprintln(w, "No restore runs recorded")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(w, "%s  %s  restored %d/%d, skipped %d, failed %d\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), r.Restored, r.Total, r.Skipped, r.Failed)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show (0 for all)")
	cmd.AddCommand(newHistoryShowCmd(), newHistoryPruneCmd())
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the per-action outcomes of one restore run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			outcomes, err := store.Outcomes(cmd.Context(), args[0])
			if errors.Is(err, history.ErrRunNotFound) {
				return userError(err)
			}
			if err != nil {
				return sysError(err)
			}
			if flags.jsonMode {
				if outcomes == nil {
					outcomes = []history.Outcome{}
				}
				return printJSON(cmd, outcomes)
			}
			w := out(cmd)
			for _, o := range outcomes {
				line := fmt.Sprintf("%-8s %s", o.Outcome, o.Record)
				if o.Error != "" {
					line += ": " + o.Error
				}
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
}

func newHistoryPruneCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete restore runs older than a given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return userError(errors.New("--older-than must be positive"))
			}
			store, err := historyStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return sysError(err)
			}
			if flags.jsonMode {
				return printJSON(cmd, map[string]int{"pruned": n})
			}
			fmt.Fprintf(out(cmd), "Pruned %d restore runs\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age of runs to delete")
	return cmd
}

func historyStore(cmd *cobra.Command) (*history.Store, error) {
	a, err := loadApp(cmd)
	if err != nil {
		return nil, err
	}
	if !a.cfg.History.Enabled {
		return nil, userError(errors.New("restore history is disabled (history.enabled: false)"))
	}
	store, err := openHistory(a.cfg, a.logger)
	if err != nil {
		return nil, sysError(err)
	}
	return store, nil
}
