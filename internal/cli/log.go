package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pawku/pkg/types"
)

func newLogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "List the logged actions that restore would undo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			log, err := openActionLog(a.cfg, a.logger)
			if err != nil {
				return sysError(err)
			}
			records, err := log.ReadAll()
			if err != nil {
				return sysError(err)
			}

			if flags.jsonMode {
				if records == nil {
					records = []types.ActionRecord{}
				}
				return printJSON(cmd, records)
			}
			w := out(cmd)
			if len(records) == 0 {
				fmt.Fprintln(w, "The action log is empty")
				return nil
			}
			for i, rec := range records {
				marker := " "
				if !rec.Reversible() {
					marker = "-"
				}
				fmt.Fprintf(w, "%4d %s %s\n", i+1, marker, rec)
			}
			return nil
		},
	}
}
