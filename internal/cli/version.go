package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pawku/pkg/pawku"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pawku version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.jsonMode {
				return printJSON(cmd, map[string]string{"version": pawku.Version, "module": pawku.ModulePath})
			}
			fmt.Fprintf(out(cmd), "pawku v%s\nmodule: %s\n", pawku.Version, pawku.ModulePath)
			return nil
		},
	}
}
