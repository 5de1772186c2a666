package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "querypilot %s\n", Version)
			_, _ = fmt.Fprintf(w, "  build date: %s\n", BuildDate)
			_, _ = fmt.Fprintf(w, "  commit:     %s\n", GitCommit)
			return nil
		},
	}
}
