package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/querypilot/querypilot/pkg/adapter"

	// Register all engine adapters.
	_ "github.com/querypilot/querypilot/pkg/adapters/clickhouse"
	_ "github.com/querypilot/querypilot/pkg/adapters/databricks"
	_ "github.com/querypilot/querypilot/pkg/adapters/duckdb"
	_ "github.com/querypilot/querypilot/pkg/adapters/mysql"
	_ "github.com/querypilot/querypilot/pkg/adapters/postgres"
	_ "github.com/querypilot/querypilot/pkg/adapters/sqlite"
)

func newEnginesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List supported database engines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range adapter.ListEngines() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
