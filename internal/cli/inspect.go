package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/querypilot/querypilot/pkg/adapter"
	"github.com/querypilot/querypilot/pkg/core"
)

const inspectTimeout = 60 * time.Second

// withAdapter opens an adapter for the selected target, runs fn, and closes
// the adapter on every exit path.
func withAdapter(cmd *cobra.Command, fn func(ctx context.Context, a adapter.Adapter, conn core.ConnConfig) error) error {
	conn, err := cfg.Target(targetFlag)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), inspectTimeout)
	defer cancel()

	a, err := adapter.Open(ctx, conn, cliLogger())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return fn(ctx, a, conn)
}

func newSchemasCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List schemas visible on a target",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdapter(cmd, func(ctx context.Context, a adapter.Adapter, _ core.ConnConfig) error {
				schemas, err := a.GetSchemas(ctx)
				if err != nil {
					return err
				}
				rows := make([]core.Row, 0, len(schemas))
				for _, s := range schemas {
					rows = append(rows, core.Row{"schema": s.Name})
				}
				return renderRows(cmd.OutOrStdout(), rows, outputFormat(cmd))
			})
		},
	}
}

func newTablesCommand() *cobra.Command {
	var schema string
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List tables in a schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdapter(cmd, func(ctx context.Context, a adapter.Adapter, conn core.ConnConfig) error {
				if schema == "" {
					schema = conn.Schema
				}
				if schema == "" {
					return fmt.Errorf("no schema given: pass --schema or configure one on the target")
				}
				tables, err := a.GetTablesBySchema(ctx, schema)
				if err != nil {
					return err
				}
				rows := make([]core.Row, 0, len(tables))
				for _, t := range tables {
					rows = append(rows, core.Row{"table": t.Name, "type": t.Type})
				}
				return renderRows(cmd.OutOrStdout(), rows, outputFormat(cmd))
			})
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "", "Schema to inspect (default: target schema)")
	return cmd
}

func newColumnsCommand() *cobra.Command {
	var schema string
	cmd := &cobra.Command{
		Use:   "columns <table> [table...]",
		Short: "Show columns and relationships of tables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdapter(cmd, func(ctx context.Context, a adapter.Adapter, conn core.ConnConfig) error {
				if schema == "" {
					schema = conn.Schema
				}
				if schema == "" {
					return fmt.Errorf("no schema given: pass --schema or configure one on the target")
				}
				details, err := a.GetFieldsAndRelationships(ctx, schema, args)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if outputFormat(cmd) == "json" {
					return renderJSON(w, details)
				}

				rows := make([]core.Row, 0, len(details.Columns))
				for _, c := range details.Columns {
					rows = append(rows, core.Row{
						"table":    c.Table,
						"column":   c.Name,
						"type":     c.Type,
						"nullable": c.Nullable,
						"key":      c.PrimaryKey,
					})
				}
				if err := renderRows(w, rows, outputFormat(cmd)); err != nil {
					return err
				}

				if len(details.Relationships) > 0 {
					_, _ = fmt.Fprintln(w)
					relRows := make([]core.Row, 0, len(details.Relationships))
					for _, r := range details.Relationships {
						relRows = append(relRows, core.Row{
							"from": fmt.Sprintf("%s.%s", r.Table, r.Column),
							"to":   fmt.Sprintf("%s.%s", r.ReferencedTable, r.ReferencedColumn),
						})
					}
					return renderRows(w, relRows, outputFormat(cmd))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "", "Schema to inspect (default: target schema)")
	return cmd
}

func newSampleCommand() *cobra.Command {
	var (
		schema   string
		dataType string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "sample <table> <field>",
		Short: "Show sample values of one field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdapter(cmd, func(ctx context.Context, a adapter.Adapter, conn core.ConnConfig) error {
				if schema == "" {
					schema = conn.Schema
				}
				values := a.GetSampleData(ctx, adapter.SampleQuery{
					Table:    args[0],
					Field:    args[1],
					DataType: dataType,
					Limit:    limit,
					Schema:   schema,
					Catalog:  conn.Catalog,
				})

				w := cmd.OutOrStdout()
				if outputFormat(cmd) == "json" {
					return renderJSON(w, values)
				}
				for _, v := range values {
					_, _ = fmt.Fprintln(w, formatValue(v))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "", "Schema of the table (default: target schema)")
	cmd.Flags().StringVar(&dataType, "type", "", "Declared data type of the field")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of sample values")
	return cmd
}
