package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/querypilot/querypilot/internal/cache"
	"github.com/querypilot/querypilot/internal/executor"
	"github.com/querypilot/querypilot/internal/fixer"
	"github.com/querypilot/querypilot/pkg/core"
)

// queryOptions holds options for the query command.
type queryOptions struct {
	File    string
	Title   string
	MaxRows int
	Timeout time.Duration
	NoCache bool
}

func newQueryCommand() *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query [sql]",
		Short: "Execute a read-only SQL query against a target",
		Long: `Execute a SELECT (or WITH) statement against a configured target.

The statement is validated before execution, runs under a hard timeout,
and may be rewritten once through the configured generator endpoint when
it fails with a correctable error. Successful results are cached.`,
		Example: `  # Run a query against the default target
  querypilot query "SELECT id, name FROM users LIMIT 10"

  # Run a query from a file against a named target
  querypilot query -t warehouse --file report.sql

  # JSON output
  querypilot query -f json "SELECT count(*) FROM orders"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "Read the SQL statement from a file")
	cmd.Flags().StringVar(&opts.Title, "title", "", "Title attached to the query result")
	cmd.Flags().IntVar(&opts.MaxRows, "max-rows", 0, "Maximum rows returned (default from config)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Query timeout (default from config)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Bypass the result cache")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *queryOptions) error {
	sqlText, err := querySQL(args, opts)
	if err != nil {
		return err
	}

	conn, err := cfg.Target(targetFlag)
	if err != nil {
		return err
	}

	exec := executor.New(buildExecutorConfig(opts))

	outcome := exec.Execute(cmd.Context(), executor.Request{
		SQL:    sqlText,
		Engine: conn.Type,
		Conn:   conn,
		Title:  opts.Title,
	})

	return renderOutcome(cmd.OutOrStdout(), outputFormat(cmd), outcome)
}

// renderOutcome writes an execution outcome in the requested format. A
// failed outcome always yields a non-nil error so every format exits
// non-zero; JSON additionally renders the structured outcome first.
func renderOutcome(w io.Writer, format string, outcome *core.Outcome) error {
	if !outcome.Success {
		if format == "json" {
			if err := renderJSON(w, outcome); err != nil {
				return err
			}
		}
		return fmt.Errorf("%s", outcome.Error)
	}

	if format == "json" {
		return renderJSON(w, outcome)
	}
	if err := renderRows(w, outcome.Rows, format); err != nil {
		return err
	}
	if format == "table" {
		meta := fmt.Sprintf("(%d rows, %dms", outcome.RowCount, outcome.ExecutionTimeMs)
		if outcome.TotalCount != nil {
			meta += fmt.Sprintf(", %d total", *outcome.TotalCount)
		}
		if outcome.Cached {
			meta += ", cached"
		}
		_, _ = fmt.Fprintln(w, meta+")")
	}
	return nil
}

func querySQL(args []string, opts *queryOptions) (string, error) {
	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return "", fmt.Errorf("failed to read query file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	return "", fmt.Errorf("no SQL given: pass a statement or --file")
}

// buildExecutorConfig assembles executor collaborators from the loaded
// configuration and per-invocation flag overrides.
func buildExecutorConfig(opts *queryOptions) executor.Config {
	ec := executor.Config{
		Limits: executor.Limits{
			QueryTimeout: cfg.Limits.QueryTimeout,
			CountTimeout: cfg.Limits.CountTimeout,
			MaxRows:      cfg.Limits.MaxRows,
		},
		Logger: cliLogger(),
	}
	if opts.MaxRows > 0 {
		ec.Limits.MaxRows = opts.MaxRows
	}
	if opts.Timeout > 0 {
		ec.Limits.QueryTimeout = opts.Timeout
	}
	if cfg.Cache.Enabled && !opts.NoCache {
		ec.Cache = cache.New(cfg.Cache.TTL, cfg.Cache.MaxRows)
	}
	if cfg.Generator.Endpoint != "" {
		ec.Regenerator = fixer.New(cfg.Generator.Endpoint, cliLogger())
	}
	return ec
}
