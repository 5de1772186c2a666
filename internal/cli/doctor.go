package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/querypilot/querypilot/pkg/adapter"
	"github.com/querypilot/querypilot/pkg/core"
)

const doctorTimeout = 15 * time.Second

// targetHealth is one row of the doctor report.
type targetHealth struct {
	Target  string `json:"target"`
	Engine  string `json:"engine"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

func newDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check connectivity of configured targets",
		Long: `Connect to each configured target (or only the one named with --target)
and run a trivial probe query, reporting reachability per target.`,
		Example: `  # Check every configured target
  querypilot doctor

  # Check one target, machine-readable
  querypilot doctor -t warehouse -f json`,
		RunE: runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	names := make([]string, 0, len(cfg.Targets))
	if targetFlag != "" {
		names = append(names, targetFlag)
	} else {
		for name := range cfg.Targets {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	if len(names) == 0 {
		return fmt.Errorf("no targets configured")
	}

	report := make([]targetHealth, 0, len(names))
	unhealthy := 0
	for _, name := range names {
		h := checkTarget(cmd, name)
		if !h.Healthy {
			unhealthy++
		}
		report = append(report, h)
	}

	w := cmd.OutOrStdout()
	if outputFormat(cmd) == "json" {
		if err := renderJSON(w, report); err != nil {
			return err
		}
	} else {
		rows := make([]core.Row, 0, len(report))
		for _, h := range report {
			status := "ok"
			if !h.Healthy {
				status = "unreachable"
			}
			rows = append(rows, core.Row{
				"target": h.Target,
				"engine": h.Engine,
				"status": status,
				"detail": h.Detail,
			})
		}
		if err := renderRows(w, rows, outputFormat(cmd)); err != nil {
			return err
		}
	}

	if unhealthy > 0 {
		return fmt.Errorf("%d of %d targets unreachable", unhealthy, len(report))
	}
	return nil
}

func checkTarget(cmd *cobra.Command, name string) targetHealth {
	conn, err := cfg.Target(name)
	if err != nil {
		return targetHealth{Target: name, Detail: err.Error()}
	}

	h := targetHealth{Target: name, Engine: conn.Type.String()}

	ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
	defer cancel()

	a, err := adapter.Open(ctx, conn, cliLogger())
	if err != nil {
		h.Detail = err.Error()
		return h
	}
	defer func() { _ = a.Close() }()

	h.Healthy = a.HealthCheck(ctx)
	if !h.Healthy {
		h.Detail = "probe query failed"
	}
	return h
}
