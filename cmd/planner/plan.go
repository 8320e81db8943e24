package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/tasking-planner/internal/problem"
	"github.com/signalsfoundry/tasking-planner/internal/runner"
)

var errNoPlan = errors.New("no plan found")

type planJSON struct {
	RunID         string   `json:"run_id"`
	Problem       string   `json:"problem"`
	Domain        string   `json:"domain"`
	Plan          []string `json:"plan"`
	Failed        bool     `json:"failed"`
	Reason        string   `json:"reason,omitempty"`
	NodesExpanded int      `json:"nodes_expanded"`
	DurationSec   float64  `json:"duration_sec"`
}

func newPlanCommand(a *app) *cobra.Command {
	var (
		asJSON bool
		domain string
	)
	cmd := &cobra.Command{
		Use:   "plan <problem>",
		Short: "Plan a single problem file (PDDL or YAML scenario)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var d problem.Domain
			if domain != "" {
				var ok bool
				if d, ok = problem.ParseDomain(domain); !ok {
					return fmt.Errorf("%w: %q", problem.ErrUnknownDomain, domain)
				}
			}

			o := a.runFile(cmd, args[0], d)
			if o.Err != nil {
				return o.Err
			}
			if asJSON {
				if err := writePlanJSON(cmd.OutOrStdout(), o); err != nil {
					return err
				}
			} else if err := writePlanText(cmd.OutOrStdout(), o); err != nil {
				return err
			}
			if o.Failed {
				return errNoPlan
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the outcome as JSON")
	cmd.Flags().StringVar(&domain, "domain", "", "force the problem domain (satellite or blocks)")
	return cmd
}

func (a *app) runFile(cmd *cobra.Command, path string, d problem.Domain) runner.Outcome {
	r := a.newRunner()
	if d == "" {
		return r.RunFile(cmd.Context(), path)
	}
	return r.RunFileAs(cmd.Context(), path, d)
}

func writePlanText(w io.Writer, o runner.Outcome) error {
	secs := strconv.FormatFloat(o.Duration.Seconds(), 'f', -1, 64)
	if o.Failed {
		_, err := fmt.Fprintf(w, "%s: FAILED after %d nodes (%ssec): %v\n", o.Problem, o.NodesExpanded, secs, o.Reason)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s: %d steps, %d nodes expanded, %ssec\n", o.Problem, len(o.Plan), o.NodesExpanded, secs); err != nil {
		return err
	}
	for _, step := range o.Plan {
		if _, err := fmt.Fprintln(w, step); err != nil {
			return err
		}
	}
	return nil
}

func writePlanJSON(w io.Writer, o runner.Outcome) error {
	out := planJSON{
		RunID:         o.RunID,
		Problem:       o.Problem,
		Domain:        string(o.Domain),
		Plan:          o.Plan,
		Failed:        o.Failed,
		NodesExpanded: o.NodesExpanded,
		DurationSec:   o.Duration.Seconds(),
	}
	if out.Plan == nil {
		out.Plan = []string{}
	}
	if o.Reason != nil {
		out.Reason = o.Reason.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
