package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentci/agentci/internal/formatter"
	"github.com/agentci/agentci/internal/model"
)

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printFindings renders findings as a table in text mode (§7: "WARN and
// BLOCK produce per-finding lines with severity, category, and message").
// A clean result still prints the verdict line so a PASS is visible, not
// just silent.
func printFindings(w io.Writer, findings []model.Finding, verdict model.Verdict) {
	if len(findings) == 0 {
		fmt.Fprintf(w, "verdict: %s (no findings)\n", verdict)
		return
	}

	formatter.FindingsTable(w, findings)
	fmt.Fprintf(w, "verdict: %s\n", verdict)
}

type findingsReport struct {
	Verdict  model.Verdict   `json:"verdict"`
	ExitCode int             `json:"exit_code"`
	Findings []model.Finding `json:"findings"`
}

func printSignature(cmd *cobra.Command, sig model.Signature) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "adapter: %s\n", sig.Meta.Adapter)
	for _, name := range model.FieldNames {
		if name == "net_ports" {
			fmt.Fprintf(w, "  %s: %v\n", name, sig.Effects.IntField(name))
			continue
		}
		fmt.Fprintf(w, "  %s: %v\n", name, sig.Effects.StringField(name))
	}
}

func printDrift(cmd *cobra.Command, result model.DiffResult) {
	w := cmd.OutOrStdout()
	if result.BaselineEmpty {
		fmt.Fprintln(w, "no baseline set; drift equals the full current signature")
	}
	any := false
	for _, name := range model.FieldNames {
		if name == "net_ports" {
			if vals := result.Drift.IntField(name); len(vals) > 0 {
				any = true
				fmt.Fprintf(w, "  %s: %v\n", name, vals)
			}
			continue
		}
		if vals := result.Drift.StringField(name); len(vals) > 0 {
			any = true
			fmt.Fprintf(w, "  %s: %v\n", name, vals)
		}
	}
	if !any {
		fmt.Fprintln(w, "no drift")
	}
}
