// Package formatter renders a run's findings as an aligned text table for
// the CLI's default (non-JSON) output mode.
package formatter

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/agentci/agentci/internal/model"
)

// messageMaxWidth bounds how much of a finding's message is shown before
// truncating with "...", so one long policy message can't blow out the
// column alignment of every row after it.
const messageMaxWidth = 100

// FindingsTable renders findings sorted most-severe-first, so a BLOCK is
// never scrolled past a screen of WARNs above it.
func FindingsTable(w io.Writer, findings []model.Finding) {
	sorted := make([]model.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Outranks(sorted[j].Severity)
	})

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeRow(tw, "SEVERITY", "CATEGORY", "MESSAGE")
	writeRow(tw, "--------", "--------", "-------")
	for _, f := range sorted {
		writeRow(tw, string(f.Severity), string(f.Category), truncate(f.Message, messageMaxWidth))
	}
	//nolint:errcheck // tabwriter output to stdout
	tw.Flush()
}

func writeRow(w io.Writer, cells ...string) {
	for i, cell := range cells {
		if i > 0 {
			//nolint:errcheck // tabwriter output to stdout
			fmt.Fprint(w, "\t")
		}
		//nolint:errcheck // tabwriter output to stdout
		fmt.Fprint(w, cell)
	}
	//nolint:errcheck // tabwriter output to stdout
	fmt.Fprintln(w)
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
