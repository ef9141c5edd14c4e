package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentci/agentci/internal/runstore"
	"github.com/agentci/agentci/internal/signature"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <run-id|trace-path>",
	Short: "Build an effect signature from a run's trace log",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	root := workspaceRoot()
	cfg := loadConfig(root)

	tracePath := resolveTracePath(root, args[0])
	sig, err := signature.BuildFromFile(tracePath, signatureOptions(cfg))
	if err != nil {
		return fmt.Errorf("build signature: %w", err)
	}

	if isJSON() {
		return printJSON(cmd, sig)
	}
	printSignature(cmd, sig)
	return nil
}

// resolveTracePath accepts either a run ID (resolved against the
// workspace's .agentci/runs tree) or a direct path to a trace.jsonl file.
func resolveTracePath(root, arg string) string {
	if runstore.ValidRunID(arg) {
		candidate := newStore(root).TracePath(arg)
		if runstore.Exists(candidate) {
			return candidate
		}
	}
	return arg
}
