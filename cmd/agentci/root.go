package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagFormat    string
	flagWorkspace string
	flagConfig    string
)

// toolVersion is stamped into signature meta and printed by `agentci
// version`. Overridden at build time via -ldflags "-X main.toolVersion=...".
var toolVersion = "dev"

var rootCmd = &cobra.Command{
	Use:   "agentci",
	Short: "Record, summarize, and police the effects of an instrumented agent run",
	Long: `agentci records the filesystem, network, process, and sensitive-access
effects of an agent-driven program run, projects them into a deterministic
effect signature, and evaluates that signature against a policy.

Core commands:
  init        Scaffold a project's .agentci directory and secret
  record      Launch a command under the recorder and evaluate its run
  summarize   Build an effect signature from a trace log
  diff        Compare a signature against the project baseline
  evaluate    Run the policy evaluator over a signature
  verify      Check a run's integrity checksums
  baseline    Manage the project's approved baseline signature
  similarity  Score a run against prior runs for anomaly detection`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "agentci: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "text", "output format (text, json)")
	rootCmd.PersistentFlags().StringVarP(&flagWorkspace, "workspace", "w", "", "workspace root (default: current directory)")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "policy config path (default: <workspace>/.agentci/config.yaml)")
}

func workspaceRoot() string {
	if flagWorkspace != "" {
		return flagWorkspace
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func isJSON() bool {
	return flagFormat == "json"
}
