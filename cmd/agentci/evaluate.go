package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentci/agentci/internal/model"
	"github.com/agentci/agentci/internal/policy"
	"github.com/agentci/agentci/internal/runstore"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <run-id|signature-path>",
	Short: "Evaluate a signature against the project policy and print a verdict",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	root := workspaceRoot()
	cfg := loadConfig(root)
	store := newStore(root)

	sig, err := loadOrBuildSignature(root, args[0])
	if err != nil {
		return fmt.Errorf("load signature: %w", err)
	}

	findings := policy.Evaluate(sig, cfg)
	if findings == nil {
		findings = []model.Finding{}
	}
	verdict := model.ComposeVerdict(findings)

	if runstore.ValidRunID(args[0]) && runstore.Exists(store.RunDir(args[0])) {
		if err := runstore.WriteJSON(store.FindingsPath(args[0]), findings); err != nil {
			return fmt.Errorf("write findings.json: %w", err)
		}
	}

	if isJSON() {
		if err := printJSON(cmd, findingsReport{Verdict: verdict, ExitCode: verdict.ExitCode(), Findings: findings}); err != nil {
			return err
		}
	} else {
		printFindings(cmd.OutOrStdout(), findings, verdict)
	}

	if code := verdict.ExitCode(); code != 0 {
		return exitWithCode(code, "verdict %s", verdict)
	}
	return nil
}
