package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentci/agentci/internal/integrity"
	"github.com/agentci/agentci/internal/model"
	"github.com/agentci/agentci/internal/runstore"
)

var baselineReason string

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Manage the project's approved baseline signature",
}

var baselineSetCmd = &cobra.Command{
	Use:   "set <run-id>",
	Short: "Record a run's signature as the new baseline",
	Args:  cobra.ExactArgs(1),
	RunE:  runBaselineSet,
}

var baselineShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current baseline signature and its metadata",
	Args:  cobra.NoArgs,
	RunE:  runBaselineShow,
}

func init() {
	baselineSetCmd.Flags().StringVar(&baselineReason, "reason", "", "why this run is becoming the baseline")
	baselineCmd.AddCommand(baselineSetCmd, baselineShowCmd)
	rootCmd.AddCommand(baselineCmd)
}

func runBaselineSet(cmd *cobra.Command, args []string) error {
	runID := args[0]
	if !runstore.ValidRunID(runID) {
		return fmt.Errorf("invalid run id %q", runID)
	}

	root := workspaceRoot()
	store := newStore(root)

	sigPath := store.SignaturePath(runID)
	if !runstore.Exists(sigPath) {
		return fmt.Errorf("no signature.json for run %s", runID)
	}
	var sig model.Signature
	if err := runstore.ReadJSON(sigPath, &sig); err != nil {
		return fmt.Errorf("read signature: %w", err)
	}

	if err := store.WriteBaseline(sig, runID, baselineReason); err != nil {
		return fmt.Errorf("write baseline: %w", err)
	}

	secret, haveSecret, err := integrity.LoadSecret(store.SecretPath())
	if err != nil {
		return fmt.Errorf("load project secret: %w", err)
	}
	if err := integrity.WriteChecksum(store.BaselinePath(), store.BaselineChecksumPath(), runID, secret, haveSecret, true); err != nil {
		return fmt.Errorf("checksum baseline: %w", err)
	}

	if isJSON() {
		return printJSON(cmd, map[string]any{"baseline_run_id": runID, "reason": baselineReason})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "baseline set from run %s\n", runID)
	return nil
}

func runBaselineShow(cmd *cobra.Command, args []string) error {
	root := workspaceRoot()
	store := newStore(root)

	sig, found, err := store.ReadBaseline()
	if err != nil {
		return fmt.Errorf("read baseline: %w", err)
	}
	if !found {
		return fmt.Errorf("no baseline set for this project")
	}
	meta, _, err := store.ReadBaselineMeta()
	if err != nil {
		return fmt.Errorf("read baseline metadata: %w", err)
	}

	if isJSON() {
		return printJSON(cmd, map[string]any{"signature": sig, "meta": meta})
	}
	if meta != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "baseline set at %s from run %s (%s)\n", meta.SetAt, meta.RunID, meta.Reason)
	}
	printSignature(cmd, *sig)
	return nil
}
