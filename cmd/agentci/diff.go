package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentci/agentci/internal/diff"
	"github.com/agentci/agentci/internal/model"
	"github.com/agentci/agentci/internal/runstore"
)

var diffBaselinePath string

var diffCmd = &cobra.Command{
	Use:   "diff <run-id|signature-path>",
	Short: "Compare a signature against the project baseline",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiff,
}

func init() {
	diffCmd.Flags().StringVar(&diffBaselinePath, "baseline", "", "baseline signature path (default: the project baseline)")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	root := workspaceRoot()
	store := newStore(root)

	current, err := loadOrBuildSignature(root, args[0])
	if err != nil {
		return fmt.Errorf("load current signature: %w", err)
	}

	baseline, err := loadBaseline(store)
	if err != nil {
		return fmt.Errorf("load baseline: %w", err)
	}

	result := diff.Compute(current, baseline)

	if isJSON() {
		return printJSON(cmd, result)
	}
	printDrift(cmd, result)
	return nil
}

func loadBaseline(store *runstore.Store) (*model.Signature, error) {
	if diffBaselinePath != "" {
		var sig model.Signature
		if err := runstore.ReadJSON(diffBaselinePath, &sig); err != nil {
			return nil, err
		}
		return &sig, nil
	}
	sig, found, err := store.ReadBaseline()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return sig, nil
}
