package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentci/agentci/internal/integrity"
	"github.com/agentci/agentci/internal/runstore"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <run-id>",
	Short: "Check a run's trace and signature checksums against the project secret",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

type checkResult struct {
	File    string `json:"file"`
	Valid   bool   `json:"valid"`
	Details string `json:"details"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	runID := args[0]
	if !runstore.ValidRunID(runID) {
		return fmt.Errorf("invalid run id %q", runID)
	}

	root := workspaceRoot()
	store := newStore(root)

	secret, haveSecret, err := integrity.LoadSecret(store.SecretPath())
	if err != nil {
		return fmt.Errorf("load project secret: %w", err)
	}

	var results []checkResult
	allValid := true

	check := func(target, checksum string) {
		if !runstore.Exists(checksum) {
			return
		}
		res, err := integrity.Verify(target, checksum, runID, secret, haveSecret)
		if err != nil {
			results = append(results, checkResult{File: target, Valid: false, Details: err.Error()})
			allValid = false
			return
		}
		results = append(results, checkResult{File: target, Valid: res.Valid, Details: res.Details})
		if !res.Valid {
			allValid = false
		}
	}

	check(store.TracePath(runID), store.TraceChecksumPath(runID))
	check(store.SignaturePath(runID), store.SignatureChecksumPath(runID))

	if len(results) == 0 {
		return fmt.Errorf("no checksum files found for run %s", runID)
	}

	if isJSON() {
		if err := printJSON(cmd, results); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, r := range results {
			fmt.Fprintf(w, "%s: valid=%t (%s)\n", r.File, r.Valid, r.Details)
		}
	}

	if !allValid {
		return exitWithCode(1, "integrity verification failed for run %s", runID)
	}
	return nil
}
