package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentci/agentci/internal/model"
	"github.com/agentci/agentci/internal/runstore"
	"github.com/agentci/agentci/internal/similarity"
)

var (
	similarityK         int
	similarityThreshold float64
)

var similarityCmd = &cobra.Command{
	Use:   "similarity <run-id>",
	Short: "Score a run's signature against prior runs for anomaly detection",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimilarity,
}

func init() {
	similarityCmd.Flags().IntVar(&similarityK, "k", similarity.DefaultK, "number of nearest neighbors")
	similarityCmd.Flags().Float64Var(&similarityThreshold, "threshold", similarity.DefaultThreshold, "mean-similarity floor below which a run is anomalous")
	rootCmd.AddCommand(similarityCmd)
}

func runSimilarity(cmd *cobra.Command, args []string) error {
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
	var query model.Signature
	if err := runstore.ReadJSON(sigPath, &query); err != nil {
		return fmt.Errorf("read signature: %w", err)
	}

	corpus, err := similarity.LoadCorpus(store.RunsDir(), runID)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	result := similarity.Score(query, corpus, similarityK, similarityThreshold)

	if isJSON() {
		return printJSON(cmd, result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "score: %.4f  anomalous: %t  (k=%d threshold=%.2f, corpus size=%d)\n",
		result.Score, result.Anomalous, result.K, result.Threshold, len(corpus.Signatures))
	for _, n := range result.Neighbors {
		fmt.Fprintf(w, "  %.4f  %s\n", n.Similarity, n.RunID)
	}
	return nil
}
