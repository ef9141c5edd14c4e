package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/agentci/agentci/internal/integrity"
	"github.com/agentci/agentci/internal/policyconfig"
	"github.com/agentci/agentci/internal/runstore"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold .agentci in the workspace: default config and a fresh secret",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root := workspaceRoot()
	store := runstore.New(root)

	if err := store.EnsureRoot(); err != nil {
		return fmt.Errorf("create .agentci: %w", err)
	}

	if !runstore.Exists(store.ConfigPath()) {
		cfg := policyconfig.Default()
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal default config: %w", err)
		}
		if err := os.WriteFile(store.ConfigPath(), data, 0o600); err != nil {
			return fmt.Errorf("write config.yaml: %w", err)
		}
	}

	if !runstore.Exists(store.SecretPath()) {
		if _, err := integrity.GenerateSecret(store.SecretPath()); err != nil {
			return fmt.Errorf("generate secret: %w", err)
		}
	}

	if isJSON() {
		return printJSON(cmd, map[string]any{"workspace_root": root, "agentci_root": store.Root()})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "initialized %s\n", store.Root())
	return nil
}
