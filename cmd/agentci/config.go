package main

import (
	"fmt"
	"runtime"

	"github.com/agentci/agentci/internal/normalize"
	"github.com/agentci/agentci/internal/policyconfig"
	"github.com/agentci/agentci/internal/runstore"
	"github.com/agentci/agentci/internal/signature"
)

func newStore(root string) *runstore.Store {
	return runstore.New(root)
}

func loadConfig(root string) policyconfig.Config {
	path := flagConfig
	if path == "" {
		path = newStore(root).ConfigPath()
	}
	cfg, err := policyconfig.Load(path, root)
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "agentci: warning: policy config invalid, falling back to defaults: %v\n", err)
	}
	return cfg
}

func signatureOptions(cfg policyconfig.Config) signature.Options {
	return signature.Options{
		Norm:           cfg.NormalizeConfig(),
		ArgvMode:       argvModeFrom(cfg.Normalization.Exec.ArgvMode),
		WorkspaceRoot:  cfg.WorkspaceRoot,
		ToolVersion:    toolVersion,
		RuntimeVersion: runtime.Version(),
		Platform:       runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func argvModeFrom(mode string) normalize.ArgvMode {
	switch mode {
	case "hash":
		return normalize.ArgvModeHash
	case "none":
		return normalize.ArgvModeNone
	default:
		return normalize.ArgvModeFull
	}
}
