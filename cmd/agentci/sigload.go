package main

import (
	"strings"

	"github.com/agentci/agentci/internal/model"
	"github.com/agentci/agentci/internal/runstore"
	"github.com/agentci/agentci/internal/signature"
)

// loadOrBuildSignature resolves arg to a signature three ways, in order:
// an existing run's signature.json, an existing run's trace.jsonl (built
// fresh), or a direct path to either a signature.json or a trace.jsonl.
func loadOrBuildSignature(root, arg string) (model.Signature, error) {
	cfg := loadConfig(root)
	store := newStore(root)

	if runstore.ValidRunID(arg) {
		if sigPath := store.SignaturePath(arg); runstore.Exists(sigPath) {
			var sig model.Signature
			err := runstore.ReadJSON(sigPath, &sig)
			return sig, err
		}
		if tracePath := store.TracePath(arg); runstore.Exists(tracePath) {
			return signature.BuildFromFile(tracePath, signatureOptions(cfg))
		}
	}

	if strings.HasSuffix(arg, ".json") {
		var sig model.Signature
		if err := runstore.ReadJSON(arg, &sig); err == nil && sig.Meta.Adapter != "" {
			return sig, nil
		}
	}

	return signature.BuildFromFile(arg, signatureOptions(cfg))
}
