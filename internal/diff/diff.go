// Package diff implements the Diff Engine (C8): a per-field set-difference
// between a current signature and a stored baseline.
package diff

import "github.com/agentci/agentci/internal/model"

// Compute returns current \ baseline for every effect field, preserving the
// sorted order each field already carries. baseline == nil means an empty
// baseline: the drift equals current in full.
func Compute(current model.Signature, baseline *model.Signature) model.DiffResult {
	if baseline == nil {
		return model.DiffResult{Drift: current.Effects, BaselineEmpty: true}
	}

	drift := model.Effects{}
	for _, name := range model.FieldNames {
		if name == "net_ports" {
			drift.NetPorts = diffInts(current.Effects.IntField(name), baseline.Effects.IntField(name))
			continue
		}
		setField(&drift, name, diffStrings(current.Effects.StringField(name), baseline.Effects.StringField(name)))
	}
	return model.DiffResult{Drift: drift}
}

// diffStrings computes a \ b, preserving a's existing sort order.
func diffStrings(a, b []string) []string {
	if len(a) == 0 {
		return nil
	}
	inB := make(map[string]struct{}, len(b))
	for _, v := range b {
		inB[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := inB[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

func diffInts(a, b []int) []int {
	if len(a) == 0 {
		return nil
	}
	inB := make(map[int]struct{}, len(b))
	for _, v := range b {
		inB[v] = struct{}{}
	}
	var out []int
	for _, v := range a {
		if _, ok := inB[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

func setField(e *model.Effects, name string, values []string) {
	switch name {
	case "fs_writes":
		e.FSWrites = values
	case "fs_reads_external":
		e.FSReadsExternal = values
	case "fs_deletes":
		e.FSDeletes = values
	case "net_protocols":
		e.NetProtocols = values
	case "net_etld_plus_1":
		e.NetETLDPlus1 = values
	case "net_hosts":
		e.NetHosts = values
	case "exec_commands":
		e.ExecCommands = values
	case "exec_argv":
		e.ExecArgv = values
	case "sensitive_keys_accessed":
		e.SensitiveKeysAccessed = values
	}
}
