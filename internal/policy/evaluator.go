// Package policy implements the Policy Evaluator (C9): it walks a single
// Effect Signature against a policy configuration and produces a list of
// severity-ranked findings, per §4.9.
package policy

import (
	"fmt"
	"strings"

	"github.com/agentci/agentci/internal/canon"
	"github.com/agentci/agentci/internal/model"
	"github.com/agentci/agentci/internal/normalize"
	"github.com/agentci/agentci/internal/policyconfig"
)

// Evaluate walks every effect field in sig against cfg.Policy and returns
// the accumulated findings.
func Evaluate(sig model.Signature, cfg policyconfig.Config) []model.Finding {
	var findings []model.Finding
	findings = append(findings, evaluateFilesystem(sig, cfg)...)
	findings = append(findings, evaluateNetwork(sig, cfg)...)
	findings = append(findings, evaluateExec(sig, cfg)...)
	findings = append(findings, evaluateSensitive(sig, cfg)...)
	return findings
}

func evaluateFilesystem(sig model.Signature, cfg policyconfig.Config) []model.Finding {
	fp := cfg.Policy.Filesystem
	var out []model.Finding
	for _, path := range sig.Effects.FSWrites {
		if resolvesOutsideWorkspace(path, cfg.WorkspaceRoot) {
			out = append(out, model.Finding{
				Severity:   model.SeverityBlock,
				Category:   model.FindingFilesystem,
				Message:    "write resolved outside workspace root",
				Suggestion: "restrict writes to the workspace, or add an explicit allow_writes entry",
				Evidence:   path,
			})
			continue
		}

		if matchesAny(fp.BlockWrites, path) {
			out = append(out, model.Finding{
				Severity: model.SeverityBlock,
				Category: model.FindingFilesystem,
				Message:  fmt.Sprintf("write to %q matches a blocked path", path),
				Evidence: path,
			})
			continue
		}

		if !matchesAny(fp.AllowWrites, path) {
			sev := model.SeverityWarn
			if fp.EnforceAllowlist {
				sev = model.SeverityBlock
			}
			out = append(out, model.Finding{
				Severity:   sev,
				Category:   model.FindingFilesystem,
				Message:    fmt.Sprintf("write to %q is not in the allowlist", path),
				Suggestion: "add the path to policy.filesystem.allow_writes if expected",
				Evidence:   path,
			})
		}
	}
	return out
}

func resolvesOutsideWorkspace(path, workspaceRoot string) bool {
	if workspaceRoot == "" {
		return false
	}
	expanded := canon.ExpandHome(path)
	if !isAbs(expanded) {
		return false
	}
	return !withinRoot(expanded, workspaceRoot)
}

func evaluateNetwork(sig model.Signature, cfg policyconfig.Config) []model.Finding {
	np := cfg.Policy.Network
	hasAllowlist := len(np.AllowHosts) > 0 || len(np.AllowETLDPlus1) > 0
	var out []model.Finding

	for i, host := range sig.Effects.NetHosts {
		etld1 := ""
		if i < len(sig.Effects.NetETLDPlus1) {
			etld1 = sig.Effects.NetETLDPlus1[i]
		}
		hostAllowed := matchesHostAllowlist(np.AllowHosts, host)
		etldAllowed := etld1 != "" && matchesHostAllowlist(np.AllowETLDPlus1, etld1)
		if !hostAllowed && !etldAllowed && (np.EnforceAllowlist || hasAllowlist) {
			out = append(out, model.Finding{
				Severity:   model.SeverityBlock,
				Category:   model.FindingNetwork,
				Message:    fmt.Sprintf("host %q is not allowed", host),
				Suggestion: "add the host (or its eTLD+1) to policy.network.allow_hosts",
				Evidence:   host,
			})
		}
	}

	for _, proto := range sig.Effects.NetProtocols {
		if containsFold(np.BlockProtocols, proto) {
			out = append(out, model.Finding{Severity: model.SeverityBlock, Category: model.FindingNetwork, Message: fmt.Sprintf("protocol %q is blocked", proto), Evidence: proto})
			continue
		}
		if len(np.AllowProtocols) > 0 && !containsFold(np.AllowProtocols, proto) {
			out = append(out, model.Finding{Severity: model.SeverityBlock, Category: model.FindingNetwork, Message: fmt.Sprintf("protocol %q is not allowed", proto), Evidence: proto})
		}
	}

	for _, port := range sig.Effects.NetPorts {
		if containsInt(np.BlockPorts, port) {
			out = append(out, model.Finding{Severity: model.SeverityBlock, Category: model.FindingNetwork, Message: fmt.Sprintf("port %d is blocked", port), Evidence: fmt.Sprint(port)})
			continue
		}
		if len(np.AllowPorts) > 0 && !containsInt(np.AllowPorts, port) {
			out = append(out, model.Finding{Severity: model.SeverityBlock, Category: model.FindingNetwork, Message: fmt.Sprintf("port %d is not allowed", port), Evidence: fmt.Sprint(port)})
		}
	}
	return out
}

func evaluateExec(sig model.Signature, cfg policyconfig.Config) []model.Finding {
	ep := cfg.Policy.Exec
	var out []model.Finding
	for _, cmd := range sig.Effects.ExecCommands {
		if containsFold(ep.BlockCommands, cmd) {
			out = append(out, model.Finding{Severity: model.SeverityBlock, Category: model.FindingExec, Message: fmt.Sprintf("command %q is blocked", cmd), Evidence: cmd})
			continue
		}
		if !containsFold(ep.AllowCommands, cmd) {
			sev := model.SeverityWarn
			if ep.EnforceAllowlist {
				sev = model.SeverityBlock
			}
			out = append(out, model.Finding{
				Severity:   sev,
				Category:   model.FindingExec,
				Message:    fmt.Sprintf("command %q is not in the allowlist", cmd),
				Suggestion: "add the command to policy.exec.allow_commands if expected",
				Evidence:   cmd,
			})
		}
	}
	return out
}

func evaluateSensitive(sig model.Signature, cfg policyconfig.Config) []model.Finding {
	sp := cfg.Policy.Sensitive
	var out []model.Finding
	for _, key := range sig.Effects.SensitiveKeysAccessed {
		if matchesEnvGlob(sp.BlockEnv, key) {
			out = append(out, model.Finding{
				Severity: model.SeverityBlock,
				Category: model.FindingSensitive,
				Message:  fmt.Sprintf("sensitive env var %q accessed", key),
				Evidence: key,
			})
			continue
		}
		expanded := canon.ExpandHome(key)
		if matchesAny(sp.BlockFileGlobs, expanded) {
			out = append(out, model.Finding{
				Severity: model.SeverityBlock,
				Category: model.FindingSensitive,
				Message:  fmt.Sprintf("sensitive file access %q", key),
				Evidence: key,
			})
		}
	}
	return out
}

func matchesAny(patterns []string, candidate string) bool {
	for _, p := range patterns {
		if normalize.GlobMatch(p, candidate) {
			return true
		}
	}
	return false
}

func matchesEnvGlob(patterns []string, key string) bool {
	lower := strings.ToLower(key)
	for _, p := range patterns {
		if normalize.GlobMatch(strings.ToLower(p), lower) {
			return true
		}
	}
	return false
}

// matchesHostAllowlist implements the wildcard-prefix ("*.suffix") and
// case-insensitive exact-compare semantics from §4.9's network rules.
func matchesHostAllowlist(patterns []string, host string) bool {
	host = strings.ToLower(host)
	for _, p := range patterns {
		p = strings.ToLower(p)
		if p == host {
			return true
		}
		if strings.HasPrefix(p, "*.") && strings.HasSuffix(host, p[1:]) {
			return true
		}
	}
	return false
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func isAbs(p string) bool {
	return strings.HasPrefix(p, "/") || (len(p) > 1 && p[1] == ':')
}

func withinRoot(p, root string) bool {
	root = strings.TrimSuffix(root, "/")
	return p == root || strings.HasPrefix(p, root+"/")
}
