// Package enforce implements the real-time enforcement hook (C6): a single-
// event policy check wired into internal/patch's Enforcer interface. It
// mirrors internal/policy's rules but scoped to one effect rather than a
// whole signature, so a BLOCK can stop the originating operation before it
// returns control rather than waiting for an offline evaluate pass.
package enforce

import (
	"github.com/agentci/agentci/internal/canon"
	"github.com/agentci/agentci/internal/model"
	"github.com/agentci/agentci/internal/policy"
	"github.com/agentci/agentci/internal/policyconfig"
)

// Checker implements patch.Enforcer: it is installed on the Patcher only
// when enforcement is enabled for the run (§6's enforce_mode / <TOOL>_ENFORCE).
type Checker struct {
	cfg policyconfig.Config
}

// New returns a Checker bound to cfg. Pass it as the patch.Enforcer for a
// run when enforcement is active.
func New(cfg policyconfig.Config) *Checker {
	return &Checker{cfg: cfg}
}

// CheckOne projects a single effect payload into a one-event signature and
// evaluates it against the same rules internal/policy applies to a full
// signature, returning the worst finding (or nil if clean). Only BLOCK
// findings are returned — a WARN at enforcement time would stop an
// operation the offline evaluate pass would otherwise have only warned
// about, which the spec does not ask for.
func (c *Checker) CheckOne(eff model.EffectPayload) *model.Finding {
	sig := model.Signature{Effects: c.effectsFromPayload(eff)}
	findings := policy.Evaluate(sig, c.cfg)

	var worst *model.Finding
	for i := range findings {
		f := findings[i]
		if f.Severity != model.SeverityBlock {
			continue
		}
		if worst == nil || f.Severity.Outranks(worst.Severity) {
			worst = &f
		}
	}
	return worst
}

// effectsFromPayload builds a minimal, single-effect Effects value so the
// shared policy rules can run unmodified against one observed event. FS
// writes/deletes are projected to workspace-relative form first, matching
// internal/signature's offline builder, so the policy evaluator's glob
// patterns (typically written relative, e.g. "secrets/**") match here too.
func (c *Checker) effectsFromPayload(eff model.EffectPayload) model.Effects {
	var out model.Effects
	switch eff.Category {
	case model.CategoryFSWrite:
		if eff.FS != nil {
			path, _ := canon.ToWorkspacePath(eff.FS.PathResolved, c.cfg.WorkspaceRoot)
			out.FSWrites = []string{path}
		}
	case model.CategoryFSDelete:
		if eff.FS != nil {
			path, _ := canon.ToWorkspacePath(eff.FS.PathResolved, c.cfg.WorkspaceRoot)
			out.FSDeletes = []string{path}
		}
	case model.CategoryFSRead:
		if eff.FS != nil && !eff.FS.IsWorkspaceLocal {
			out.FSReadsExternal = []string{eff.FS.PathResolved}
		}
	case model.CategoryNetOutbound:
		if eff.Net != nil {
			out.NetHosts = []string{eff.Net.HostRaw}
			out.NetETLDPlus1 = []string{eff.Net.HostETLDPlus1}
			out.NetProtocols = []string{eff.Net.Protocol}
			if eff.Net.Port != nil {
				out.NetPorts = []int{*eff.Net.Port}
			}
		}
	case model.CategoryExec:
		if eff.Exec != nil {
			command := eff.Exec.CommandRaw
			if len(eff.Exec.ArgvNormalized) > 0 {
				command = eff.Exec.ArgvNormalized[0]
			}
			out.ExecCommands = []string{command}
		}
	case model.CategorySensitive:
		if eff.Sensitive != nil && eff.Sensitive.KeyName != "" {
			out.SensitiveKeysAccessed = []string{eff.Sensitive.KeyName}
		}
	}
	return out
}
