// Package patch is the Go-native reinterpretation of the Patches component
// (C4). Go offers no runtime monkey-patching, so instead of replacing
// stdlib bindings in place this package is an explicit wrapper facade: the
// host program calls patch.WriteFile / patch.Exec / patch.Do / patch.Getenv
// instead of calling os/exec/net/http/os.Getenv directly. Each wrapper
// follows the same design contract as the original patches: check bypass,
// delegate to the real primitive, emit an effect only once the delegate
// call has genuinely succeeded, and never let an emission failure reach
// the caller.
package patch

import (
	"fmt"
	"os"
	"strings"

	"github.com/agentci/agentci/internal/canon"
	"github.com/agentci/agentci/internal/model"
	"github.com/agentci/agentci/internal/normalize"
	"github.com/agentci/agentci/internal/trace"
)

// SensitiveConfig names the glob patterns that turn an ordinary fs_read or
// env access into an additional sensitive_access event.
type SensitiveConfig struct {
	BlockFileGlobs []string
	BlockEnv       []string
}

// Enforcer is called synchronously after every effect is written, scoped to
// that single event (§4.6). A non-nil Finding with severity BLOCK causes
// the caller (internal/recorderrt) to terminate the process.
type Enforcer interface {
	CheckOne(eff model.EffectPayload) *model.Finding
}

// Patcher is the shared facade state: one instance per recorded run, wired
// into a *trace.Writer and holding everything needed to normalize and
// filter effects before they're written.
type Patcher struct {
	writer        *trace.Writer
	runID         string
	workspaceRoot string
	agentciRoot   string

	norm      normalize.Config
	sensitive SensitiveConfig

	enforcer Enforcer
}

// New builds a Patcher bound to writer for the given run, rooted at
// workspaceRoot. agentciRoot is cached once so every wrapper skips the
// recorder's own I/O without recomputing realpath on every call.
func New(writer *trace.Writer, runID, workspaceRoot string, norm normalize.Config, sensitive SensitiveConfig, enforcer Enforcer) *Patcher {
	return &Patcher{
		writer:        writer,
		runID:         runID,
		workspaceRoot: workspaceRoot,
		agentciRoot:   canon.AgentCIRootFor(workspaceRoot),
		norm:          norm,
		sensitive:     sensitive,
		enforcer:      enforcer,
	}
}

// skipOwnIO reports whether resolvedAbs falls under this patcher's cached
// .agentci root and should therefore never be recorded.
func (p *Patcher) skipOwnIO(resolvedAbs string) bool {
	return canon.IsUnderAgentCIRoot(resolvedAbs, p.agentciRoot)
}

// emit writes one effect event, honoring the writer's bypass flag and
// running the single-event enforcer if one is configured. Fail-open: any
// emission problem is swallowed, never propagated to the caller.
func (p *Patcher) emit(category model.EffectCategory, payload model.EffectPayload) {
	if p.writer == nil || p.writer.Bypass() {
		return
	}
	payload.Category = category
	payload.Kind = model.KindObserved

	ev, err := model.NewEvent(p.runID, model.EventEffect, payload, nil)
	if err != nil {
		return
	}
	p.writer.Write(ev)

	if p.enforcer != nil {
		if finding := p.enforcer.CheckOne(payload); finding != nil && finding.Severity == model.SeverityBlock {
			p.block(finding)
		}
	}
}

// block implements the enforcer's terminal action (§4.6): print a
// diagnostic, flush the writer, and exit(1). It runs after the triggering
// effect has already been written, so the trace always records what caused
// the block.
func (p *Patcher) block(finding *model.Finding) {
	fmt.Fprintf(os.Stderr, "agentci: blocked: %s\n", finding.Message)
	if p.writer != nil {
		p.writer.Flush()
	}
	os.Exit(1)
}

// matchesAnyGlob reports whether candidate matches any of patterns using
// the same extended-glob grammar as the filesystem normalizer.
func matchesAnyGlob(patterns []string, candidate string) bool {
	for _, pat := range patterns {
		if normalize.GlobMatch(pat, candidate) {
			return true
		}
	}
	return false
}

// matchesAnyEnvGlob is the case-insensitive counterpart used for
// policy.sensitive.block_env, where keys like "AWS_*" should match
// "aws_secret_key" regardless of case.
func matchesAnyEnvGlob(patterns []string, key string) bool {
	lower := strings.ToLower(key)
	for _, pat := range patterns {
		if normalize.GlobMatch(strings.ToLower(pat), lower) {
			return true
		}
	}
	return false
}
