package policy

import (
	"strings"
	"testing"

	"github.com/agentci/agentci/internal/model"
	"github.com/agentci/agentci/internal/policyconfig"
)

func TestEvaluate_SensitiveAccessBlock(t *testing.T) {
	sig := model.Signature{Effects: model.Effects{SensitiveKeysAccessed: []string{"AWS_SECRET_ACCESS_KEY"}}}
	cfg := policyconfig.Default()
	cfg.Policy.Sensitive.BlockEnv = []string{"AWS_SECRET_ACCESS_KEY"}

	findings := Evaluate(sig, cfg)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Severity != model.SeverityBlock || f.Category != model.FindingSensitive {
		t.Errorf("unexpected finding: %+v", f)
	}
	if !strings.Contains(f.Message, "env var") || !strings.Contains(f.Message, "AWS_SECRET_ACCESS_KEY") {
		t.Errorf("message missing expected substrings: %q", f.Message)
	}
	if model.ComposeVerdict(findings) != model.VerdictBlock {
		t.Errorf("expected BLOCK verdict")
	}
	if model.ComposeVerdict(findings).ExitCode() != 1 {
		t.Errorf("expected exit code 1")
	}
}

func TestEvaluate_CleanSignaturePasses(t *testing.T) {
	sig := model.Signature{Effects: model.Effects{
		FSWrites:     []string{"workspace/src/index.ts"},
		NetHosts:     []string{"api.good.com"},
		NetETLDPlus1: []string{"good.com"},
		ExecCommands: []string{"node"},
	}}
	cfg := policyconfig.Default()
	cfg.Policy.Filesystem.AllowWrites = []string{"**"}
	cfg.Policy.Network.AllowHosts = []string{"api.good.com"}
	cfg.Policy.Exec.AllowCommands = []string{"node"}

	findings := Evaluate(sig, cfg)
	for _, f := range findings {
		if f.Severity == model.SeverityBlock {
			t.Errorf("unexpected BLOCK finding: %+v", f)
		}
	}
	if model.ComposeVerdict(findings) != model.VerdictPass {
		t.Errorf("expected PASS verdict, findings=%+v", findings)
	}
}

func TestEvaluate_NetworkAllowlistEnforcement(t *testing.T) {
	sig := model.Signature{Effects: model.Effects{NetHosts: []string{"evil.com"}, NetETLDPlus1: []string{"evil.com"}}}
	cfg := policyconfig.Default()
	cfg.Policy.Network.EnforceAllowlist = true

	findings := Evaluate(sig, cfg)
	if len(findings) != 1 || findings[0].Severity != model.SeverityBlock {
		t.Fatalf("expected a BLOCK finding for evil.com, got %+v", findings)
	}
}

func TestEvaluate_HostWildcardAllow(t *testing.T) {
	sig := model.Signature{Effects: model.Effects{NetHosts: []string{"api.internal.example.com"}, NetETLDPlus1: []string{"example.com"}}}
	cfg := policyconfig.Default()
	cfg.Policy.Network.AllowHosts = []string{"*.internal.example.com"}

	findings := Evaluate(sig, cfg)
	for _, f := range findings {
		if f.Category == model.FindingNetwork && f.Severity == model.SeverityBlock {
			t.Errorf("wildcard-allowed host should not BLOCK: %+v", f)
		}
	}
}

func TestEvaluate_ExecAllowlistWarnVsBlock(t *testing.T) {
	sig := model.Signature{Effects: model.Effects{ExecCommands: []string{"curl"}}}
	cfg := policyconfig.Default()

	findings := Evaluate(sig, cfg)
	if len(findings) != 1 || findings[0].Severity != model.SeverityWarn {
		t.Fatalf("expected WARN without enforce_allowlist, got %+v", findings)
	}

	cfg.Policy.Exec.EnforceAllowlist = true
	findings = Evaluate(sig, cfg)
	if len(findings) != 1 || findings[0].Severity != model.SeverityBlock {
		t.Fatalf("expected BLOCK with enforce_allowlist, got %+v", findings)
	}
}
