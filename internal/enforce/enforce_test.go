package enforce

import (
	"testing"

	"github.com/agentci/agentci/internal/model"
	"github.com/agentci/agentci/internal/policyconfig"
)

func TestCheckOne_SensitiveEnvBlocks(t *testing.T) {
	cfg := policyconfig.Default()
	cfg.Policy.Sensitive.BlockEnv = []string{"AWS_*"}
	checker := New(cfg)

	finding := checker.CheckOne(model.EffectPayload{
		Category:  model.CategorySensitive,
		Sensitive: &model.SensitiveEffectData{Type: "env_var", KeyName: "AWS_SECRET_ACCESS_KEY"},
	})
	if finding == nil {
		t.Fatal("expected a BLOCK finding")
	}
	if finding.Severity != model.SeverityBlock {
		t.Errorf("expected BLOCK, got %s", finding.Severity)
	}
}

func TestCheckOne_CleanWriteReturnsNil(t *testing.T) {
	cfg := policyconfig.Default()
	cfg.Policy.Filesystem.AllowWrites = []string{"**"}
	checker := New(cfg)

	finding := checker.CheckOne(model.EffectPayload{
		Category: model.CategoryFSWrite,
		FS:       &model.FSEffectData{PathResolved: "/workspace/src/a.ts", IsWorkspaceLocal: true},
	})
	if finding != nil {
		t.Errorf("expected nil, got %+v", finding)
	}
}

func TestCheckOne_WarnSeverityReturnsNil(t *testing.T) {
	cfg := policyconfig.Default()
	checker := New(cfg)

	finding := checker.CheckOne(model.EffectPayload{
		Category: model.CategoryExec,
		Exec:     &model.ExecEffectData{CommandRaw: "/usr/bin/curl", ArgvNormalized: []string{"curl"}},
	})
	if finding != nil {
		t.Errorf("expected nil (WARN-only finding must not block), got %+v", finding)
	}
}

func TestCheckOne_BlockedCommandBlocks(t *testing.T) {
	cfg := policyconfig.Default()
	cfg.Policy.Exec.BlockCommands = []string{"rm"}
	checker := New(cfg)

	finding := checker.CheckOne(model.EffectPayload{
		Category: model.CategoryExec,
		Exec:     &model.ExecEffectData{CommandRaw: "/bin/rm", ArgvNormalized: []string{"rm"}},
	})
	if finding == nil || finding.Severity != model.SeverityBlock {
		t.Fatalf("expected BLOCK, got %+v", finding)
	}
}
