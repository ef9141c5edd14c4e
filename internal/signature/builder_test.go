package signature

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/agentci/agentci/internal/model"
	"github.com/agentci/agentci/internal/normalize"
)

func TestBuild_BasicEffects(t *testing.T) {
	log := strings.Join([]string{
		eventLine(t, model.EffectPayload{Category: model.CategoryFSWrite, FS: &model.FSEffectData{PathResolved: "src/a.ts", IsWorkspaceLocal: true}}),
		eventLine(t, model.EffectPayload{Category: model.CategoryFSRead, FS: &model.FSEffectData{PathResolved: "/etc/passwd", IsWorkspaceLocal: false}}),
		eventLine(t, model.EffectPayload{Category: model.CategoryNetOutbound, Net: &model.NetEffectData{HostRaw: "API.Example.com", HostETLDPlus1: "example.com", Method: "get", Protocol: "https", Port: intPtr(443)}}),
		eventLine(t, model.EffectPayload{Category: model.CategoryExec, Exec: &model.ExecEffectData{CommandRaw: "/usr/bin/node", ArgvNormalized: []string{"node", "build.js"}}}),
		eventLine(t, model.EffectPayload{Category: model.CategorySensitive, Sensitive: &model.SensitiveEffectData{Type: "env_var", KeyName: "AWS_SECRET_ACCESS_KEY"}}),
	}, "\n")

	sig, err := Build(strings.NewReader(log), Options{ArgvMode: normalize.ArgvModeFull, ToolVersion: "1.0.0"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := sig.Effects.FSWrites; len(got) != 1 || got[0] != "src/a.ts" {
		t.Errorf("fs_writes = %v", got)
	}
	if got := sig.Effects.FSReadsExternal; len(got) != 1 || got[0] != "/etc/passwd" {
		t.Errorf("fs_reads_external = %v", got)
	}
	if got := sig.Effects.NetHosts; len(got) != 1 || got[0] != "api.example.com" {
		t.Errorf("net_hosts = %v", got)
	}
	if got := sig.Effects.NetPorts; len(got) != 1 || got[0] != 443 {
		t.Errorf("net_ports = %v", got)
	}
	if got := sig.Effects.ExecCommands; len(got) != 1 || got[0] != "node" {
		t.Errorf("exec_commands = %v", got)
	}
	if got := sig.Effects.SensitiveKeysAccessed; len(got) != 1 || got[0] != "AWS_SECRET_ACCESS_KEY" {
		t.Errorf("sensitive_keys_accessed = %v", got)
	}
	if sig.Meta.Adapter != model.AdapterNodeHook {
		t.Errorf("expected node-hook adapter absent tool events, got %q", sig.Meta.Adapter)
	}
}

func TestBuild_ToolEventsSetAdapter(t *testing.T) {
	log := eventLine(t, model.EffectPayload{Category: model.CategoryExec, Exec: &model.ExecEffectData{CommandRaw: "node", ArgvNormalized: []string{"node"}}}) + "\n" +
		`{"id":"x","timestamp":1,"run_id":"r","type":"tool_call","data":{}}`

	sig, err := Build(strings.NewReader(log), Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if sig.Meta.Adapter != model.AdapterOpenClawNode {
		t.Errorf("expected openclaw+node-hook adapter, got %q", sig.Meta.Adapter)
	}
}

func TestBuild_TolerantOfMalformedLines(t *testing.T) {
	log := strings.Join([]string{
		`not json at all`,
		eventLine(t, model.EffectPayload{Category: model.CategoryFSWrite, FS: &model.FSEffectData{PathResolved: "a.txt", IsWorkspaceLocal: true}}),
		`{"id":"x","timestamp":1,"run_id":"r"}`, // missing type
		`{"id":"trunc`,                          // truncated trailing line
	}, "\n")

	sig, err := Build(strings.NewReader(log), Options{})
	if err != nil {
		t.Fatalf("Build should tolerate malformed lines, got error: %v", err)
	}
	if len(sig.Effects.FSWrites) != 1 || sig.Effects.FSWrites[0] != "a.txt" {
		t.Errorf("fs_writes = %v", sig.Effects.FSWrites)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	log := strings.Join([]string{
		eventLine(t, model.EffectPayload{Category: model.CategoryFSWrite, FS: &model.FSEffectData{PathResolved: "z.txt", IsWorkspaceLocal: true}}),
		eventLine(t, model.EffectPayload{Category: model.CategoryFSWrite, FS: &model.FSEffectData{PathResolved: "a.txt", IsWorkspaceLocal: true}}),
	}, "\n")

	sig1, _ := Build(strings.NewReader(log), Options{})
	sig2, _ := Build(strings.NewReader(log), Options{})
	if len(sig1.Effects.FSWrites) != 2 || sig1.Effects.FSWrites[0] != "a.txt" {
		t.Fatalf("expected sorted output, got %v", sig1.Effects.FSWrites)
	}
	if sig1.Effects.FSWrites[0] != sig2.Effects.FSWrites[0] {
		t.Errorf("non-deterministic output")
	}
}

func eventLine(t *testing.T, payload model.EffectPayload) string {
	t.Helper()
	ev, err := model.NewEvent("r1", model.EventEffect, payload, nil)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return string(data)
}

func intPtr(i int) *int { return &i }
