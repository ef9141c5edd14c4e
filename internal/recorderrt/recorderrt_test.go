package recorderrt

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentci/agentci/internal/model"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvRunDir, EnvRunID, EnvWorkspaceRoot, EnvConfigPath, EnvEnforce, EnvDebug, EnvVersion} {
		os.Unsetenv(k)
	}
}

func TestFromEnv_AbsentRunDirReturnsNil(t *testing.T) {
	clearEnv(t)
	rt, err := FromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rt != nil {
		t.Errorf("expected nil runtime when %s unset", EnvRunDir)
	}
}

func TestFromEnv_MissingRunIDErrors(t *testing.T) {
	clearEnv(t)
	os.Setenv(EnvRunDir, t.TempDir())
	defer clearEnv(t)

	if _, err := FromEnv(); err == nil {
		t.Error("expected an error when run id is missing")
	}
}

func TestFromEnv_InvalidRunIDErrors(t *testing.T) {
	clearEnv(t)
	os.Setenv(EnvRunDir, t.TempDir())
	os.Setenv(EnvRunID, "../escape")
	os.Setenv(EnvWorkspaceRoot, t.TempDir())
	defer clearEnv(t)

	if _, err := FromEnv(); err == nil {
		t.Error("expected an error for an invalid run id")
	}
}

func TestFromEnv_ValidEnvironment(t *testing.T) {
	clearEnv(t)
	workspace := t.TempDir()
	os.Setenv(EnvRunDir, filepath.Join(workspace, ".agentci", "runs", "run-1"))
	os.Setenv(EnvRunID, "run-1")
	os.Setenv(EnvWorkspaceRoot, workspace)
	os.Setenv(EnvEnforce, "1")
	os.Setenv(EnvDebug, "1")
	os.Setenv(EnvVersion, "1.2.3")
	defer clearEnv(t)

	rt, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if rt == nil {
		t.Fatal("expected a non-nil runtime")
	}
	if !rt.Enforce || !rt.Debug || rt.ToolVersion != "1.2.3" {
		t.Errorf("unexpected flags: %+v", rt)
	}
}

func TestRuntime_StartEmitsLifecycleStartAndInstallsPatcher(t *testing.T) {
	workspace := t.TempDir()
	runDir := filepath.Join(workspace, ".agentci", "runs", "run-1")

	rt := &Runtime{RunDir: runDir, RunID: "run-1", WorkspaceRoot: workspace}
	if err := rt.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer rt.Stop(0, "")

	if rt.State() != StateReady {
		t.Errorf("expected StateReady, got %v", rt.State())
	}
	if rt.Patcher == nil {
		t.Error("expected a non-nil Patcher after Start")
	}

	lines := readTraceLines(t, filepath.Join(runDir, "trace.jsonl"))
	if len(lines) != 1 {
		t.Fatalf("expected 1 lifecycle event, got %d", len(lines))
	}
	var payload model.LifecyclePayload
	if err := json.Unmarshal(lines[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal lifecycle payload: %v", err)
	}
	if payload.Stage != model.StageStart {
		t.Errorf("expected stage=start, got %s", payload.Stage)
	}
}

func TestRuntime_StopIsIdempotentAndWritesStopEvent(t *testing.T) {
	workspace := t.TempDir()
	runDir := filepath.Join(workspace, ".agentci", "runs", "run-1")
	rt := &Runtime{RunDir: runDir, RunID: "run-1", WorkspaceRoot: workspace}
	if err := rt.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	rt.Stop(0, "")
	rt.Stop(0, "") // second call must be a no-op

	if rt.State() != StateStopped {
		t.Errorf("expected StateStopped, got %v", rt.State())
	}

	lines := readTraceLines(t, filepath.Join(runDir, "trace.jsonl"))
	if len(lines) != 2 {
		t.Fatalf("expected exactly 2 events (start, stop), got %d", len(lines))
	}
	var payload model.LifecyclePayload
	if err := json.Unmarshal(lines[1].Data, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Stage != model.StageStop || payload.ExitCode == nil || *payload.ExitCode != 0 {
		t.Errorf("unexpected stop payload: %+v", payload)
	}
}

func TestRuntime_RecoverAndStopWithoutPanicStopsCleanly(t *testing.T) {
	workspace := t.TempDir()
	runDir := filepath.Join(workspace, ".agentci", "runs", "run-1")
	rt := &Runtime{RunDir: runDir, RunID: "run-1", WorkspaceRoot: workspace}
	if err := rt.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	func() {
		defer rt.RecoverAndStop()
	}()

	if rt.State() != StateStopped {
		t.Errorf("expected StateStopped, got %v", rt.State())
	}
}

func readTraceLines(t *testing.T, path string) []model.TraceEvent {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open trace: %v", err)
	}
	defer f.Close()

	var events []model.TraceEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev model.TraceEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("unmarshal trace line: %v", err)
		}
		events = append(events, ev)
	}
	return events
}
