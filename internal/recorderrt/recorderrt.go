// Package recorderrt implements the Recorder Runtime (C5): environment-
// variable-gated startup, writer/patcher wiring, lifecycle event emission,
// and idempotent termination handling, per §4.5.
package recorderrt

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/agentci/agentci/internal/enforce"
	"github.com/agentci/agentci/internal/model"
	"github.com/agentci/agentci/internal/patch"
	"github.com/agentci/agentci/internal/policyconfig"
	"github.com/agentci/agentci/internal/runstore"
	"github.com/agentci/agentci/internal/trace"
)

// Environment variable names, per §6's "<TOOL>_*" convention with
// TOOL=AGENTCI.
const (
	EnvRunDir        = "AGENTCI_RUN_DIR"
	EnvRunID         = "AGENTCI_RUN_ID"
	EnvWorkspaceRoot = "AGENTCI_WORKSPACE_ROOT"
	EnvConfigPath    = "AGENTCI_CONFIG_PATH"
	EnvEnforce       = "AGENTCI_ENFORCE"
	EnvDebug         = "AGENTCI_DEBUG"
	EnvVersion       = "AGENTCI_VERSION"
)

// State is the recorder's lifecycle state machine (§4.5): transitions only
// move forward, and anything past Stopped is a no-op.
type State int32

const (
	StateUninitialized State = iota
	StateReady
	StateStopping
	StateStopped
)

// Runtime owns the writer, the patch facade, and the lifecycle state for
// one recorded run.
type Runtime struct {
	RunDir        string
	RunID         string
	WorkspaceRoot string
	ConfigPath    string
	Enforce       bool
	Debug         bool
	ToolVersion   string

	Config policyconfig.Config

	writer  *trace.Writer
	Patcher *patch.Patcher

	state     atomic.Int32
	startedAt time.Time
	stopOnce  sync.Once
	signals   chan os.Signal
	log       *slog.Logger
}

// FromEnv reads the recorder's env-var contract (§6). Returns (nil, nil)
// when AGENTCI_RUN_DIR is unset — recording is simply not active for this
// process. Returns an error when the run-dir var is present but the other
// required vars are missing.
func FromEnv() (*Runtime, error) {
	runDir := os.Getenv(EnvRunDir)
	if runDir == "" {
		return nil, nil
	}
	runID := os.Getenv(EnvRunID)
	if runID == "" {
		return nil, fmt.Errorf("recorderrt: %s is required when %s is set", EnvRunID, EnvRunDir)
	}
	workspaceRoot := os.Getenv(EnvWorkspaceRoot)
	if workspaceRoot == "" {
		return nil, fmt.Errorf("recorderrt: %s is required when %s is set", EnvWorkspaceRoot, EnvRunDir)
	}
	if !runstore.ValidRunID(runID) {
		return nil, fmt.Errorf("recorderrt: %s is not a valid run id", EnvRunID)
	}

	debug := os.Getenv(EnvDebug) == "1"
	return &Runtime{
		RunDir:        runDir,
		RunID:         runID,
		WorkspaceRoot: workspaceRoot,
		ConfigPath:    os.Getenv(EnvConfigPath),
		Enforce:       parseBool(os.Getenv(EnvEnforce)),
		Debug:         debug,
		ToolVersion:   os.Getenv(EnvVersion),
		log:           newLogger(debug),
	}, nil
}

func parseBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return v == "1" || b
}

// newLogger builds the recorder's diagnostic logger: a text handler on
// stderr, silent by default (above LevelError) unless AGENTCI_DEBUG=1, per
// the recorder's fail-open, opt-in-verbosity posture.
func newLogger(debug bool) *slog.Logger {
	level := slog.Level(100)
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Start loads the policy config, opens the trace writer, builds the patch
// facade, emits lifecycle:start, and registers termination handlers. Only
// valid from StateUninitialized.
func (r *Runtime) Start() error {
	if State(r.state.Load()) != StateUninitialized {
		return fmt.Errorf("recorderrt: Start called out of order")
	}

	cfg, err := policyconfig.Load(r.ConfigPath, r.WorkspaceRoot)
	if err != nil {
		return fmt.Errorf("load policy config: %w", err)
	}
	r.Config = cfg
	r.debugLog("loaded policy config from %s", r.ConfigPath)

	tracePath := r.RunDir + string(os.PathSeparator) + "trace.jsonl"
	writer, err := trace.New(tracePath, trace.Options{})
	if err != nil {
		return fmt.Errorf("open trace writer: %w", err)
	}
	r.writer = writer

	r.startedAt = time.Now()
	startEvent, err := model.NewEvent(r.RunID, model.EventLifecycle, model.LifecyclePayload{
		Stage:    model.StageStart,
		Version:  r.ToolVersion,
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}, nil)
	if err == nil {
		r.writer.Write(startEvent)
	}

	var enforcer patch.Enforcer
	if r.Enforce {
		enforcer = enforce.New(cfg)
		r.debugLog("enforcement enabled")
	}

	r.Patcher = patch.New(r.writer, r.RunID, r.WorkspaceRoot, cfg.NormalizeConfig(), patch.SensitiveConfig{
		BlockFileGlobs: cfg.Policy.Sensitive.BlockFileGlobs,
		BlockEnv:       cfg.Policy.Sensitive.BlockEnv,
	}, enforcer)

	r.registerTerminationHandlers()
	r.state.Store(int32(StateReady))
	r.debugLog("recorder ready")
	return nil
}

// State returns the runtime's current lifecycle state.
func (r *Runtime) State() State {
	return State(r.state.Load())
}

// registerTerminationHandlers wires the process-exit path (signals) to Stop.
// A Go host's "uncaught exception"/"unhandled rejection" equivalent is a
// panic; callers should defer r.RecoverAndStop() in main so an unrecovered
// panic still emits lifecycle:error + lifecycle:stop before the process
// dies.
func (r *Runtime) registerTerminationHandlers() {
	r.signals = make(chan os.Signal, 1)
	signal.Notify(r.signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if _, ok := <-r.signals; ok {
			r.Stop(1, "")
			os.Exit(1)
		}
	}()
}

// RecoverAndStop is meant to be deferred in the host's main function. If a
// panic is in flight it records lifecycle:error with exit_code=1, stops the
// runtime, then re-exits with status 1 so the process still terminates
// abnormally — recording a crash must never mask the crash itself.
func (r *Runtime) RecoverAndStop() {
	if rec := recover(); rec != nil {
		r.emitError(fmt.Sprintf("%v", rec))
		r.Stop(1, fmt.Sprintf("%v", rec))
		os.Exit(1)
	}
	r.Stop(0, "")
}

func (r *Runtime) emitError(message string) {
	if r.writer == nil {
		return
	}
	ev, err := model.NewEvent(r.RunID, model.EventLifecycle, model.LifecyclePayload{
		Stage: model.StageError,
		Error: message,
	}, nil)
	if err == nil {
		r.writer.Write(ev)
	}
}

// Stop transitions STOPPING -> STOPPED exactly once, writing lifecycle:stop
// with the exit code and run duration, then closing the writer. Any call
// after the first is a no-op, matching §4.5's idempotent termination
// handler requirement.
func (r *Runtime) Stop(exitCode int, errMsg string) {
	r.stopOnce.Do(func() {
		r.state.Store(int32(StateStopping))
		if r.signals != nil {
			signal.Stop(r.signals)
			close(r.signals)
		}

		if r.writer != nil {
			duration := time.Since(r.startedAt).Milliseconds()
			code := exitCode
			payload := model.LifecyclePayload{
				Stage:    model.StageStop,
				ExitCode: &code,
				Duration: &duration,
			}
			if errMsg != "" {
				payload.Error = errMsg
			}
			ev, err := model.NewEvent(r.RunID, model.EventLifecycle, payload, nil)
			if err == nil {
				r.writer.Write(ev)
			}
			r.writer.Close()
		}
		r.state.Store(int32(StateStopped))
	})
}

func (r *Runtime) debugLog(format string, args ...any) {
	if r.log == nil {
		r.log = newLogger(r.Debug)
	}
	r.log.Debug(fmt.Sprintf(format, args...))
}
