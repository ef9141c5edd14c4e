// Package model defines the wire types shared across the recording and
// offline-analysis halves of AgentCI: trace events, effect payloads, the
// canonical effect signature, policy findings, and diff results.
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType discriminates the four kinds of line that can appear in a trace.
type EventType string

const (
	EventLifecycle EventType = "lifecycle"
	EventEffect    EventType = "effect"
	EventToolCall  EventType = "tool_call"
	EventToolResult EventType = "tool_result"
)

// TraceEvent is one JSONL line in a run's trace.jsonl.
type TraceEvent struct {
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"` // milliseconds since epoch
	RunID     string          `json:"run_id"`
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
}

// NewEvent marshals payload into Data and stamps a fresh ID and timestamp.
// Returns an error only if payload cannot be marshaled to JSON; callers in
// the recording path treat that as unrecordable and drop the event.
func NewEvent(runID string, typ EventType, payload any, metadata map[string]any) (TraceEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return TraceEvent{}, err
	}
	return TraceEvent{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UnixMilli(),
		RunID:     runID,
		Type:      typ,
		Data:      raw,
		Metadata:  metadata,
	}, nil
}

// LifecycleStage enumerates the stage field of a lifecycle payload.
type LifecycleStage string

const (
	StageStart LifecycleStage = "start"
	StageStop  LifecycleStage = "stop"
	StageError LifecycleStage = "error"
)

// LifecyclePayload is the `data` shape for type=lifecycle events.
type LifecyclePayload struct {
	Stage    LifecycleStage `json:"stage"`
	Version  string         `json:"version,omitempty"`  // interpreter/runtime version, start only
	Platform string         `json:"platform,omitempty"` // start only
	ExitCode *int           `json:"exit_code,omitempty"`
	Duration *int64         `json:"duration_ms,omitempty"`
	Error    string         `json:"error,omitempty"` // error stage only
}

// EffectCategory discriminates the union carried by an effect payload.
type EffectCategory string

const (
	CategoryFSWrite    EffectCategory = "fs_write"
	CategoryFSRead     EffectCategory = "fs_read"
	CategoryFSDelete   EffectCategory = "fs_delete"
	CategoryNetOutbound EffectCategory = "net_outbound"
	CategoryExec       EffectCategory = "exec"
	CategorySensitive  EffectCategory = "sensitive_access"
)

// EffectKind marks whether an effect was observed via interception, declared
// by an adapter (e.g. a tool-call log), or inferred from other evidence.
type EffectKind string

const (
	KindObserved EffectKind = "observed"
	KindDeclared EffectKind = "declared"
	KindInferred EffectKind = "inferred"
)

// FSEffectData is the fs-category payload shape.
type FSEffectData struct {
	PathRequested    string `json:"path_requested"`
	PathResolved     string `json:"path_resolved"`
	IsWorkspaceLocal bool   `json:"is_workspace_local"`
}

// NetEffectData is the net_outbound-category payload shape.
type NetEffectData struct {
	HostRaw       string `json:"host_raw"`
	HostETLDPlus1 string `json:"host_etld_plus_1"`
	Method        string `json:"method"`
	Protocol      string `json:"protocol"` // "http" | "https"
	Port          *int   `json:"port,omitempty"`
}

// ExecEffectData is the exec-category payload shape.
type ExecEffectData struct {
	CommandRaw     string   `json:"command_raw"`
	ArgvNormalized []string `json:"argv_normalized"`
}

// SensitiveEffectData is the sensitive_access-category payload shape.
type SensitiveEffectData struct {
	Type    string `json:"type"` // "env_var" | "file_read"
	KeyName string `json:"key_name,omitempty"`
}

// EffectPayload is the `data` shape for type=effect events: a discriminated
// union on Category, matching §3 exactly (only the field matching Category
// is populated).
type EffectPayload struct {
	Category  EffectCategory       `json:"category"`
	Kind      EffectKind           `json:"kind"`
	FS        *FSEffectData        `json:"fs,omitempty"`
	Net       *NetEffectData       `json:"net,omitempty"`
	Exec      *ExecEffectData      `json:"exec,omitempty"`
	Sensitive *SensitiveEffectData `json:"sensitive,omitempty"`
}
