package runstore

import (
	"time"

	"github.com/agentci/agentci/internal/model"
)

// BaselineMeta is the sidecar recorded alongside baseline.json: who/when a
// baseline was set, so `baseline set` output and `diff` can explain drift
// against a human-meaningful reference.
type BaselineMeta struct {
	SetAt  string `json:"set_at"`
	RunID  string `json:"run_id"`
	Reason string `json:"reason,omitempty"`
}

// WriteBaseline atomically writes the baseline signature and its metadata
// sidecar for s's project.
func (s *Store) WriteBaseline(sig model.Signature, runID, reason string) error {
	if err := WriteJSON(s.BaselinePath(), sig); err != nil {
		return err
	}
	meta := BaselineMeta{
		SetAt:  time.Now().UTC().Format(time.RFC3339),
		RunID:  runID,
		Reason: reason,
	}
	return WriteJSON(s.BaselineMetaPath(), meta)
}

// ReadBaseline loads the project's baseline signature. Returns (nil, false,
// nil) when no baseline has been set yet.
func (s *Store) ReadBaseline() (*model.Signature, bool, error) {
	if !Exists(s.BaselinePath()) {
		return nil, false, nil
	}
	var sig model.Signature
	if err := ReadJSON(s.BaselinePath(), &sig); err != nil {
		return nil, false, err
	}
	return &sig, true, nil
}

// ReadBaselineMeta loads the baseline metadata sidecar, if present.
func (s *Store) ReadBaselineMeta() (*BaselineMeta, bool, error) {
	if !Exists(s.BaselineMetaPath()) {
		return nil, false, nil
	}
	var meta BaselineMeta
	if err := ReadJSON(s.BaselineMetaPath(), &meta); err != nil {
		return nil, false, err
	}
	return &meta, true, nil
}
