// Package runstore implements the on-disk .agentci layout (§6): run ID
// generation, run directory resolution, and atomic read/write helpers for
// every file a run produces (trace, signature, findings, checksums,
// metadata, attestation) plus the project-level baseline and secret.
package runstore

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

const (
	// RootDirName is the recorder's reserved directory under a workspace.
	RootDirName = ".agentci"

	dirMode     = 0o700
	fileMode    = 0o600
	runsSubdir  = "runs"
	configFile  = "config.yaml"
	secretFile  = "secret"

	traceFile         = "trace.jsonl"
	traceChecksum     = "trace.checksum"
	signatureFile     = "signature.json"
	signatureChecksum = "signature.checksum"
	findingsFile      = "findings.json"
	attestationFile   = "attestation.json"
	metadataFile      = "metadata.json"
	reportFile        = "report.html"

	baselineFile         = "baseline.json"
	baselineMetaFile     = "baseline.meta.json"
	baselineChecksumFile = "baseline.checksum"
)

// runIDPattern validates both freshly generated and externally supplied run
// IDs before they are ever joined into a filesystem path.
var runIDPattern = regexp.MustCompile(`^[\w.:-]+$`)

// NewRunID generates a run ID of the form "<unix_millis>-<hex12>".
func NewRunID() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), hex.EncodeToString(buf)), nil
}

// ValidRunID reports whether id is safe to use as a path component: non-empty
// and matching the conventional run ID character class.
func ValidRunID(id string) bool {
	return id != "" && runIDPattern.MatchString(id)
}

// Store roots every .agentci path helper at a single workspace.
type Store struct {
	WorkspaceRoot string
}

// New returns a Store rooted at workspaceRoot's .agentci directory.
func New(workspaceRoot string) *Store {
	return &Store{WorkspaceRoot: workspaceRoot}
}

// Root returns the absolute path to <workspace>/.agentci.
func (s *Store) Root() string {
	return filepath.Join(s.WorkspaceRoot, RootDirName)
}

// ConfigPath returns the path to the project's config.yaml.
func (s *Store) ConfigPath() string { return filepath.Join(s.Root(), configFile) }

// SecretPath returns the path to the project's HMAC secret file.
func (s *Store) SecretPath() string { return filepath.Join(s.Root(), secretFile) }

// BaselinePath returns the path to the project's recorded baseline signature.
func (s *Store) BaselinePath() string { return filepath.Join(s.Root(), baselineFile) }

// BaselineMetaPath returns the path to the baseline's metadata sidecar.
func (s *Store) BaselineMetaPath() string { return filepath.Join(s.Root(), baselineMetaFile) }

// BaselineChecksumPath returns the path to the baseline's integrity checksum.
func (s *Store) BaselineChecksumPath() string {
	return filepath.Join(s.Root(), baselineChecksumFile)
}

// RunsDir returns the directory holding every run's subdirectory.
func (s *Store) RunsDir() string { return filepath.Join(s.Root(), runsSubdir) }

// RunDir returns the subdirectory for a single run. Callers must validate
// runID with ValidRunID before calling this if it came from untrusted input.
func (s *Store) RunDir(runID string) string { return filepath.Join(s.RunsDir(), runID) }

func (s *Store) runFile(runID, name string) string { return filepath.Join(s.RunDir(runID), name) }

func (s *Store) TracePath(runID string) string         { return s.runFile(runID, traceFile) }
func (s *Store) TraceChecksumPath(runID string) string  { return s.runFile(runID, traceChecksum) }
func (s *Store) SignaturePath(runID string) string      { return s.runFile(runID, signatureFile) }
func (s *Store) SignatureChecksumPath(runID string) string {
	return s.runFile(runID, signatureChecksum)
}
func (s *Store) FindingsPath(runID string) string    { return s.runFile(runID, findingsFile) }
func (s *Store) AttestationPath(runID string) string { return s.runFile(runID, attestationFile) }
func (s *Store) MetadataPath(runID string) string    { return s.runFile(runID, metadataFile) }
func (s *Store) ReportPath(runID string) string      { return s.runFile(runID, reportFile) }

// EnsureRunDir creates the run's directory (and .agentci/runs above it) with
// owner-only permissions.
func (s *Store) EnsureRunDir(runID string) error {
	return os.MkdirAll(s.RunDir(runID), dirMode)
}

// EnsureRoot creates the .agentci directory itself.
func (s *Store) EnsureRoot() error {
	return os.MkdirAll(s.Root(), dirMode)
}

// WriteJSON marshals v and atomically writes it to path: write to a sibling
// temp file, fsync, then rename over the destination, so a crash mid-write
// never leaves a truncated file in place.
func WriteJSON(path string, v any) error {
	return atomicWrite(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// ReadJSON reads and unmarshals the file at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Exists reports whether a file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// atomicWrite writes to a temp file in the destination's directory, syncs
// it, then renames it into place.
func atomicWrite(path string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := writeFunc(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write content: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename to final: %w", err)
	}
	success = true
	return nil
}

// ParseRunIDTimestamp extracts the millisecond timestamp embedded in a
// generated run ID, for display/sorting purposes. Returns false if id was
// not produced by NewRunID's format.
func ParseRunIDTimestamp(id string) (time.Time, bool) {
	for i := 0; i < len(id); i++ {
		if id[i] == '-' {
			ms, err := strconv.ParseInt(id[:i], 10, 64)
			if err != nil {
				return time.Time{}, false
			}
			return time.UnixMilli(ms), true
		}
	}
	return time.Time{}, false
}
