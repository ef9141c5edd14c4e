// Package integrity implements the Integrity Layer (C10): per-project
// secret lifecycle, HMAC-SHA256 over trace/signature files, and timing-safe
// verification with a legacy-key fallback, per §4.10.
package integrity

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	secretMode   = 0o600
	checksumMode = 0o600
	secretBytes  = 64
)

// KeySource identifies which key a checksum was computed with.
type KeySource string

const (
	KeySourceProjectSecret KeySource = "project-secret"
	KeySourceLegacy        KeySource = "legacy"
)

// Checksum is the JSON shape written alongside a target file.
type Checksum struct {
	Algorithm     string    `json:"algorithm"`
	HMAC          string    `json:"hmac"`
	TraceFile     string    `json:"trace_file,omitempty"`
	SignatureFile string    `json:"signature_file,omitempty"`
	RunID         string    `json:"run_id"`
	KeySource     KeySource `json:"key_source"`
	ComputedAt    string    `json:"computed_at"`
}

// GenerateSecret creates a new 64-byte hex-encoded secret and writes it to
// path with mode 0600. Returns the raw hex string.
func GenerateSecret(path string) (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	secret := hex.EncodeToString(buf)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(secret), secretMode); err != nil {
		return "", err
	}
	warnIfPermissive(path)
	return secret, nil
}

// LoadSecret reads the project secret from path. Returns ("", false, nil)
// when the file does not exist — callers fall back to the legacy key.
func LoadSecret(path string) (secret string, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	warnIfPermissive(path)
	return string(data), true, nil
}

// warnIfPermissive checks the secret file's mode and warns (never fails)
// when the filesystem cannot enforce owner-only permissions.
func warnIfPermissive(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.Mode().Perm()&0o077 != 0 {
		fmt.Fprintf(os.Stderr, "agentci: warning: %s has permissive mode %o; filesystem may not enforce 0600\n", path, info.Mode().Perm())
	}
}

// legacyKey derives the fallback key used when no project secret exists.
func legacyKey(runID string) string {
	return "agentci-legacy:" + runID
}

// Compute returns the hex-encoded HMAC-SHA256 of data under key.
func Compute(data []byte, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// WriteChecksum computes the HMAC over targetPath's exact byte contents and
// writes the adjacent checksum file at checksumPath. secret is the loaded
// project secret; pass "" with found=false to use the legacy key.
func WriteChecksum(targetPath, checksumPath, runID, secret string, haveSecret bool, isSignature bool) error {
	data, err := os.ReadFile(targetPath)
	if err != nil {
		return err
	}

	key := secret
	source := KeySourceProjectSecret
	if !haveSecret {
		key = legacyKey(runID)
		source = KeySourceLegacy
	}

	cs := Checksum{
		Algorithm:  "hmac-sha256",
		HMAC:       Compute(data, key),
		RunID:      runID,
		KeySource:  source,
		ComputedAt: time.Now().UTC().Format(time.RFC3339),
	}
	base := filepath.Base(targetPath)
	if isSignature {
		cs.SignatureFile = base
	} else {
		cs.TraceFile = base
	}

	out, err := json.Marshal(cs)
	if err != nil {
		return err
	}
	return os.WriteFile(checksumPath, out, checksumMode)
}

// VerifyResult is the outcome of Verify.
type VerifyResult struct {
	Valid   bool
	Details string
}

// Verify parses the checksum file at checksumPath, recomputes the HMAC over
// targetPath's current contents, and compares using a timing-safe,
// length-equalized comparison. runID must match the checksum's recorded
// run_id. secret/haveSecret mirror WriteChecksum's key selection.
func Verify(targetPath, checksumPath, runID, secret string, haveSecret bool) (VerifyResult, error) {
	raw, err := os.ReadFile(checksumPath)
	if err != nil {
		return VerifyResult{}, err
	}
	var cs Checksum
	if err := json.Unmarshal(raw, &cs); err != nil {
		return VerifyResult{Valid: false, Details: "checksum file is malformed"}, nil
	}
	if cs.RunID != runID {
		return VerifyResult{Valid: false, Details: "run_id mismatch"}, nil
	}

	data, err := os.ReadFile(targetPath)
	if err != nil {
		return VerifyResult{}, err
	}

	key := secret
	source := KeySourceProjectSecret
	if !haveSecret {
		key = legacyKey(runID)
		source = KeySourceLegacy
	}

	expected := Compute(data, key)
	if !timingSafeEqualHex(expected, cs.HMAC) {
		return VerifyResult{Valid: false, Details: fmt.Sprintf("content modified (key source: %s)", source)}, nil
	}
	return VerifyResult{Valid: true, Details: fmt.Sprintf("verified (key source: %s)", source)}, nil
}

// timingSafeEqualHex compares two hex-encoded digests without leaking
// length information through early-exit timing: a length mismatch performs
// a dummy constant-time compare of equal length before returning false.
func timingSafeEqualHex(a, b string) bool {
	ab, errA := hex.DecodeString(a)
	bb, errB := hex.DecodeString(b)
	if errA != nil || errB != nil {
		return false
	}
	if len(ab) != len(bb) {
		dummy := make([]byte, len(ab))
		subtle.ConstantTimeCompare(ab, dummy)
		return false
	}
	return subtle.ConstantTimeCompare(ab, bb) == 1
}
