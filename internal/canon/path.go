// Package canon implements the Canonicalizer (C1): path resolution and
// workspace-local projection, host canonicalization and eTLD+1 extraction,
// and command basename extraction. It is the one package every other
// component that touches a raw path, host, or command string goes through
// first, so the same path or host always canonicalizes the same way
// regardless of which patch emitted it.
package canon

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolvedPath is the result of resolving an input path against a workspace
// root, mirroring §4.1 of the specification.
type ResolvedPath struct {
	RequestedAbs     string
	ResolvedAbs      string
	IsWorkspaceLocal bool
	IsSymlinkEscape  bool
}

// safeRealpath resolves symlinks in the longest existing prefix of p and
// rejoins any trailing components that do not yet exist on disk (Go's
// filepath.EvalSymlinks requires the full path to exist; a write to a
// not-yet-created file under a symlinked directory must still canonicalize
// the existing directory portion).
func safeRealpath(p string) (string, bool) {
	if real, err := filepath.EvalSymlinks(p); err == nil {
		return real, true
	}

	dir := filepath.Dir(p)
	base := filepath.Base(p)
	if dir == p {
		return "", false
	}
	if realDir, ok := safeRealpath(dir); ok {
		return filepath.Join(realDir, base), true
	}
	return "", false
}

// isSubpath reports whether target lies at or under root.
func isSubpath(target, root string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// ResolvePathBestEffort implements §4.1's path resolution algorithm.
func ResolvePathBestEffort(inputPath, workspaceRoot string) ResolvedPath {
	workspaceOriginal, err := filepath.Abs(workspaceRoot)
	if err != nil {
		workspaceOriginal = workspaceRoot
	}
	workspaceReal, ok := safeRealpath(workspaceRoot)
	if !ok {
		workspaceReal = workspaceOriginal
	}

	requestedAbs, err := filepath.Abs(inputPath)
	if err != nil {
		requestedAbs = inputPath
	}
	resolvedAbs, ok := safeRealpath(requestedAbs)
	if !ok {
		resolvedAbs = requestedAbs
	}

	requestedInside := isSubpath(requestedAbs, workspaceReal) || isSubpath(requestedAbs, workspaceOriginal)
	resolvedInside := isSubpath(resolvedAbs, workspaceReal) || isSubpath(resolvedAbs, workspaceOriginal)

	return ResolvedPath{
		RequestedAbs:     requestedAbs,
		ResolvedAbs:      resolvedAbs,
		IsWorkspaceLocal: resolvedInside || requestedInside,
		IsSymlinkEscape:  requestedInside && !resolvedInside,
	}
}

// ToWorkspacePath projects a resolved absolute path onto the workspace root:
// returns the workspace-relative form when it lies under the root (real or
// original), otherwise the resolved absolute path with isExternal=true.
func ToWorkspacePath(resolvedAbs, workspaceRoot string) (value string, isExternal bool) {
	workspaceOriginal, err := filepath.Abs(workspaceRoot)
	if err != nil {
		workspaceOriginal = workspaceRoot
	}
	workspaceReal, ok := safeRealpath(workspaceRoot)
	if !ok {
		workspaceReal = workspaceOriginal
	}

	if isSubpath(resolvedAbs, workspaceReal) {
		if rel, err := filepath.Rel(workspaceReal, resolvedAbs); err == nil {
			return filepath.ToSlash(rel), false
		}
	}
	if isSubpath(resolvedAbs, workspaceOriginal) {
		if rel, err := filepath.Rel(workspaceOriginal, resolvedAbs); err == nil {
			return filepath.ToSlash(rel), false
		}
	}
	return resolvedAbs, true
}

// CommandBasename returns the final path component of a command string.
func CommandBasename(command string) string {
	if command == "" {
		return command
	}
	base := filepath.Base(filepath.FromSlash(command))
	if base == "." || base == string(filepath.Separator) {
		return command
	}
	return base
}

// AgentCIRootFor returns the absolute path of the recorder's own reserved
// directory (<workspace>/.agentci), computed once and cached by callers
// (patches skip emitting any effect whose resolved path falls under it).
func AgentCIRootFor(workspaceRoot string) string {
	abs, err := filepath.Abs(workspaceRoot)
	if err != nil {
		abs = workspaceRoot
	}
	if real, ok := safeRealpath(abs); ok {
		abs = real
	}
	return filepath.Join(abs, ".agentci")
}

// IsUnderAgentCIRoot reports whether resolvedAbs falls under the cached
// .agentci root (or its realpath), so the recorder never logs its own I/O.
func IsUnderAgentCIRoot(resolvedAbs, agentciRoot string) bool {
	if real, ok := safeRealpath(resolvedAbs); ok {
		if isSubpath(real, agentciRoot) {
			return true
		}
	}
	return isSubpath(resolvedAbs, agentciRoot)
}

// homeDir caches os.UserHomeDir for ExpandHome.
func homeDir() string {
	h, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return h
}

// ExpandHome expands a leading "~" or "~/..." to the user's home directory.
func ExpandHome(p string) string {
	if p == "~" {
		return homeDir()
	}
	if strings.HasPrefix(p, "~/") {
		h := homeDir()
		if h == "" {
			return p
		}
		return filepath.Join(h, p[2:])
	}
	return p
}
