package canon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePathBestEffort_WorkspaceLocal(t *testing.T) {
	root := t.TempDir()
	got := ResolvePathBestEffort(filepath.Join(root, "src", "a.ts"), root)
	if !got.IsWorkspaceLocal {
		t.Errorf("expected workspace-local path to be marked local, got %+v", got)
	}
	if got.IsSymlinkEscape {
		t.Errorf("expected no symlink escape for a plain local path")
	}
}

func TestResolvePathBestEffort_External(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	got := ResolvePathBestEffort(filepath.Join(outside, "secret.txt"), root)
	if got.IsWorkspaceLocal {
		t.Errorf("expected external path to not be workspace-local, got %+v", got)
	}
}

func TestResolvePathBestEffort_SymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(root, "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	got := ResolvePathBestEffort(filepath.Join(link, "file.txt"), root)
	if !got.IsSymlinkEscape {
		t.Errorf("expected symlink escape, got %+v", got)
	}
}

func TestToWorkspacePath(t *testing.T) {
	root := t.TempDir()
	rel, external := ToWorkspacePath(filepath.Join(root, "a", "b.go"), root)
	if external {
		t.Errorf("expected internal path, got external")
	}
	if rel != "a/b.go" {
		t.Errorf("expected a/b.go, got %q", rel)
	}

	abs, external := ToWorkspacePath("/etc/passwd", root)
	if !external {
		t.Errorf("expected /etc/passwd to be external")
	}
	if abs != "/etc/passwd" {
		t.Errorf("expected /etc/passwd unchanged, got %q", abs)
	}
}

func TestCommandBasename(t *testing.T) {
	cases := map[string]string{
		"/usr/bin/node":  "node",
		"node":           "node",
		"./scripts/a.sh": "a.sh",
		"":               "",
	}
	for in, want := range cases {
		if got := CommandBasename(in); got != want {
			t.Errorf("CommandBasename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	if got := ExpandHome("~/foo"); got != filepath.Join(home, "foo") {
		t.Errorf("ExpandHome(~/foo) = %q, want %q", got, filepath.Join(home, "foo"))
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandHome should leave absolute paths unchanged, got %q", got)
	}
}
