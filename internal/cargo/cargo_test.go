package cargo

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestWorkspaceRoot(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		want    string
		wantErr error
	}{
		{
			name: "typical",
			data: `{"packages":[],"workspace_members":[],"target_directory":"/ws/target","version":1,"workspace_root":"/ws","metadata":null}`,
			want: "/ws",
		},
		{
			name: "uncleaned",
			data: `{"workspace_root":"/ws/crates/../"}`,
			want: "/ws",
		},
		{
			name:    "empty",
			data:    "  \n",
			wantErr: ErrEmptyOutput,
		},
		{
			name:    "missingField",
			data:    `{"target_directory":"/ws/target"}`,
			wantErr: ErrNoWorkspaceRoot,
		},
		{
			name:    "relativeRoot",
			data:    `{"workspace_root":"ws"}`,
			wantErr: ErrNoWorkspaceRoot,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := WorkspaceRoot([]byte(tc.data))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("WorkspaceRoot error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("WorkspaceRoot error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("WorkspaceRoot = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWorkspaceRootMalformed(t *testing.T) {
	_, err := WorkspaceRoot([]byte("warning: something\n{"))
	if err == nil || !strings.Contains(err.Error(), "parse metadata") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skipf("sh not found: %v", err)
	}
	path := filepath.Join(t.TempDir(), "fake-cargo")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMetadataRunsInDir(t *testing.T) {
	script := writeScript(t, `printf '{"workspace_root":"%s","args":"%s"}' "$(pwd -P)" "$*"`)
	dir := t.TempDir()
	out, err := Metadata(dir, script)
	if err != nil {
		t.Fatalf("Metadata error: %v", err)
	}
	root, err := WorkspaceRoot(out)
	if err != nil {
		t.Fatalf("WorkspaceRoot error: %v (%s)", err, out)
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	if root != dir && root != resolved {
		t.Fatalf("root = %q, want %q", root, dir)
	}
	if !strings.Contains(string(out), "metadata --format-version 1 --no-deps") {
		t.Fatalf("unexpected args in %s", out)
	}
}

func TestRunIncludesStderrOnFailure(t *testing.T) {
	script := writeScript(t, "echo 'could not find Cargo.toml' >&2\nexit 101\n")
	_, err := Run(t.TempDir(), script, "metadata")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "could not find Cargo.toml") {
		t.Fatalf("error %q lacks stderr", err)
	}
}
