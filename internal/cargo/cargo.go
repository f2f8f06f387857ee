package cargo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// MetadataArgs is the read-only query passed to the provider.
var MetadataArgs = []string{"metadata", "--format-version", "1", "--no-deps"}

var (
	// ErrEmptyOutput indicates the provider succeeded but printed nothing.
	ErrEmptyOutput = errors.New("metadata output is empty")
	// ErrNoWorkspaceRoot indicates the metadata lacks an absolute workspace_root.
	ErrNoWorkspaceRoot = errors.New("metadata has no absolute workspace_root")
)

// Run executes program within dir and returns raw stdout.
func Run(dir, program string, args ...string) ([]byte, error) {
	cmd := exec.Command(program, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s %s: %v\n%s", program, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Metadata runs `<program> metadata` within dir.
func Metadata(dir, program string) ([]byte, error) {
	return Run(dir, program, MetadataArgs...)
}

// WorkspaceRoot extracts workspace_root from metadata JSON.
func WorkspaceRoot(data []byte) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", ErrEmptyOutput
	}
	var meta struct {
		WorkspaceRoot string `json:"workspace_root"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", fmt.Errorf("parse metadata: %w", err)
	}
	if meta.WorkspaceRoot == "" || !filepath.IsAbs(meta.WorkspaceRoot) {
		return "", ErrNoWorkspaceRoot
	}
	return filepath.Clean(meta.WorkspaceRoot), nil
}
