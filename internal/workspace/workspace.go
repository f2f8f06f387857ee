// Package workspace resolves the outermost directory a test binary needs to
// see: the cargo workspace root, or an approximation of it found by walking
// up from the package manifest.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brandonbloom/wasirun/internal/cargo"
	toml "github.com/pelletier/go-toml/v2"
)

var (
	// ErrMetadataUnavailable indicates the metadata provider could not name a root.
	ErrMetadataUnavailable = errors.New("workspace metadata unavailable")
	// ErrMarkerNotFound indicates no ancestor of the manifest directory holds the marker.
	ErrMarkerNotFound = errors.New("manifest marker not found")
)

// Resolver produces the absolute root directory to preopen.
type Resolver interface {
	Resolve() (string, error)
}

// MetadataResolver asks the build tool for the workspace root.
type MetadataResolver struct {
	Query func() ([]byte, error)
}

func (r MetadataResolver) Resolve() (string, error) {
	out, err := r.Query()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMetadataUnavailable, err)
	}
	root, err := cargo.WorkspaceRoot(out)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMetadataUnavailable, err)
	}
	return root, nil
}

// DirectoryProbe reports whether a path exists.
type DirectoryProbe interface {
	Exists(path string) bool
}

// ManifestReader returns the contents of a manifest file.
type ManifestReader interface {
	ReadManifest(path string) ([]byte, error)
}

// FS is the filesystem view the manifest walk needs.
type FS interface {
	DirectoryProbe
	ManifestReader
}

// OSFS reads the host filesystem.
type OSFS struct{}

func (OSFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFS) ReadManifest(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Policy chooses a root among the manifests found above the start directory.
type Policy string

const (
	// PolicyOutermost takes the outermost directory holding a marker. It does
	// not tell a workspace manifest from an unrelated package manifest above
	// the workspace, so a stray Cargo.toml in a parent directory wins.
	PolicyOutermost Policy = "outermost"
	// PolicyDeclared reads the manifests: an explicit package.workspace key,
	// then the nearest [workspace] table, then the nearest manifest.
	PolicyDeclared Policy = "declared"
)

// ManifestWalker approximates the workspace root without a metadata provider.
type ManifestWalker struct {
	// Start is the package manifest directory; StartVar names where it came
	// from for error messages.
	Start    string
	StartVar string
	Marker   string
	Policy   Policy
	FS       FS
}

// Markers lists every marker file from Start up to the filesystem root,
// nearest first.
func (w ManifestWalker) Markers() ([]string, error) {
	if w.Start == "" {
		name := w.StartVar
		if name == "" {
			name = "manifest directory"
		}
		return nil, fmt.Errorf("%w: %s is not set", ErrMarkerNotFound, name)
	}
	cur, err := filepath.Abs(w.Start)
	if err != nil {
		return nil, err
	}
	var found []string
	for {
		candidate := filepath.Join(cur, w.Marker)
		if w.FS.Exists(candidate) {
			found = append(found, candidate)
		}
		next := filepath.Dir(cur)
		if next == cur {
			break
		}
		cur = next
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: no %s at or above %s", ErrMarkerNotFound, w.Marker, w.Start)
	}
	return found, nil
}

func (w ManifestWalker) Resolve() (string, error) {
	markers, err := w.Markers()
	if err != nil {
		return "", err
	}
	switch w.Policy {
	case PolicyDeclared:
		return w.declaredRoot(markers)
	case PolicyOutermost, "":
		return filepath.Dir(markers[len(markers)-1]), nil
	default:
		return "", fmt.Errorf("unknown root policy %q", w.Policy)
	}
}

type manifestInfo struct {
	hasWorkspace      bool
	declaredWorkspace string
}

func (w ManifestWalker) readManifest(path string) (manifestInfo, error) {
	data, err := w.FS.ReadManifest(path)
	if err != nil {
		return manifestInfo{}, fmt.Errorf("%w: %w", ErrMarkerNotFound, err)
	}
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return manifestInfo{}, fmt.Errorf("%w: parse %s: %w", ErrMarkerNotFound, path, err)
	}
	var info manifestInfo
	_, info.hasWorkspace = doc["workspace"]
	if pkg, ok := doc["package"].(map[string]any); ok {
		if ws, ok := pkg["workspace"].(string); ok {
			info.declaredWorkspace = ws
		}
	}
	return info, nil
}

func (w ManifestWalker) declaredRoot(markers []string) (string, error) {
	nearest, err := w.readManifest(markers[0])
	if err != nil {
		return "", err
	}
	if nearest.declaredWorkspace != "" {
		dir := filepath.Dir(markers[0])
		if filepath.IsAbs(nearest.declaredWorkspace) {
			return filepath.Clean(nearest.declaredWorkspace), nil
		}
		return filepath.Join(dir, nearest.declaredWorkspace), nil
	}
	if nearest.hasWorkspace {
		return filepath.Dir(markers[0]), nil
	}
	for _, marker := range markers[1:] {
		info, err := w.readManifest(marker)
		if err != nil {
			return "", err
		}
		if info.hasWorkspace {
			return filepath.Dir(marker), nil
		}
	}
	return filepath.Dir(markers[0]), nil
}
