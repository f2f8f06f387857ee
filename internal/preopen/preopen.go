// Package preopen computes the wasmtime arguments that make a host workspace
// visible to a WASI guest.
//
// wasmtime is finicky about the preopen paths it accepts: `--dir ./..` fails
// while `--dir ..` works, and `--dir ../..` only works when `--dir ..` is also
// present. The builder therefore preopens every ancestor from the working
// directory up to the root instead of a single `--dir <root>`.
package preopen

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	DirFlag = "--dir"
	EnvFlag = "--env"

	DefaultSubcommand = "run"
)

var (
	// ErrRelativize indicates a path could not be expressed relative to another.
	ErrRelativize = errors.New("cannot relativize path")

	errNotAbsolute = errors.New("path is not absolute")
)

// RelativizeError reports the pair of paths that could not be related.
type RelativizeError struct {
	Base   string
	Target string
	Err    error
}

func (e *RelativizeError) Error() string {
	return fmt.Sprintf("relativize %s against %s: %v", e.Target, e.Base, e.Err)
}

func (e *RelativizeError) Unwrap() error { return e.Err }

func (e *RelativizeError) Is(target error) bool { return target == ErrRelativize }

// Relativize expresses target relative to base using only `..` and child
// segments. Equal paths yield exactly ".".
func Relativize(base, target string) (string, error) {
	if !filepath.IsAbs(base) || !filepath.IsAbs(target) {
		return "", &RelativizeError{Base: base, Target: target, Err: errNotAbsolute}
	}
	base = filepath.Clean(base)
	target = filepath.Clean(target)
	if base == target {
		return ".", nil
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", &RelativizeError{Base: base, Target: target, Err: err}
	}
	return rel, nil
}

// AncestorChain expands a relative path into every prefix, starting with ".".
// For "../.." it returns [".", "..", "../.."].
func AncestorChain(rel string) []string {
	chain := []string{"."}
	rel = filepath.Clean(rel)
	if rel == "." || rel == "" {
		return chain
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i := range parts {
		chain = append(chain, filepath.Join(parts[:i+1]...))
	}
	return chain
}

// Kind distinguishes the two flags a plan entry renders to.
type Kind int

const (
	KindDir Kind = iota
	KindEnv
)

// Origin values for plan entries not tied to an environment variable.
const (
	OriginAncestor = "ancestor"
	OriginForced   = "forced"
)

// Entry is one flag of the plan.
type Entry struct {
	Kind Kind

	// Name is the environment variable for KindEnv entries and for the
	// preopen emitted alongside one.
	Name string

	// Path is the guest-visible path, relative to the working directory.
	Path string

	// Host is the absolute host directory Path refers to.
	Host   string
	Origin string
}

// Args renders the entry as runtime flags.
func (e Entry) Args() []string {
	if e.Kind == KindEnv {
		return []string{EnvFlag, e.Name + "=" + e.Path}
	}
	return []string{DirFlag, e.Path}
}

// Request describes one invocation of the runner.
type Request struct {
	Root       string
	WorkDir    string
	Env        Environment
	Vars       []string
	Subcommand string
	Trailing   []string
}

// Plan is the structured form of the runtime argument vector.
type Plan struct {
	Subcommand string
	Root       string
	WorkDir    string
	Entries    []Entry
	Trailing   []string
}

// Build computes the plan for req. Unset or empty variables are skipped.
func Build(req Request) (*Plan, error) {
	toRoot, err := Relativize(req.WorkDir, req.Root)
	if err != nil {
		return nil, err
	}
	workDir := filepath.Clean(req.WorkDir)

	subcommand := req.Subcommand
	if subcommand == "" {
		subcommand = DefaultSubcommand
	}
	plan := &Plan{
		Subcommand: subcommand,
		Root:       filepath.Clean(req.Root),
		WorkDir:    workDir,
		Trailing:   append([]string(nil), req.Trailing...),
	}

	for _, p := range AncestorChain(toRoot) {
		plan.Entries = append(plan.Entries, Entry{
			Kind:   KindDir,
			Path:   p,
			Host:   filepath.Join(workDir, p),
			Origin: OriginAncestor,
		})
	}

	for _, name := range req.Vars {
		value, ok := req.Env.Lookup(name)
		if !ok || value == "" {
			continue
		}
		rel, err := Relativize(workDir, value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		host := filepath.Clean(value)
		plan.Entries = append(plan.Entries,
			Entry{Kind: KindEnv, Name: name, Path: rel, Host: host, Origin: name},
			Entry{Kind: KindDir, Name: name, Path: rel, Host: host, Origin: name},
		)
	}

	// The last preopen of "." sets the guest's working directory.
	plan.Entries = append(plan.Entries, Entry{
		Kind:   KindDir,
		Path:   ".",
		Host:   workDir,
		Origin: OriginForced,
	})
	return plan, nil
}

// Args renders the full argument vector, trailing payload included.
func (p *Plan) Args() []string {
	args := make([]string, 0, 1+2*len(p.Entries)+len(p.Trailing))
	args = append(args, p.Subcommand)
	for _, e := range p.Entries {
		args = append(args, e.Args()...)
	}
	return append(args, p.Trailing...)
}

// Preopens lists the guest paths of every --dir entry in order.
func (p *Plan) Preopens() []string {
	var out []string
	for _, e := range p.Entries {
		if e.Kind == KindDir {
			out = append(out, e.Path)
		}
	}
	return out
}
