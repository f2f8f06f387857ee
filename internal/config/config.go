package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Root strategies.
const (
	StrategyMetadata = "metadata"
	StrategyManifest = "manifest"
)

// Root policies for the manifest strategy.
const (
	PolicyOutermost = "outermost"
	PolicyDeclared  = "declared"
)

// Config captures the settings stored in a wasirun TOML file.
type Config struct {
	Runtime    RuntimeBlock    `toml:"runtime"`
	Root       RootBlock       `toml:"root"`
	Env        EnvBlock        `toml:"env"`
	Invocation InvocationBlock `toml:"invocation"`
}

// RuntimeBlock names the WASI runtime that executes the test binary.
type RuntimeBlock struct {
	Program    string `toml:"program"`
	Subcommand string `toml:"subcommand"`
}

// RootBlock governs how the outermost preopened directory is found.
type RootBlock struct {
	Strategy    string `toml:"strategy"`
	Provider    string `toml:"provider"`
	Marker      string `toml:"marker"`
	ManifestVar string `toml:"manifest_var"`
	Policy      string `toml:"policy"`
}

// EnvBlock lists path-valued variables re-exported to the guest.
type EnvBlock struct {
	Vars []string `toml:"vars"`
}

// InvocationBlock governs the optional `--target NAME --` convention.
type InvocationBlock struct {
	RequireTarget bool     `toml:"require_target"`
	Targets       []string `toml:"targets"`
}

var (
	// ErrInvalidStrategy indicates root.strategy is not recognized.
	ErrInvalidStrategy = errors.New("config.root.strategy must be metadata or manifest")
	// ErrInvalidPolicy indicates root.policy is not recognized.
	ErrInvalidPolicy = errors.New("config.root.policy must be outermost or declared")
	// ErrInvalidMarker indicates root.marker is not a bare file name.
	ErrInvalidMarker = errors.New("config.root.marker must be a file name")
	// ErrInvalidEnvVar indicates env.vars holds an unusable name.
	ErrInvalidEnvVar = errors.New("config.env.vars entries must be non-empty names without '='")
)

func defaultVars() []string {
	return []string{"OUT_DIR", "CARGO_MANIFEST_DIR"}
}

func defaultTargets() []string {
	return []string{"wasm32-wasip1", "wasm32-wasip1-threads", "wasm32-wasip2", "wasm32-wasi"}
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (r *RuntimeBlock) applyDefaults() {
	if r.Program == "" {
		r.Program = "wasmtime"
	}
	if r.Subcommand == "" {
		r.Subcommand = "run"
	}
}

func (r *RootBlock) applyDefaults() {
	if r.Strategy == "" {
		r.Strategy = StrategyMetadata
	} else {
		r.Strategy = strings.ToLower(r.Strategy)
	}
	if r.Provider == "" {
		r.Provider = "cargo"
	}
	if r.Marker == "" {
		r.Marker = "Cargo.toml"
	}
	if r.ManifestVar == "" {
		r.ManifestVar = "CARGO_MANIFEST_DIR"
	}
	if r.Policy == "" {
		r.Policy = PolicyOutermost
	} else {
		r.Policy = strings.ToLower(r.Policy)
	}
}

func (c *Config) applyDefaults() {
	c.Runtime.applyDefaults()
	c.Root.applyDefaults()
	if c.Env.Vars == nil {
		c.Env.Vars = defaultVars()
	}
	if c.Invocation.Targets == nil {
		c.Invocation.Targets = defaultTargets()
	}
}

// Validate ensures the root block can drive resolution.
func (r RootBlock) Validate() error {
	switch r.Strategy {
	case StrategyMetadata, StrategyManifest:
	default:
		return ErrInvalidStrategy
	}
	switch r.Policy {
	case PolicyOutermost, PolicyDeclared:
	default:
		return ErrInvalidPolicy
	}
	if r.Marker != filepath.Base(r.Marker) || r.Marker == "." || r.Marker == ".." {
		return ErrInvalidMarker
	}
	return nil
}

// Validate ensures the configuration can guide wasirun's behavior.
func (c Config) Validate() error {
	if err := c.Root.Validate(); err != nil {
		return err
	}
	for _, name := range c.Env.Vars {
		if name == "" || strings.Contains(name, "=") {
			return fmt.Errorf("%w: %q", ErrInvalidEnvVar, name)
		}
	}
	return nil
}

// KnownTarget reports whether name is listed in invocation.targets.
func (c Config) KnownTarget(name string) bool {
	return slices.Contains(c.Invocation.Targets, name)
}

// Load reads configuration from disk. Missing files return a default config.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}
	return Parse(path, data)
}

// Parse decodes TOML data; path is used only in error messages.
func Parse(path string, data []byte) (Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return toml.NewEncoder(w).Encode(cfg)
}
