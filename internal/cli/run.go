package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/brandonbloom/wasirun/internal/config"
	"github.com/brandonbloom/wasirun/internal/preopen"
	"github.com/brandonbloom/wasirun/internal/workspace"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func (a *app) run(cmd *cobra.Command, opts options, args []string) error {
	if opts.verbose {
		a.logger.SetLevel(log.DebugLevel)
	}

	cfg, err := a.loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.strategy != "" {
		cfg.Root.Strategy = strings.ToLower(strings.TrimSpace(opts.strategy))
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if opts.dumpConfig {
		return config.Write(cmd.OutOrStdout(), cfg)
	}

	if err := checkInvocation(cfg, cmd.Flags().Changed("target"), opts.target, cmd.ArgsLenAtDash()); err != nil {
		return err
	}
	if len(args) == 0 {
		return ErrMissingProgram
	}
	if opts.target != "" {
		a.logger.Debug("target", "triple", opts.target)
	}

	wd, err := a.workDir()
	if err != nil {
		return err
	}
	resolver, err := a.resolver(cfg, wd)
	if err != nil {
		return err
	}
	root, err := resolver.Resolve()
	if err != nil {
		return err
	}
	root = realPath(root)
	a.logger.Debug("resolved root", "strategy", cfg.Root.Strategy, "root", root, "workdir", wd)

	plan, err := preopen.Build(preopen.Request{
		Root:       root,
		WorkDir:    wd,
		Env:        a.pathVars(cfg.Env.Vars),
		Vars:       cfg.Env.Vars,
		Subcommand: cfg.Runtime.Subcommand,
		Trailing:   args,
	})
	if err != nil {
		return err
	}
	runtimeArgs := plan.Args()
	a.logger.Debug("runtime command", "program", cfg.Runtime.Program, "args", runtimeArgs)

	if opts.print {
		out := cmd.OutOrStdout()
		return printPlan(out, cfg.Runtime.Program, plan, writerIsTerminal(out))
	}

	code, err := a.launcher.Launch(cfg.Runtime.Program, runtimeArgs, a.env.Environ())
	if err != nil {
		return err
	}
	if code != 0 {
		return &exitStatus{code: code}
	}
	return nil
}

// loadConfig reads the --config file, else $WASIRUN_CONFIG, else defaults.
// A file named explicitly must exist.
func (a *app) loadConfig(path string) (config.Config, error) {
	if path == "" {
		path = a.env.Get(envConfig)
	}
	if path == "" {
		return config.Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, fmt.Errorf("config file %s does not exist", path)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	a.logger.Debug("loaded config", "path", path)
	return cfg, nil
}

func (a *app) resolver(cfg config.Config, wd string) (workspace.Resolver, error) {
	switch cfg.Root.Strategy {
	case config.StrategyMetadata:
		provider := cfg.Root.Provider
		query := a.metadata
		return workspace.MetadataResolver{
			Query: func() ([]byte, error) {
				return query(wd, provider)
			},
		}, nil
	case config.StrategyManifest:
		return workspace.ManifestWalker{
			Start:    a.env.Get(cfg.Root.ManifestVar),
			StartVar: cfg.Root.ManifestVar,
			Marker:   cfg.Root.Marker,
			Policy:   workspace.Policy(cfg.Root.Policy),
			FS:       a.fs,
		}, nil
	default:
		return nil, config.ErrInvalidStrategy
	}
}
