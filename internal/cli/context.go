package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/brandonbloom/wasirun/internal/cargo"
	"github.com/brandonbloom/wasirun/internal/launcher"
	"github.com/brandonbloom/wasirun/internal/preopen"
	"github.com/brandonbloom/wasirun/internal/workspace"
	"github.com/charmbracelet/log"
)

const (
	envConfig   = "WASIRUN_CONFIG"
	envLogLevel = "WASIRUN_LOG"
)

// app holds everything a run reads from the outside world.
type app struct {
	getwd    func() (string, error)
	env      preopen.Environment
	metadata func(dir, program string) ([]byte, error)
	fs       workspace.FS
	launcher launcher.Launcher
	logger   *log.Logger
}

func newApp() *app {
	env := preopen.CurrentEnvironment()
	logger := newLogger(os.Stderr, env.Get(envLogLevel))
	return &app{
		getwd:    os.Getwd,
		env:      env,
		metadata: cargo.Metadata,
		fs:       workspace.OSFS{},
		launcher: launcher.NewExec(logger),
		logger:   logger,
	}
}

func newLogger(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "wasirun",
		Level:  log.WarnLevel,
	})
	if level == "" {
		return logger
	}
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.Warn("ignoring invalid log level", "var", envLogLevel, "value", level)
	}
	return logger
}

func (a *app) workDir() (string, error) {
	wd, err := a.getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	return realPath(wd), nil
}

// pathVars snapshots the named variables with symlinks resolved in their
// values. The runtime itself still receives the untouched environment.
func (a *app) pathVars(names []string) preopen.Environment {
	vars := make(map[string]string, len(names))
	for _, name := range names {
		if value, ok := a.env.Lookup(name); ok {
			vars[name] = realPath(value)
		}
	}
	return preopen.EnvironmentOf(vars)
}
