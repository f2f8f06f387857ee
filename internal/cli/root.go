package cli

import (
	"errors"
	"io"
	"os"

	"github.com/brandonbloom/wasirun/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// FailureExitCode is returned when wasirun itself fails before the runtime
// starts, keeping it distinct from test failures.
const FailureExitCode = 125

// Execute runs wasirun with the process arguments and returns the exit code.
func Execute() int {
	return newApp().execute(os.Args[1:], os.Stdout, os.Stderr)
}

func (a *app) execute(args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}
	cmd := newRootCommand(a)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	var status *exitStatus
	if errors.As(err, &status) {
		return status.code
	}
	a.logger.Error(err.Error())
	return FailureExitCode
}

type options struct {
	configPath string
	strategy   string
	target     string
	print      bool
	dumpConfig bool
	verbose    bool
}

func newRootCommand(a *app) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "wasirun [flags] [--target NAME --] TEST-BINARY [ARGS...]",
		Short: "Run WASI test binaries under wasmtime with the workspace preopened",
		Long: `wasirun is a cargo test runner for wasm32-wasi targets. It preopens every
directory from the current one up to the workspace root, re-exports OUT_DIR and
CARGO_MANIFEST_DIR relative to the current directory, and runs the test binary
with "wasmtime run".`,
		Version:       version.String(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	// Everything from the test binary onward belongs to the guest.
	flags.SetInterspersed(false)
	flags.StringVar(&opts.configPath, "config", "", "read settings from `file` (default $"+envConfig+")")
	flags.StringVar(&opts.strategy, "strategy", "", "root resolution `strategy`: metadata or manifest")
	flags.StringVar(&opts.target, "target", "", "target `triple` the test binary was built for; requires --")
	flags.BoolVar(&opts.print, "print", false, "print the runtime command instead of running it")
	flags.BoolVar(&opts.dumpConfig, "dump-config", false, "print the effective configuration and exit")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log resolution details")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		var required *pflag.ValueRequiredError
		if errors.As(err, &required) && required.GetFlag().Name == "target" {
			return errors.Join(ErrMissingTarget, err)
		}
		return err
	})

	return cmd
}
