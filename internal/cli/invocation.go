package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brandonbloom/wasirun/internal/config"
)

var (
	// ErrMissingTarget indicates --target was required or given without a name.
	ErrMissingTarget = errors.New("missing --target argument")
	// ErrUnrecognizedTarget indicates --target named a triple not in invocation.targets.
	ErrUnrecognizedTarget = errors.New("unrecognized target")
	// ErrMissingSeparator indicates --target was not followed by `--`.
	ErrMissingSeparator = errors.New("--target must be followed by -- before the test binary")
	// ErrMissingProgram indicates no test binary was passed.
	ErrMissingProgram = errors.New("missing test binary; usage: wasirun [flags] TEST-BINARY [ARGS...]")
)

// exitStatus carries the runtime's exit code out of cobra.
type exitStatus struct {
	code int
}

func (e *exitStatus) Error() string {
	return fmt.Sprintf("runtime exited with status %d", e.code)
}

// checkInvocation validates the `--target NAME --` convention. dashAt is the
// number of positional arguments before `--`, or -1 without one.
func checkInvocation(cfg config.Config, targetSet bool, target string, dashAt int) error {
	if !targetSet {
		if cfg.Invocation.RequireTarget {
			return fmt.Errorf("%w: pass --target NAME -- before the test binary", ErrMissingTarget)
		}
		return nil
	}
	target = strings.TrimSpace(target)
	if target == "" || strings.HasPrefix(target, "-") {
		return fmt.Errorf("%w: got %q", ErrMissingTarget, target)
	}
	if !cfg.KnownTarget(target) {
		return fmt.Errorf("%w %q (known: %s)", ErrUnrecognizedTarget, target, strings.Join(cfg.Invocation.Targets, ", "))
	}
	if dashAt != 0 {
		return ErrMissingSeparator
	}
	return nil
}
