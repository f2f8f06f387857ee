//go:build windows

package launcher

import (
	"os"
	"os/exec"
)

var relayedSignals = []os.Signal{os.Interrupt}

// Console interrupts reach every process attached to the console, so there
// is nothing to forward.
func forwardSignal(*os.Process, os.Signal) {}

func exitCode(exitErr *exec.ExitError) (int, string) {
	return exitErr.ExitCode(), ""
}
