//go:build !windows

package launcher

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

var relayedSignals = []os.Signal{unix.SIGINT, unix.SIGTERM, unix.SIGHUP}

// forwardSignal relays sig to the child. SIGINT is only absorbed: the
// terminal already delivers it to the child's process group.
func forwardSignal(p *os.Process, sig os.Signal) {
	if sig == unix.SIGINT {
		return
	}
	_ = p.Signal(sig)
}

// exitCode maps a child's exit status to the wrapper's. Death by signal N
// becomes 128+N, as shells report it.
func exitCode(exitErr *exec.ExitError) (int, string) {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal()), describeSignal(ws.Signal())
	}
	return exitErr.ExitCode(), ""
}

func describeSignal(sig syscall.Signal) string {
	name := unix.SignalName(sig)
	if name == "" {
		return fmt.Sprintf("signal %d", sig)
	}
	return fmt.Sprintf("%s (%d)", name, sig)
}
