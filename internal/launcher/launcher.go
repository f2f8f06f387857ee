package launcher

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"

	"github.com/charmbracelet/log"
)

var (
	// ErrSpawn indicates the runtime binary could not be started.
	ErrSpawn = errors.New("failed to start runtime")
)

// SpawnError names the program that could not be started.
type SpawnError struct {
	Program string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Program, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

func (e *SpawnError) Is(target error) bool { return target == ErrSpawn }

// Launcher runs a program to completion and reports its exit code.
type Launcher interface {
	Launch(program string, args, env []string) (int, error)
}

// Exec launches real processes with the given standard streams.
type Exec struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *log.Logger
}

// NewExec inherits the wrapper's standard streams.
func NewExec(logger *log.Logger) *Exec {
	return &Exec{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: logger,
	}
}

// Launch starts program and blocks until it exits. Termination signals
// received meanwhile are relayed to the child.
func (e *Exec) Launch(program string, args, env []string) (int, error) {
	path, err := exec.LookPath(program)
	if err != nil {
		return 0, &SpawnError{Program: program, Err: err}
	}
	cmd := exec.Command(path, args...)
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	cmd.Env = env

	sigs := make(chan os.Signal, 4)
	signal.Notify(sigs, relayedSignals...)
	defer signal.Stop(sigs)

	if err := cmd.Start(); err != nil {
		return 0, &SpawnError{Program: program, Err: err}
	}
	e.logger().Debug("started runtime", "program", path, "pid", cmd.Process.Pid)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigs:
				e.logger().Debug("relaying signal", "signal", sig)
				forwardSignal(cmd.Process, sig)
			case <-done:
				return
			}
		}
	}()
	err = cmd.Wait()
	close(done)
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		panic(fmt.Sprintf("wait for %s: %v", program, err))
	}
	code, signaled := exitCode(exitErr)
	if signaled != "" {
		e.logger().Debug("runtime terminated by signal", "signal", signaled, "code", code)
	}
	return code, nil
}

func (e *Exec) logger() *log.Logger {
	if e.Logger == nil {
		return log.Default()
	}
	return e.Logger
}
