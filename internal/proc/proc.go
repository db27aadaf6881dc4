// Package proc runs shell commands for workloads, capturing their output.
// It is the narrow command-execution collaborator the scheduling core uses;
// nothing here knows about schedules or workload semantics.
package proc

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Result captures one command invocation.
type Result struct {
	Stdout     string
	Stderr     string
	ReturnCode int
}

// Runner executes commands. Workload implementations receive a Runner so
// tests can substitute a fake.
type Runner interface {
	Run(ctx context.Context, dir, command string) (*Result, error)
}

// ExecRunner runs commands as local OS processes.
type ExecRunner struct {
	logger *slog.Logger
}

// NewExecRunner creates an ExecRunner.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	return &ExecRunner{logger: logger.With("component", "proc")}
}

// Run executes command (split on whitespace) in dir. A non-zero exit status
// is reported through Result.ReturnCode, not an error; errors are reserved
// for failures to start the process at all.
func (r *ExecRunner) Run(ctx context.Context, dir, command string) (*Result, error) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil, fmt.Errorf("run command: empty command")
	}

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = dir

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	runErr := cmd.Run()

	res := &Result{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	switch err := runErr.(type) {
	case nil:
		res.ReturnCode = 0
	case *exec.ExitError:
		res.ReturnCode = err.ExitCode()
	default:
		return nil, fmt.Errorf("run command %q: %w", parts[0], runErr)
	}

	r.logger.Debug("command finished", "command", parts[0], "exit_code", res.ReturnCode)
	return res, nil
}
