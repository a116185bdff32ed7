package sqrly

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Runner starts external commands so tests can substitute a fake.
type Runner interface {
	// Run executes name with args in dir and returns the captured output.
	Run(ctx context.Context, dir, name string, args ...string) (stdout string, stderr string, err error)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct{}

// ExecError is returned when an external command exits unsuccessfully.
type ExecError struct {
	Stdout string
	Stderr string
	Err    error
}

func (e *ExecError) Error() string {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return fmt.Sprintf("command failed and exited with code %d", exitErr.ExitCode())
	}
	return fmt.Sprintf("command failed: %v", e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Run blocks until the command exits. There is no timeout; cancelling ctx kills the process.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), stderr.String(), &ExecError{
			Stdout: stdout.String(),
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return stdout.String(), stderr.String(), nil
}
