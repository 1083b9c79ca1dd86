// Package proc isolates external process execution behind a narrow interface
// so pipeline stages can be tested with a scripted fake instead of a shell.
package proc

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// Command describes a single external tool invocation.
type Command struct {
	Name string
	Args []string
	Dir  string   // working directory; empty means inherit
	Env  []string // full environment; nil means inherit
}

// String renders the invocation for logs and error messages.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result carries the captured streams and exit status of a finished process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Success reports whether the process exited zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// CombinedOutput concatenates both captured streams for diagnostics.
func (r Result) CombinedOutput() string {
	return string(r.Stdout) + string(r.Stderr)
}

// Runner runs external commands. The error return is reserved for spawn
// failures and context cancellation; a non-zero exit is reported through
// Result.ExitCode so callers decide how to surface it.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

type execRunner struct{}

// NewRunner returns a Runner backed by os/exec.
func NewRunner() Runner {
	return &execRunner{}
}

func (e *execRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	res := Result{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		if ctx.Err() != nil {
			return res, errors.Wrapf(ctx.Err(), "running %s", cmd.Name)
		}
		return res, errors.Wrapf(err, "failed to execute %s", cmd.Name)
	}

	return res, nil
}
