// Package command runs external package-manager tools and captures their
// output.
//
// Adapters never call os/exec directly. They format a [Cmd] and hand it to a
// [Runner], which makes every adapter testable with scripted output (see the
// commandtest subpackage) and keeps process-wide state such as the
// environment out of the adapters.
package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Cmd describes a single command invocation.
type Cmd struct {
	Name string   // Executable name or path
	Args []string // Arguments, not shell-interpreted
	Dir  string   // Working directory (empty = current directory)
	Env  []string // Extra KEY=VALUE pairs appended to the process environment
}

// New creates a Cmd for name with args.
func New(name string, args ...string) Cmd {
	return Cmd{Name: name, Args: args}
}

// InDir returns a copy of c that runs in dir.
func (c Cmd) InDir(dir string) Cmd {
	c.Dir = dir
	return c
}

// WithEnv returns a copy of c with the given KEY=VALUE pairs added.
func (c Cmd) WithEnv(kv ...string) Cmd {
	c.Env = append(append([]string(nil), c.Env...), kv...)
	return c
}

// String renders the command line as a user would type it. Arguments
// containing whitespace or quotes are single-quoted.
func (c Cmd) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Name))
	for _, a := range c.Args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Result is the captured outcome of a command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Success reports whether the command exited with status zero.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Runner executes commands synchronously.
//
// Run returns a non-nil error only when the process could not be started
// (missing binary, bad working directory, cancelled context). A command that
// ran and exited non-zero is reported through [Result.ExitCode].
type Runner interface {
	Run(ctx context.Context, c Cmd) (*Result, error)
}

// Exec is the os/exec backed Runner.
type Exec struct {
	// Timeout bounds each command. Zero means no timeout.
	Timeout time.Duration
}

var _ Runner = Exec{}

// Run implements Runner.
func (e Exec) Run(ctx context.Context, c Cmd) (*Result, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	err := cmd.Run()
	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return nil, err
}

// LookPath reports whether name resolves to an executable on PATH.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
