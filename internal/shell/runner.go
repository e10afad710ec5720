// Package shell runs the external tools the build pipelines delegate to
// (rsync, zip, composer, php-scoper) and turns any failure into a typed error.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrToolNotFound indicates the requested binary is not on PATH.
var ErrToolNotFound = errors.New("shell: tool not found")

// Command describes a single subprocess invocation.
type Command struct {
	Name string   // Logical tool name, e.g. "rsync".
	Args []string // Arguments passed verbatim.
	Dir  string   // Working directory; empty means the current process directory.
	Env  []string // Extra KEY=VALUE pairs appended to the process environment.
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result holds the captured output of a successful invocation.
type Result struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// CommandError is returned for a non-zero exit status or a start failure.
type CommandError struct {
	Command  Command
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", e.Command.Name, e.ExitCode)
	if e.ExitCode < 0 {
		msg = fmt.Sprintf("%s: %v", e.Command.Name, e.Err)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap returns the underlying exec error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Runner executes commands and fails on any non-zero exit status.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// RunFunc adapts a function to the Runner interface (used for testing).
type RunFunc func(ctx context.Context, cmd Command) (*Result, error)

// Run calls f.
func (f RunFunc) Run(ctx context.Context, cmd Command) (*Result, error) {
	return f(ctx, cmd)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	binaries  map[string]string
	envPrefix string
	logger    *slog.Logger
}

// Compile-time interface compliance check.
var _ Runner = (*ExecRunner)(nil)

// Option configures an ExecRunner.
type Option func(*ExecRunner)

// WithLogger sets the logger for the runner.
func WithLogger(l *slog.Logger) Option {
	return func(r *ExecRunner) {
		r.logger = l
	}
}

// WithBinary maps a logical tool name to an explicit binary path.
func WithBinary(name, path string) Option {
	return func(r *ExecRunner) {
		r.binaries[name] = path
	}
}

// WithEnvOverrides lets PREFIX<NAME> environment variables override binaries,
// e.g. PBT_PHP_SCOPER for "php-scoper".
func WithEnvOverrides(prefix string) Option {
	return func(r *ExecRunner) {
		r.envPrefix = prefix
	}
}

// NewRunner creates an ExecRunner.
func NewRunner(opts ...Option) *ExecRunner {
	r := &ExecRunner{
		binaries: make(map[string]string),
		logger:   slog.Default().With("module", "shell"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnvName returns the environment variable consulted for a tool name.
func EnvName(prefix, name string) string {
	return prefix + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name))
}

// resolve returns the binary to execute for a logical tool name.
func (r *ExecRunner) resolve(name string) (string, error) {
	bin := name
	if explicit, ok := r.binaries[name]; ok && explicit != "" {
		bin = explicit
	}
	if r.envPrefix != "" {
		if env := os.Getenv(EnvName(r.envPrefix, name)); env != "" {
			bin = env
		}
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, bin)
	}
	return path, nil
}

// Run executes cmd, capturing stdout and stderr. Any start failure or
// non-zero exit status is returned as a *CommandError.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	bin, err := r.resolve(cmd.Name)
	if err != nil {
		return nil, &CommandError{Command: cmd, ExitCode: -1, Err: err}
	}

	c := exec.CommandContext(ctx, bin, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	r.logger.Debug("running command", "cmd", cmd.String(), "dir", cmd.Dir)

	start := time.Now()
	err = c.Run()
	result := &Result{
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}

	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &CommandError{
			Command:  cmd,
			ExitCode: exitCode,
			Stderr:   result.Stderr,
			Err:      err,
		}
	}

	r.logger.Debug("command finished", "cmd", cmd.Name, "duration", result.Duration)
	return result, nil
}
