// Package p4 drives the Perforce command-line client and parses its text output.
package p4

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// DefaultBinary is the client executable looked up in PATH.
const DefaultBinary = "p4"

// stderrTailSize bounds how much of a failed command's stderr is kept.
const stderrTailSize = 4096

// Runner executes one p4 invocation and streams its stdout into the writer.
type Runner interface {
	Run(ctx context.Context, args []string, stdout io.Writer) error
}

// ExitError reports a p4 process that exited with a non-zero status.
type ExitError struct {
	Args   []string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("p4 %s exited with code %d", strings.Join(e.Args, " "), e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}

	return msg
}

// ExecOptions configures the global options passed before every p4 command.
type ExecOptions struct {
	Binary string
	Port   string
	User   string
	Client string
}

// ExecRunner runs the real p4 executable.
type ExecRunner struct {
	opts ExecOptions
}

// NewExecRunner creates a runner for the given options.
func NewExecRunner(opts ExecOptions) *ExecRunner {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}

	return &ExecRunner{opts: opts}
}

// GlobalArgs returns the connection options prefixed to every command.
func (r *ExecRunner) GlobalArgs() []string {
	var args []string

	if r.opts.Port != "" {
		args = append(args, "-p", r.opts.Port)
	}

	if r.opts.User != "" {
		args = append(args, "-u", r.opts.User)
	}

	if r.opts.Client != "" {
		args = append(args, "-c", r.opts.Client)
	}

	return args
}

// Run starts p4 with args, copies stdout into the writer and waits for exit.
func (r *ExecRunner) Run(ctx context.Context, args []string, stdout io.Writer) error {
	fullArgs := append(r.GlobalArgs(), args...)

	stderr := &tailBuffer{limit: stderrTailSize}

	cmd := exec.CommandContext(ctx, r.opts.Binary, fullArgs...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{
			Args:   args,
			Code:   exitErr.ExitCode(),
			Stderr: strings.TrimSpace(stderr.String()),
		}
	}

	return fmt.Errorf("run p4 %s: %w", strings.Join(args, " "), err)
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	buf   []byte
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}

	return len(p), nil
}

func (b *tailBuffer) String() string {
	return string(b.buf)
}
