// Package p4test provides a scripted p4 runner for tests.
package p4test

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/Sumatoshi-tech/defectmap/internal/p4"
)

// Response is the scripted outcome of one p4 invocation.
type Response struct {
	Output   string
	ExitCode int
	Stderr   string
}

// Runner replays scripted responses keyed by the space-joined arguments.
// Output is delivered in ChunkSize-byte writes; zero writes it in one piece.
type Runner struct {
	ChunkSize int

	mu        sync.Mutex
	responses map[string]Response
	calls     [][]string
}

// NewRunner creates an empty scripted runner.
func NewRunner() *Runner {
	return &Runner{responses: make(map[string]Response)}
}

// On scripts the response for args.
func (r *Runner) On(args []string, resp Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.responses[strings.Join(args, " ")] = resp

	return r
}

// Run implements p4.Runner.
func (r *Runner) Run(ctx context.Context, args []string, stdout io.Writer) error {
	r.mu.Lock()
	r.calls = append(r.calls, slices.Clone(args))
	resp, ok := r.responses[strings.Join(args, " ")]
	chunk := r.ChunkSize
	r.mu.Unlock()

	if !ok {
		return &p4.ExitError{Args: args, Code: 1, Stderr: "unscripted command"}
	}

	data := []byte(resp.Output)
	if chunk <= 0 {
		chunk = len(data)
	}

	for len(data) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := min(chunk, len(data))

		if _, err := stdout.Write(data[:n]); err != nil {
			return err
		}

		data = data[n:]
	}

	if resp.ExitCode != 0 {
		return &p4.ExitError{Args: args, Code: resp.ExitCode, Stderr: resp.Stderr}
	}

	return nil
}

// Calls returns a copy of every argument list seen so far.
func (r *Runner) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([][]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = slices.Clone(c)
	}

	return out
}

// CallCount returns how many times args were run.
func (r *Runner) CallCount(args []string) int {
	key := strings.Join(args, " ")

	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0

	for _, c := range r.calls {
		if strings.Join(c, " ") == key {
			count++
		}
	}

	return count
}
