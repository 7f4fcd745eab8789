package p4

import (
	"context"
	"strconv"
	"time"
)

// DateLayout is the revision-specifier date format p4 expects.
const DateLayout = "2006/01/02"

// Client issues the high-level queries used by the analysis.
type Client struct {
	runner           Runner
	longDescriptions bool
}

// NewClient creates a Client over runner. With longDescriptions, "p4 changes"
// is asked for full descriptions (-l) instead of the truncated one-liners.
func NewClient(runner Runner, longDescriptions bool) *Client {
	return &Client{runner: runner, longDescriptions: longDescriptions}
}

// ChangesArgs returns the arguments of the submitted-changelist listing since the given day.
func (c *Client) ChangesArgs(since time.Time) []string {
	args := []string{"changes", "-s", "submitted"}
	if c.longDescriptions {
		args = append(args, "-l")
	}

	return append(args, "@"+since.Format(DateLayout)+",@now")
}

// FilesArgs returns the arguments listing the files of one changelist.
func FilesArgs(change int) []string {
	return []string{"files", "@=" + strconv.Itoa(change)}
}

// Changes streams every submitted changelist since the given day into fn.
func (c *Client) Changes(ctx context.Context, since time.Time, fn func(Change) error) error {
	scanner := NewChangeScanner(fn)

	return c.stream(ctx, c.ChangesArgs(since), scanner.Line, scanner.Close)
}

// Files streams every file revision of a changelist into fn.
func (c *Client) Files(ctx context.Context, change int, fn func(FileRev) error) error {
	return c.stream(ctx, FilesArgs(change), func(line string) error {
		if line == "" {
			return nil
		}

		rev, err := ParseFileRev(line)
		if err != nil {
			return err
		}

		return fn(rev)
	}, nil)
}

// stream runs args, feeding stdout line by line to fn. A failing fn stops the
// process and its error wins over the resulting exit status.
func (c *Client) stream(ctx context.Context, args []string, fn func(string) error, done func() error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lw := NewLineWriter(func(line string) error {
		err := fn(line)
		if err != nil {
			cancel()
		}

		return err
	})

	runErr := c.runner.Run(ctx, args, lw)

	if err := lw.Err(); err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}

	if err := lw.Close(); err != nil {
		return err
	}

	if done != nil {
		return done()
	}

	return nil
}
