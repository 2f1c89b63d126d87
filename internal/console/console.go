// Package console is the terminal surface: prompts, progress lines and
// summary tables rendered with pterm.
package console

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/pterm/pterm"

	"github.com/jonathan/jobhunter/internal/challenge"
)

// Console reads answers line by line from in and writes to out.
type Console struct {
	in    *bufio.Reader
	out   io.Writer
	start sync.Once
	lines chan lineResult
}

var _ challenge.Prompter = (*Console)(nil)

// New returns a console over in and out.
func New(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out, lines: make(chan lineResult)}
}

// Out is the console's writer.
func (c *Console) Out() io.Writer {
	return c.out
}

// Acknowledge shows message and blocks until the user presses Enter.
func (c *Console) Acknowledge(ctx context.Context, message string) error {
	pterm.Warning.WithWriter(c.out).Println(message)
	_, err := c.readLine(ctx)
	return err
}

// Ask prompts for a line of input. An empty answer yields def.
func (c *Console) Ask(ctx context.Context, label, def string) (string, error) {
	prompt := label
	if def != "" {
		prompt += " [" + def + "]"
	}
	pterm.Fprint(c.out, pterm.LightCyan(prompt+": "))
	line, err := c.readLine(ctx)
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

// Confirm asks a yes/no question.
func (c *Console) Confirm(ctx context.Context, label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	answer, err := c.Ask(ctx, label+" ("+hint+")", "")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

type lineResult struct {
	line string
	err  error
}

// readLine returns the next trimmed line. A final line without a newline is
// returned before io.EOF. One goroutine owns the reader for the console's
// lifetime, so a line typed after a cancelled read goes to the next read.
func (c *Console) readLine(ctx context.Context) (string, error) {
	c.start.Do(func() { go c.readLoop() })
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return r.line, r.err
	}
}

func (c *Console) readLoop() {
	defer close(c.lines)
	for {
		line, err := c.in.ReadString('\n')
		if line != "" || err == nil {
			c.lines <- lineResult{line: strings.TrimSpace(line)}
		}
		if err != nil {
			c.lines <- lineResult{err: err}
			return
		}
	}
}
