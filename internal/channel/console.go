// Package channel provides the line-oriented console that feeds the
// agent from an interactive terminal or any other io.Reader.
package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/zclaw/zclaw/internal/bus"
	"github.com/zclaw/zclaw/internal/textutil"
)

// Console reads input lines and prints agent replies. One instance
// serves one terminal; reader and writer goroutines run separately.
type Console struct {
	r      io.Reader
	w      io.Writer
	input  *bus.Queue
	output *bus.Queue
	maxLen int
	log    *slog.Logger
	prompt string
	mirror func(string)
}

// SetMirror registers a callback that receives every reply printed by
// RunWriter. The web console uses it to echo the local console.
func (c *Console) SetMirror(fn func(string)) { c.mirror = fn }

func NewConsole(r io.Reader, w io.Writer, input, output *bus.Queue, maxLen int, log *slog.Logger) *Console {
	return &Console{
		r:      r,
		w:      w,
		input:  input,
		output: output,
		maxLen: maxLen,
		log:    log.With("component", "console"),
		prompt: "> ",
	}
}

// Run reads lines until EOF or read error. Blank lines are skipped;
// long lines are truncated before enqueueing. Reads on a terminal
// cannot be interrupted by the context, so Run returns on EOF.
func (c *Console) Run(ctx context.Context) error {
	sc := bufio.NewScanner(c.r)
	sc.Buffer(make([]byte, 4096), 64*1024)
	fmt.Fprint(c.w, c.prompt)
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			fmt.Fprint(c.w, c.prompt)
			continue
		}
		msg := bus.Message{Text: textutil.Truncate(line, c.maxLen), Source: bus.SourceConsole}
		if !c.input.Send(ctx, msg) {
			c.log.Warn("console line dropped, input queue full")
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("console read: %w", err)
	}
	return nil
}

// RunWriter drains the console output queue, printing each reply
// followed by a fresh prompt. Exits when the context is cancelled.
func (c *Console) RunWriter(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.output.C():
			fmt.Fprintf(c.w, "%s\n%s", msg.Text, c.prompt)
			if c.mirror != nil {
				c.mirror(msg.Text)
			}
		}
	}
}
