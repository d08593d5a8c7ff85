// input supplies text answers to prompts and turns raw pointer/keyboard/touch
// events into per-tick snapshots.
package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoInput is returned when no provided line remains and there is no interactive reader,
// or the interactive reader is exhausted.
var ErrNoInput = errors.New("no input available")

// Source answers successive prompts: first from lines queued with Provide, in order,
// then from an interactive reader one line at a time. It is independent of any widget
// showing the prompt; echo, when set, receives the prompt and the answer.
type Source struct {
	lines       []string
	next        int
	interactive *bufio.Reader
	echo        io.Writer
	pending     chan readResult
}

type readResult struct {
	line string
	err  error
}

// NewSource returns a source reading interactive answers from r, which may be nil.
func NewSource(r io.Reader, echo io.Writer) *Source {
	src := &Source{echo: echo}
	if r != nil {
		src.interactive = bufio.NewReader(r)
	}
	return src
}

// Provide queues answers. Each value is split on newlines, so a whole puzzle can be
// provided as one string.
func (src *Source) Provide(values ...string) {
	for _, value := range values {
		value = strings.ReplaceAll(value, "\r\n", "\n")
		src.lines = append(src.lines, strings.Split(value, "\n")...)
	}
}

// Remaining returns the number of queued answers not yet consumed.
func (src *Source) Remaining() int {
	return len(src.lines) - src.next
}

// Next returns the answer to prompt. Queued lines are returned verbatim, including
// empty ones; otherwise it blocks on the interactive reader until a line, EOF or ctx.
func (src *Source) Next(ctx context.Context, prompt string) (string, error) {
	if src.next < len(src.lines) {
		line := src.lines[src.next]
		src.next++
		src.show(prompt, line)
		return line, nil
	}

	if src.interactive == nil {
		return "", fmt.Errorf("%w: %s", ErrNoInput, prompt)
	}

	if src.echo != nil {
		fmt.Fprintf(src.echo, "%s: ", prompt)
	}

	// A read abandoned by a cancelled ctx is picked up by the next call.
	if src.pending == nil {
		src.pending = make(chan readResult, 1)
		go func(results chan<- readResult) {
			line, err := src.interactive.ReadString('\n')
			results <- readResult{line: line, err: err}
		}(src.pending)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-src.pending:
		src.pending = nil
		line := strings.TrimRight(res.line, "\r\n")
		if res.err != nil && !(errors.Is(res.err, io.EOF) && line != "") {
			if errors.Is(res.err, io.EOF) {
				return "", fmt.Errorf("%w: %s", ErrNoInput, prompt)
			}
			return "", fmt.Errorf("read %s: %w", prompt, res.err)
		}
		return line, nil
	}
}

func (src *Source) show(prompt, line string) {
	if src.echo != nil {
		fmt.Fprintf(src.echo, "%s: %s\n", prompt, line)
	}
}
