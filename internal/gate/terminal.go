package gate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"artixinstall/internal/output"
)

// TerminalPrompter reads answers line by line from an input stream and
// writes questions through the printer.
//
// Lines are read by a background goroutine so a waiting prompt returns as
// soon as its context is cancelled. A line typed after cancellation is
// never taken as an answer to the cancelled question.
type TerminalPrompter struct {
	in      *bufio.Reader
	printer *output.Printer

	start sync.Once
	lines chan lineResult
}

type lineResult struct {
	text string
	err  error
}

// NewTerminalPrompter creates a [TerminalPrompter] reading from in.
func NewTerminalPrompter(in io.Reader, printer *output.Printer) *TerminalPrompter {
	return &TerminalPrompter{
		in:      bufio.NewReader(in),
		printer: printer,
		lines:   make(chan lineResult),
	}
}

// Confirm accepts y, yes, n or no in any case and asks again on anything
// else, including an empty line.
func (t *TerminalPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	for {
		t.printer.Prompt(question + " [y/n]:")
		line, err := t.readLine(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		t.printer.Warning("Please answer yes or no.")
	}
}

// Select prints options numbered from 1 and reads a choice.
func (t *TerminalPrompter) Select(ctx context.Context, question string, options []string, defaultIndex int) (int, error) {
	if len(options) == 0 {
		return 0, errors.New("select: no options")
	}
	if defaultIndex < 0 || defaultIndex >= len(options) {
		defaultIndex = 0
	}

	t.printer.Info("%s", question)
	for i, opt := range options {
		marker := " "
		if i == defaultIndex {
			marker = "*"
		}
		fmt.Fprintf(t.printer.Writer(), "   %s %d) %s\n", marker, i+1, opt)
	}

	for {
		t.printer.Prompt(fmt.Sprintf("Choice [%d]:", defaultIndex+1))
		line, err := t.readLine(ctx)
		if err != nil {
			return 0, err
		}
		if line == "" {
			return defaultIndex, nil
		}
		n, convErr := strconv.Atoi(line)
		if convErr == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		t.printer.Warning("Enter a number between 1 and %d.", len(options))
	}
}

// Input reads one line of free text.
func (t *TerminalPrompter) Input(ctx context.Context, question, def string) (string, error) {
	prompt := question
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]", question, def)
	}
	t.printer.Prompt(prompt + ":")
	line, err := t.readLine(ctx)
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

func (t *TerminalPrompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.start.Do(func() { go t.readLoop() })

	select {
	case <-ctx.Done():
		t.printer.Blank()
		return "", ctx.Err()
	case r, ok := <-t.lines:
		if !ok {
			t.printer.Blank()
			return "", ErrNoInput
		}
		if r.err != nil {
			return "", fmt.Errorf("read answer: %w", r.err)
		}
		return strings.TrimSpace(r.text), nil
	}
}

// readLoop feeds lines to readLine until the input ends. The channel is
// closed at EOF; a final line without newline is still delivered.
func (t *TerminalPrompter) readLoop() {
	defer close(t.lines)
	for {
		line, err := t.in.ReadString('\n')
		if err != nil {
			if line != "" {
				t.lines <- lineResult{text: line}
			}
			if !errors.Is(err, io.EOF) {
				t.lines <- lineResult{err: err}
			}
			return
		}
		t.lines <- lineResult{text: line}
	}
}

// Ensure TerminalPrompter implements Prompter.
var _ Prompter = (*TerminalPrompter)(nil)
