// Package gate asks the operator before anything destructive happens.
//
// [Gate.Confirm] is the only place the installer waits for a yes/no answer.
// Non-destructive requests pass straight through as [NotRequired]. Destructive
// requests block on the [Prompter] until the operator answers; there is no
// timeout. In dry-run mode the prompt is still shown so the simulated session
// matches a real one.
package gate

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNoInput is returned by a [Prompter] when the input stream ends before
// an answer was given. It is never treated as consent.
var ErrNoInput = errors.New("no operator input available")

// Confirmation is the operator's answer to one [Request].
type Confirmation int

const (
	// NotRequired means the request was not destructive and nobody was asked.
	NotRequired Confirmation = iota
	Approved
	Declined
)

func (c Confirmation) String() string {
	switch c {
	case NotRequired:
		return "not-required"
	case Approved:
		return "approved"
	case Declined:
		return "declined"
	default:
		return "unknown"
	}
}

// Proceed reports whether the caller may continue.
func (c Confirmation) Proceed() bool {
	return c != Declined
}

// Prompter collects operator input.
type Prompter interface {
	// Confirm asks a yes/no question and blocks until it is answered.
	Confirm(ctx context.Context, question string) (bool, error)

	// Select offers numbered options and returns the chosen index.
	// An empty answer picks defaultIndex.
	Select(ctx context.Context, question string, options []string, defaultIndex int) (int, error)

	// Input reads free text. An empty answer returns def.
	Input(ctx context.Context, question, def string) (string, error)
}

// Request describes what the operator is asked to approve.
type Request struct {
	// Step is the label of the step asking, used in logs.
	Step string

	Destructive bool
	Question    string
	Simulated   bool
}

// Gate applies the confirmation policy on top of a [Prompter].
type Gate struct {
	prompter Prompter
}

// New creates a [Gate].
func New(p Prompter) *Gate {
	return &Gate{prompter: p}
}

// Confirm asks the operator to approve req if it is destructive.
func (g *Gate) Confirm(ctx context.Context, req Request) (Confirmation, error) {
	if !req.Destructive {
		return NotRequired, nil
	}

	question := req.Question
	if req.Simulated {
		question = "[dry-run] " + question
	}

	ok, err := g.prompter.Confirm(ctx, question)
	if err != nil {
		return Declined, err
	}

	answer := Declined
	if ok {
		answer = Approved
	}
	slog.Info("confirmation answered", "step", req.Step, "answer", answer.String(), "simulated", req.Simulated)
	return answer, nil
}
