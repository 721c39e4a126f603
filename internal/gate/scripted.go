package gate

import "context"

// ScriptedPrompter is a [Prompter] for tests that replays queued answers.
type ScriptedPrompter struct {
	// Confirms answers Confirm calls in order. When empty, Confirm
	// returns ErrNoInput.
	Confirms []bool

	// Selections answers Select calls in order. When empty, the default
	// index is chosen.
	Selections []int

	// Inputs answers Input calls in order. When empty, the default is used.
	Inputs []string

	// Questions records every question asked, in order.
	Questions []string
}

func (s *ScriptedPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.Questions = append(s.Questions, question)
	if len(s.Confirms) == 0 {
		return false, ErrNoInput
	}
	answer := s.Confirms[0]
	s.Confirms = s.Confirms[1:]
	return answer, nil
}

func (s *ScriptedPrompter) Select(ctx context.Context, question string, options []string, defaultIndex int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.Questions = append(s.Questions, question)
	if len(s.Selections) == 0 {
		return defaultIndex, nil
	}
	choice := s.Selections[0]
	s.Selections = s.Selections[1:]
	return choice, nil
}

func (s *ScriptedPrompter) Input(ctx context.Context, question, def string) (string, error) {
	s.Questions = append(s.Questions, question)
	if len(s.Inputs) == 0 {
		return def, nil
	}
	answer := s.Inputs[0]
	s.Inputs = s.Inputs[1:]
	return answer, nil
}

// Ensure ScriptedPrompter implements Prompter.
var _ Prompter = (*ScriptedPrompter)(nil)
