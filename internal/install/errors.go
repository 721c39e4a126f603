package install

import "fmt"

// PreconditionError reports that a step was reached before the step it
// depends on recorded its result.
type PreconditionError struct {
	Number   int
	Step     string
	Requires string
	Reason   string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("step %d (%s) cannot run before %s: %s", e.Number, e.Step, e.Requires, e.Reason)
}

func unmet(number int, requires int, format string, args ...any) error {
	return &PreconditionError{
		Number:   number,
		Step:     StepNames[number-1],
		Requires: StepNames[requires-1],
		Reason:   fmt.Sprintf(format, args...),
	}
}
