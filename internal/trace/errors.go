package trace

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedLine is wrapped by every FormatError
	ErrMalformedLine = errors.New("malformed trace line")

	// ErrUnknownDialect is returned by DialectByName
	ErrUnknownDialect = errors.New("unknown trace dialect")

	// ErrCounterOverflow is returned when summing a counter exceeds a uint64
	ErrCounterOverflow = errors.New("counter overflow")
)

// FormatError reports a line that should have carried a labeled counter but
// did not match the expected token pattern. The trace format is a fixed
// contract with the simulator, so this is never recovered from.
type FormatError struct {
	Line   int    // 1-based line number
	Text   string // Raw line content
	Reason string
	Err    error // Underlying cause, if any
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedLine, e.Err}
	}
	return []error{ErrMalformedLine}
}
