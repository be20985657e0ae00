package scoring

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrScoring   = errors.New("scoring failed")
	ErrNilOracle = errors.New("oracle is nil")
)

// Error reports a vector the oracle could not score. It signals codec or
// contract drift rather than bad user input.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, ErrScoring)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrScoring, e.Err)
}

// Is matches ErrScoring.
func (e *Error) Is(target error) bool { return target == ErrScoring }

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }
