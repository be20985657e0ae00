package counterfactual

import "errors"

// Sentinel error kinds for this package.
var (
	ErrBudgetExceeded = errors.New("suggestion search budget exceeded")
	ErrAttribute      = errors.New("invalid suggestion attribute")
	ErrUnknownOrder   = errors.New("unknown suggestion order")
)
