package features

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidContract = errors.New("invalid feature contract")
	ErrContractDrift   = errors.New("feature contract drift")
)
