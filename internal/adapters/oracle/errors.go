package oracle

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrModelLoad   = errors.New("model load failed")
	ErrUnknownKind = errors.New("unknown model kind")
	ErrClosed      = errors.New("model closed")
	ErrInput       = errors.New("input length does not match feature contract")
)

// LoadError reports a model artifact that could not be turned into an oracle.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("%v: %s: %s", ErrModelLoad, e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches ErrModelLoad.
func (e *LoadError) Is(target error) bool { return target == ErrModelLoad }

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }

func loadErr(path, reason string, err error) error {
	return &LoadError{Path: path, Reason: reason, Err: err}
}
