package applicant

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidRecord = errors.New("invalid record")
	ErrInvalidSchema = errors.New("invalid schema")
	ErrUnknownSchema = errors.New("unknown schema variant")
)

// InvalidRecordError names the field that failed validation. It is a
// user-correctable condition and is never defaulted away.
type InvalidRecordError struct {
	Field  string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record: field %s: %s", e.Field, e.Reason)
}

// Unwrap exposes ErrInvalidRecord to errors.Is.
func (e *InvalidRecordError) Unwrap() error { return ErrInvalidRecord }

func invalid(field, format string, args ...any) error {
	return &InvalidRecordError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
