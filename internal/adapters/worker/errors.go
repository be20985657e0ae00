package worker

import "errors"

// Sentinel kinds for batch errors.
var (
	ErrEmptyBatch    = errors.New("batch is empty")
	ErrBatchTooLarge = errors.New("batch too large")
	ErrNoAssessor    = errors.New("assessor is required")
)
