package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/creditrisk/internal/adapters/worker"
	"github.com/okian/creditrisk/pkg/logger"
)

const maxBatchBodyBytes = 4 << 20

// BatchRunner assesses many records at once.
type BatchRunner interface {
	Run(ctx context.Context, jobs []worker.Job) ([]worker.Result, error)
	MaxBatch() int
}

// BatchHandler handles batch assessment requests. Validation and error
// mapping are shared with the single-record handler.
type BatchHandler struct {
	runner BatchRunner
	single *AssessmentsHandler
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(runner BatchRunner, single *AssessmentsHandler) *BatchHandler {
	return &BatchHandler{runner: runner, single: single}
}

type batchRequest struct {
	Applicants []assessmentRequest `json:"applicants"`
}

type batchItemResponse struct {
	Index      int                 `json:"index"`
	Assessment *assessmentResponse `json:"assessment,omitempty"`
	Error      *errorResponse      `json:"error,omitempty"`
}

type batchResponse struct {
	RequestID string              `json:"request_id,omitempty"`
	Results   []batchItemResponse `json:"results"`
	Failed    int                 `json:"failed"`
}

// HandlePostBatch handles POST /v1/assessments/batch requests. Records that
// fail validation are reported per item and never reach the worker pool.
func (h *BatchHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_assessment_batch"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, op, http.MethodPost)
		return
	}
	ctx := r.Context()

	var req batchRequest
	if err := decodeBody(w, r, maxBatchBodyBytes, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_record", WrapKind(op, ErrBadRequest, err))
		return
	}
	switch n := len(req.Applicants); {
	case n == 0:
		writeError(w, r, http.StatusBadRequest, "invalid_record", WrapKind(op, ErrBadRequest, worker.ErrEmptyBatch))
		return
	case n > h.runner.MaxBatch():
		writeError(w, r, http.StatusRequestEntityTooLarge, "batch_too_large", WrapKind(op, ErrBadRequest, worker.ErrBatchTooLarge))
		return
	}

	items := make([]batchItemResponse, len(req.Applicants))
	jobs := make([]worker.Job, 0, len(req.Applicants))
	schema := h.single.deps.Schema()
	for i := range req.Applicants {
		items[i].Index = i
		if field, err := h.single.check(op, &req.Applicants[i]); err != nil {
			items[i].Error = itemError(ctx, "invalid_record", field, err)
			continue
		}
		jobs = append(jobs, worker.Job{Index: i, Record: req.Applicants[i].record(schema)})
	}

	if len(jobs) > 0 {
		results, err := h.runner.Run(ctx, jobs)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, worker.ErrBatchTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			h.single.logger.Error(ctx, "batch rejected", logger.Error(err))
			writeError(w, r, status, "internal_error", NewKind(op, ErrInternal))
			return
		}
		for _, res := range results {
			if res.Err != nil {
				f := h.single.classify(ctx, op, res.Err)
				items[res.Index].Error = itemError(ctx, f.code, f.field, f.err)
				continue
			}
			a := newAssessmentResponse(ctx, res.Assessment)
			items[res.Index].Assessment = &a
		}
	}

	resp := batchResponse{RequestID: logger.RequestIDFrom(ctx), Results: items}
	for _, it := range items {
		if it.Error != nil {
			resp.Failed++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func itemError(ctx context.Context, code, field string, err error) *errorResponse {
	return &errorResponse{
		Code:      code,
		Message:   err.Error(),
		Field:     field,
		RequestID: logger.RequestIDFrom(ctx),
	}
}
