// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/creditrisk/internal/adapters/worker"
	service "github.com/okian/creditrisk/internal/app"
	"github.com/okian/creditrisk/internal/domain/applicant"
	"github.com/okian/creditrisk/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Assess runs one credit risk assessment.
	Assess(ctx context.Context, rec *applicant.Record) (Assessment, error)

	// Contract and Schema describe the loaded model and inbound schema.
	Contract() ContractInfo
	Schema() *applicant.Schema
}

// Assessment mirrors the result returned by the assessment service.
type Assessment = service.Assessment

// ContractInfo mirrors the model description returned by the service.
type ContractInfo = service.ContractInfo

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBatchRunner sets the pool used by batch assessments. Without it the
// server builds a default worker pool over its dependencies.
func WithBatchRunner(r BatchRunner) Option {
	return func(s *Server) {
		if r != nil {
			s.batchRunner = r
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	logger      logger.Logger
	batchRunner BatchRunner

	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	assessmentsHandler *AssessmentsHandler
	contractHandler    *ContractHandler
	batchHandler       *BatchHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	if s.batchRunner == nil {
		if p, err := worker.NewPool(deps, worker.WithLogger(s.logger.Named("batch"))); err == nil {
			s.batchRunner = p
		}
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.assessmentsHandler = NewAssessmentsHandler(deps, s.logger)
	s.contractHandler = NewContractHandler(deps)
	if s.batchRunner != nil {
		s.batchHandler = NewBatchHandler(s.batchRunner, s.assessmentsHandler)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/v1/assessments", MetricsMiddleware(s.assessmentsHandler.HandlePostAssessment, "assessments"))
	if s.batchHandler != nil {
		mux.HandleFunc("/v1/assessments/batch", MetricsMiddleware(s.batchHandler.HandlePostBatch, "assessments_batch"))
	}
	mux.HandleFunc("/v1/contract", MetricsMiddleware(s.contractHandler.HandleGetContract, "contract"))
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// errTrailingData rejects bodies carrying more than one JSON value.
var errTrailingData = errors.New("unexpected data after the JSON body")

// decodeBody reads exactly one JSON value of at most limit bytes into v.
// Unknown keys and trailing values are errors.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	writeFieldError(w, r, status, code, "", err)
}

func writeFieldError(w http.ResponseWriter, r *http.Request, status int, code, field string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{
		Code:      code,
		Message:   msg,
		Field:     field,
		RequestID: logger.RequestIDFrom(r.Context()),
	})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, op string, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
}
