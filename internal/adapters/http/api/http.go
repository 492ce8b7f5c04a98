// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/attendance/internal/domain/attendance"
	"github.com/okian/attendance/internal/domain/types"
	"github.com/okian/attendance/pkg/logger"
)

// Defaults for server options.
const (
	defaultMaxBodyBytes = 1 << 20
	defaultCORSOrigin   = "*"
)

// Dependencies required by HTTP handlers. Using an interface keeps the
// handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Calculate evaluates attendance for the given input.
	Calculate(ctx context.Context, in types.CalculateInput) (attendance.Evaluation, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	calculateHandler *CalculateHandler
	exportHandler    *ExportHandler

	corsOrigin string
	logger     logger.Logger
}

// ServerOption configures a Server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	maxBodyBytes int64
	corsOrigin   string
	logger       logger.Logger
}

// WithMaxBodyBytes caps the size of request bodies.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}

// WithCORSOrigin sets Access-Control-Allow-Origin. An empty origin disables CORS headers.
func WithCORSOrigin(origin string) ServerOption {
	return func(o *serverOptions) {
		o.corsOrigin = origin
	}
}

// WithLogger sets the logger used for request logs.
func WithLogger(l logger.Logger) ServerOption {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	o := serverOptions{
		maxBodyBytes: defaultMaxBodyBytes,
		corsOrigin:   defaultCORSOrigin,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Named("api")
	}

	decoder := requestDecoder{maxBodyBytes: o.maxBodyBytes}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		calculateHandler: NewCalculateHandler(deps, decoder),
		exportHandler:    NewExportHandler(deps, decoder),
		corsOrigin:       o.corsOrigin,
		logger:           o.logger,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	api := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return RequestIDMiddleware(CORSMiddleware(MetricsMiddleware(h, endpoint), s.corsOrigin), s.logger)
	}

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleMetrics, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/health", api(s.healthHandler.HandleHealth, "health"))
	mux.HandleFunc("/api/calculate", api(s.calculateHandler.HandleCalculate, "calculate"))
	mux.HandleFunc("/api/export", api(s.exportHandler.HandleExport, "export"))
}

// requestDecoder reads and validates calculate requests.
type requestDecoder struct {
	maxBodyBytes int64
}

func (d requestDecoder) decode(w http.ResponseWriter, r *http.Request, op string) (types.CalculateInput, error) {
	body := http.MaxBytesReader(w, r.Body, d.maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	var req types.Payload
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return types.CalculateInput{}, WrapKind(op, ErrBodyTooLarge, err)
		}
		if errors.Is(err, io.EOF) {
			return types.CalculateInput{}, WrapKind(op, ErrBadRequest, errors.New("empty request body"))
		}
		return types.CalculateInput{}, WrapKind(op, ErrBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return types.CalculateInput{}, NewKind(op, fmt.Errorf("%w: trailing data after JSON body", ErrBadRequest))
	}
	in, err := req.Input()
	if err != nil {
		return types.CalculateInput{}, WrapKind(op, ErrBadRequest, err)
	}
	return in, nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps an error from decoding or evaluation to a response.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", err)
	case errors.Is(err, types.ErrTooManySubjects):
		writeError(w, http.StatusBadRequest, "too_many_subjects", err)
	case errors.Is(err, ErrBadRequest), errors.Is(err, attendance.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		loggerFrom(r.Context()).Error(r.Context(), "request failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", NewKind("api", ErrInternal))
	}
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
	return false
}
