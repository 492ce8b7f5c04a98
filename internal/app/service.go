// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/attendance/internal/domain/attendance"
	"github.com/okian/attendance/internal/domain/types"
	"github.com/okian/attendance/pkg/logger"
	"github.com/okian/attendance/pkg/metrics"
)

// Default service configuration.
const (
	defaultThreshold   = 75
	defaultMaxSubjects = 200
	millisPerSecond    = 1e3
)

// Service implements the API dependencies for the attendance evaluator.
type Service struct {
	mu sync.RWMutex

	// Configuration
	defaultThreshold int
	maxSubjects      int

	// State
	started   bool
	startedAt time.Time

	// Counters; no request data is retained.
	evaluations     atomic.Int64
	rejected        atomic.Int64
	subjectsSeen    atomic.Int64
	dangerSubjects  atomic.Int64
	safeSubjects    atomic.Int64
	dangerAggregate atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultThreshold sets the threshold used when a request omits one.
func WithDefaultThreshold(threshold int) Option {
	return func(s *Service) {
		if threshold >= attendance.MinThreshold && threshold <= attendance.MaxThreshold {
			s.defaultThreshold = threshold
		}
	}
}

// WithMaxSubjects caps the number of subjects per request.
func WithMaxSubjects(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSubjects = n
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		defaultThreshold: defaultThreshold,
		maxSubjects:      defaultMaxSubjects,
		logger:           nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start marks the service ready to serve.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "attendance service started",
		logger.Int("defaultThreshold", s.defaultThreshold),
		logger.Int("maxSubjects", s.maxSubjects),
	)

	return nil
}

// Stop marks the service stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.started = false
	s.logger.Info(context.Background(), "attendance service stopped",
		logger.Int64("evaluations", s.evaluations.Load()),
		logger.Int64("rejected", s.rejected.Load()),
	)
}

// DefaultThreshold returns the threshold applied when a request omits one.
func (s *Service) DefaultThreshold() int {
	return s.defaultThreshold
}

// Calculate evaluates the input and records metrics about the outcome.
func (s *Service) Calculate(ctx context.Context, in types.CalculateInput) (attendance.Evaluation, error) {
	start := time.Now()
	log := s.log()

	threshold := in.ThresholdOr(s.defaultThreshold)

	if len(in.Subjects) > s.maxSubjects {
		s.reject("subjects")
		log.Debug(ctx, "evaluation rejected",
			logger.Int("subjects", len(in.Subjects)),
			logger.Int("maxSubjects", s.maxSubjects),
		)
		return attendance.Evaluation{}, fmt.Errorf("%w: %d exceeds the limit of %d", types.ErrTooManySubjects, len(in.Subjects), s.maxSubjects)
	}

	ev, err := attendance.Evaluate(in.Subjects, threshold)
	if err != nil {
		field := "unknown"
		var verr *attendance.ValidationError
		if errors.As(err, &verr) {
			field = verr.Field
		}
		s.reject(field)
		log.Debug(ctx, "evaluation rejected", logger.String("field", field), logger.Error(err))
		return attendance.Evaluation{}, err
	}

	s.record(ev)
	latencyMs := float64(time.Since(start).Microseconds()) / millisPerSecond
	metrics.RecordEvaluationLatency(latencyMs)

	log.Debug(ctx, "evaluation completed",
		logger.Int("subjects", len(ev.Subjects)),
		logger.Int("threshold", threshold),
		logger.Int("danger", ev.Danger()),
		logger.Float64("aggregatePercentage", ev.Aggregate.Percentage),
		logger.String("aggregateStatus", string(ev.Aggregate.Status)),
	)
	return ev, nil
}

func (s *Service) reject(field string) {
	s.rejected.Add(1)
	metrics.RecordEvaluation(metrics.OutcomeRejected)
	metrics.RecordValidationError(field)
}

func (s *Service) record(ev attendance.Evaluation) {
	s.evaluations.Add(1)
	s.subjectsSeen.Add(int64(len(ev.Subjects)))
	metrics.RecordEvaluation(metrics.OutcomeOK)
	metrics.RecordSubjectsPerRequest(len(ev.Subjects))
	metrics.RecordAggregatePercentage(ev.Aggregate.Percentage)

	for _, r := range ev.Subjects {
		metrics.RecordSubjectStatus(string(r.Status))
		if r.Status == attendance.StatusDanger {
			s.dangerSubjects.Add(1)
			recordSentinel(r.ClassesNeeded)
		} else {
			s.safeSubjects.Add(1)
			recordSentinel(r.CanSkip)
		}
	}
	if ev.Aggregate.Status == attendance.StatusDanger {
		s.dangerAggregate.Add(1)
	}
}

func recordSentinel(c *attendance.Count) {
	if c != nil && !c.IsFinite() {
		metrics.RecordSentinel(c.String())
	}
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Get()
	}
	return s.logger
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"defaultThreshold": s.defaultThreshold,
		"maxSubjects":      s.maxSubjects,
		"evaluations":      s.evaluations.Load(),
		"rejected":         s.rejected.Load(),
		"subjectsSeen":     s.subjectsSeen.Load(),
		"dangerSubjects":   s.dangerSubjects.Load(),
		"safeSubjects":     s.safeSubjects.Load(),
		"dangerAggregates": s.dangerAggregate.Load(),
	}
	if s.started {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}
	return stats
}
