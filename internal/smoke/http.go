package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/attendance/internal/domain/attendance"
	"github.com/okian/attendance/internal/domain/types"
	"github.com/okian/attendance/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url, requestID string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set(requestIDHeader, requestID)
	}
	return c.client.Do(req)
}

// outcome of a single submission.
type outcome int

const (
	outcomeMatched outcome = iota
	outcomeMismatch
	outcomeFailed
)

// submitSets posts every set concurrently and verifies each answer.
func submitSets(ctx context.Context, cfg *Config, sets []SubjectSet, stats *Stats) {
	log := logger.Get()
	log.Info(ctx, "submitting subject sets", logger.Int("sets", len(sets)), logger.Int("workers", cfg.Workers))

	client := newHTTPClient(cfg.Timeout)
	url := cfg.BaseURL + "/api/calculate"

	var (
		submitted int64
		matched   int64
		mismatch  int64
		failed    int64
	)

	setChan := make(chan SubjectSet, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for set := range setChan {
				if ctx.Err() != nil {
					return
				}
				result, err := submitSet(ctx, client, url, set)
				atomic.AddInt64(&submitted, 1)
				switch result {
				case outcomeMatched:
					atomic.AddInt64(&matched, 1)
				case outcomeMismatch:
					atomic.AddInt64(&mismatch, 1)
				case outcomeFailed:
					atomic.AddInt64(&failed, 1)
				}
				if err != nil && cfg.Verbose {
					log.Warn(ctx, "subject set not confirmed",
						logger.String("setID", set.ID),
						logger.Error(err),
					)
				}
			}
		}()
	}

	go func() {
		defer close(setChan)
		for _, set := range sets {
			select {
			case <-ctx.Done():
				return
			case setChan <- set:
			}
		}
	}()

	wg.Wait()

	stats.SetsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.SetsMatched = int(atomic.LoadInt64(&matched))
	stats.SetsMismatch = int(atomic.LoadInt64(&mismatch))
	stats.SetsFailed = int(atomic.LoadInt64(&failed))

	log.Info(ctx, "submission completed",
		logger.Int("matched", stats.SetsMatched),
		logger.Int("mismatch", stats.SetsMismatch),
		logger.Int("failed", stats.SetsFailed),
	)
}

// submitSet posts one set and compares the answer with a local evaluation.
func submitSet(ctx context.Context, client *HTTPClient, url string, set SubjectSet) (outcome, error) {
	resp, err := client.Post(ctx, url, set.ID, types.NewPayload(set.Subjects, set.Threshold))
	if err != nil {
		return outcomeFailed, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return outcomeFailed, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return outcomeFailed, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var got attendance.Evaluation
	if err := json.Unmarshal(body, &got); err != nil {
		return outcomeFailed, fmt.Errorf("failed to decode response: %w", err)
	}

	want, err := attendance.Evaluate(set.Subjects, set.Threshold)
	if err != nil {
		return outcomeFailed, fmt.Errorf("local evaluation: %w", err)
	}
	if err := compareEvaluations(want, got); err != nil {
		return outcomeMismatch, err
	}
	return outcomeMatched, nil
}
