package smoke

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/okian/attendance/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// withDefaults fills zero fields of cfg.
func (cfg Config) withDefaults() Config {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Sets <= 0 {
		cfg.Sets = DefaultSets
	}
	if cfg.MaxSubjects <= 0 {
		cfg.MaxSubjects = DefaultMaxSubjects
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU() * WorkerChannelMultiplier
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg
}

// Run executes a complete smoke run and returns its statistics. It fails when
// the service is unhealthy or any answer differs from the local evaluation.
func Run(ctx context.Context, in Config) (*Stats, error) {
	cfg := in.withDefaults()
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting attendance smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sets", cfg.Sets),
		logger.Int("maxSubjects", cfg.MaxSubjects),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()),
		logger.Bool("verbose", cfg.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, &cfg); err != nil {
		return stats, err
	}

	// Step 2: Generate subject sets
	sets, err := Generate(ctx, &cfg, stats)
	if err != nil {
		return stats, fmt.Errorf("generation failed: %w", err)
	}

	// Step 3: Submit and verify concurrently
	submitSets(ctx, &cfg, sets, stats)

	// Step 4: Save sets to file
	if cfg.OutputFile != "" {
		if err := saveSetsToFile(ctx, cfg.OutputFile, sets); err != nil {
			logger.Get().Warn(ctx, "failed to save subject sets", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("smoke run interrupted: %w", err)
	}
	if stats.SetsMismatch > 0 || stats.SetsFailed > 0 {
		return stats, fmt.Errorf("%w: %d mismatched, %d failed", ErrMismatch, stats.SetsMismatch, stats.SetsFailed)
	}
	logger.Get().Info(ctx, "smoke run completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(cfg.Timeout)
	resp, err := client.Get(ctx, cfg.BaseURL+"/api/health")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Status != "healthy" {
		return fmt.Errorf("%w: unexpected health body", ErrUnhealthy)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveSetsToFile writes the generated sets as a JSON array.
func saveSetsToFile(ctx context.Context, filename string, sets []SubjectSet) error {
	if len(sets) == 0 {
		return ErrNoSets
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(sets, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal subject sets: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "subject sets saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var matchRate, setsPerSecond float64

	if stats.SetsSubmitted > 0 {
		matchRate = float64(stats.SetsMatched) / float64(stats.SetsSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		setsPerSecond = float64(stats.SetsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("setsGenerated", stats.SetsGenerated),
		logger.Int("setsSubmitted", stats.SetsSubmitted),
		logger.Int("setsMatched", stats.SetsMatched),
		logger.Int("setsMismatch", stats.SetsMismatch),
		logger.Int("setsFailed", stats.SetsFailed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("matchRate", matchRate),
		logger.Float64("setsPerSecond", setsPerSecond))
}
