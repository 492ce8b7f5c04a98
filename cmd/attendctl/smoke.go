package main

import (
	"context"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/attendance/internal/smoke"
)

const (
	defaultWorkersPerCPU = 2
	defaultRunTimeout    = 10 * time.Minute
)

func newSmokeCmd() *cobra.Command {
	cfg := smoke.Config{}
	var (
		logFile  string
		deadline time.Duration
	)

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Submit random subject sets to a server and verify every answer",
		Example: `  attendctl smoke
  attendctl smoke --url http://localhost:8080 --sets 5000 --workers 16
  attendctl smoke --verbose --log smoke.log`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			closeLog, err := smoke.SetupLogging(logFile, cfg.Verbose)
			defer func() { _ = closeLog() }()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), deadline)
			defer cancel()

			_, err = smoke.Run(ctx, cfg)
			return err
		},
	}

	cmd.Flags().StringVar(&cfg.BaseURL, "url", smoke.DefaultBaseURL, "base URL of the service")
	cmd.Flags().IntVar(&cfg.Sets, "sets", smoke.DefaultSets, "number of subject sets to submit")
	cmd.Flags().IntVar(&cfg.MaxSubjects, "max-subjects", smoke.DefaultMaxSubjects, "maximum subjects per set")
	cmd.Flags().IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkersPerCPU, "number of concurrent workers")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", smoke.DefaultTimeout, "HTTP request timeout")
	cmd.Flags().StringVar(&cfg.OutputFile, "output", "", "write generated subject sets to this JSON file")
	cmd.Flags().StringVar(&logFile, "log", "", "also write logs to this file")
	cmd.Flags().BoolVar(&cfg.Verbose, "verbose", false, "log every mismatch and debug output")
	cmd.Flags().DurationVar(&deadline, "deadline", defaultRunTimeout, "overall time limit for the run")

	return cmd
}
