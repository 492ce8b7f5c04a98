// Package smoke drives a running attendance server with random subject sets
// and checks every answer against a local evaluation.
package smoke

import (
	"time"

	"github.com/okian/attendance/internal/domain/attendance"
)

// Config holds configuration for a smoke run
type Config struct {
	BaseURL     string        // Base URL of the service
	Sets        int           // Number of subject sets to generate
	MaxSubjects int           // Upper bound of subjects per set
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Optional JSON dump of generated sets
	Verbose     bool          // Log every mismatch
}

// SubjectSet is one generated request.
type SubjectSet struct {
	ID        string                     `json:"id"`
	Threshold int                        `json:"threshold"`
	Subjects  []attendance.SubjectRecord `json:"subjects"`
}

// Stats holds run statistics
type Stats struct {
	SetsGenerated int
	SetsSubmitted int
	SetsMatched   int
	SetsMismatch  int
	SetsFailed    int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}
