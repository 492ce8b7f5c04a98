package smoke

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/google/uuid"

	"github.com/okian/attendance/internal/domain/attendance"
	"github.com/okian/attendance/pkg/logger"
)

// Constants for subject generation ranges.
const (
	maxLectures       = 120
	thresholdCases    = 8
	attendanceCases   = 8
	commonThreshold   = 75
	namePrefix        = "Subject "
	defaultMinSubject = 1
)

// Constants for threshold cases.
const (
	caseThresholdZero    = 0
	caseThresholdFull    = 1
	caseThresholdCommon  = 2
	caseThresholdCommon2 = 3
)

// Constants for attendance cases.
const (
	caseNoLectures  = 0
	caseAbsentAll   = 1
	casePresentAll  = 2
	caseOneAbsence  = 3
	caseOneAttended = 4
)

// randomInt returns a uniform integer in [0, n) using crypto/rand.
func randomInt(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// Generate creates cfg.Sets random subject sets using a pool of workers.
func Generate(ctx context.Context, cfg *Config, stats *Stats) ([]SubjectSet, error) {
	logger.Get().Info(ctx, "generating subject sets", logger.Int("sets", cfg.Sets))
	if cfg.Sets <= 0 {
		return nil, ErrNoSets
	}

	sets := make([]SubjectSet, cfg.Sets)

	type setResult struct {
		index int
		set   SubjectSet
		err   error
	}

	resultChan := make(chan setResult, cfg.Sets)

	workerCount := max(min(cfg.Workers, cfg.Sets), 1)
	setsPerWorker := cfg.Sets / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * setsPerWorker
		end := start + setsPerWorker
		if worker == workerCount-1 {
			end = cfg.Sets // Last worker gets remaining sets
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- setResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- setResult{index: i, set: generateSet(cfg.MaxSubjects)}
				}
			}
		}(start, end)
	}

	for i := 0; i < cfg.Sets; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate set %d: %w", result.index, result.err)
			}
			sets[result.index] = result.set
		}
	}

	stats.SetsGenerated = len(sets)
	logger.Get().Info(ctx, "generated subject sets", logger.Int("count", len(sets)))
	return sets, nil
}

// generateSet creates one set with between 1 and maxSubjects subjects.
func generateSet(maxSubjects int) SubjectSet {
	if maxSubjects < defaultMinSubject {
		maxSubjects = defaultMinSubject
	}
	n := defaultMinSubject + randomInt(maxSubjects)
	subjects := make([]attendance.SubjectRecord, n)
	for i := range subjects {
		total, present := generateAttendance()
		subjects[i] = attendance.SubjectRecord{
			Name:    namePrefix + strconv.Itoa(i+1),
			Total:   total,
			Present: present,
		}
	}
	return SubjectSet{
		ID:        uuid.NewString(),
		Threshold: generateThreshold(),
		Subjects:  subjects,
	}
}

// generateThreshold favours the boundary and common thresholds.
func generateThreshold() int {
	switch randomInt(thresholdCases) {
	case caseThresholdZero:
		return attendance.MinThreshold
	case caseThresholdFull:
		return attendance.MaxThreshold
	case caseThresholdCommon, caseThresholdCommon2:
		return commonThreshold
	default:
		return randomInt(attendance.MaxThreshold + 1)
	}
}

// generateAttendance returns total and present counts with edge cases mixed in.
func generateAttendance() (total, present int) {
	switch randomInt(attendanceCases) {
	case caseNoLectures:
		return 0, 0
	case caseAbsentAll:
		total = 1 + randomInt(maxLectures)
		return total, 0
	case casePresentAll:
		total = 1 + randomInt(maxLectures)
		return total, total
	case caseOneAbsence:
		total = 1 + randomInt(maxLectures)
		return total, total - 1
	case caseOneAttended:
		total = 1 + randomInt(maxLectures)
		return total, 1
	default:
		total = 1 + randomInt(maxLectures)
		return total, randomInt(total + 1)
	}
}
