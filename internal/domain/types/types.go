// Package types contains common types used across the application
package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/attendance/internal/domain/attendance"
)

var (
	// ErrTooManySubjects is returned when a request carries more subjects than allowed.
	ErrTooManySubjects = errors.New("too many subjects")
	// ErrIncompletePayload is returned when a payload lacks a field or a subject name.
	ErrIncompletePayload = errors.New("incomplete payload")
)

// CalculateInput is a request to evaluate attendance. A nil Threshold selects
// the service default.
type CalculateInput struct {
	Subjects  []attendance.SubjectRecord
	Threshold *int
}

// ThresholdOr returns the requested threshold, or def when none was given.
func (in CalculateInput) ThresholdOr(def int) int {
	if in.Threshold == nil {
		return def
	}
	return *in.Threshold
}

// SubjectPayload is the wire form of one subject row. Counts are pointers so
// a missing field can be told apart from an explicit zero.
type SubjectPayload struct {
	Subject string `json:"subject" yaml:"subject"`
	Total   *int   `json:"total" yaml:"total"`
	Present *int   `json:"present" yaml:"present"`
}

// Payload is the wire form of a calculate request, shared by the HTTP API,
// clients and file inputs.
type Payload struct {
	Threshold *int             `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Subjects  []SubjectPayload `json:"subjects" yaml:"subjects"`
}

// NewPayload builds the wire form of records evaluated against threshold.
func NewPayload(records []attendance.SubjectRecord, threshold int) Payload {
	p := Payload{Threshold: &threshold, Subjects: make([]SubjectPayload, len(records))}
	for i, r := range records {
		total, present := r.Total, r.Present
		p.Subjects[i] = SubjectPayload{Subject: r.Name, Total: &total, Present: &present}
	}
	return p
}

// Validate checks that every field is present and every subject is named.
// Value ranges are left to the evaluator.
func (p Payload) Validate() error {
	if p.Subjects == nil {
		return fmt.Errorf("%w: missing subjects", ErrIncompletePayload)
	}
	for i, s := range p.Subjects {
		switch {
		case strings.TrimSpace(s.Subject) == "":
			return fmt.Errorf("%w: subjects[%d]: missing subject", ErrIncompletePayload, i)
		case s.Total == nil:
			return fmt.Errorf("%w: subjects[%d]: missing total", ErrIncompletePayload, i)
		case s.Present == nil:
			return fmt.Errorf("%w: subjects[%d]: missing present", ErrIncompletePayload, i)
		}
	}
	return nil
}

// Input validates the payload and converts it into a CalculateInput with
// trimmed subject names.
func (p Payload) Input() (CalculateInput, error) {
	if err := p.Validate(); err != nil {
		return CalculateInput{}, err
	}
	records := make([]attendance.SubjectRecord, len(p.Subjects))
	for i, s := range p.Subjects {
		records[i] = attendance.SubjectRecord{
			Name:    strings.TrimSpace(s.Subject),
			Total:   *s.Total,
			Present: *s.Present,
		}
	}
	return CalculateInput{Subjects: records, Threshold: p.Threshold}, nil
}
