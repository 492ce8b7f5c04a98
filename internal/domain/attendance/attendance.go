// Package attendance computes attendance percentages and how far each subject is
// from a minimum attendance threshold.
//
// All arithmetic is done on integers. Percentages are kept in hundredths of a
// percent and rounded half-up, so results never depend on binary floating point
// ties. Counts are bounded by MaxLectures so the integer products cannot
// overflow. The package is stateless and safe for concurrent use.
package attendance

import "strconv"

// Threshold bounds, in percent.
const (
	MinThreshold = 0
	MaxThreshold = 100
)

// MaxLectures bounds the total of a single subject and the sum of totals
// across subjects, which keeps every intermediate product inside int64.
const MaxLectures = 1_000_000_000

const (
	hundred    = 100
	hundredths = 100 * 100 // one whole (100%) expressed in hundredths of a percent
)

// Status classifies a percentage against the threshold.
type Status string

const (
	StatusSafe   Status = "Safe"
	StatusDanger Status = "Danger"
)

// SubjectRecord is one row of attendance input.
type SubjectRecord struct {
	Name    string
	Total   int
	Present int
}

// SubjectResult is the evaluation of a single subject. Exactly one of
// ClassesNeeded (Danger) and CanSkip (Safe) is set.
type SubjectResult struct {
	Name          string  `json:"subject"`
	Present       int     `json:"present"`
	Total         int     `json:"total"`
	Percentage    float64 `json:"percentage"`
	Status        Status  `json:"status"`
	ClassesNeeded *Count  `json:"classes_needed,omitempty"`
	CanSkip       *Count  `json:"can_skip,omitempty"`
}

// AggregateResult is the evaluation of the summed counts of every subject.
type AggregateResult struct {
	TotalPresent  int     `json:"total_present"`
	TotalLectures int     `json:"total_lectures"`
	Percentage    float64 `json:"percentage"`
	Status        Status  `json:"status"`
	ClassesNeeded *Count  `json:"classes_needed,omitempty"`
	CanSkip       *Count  `json:"can_skip,omitempty"`
}

// Evaluation is the full result of Evaluate.
type Evaluation struct {
	Threshold int             `json:"threshold"`
	Subjects  []SubjectResult `json:"subjects"`
	Aggregate AggregateResult `json:"aggregate"`
}

// Danger reports how many subjects are below threshold.
func (e Evaluation) Danger() int {
	n := 0
	for _, s := range e.Subjects {
		if s.Status == StatusDanger {
			n++
		}
	}
	return n
}

// Evaluate validates records and threshold and evaluates every subject and the
// aggregate. The aggregate is computed from the summed present and total counts,
// not from the per-subject percentages.
func Evaluate(records []SubjectRecord, threshold int) (Evaluation, error) {
	if err := Validate(records, threshold); err != nil {
		return Evaluation{}, err
	}

	ev := Evaluation{
		Threshold: threshold,
		Subjects:  make([]SubjectResult, 0, len(records)),
	}
	var sumPresent, sumTotal int
	for _, r := range records {
		ev.Subjects = append(ev.Subjects, EvaluateSubject(r, threshold))
		sumPresent += r.Present
		sumTotal += r.Total
	}

	o := evaluate(sumPresent, sumTotal, threshold)
	ev.Aggregate = AggregateResult{
		TotalPresent:  sumPresent,
		TotalLectures: sumTotal,
		Percentage:    o.percentage,
		Status:        o.status,
		ClassesNeeded: o.classesNeeded,
		CanSkip:       o.canSkip,
	}
	return ev, nil
}

// Validate checks the input of Evaluate without computing anything.
func Validate(records []SubjectRecord, threshold int) error {
	if threshold < MinThreshold || threshold > MaxThreshold {
		return invalid(-1, "threshold", "must be between 0 and 100")
	}
	if len(records) == 0 {
		return invalid(-1, "subjects", "at least one subject is required")
	}
	sum := 0
	for i, r := range records {
		switch {
		case r.Total < 0:
			return invalid(i, "total", "must not be negative")
		case r.Total > MaxLectures:
			return invalid(i, "total", "must not exceed "+strconv.Itoa(MaxLectures))
		case r.Present < 0:
			return invalid(i, "present", "must not be negative")
		case r.Present > r.Total:
			return invalid(i, "present", "must not exceed total")
		}
		sum += r.Total
		if sum > MaxLectures {
			return invalid(-1, "subjects", "total lectures must not exceed "+strconv.Itoa(MaxLectures))
		}
	}
	return nil
}

// EvaluateSubject evaluates one record. It assumes the record and threshold are
// valid; use Evaluate for checked input.
func EvaluateSubject(r SubjectRecord, threshold int) SubjectResult {
	o := evaluate(r.Present, r.Total, threshold)
	return SubjectResult{
		Name:          r.Name,
		Present:       r.Present,
		Total:         r.Total,
		Percentage:    o.percentage,
		Status:        o.status,
		ClassesNeeded: o.classesNeeded,
		CanSkip:       o.canSkip,
	}
}

type outcome struct {
	percentage    float64
	status        Status
	classesNeeded *Count
	canSkip       *Count
}

func evaluate(present, total, threshold int) outcome {
	h := percentageHundredths(present, total)
	o := outcome{
		percentage: float64(h) / hundred,
		status:     classify(h, threshold),
	}
	if o.status == StatusDanger {
		c := ClassesNeeded(present, total, threshold)
		o.classesNeeded = &c
	} else {
		c := CanSkip(present, total, threshold)
		o.canSkip = &c
	}
	return o
}

// Percentage returns present/total*100 rounded half-up to two decimal places,
// or 0 when total is 0. Like the other single-figure helpers it expects counts
// within MaxLectures.
func Percentage(present, total int) float64 {
	return float64(percentageHundredths(present, total)) / hundred
}

// ClassifyStatus returns Safe when the rounded percentage is at or above threshold.
func ClassifyStatus(present, total, threshold int) Status {
	return classify(percentageHundredths(present, total), threshold)
}

func classify(pctHundredths int64, threshold int) Status {
	if pctHundredths >= int64(threshold)*hundred {
		return StatusSafe
	}
	return StatusDanger
}

// percentageHundredths is round_half_up(present*10000/total).
func percentageHundredths(present, total int) int64 {
	if total == 0 {
		return 0
	}
	p, t := int64(present), int64(total)
	return (2*hundredths*p + t) / (2 * t)
}

// ClassesNeeded returns the smallest k >= 0 such that attending the next k lectures
// brings (present+k)/(total+k) to at least threshold percent. With no lectures
// held yet a single attended lecture is enough. A threshold of 100 cannot be
// reached once a lecture has been missed.
func ClassesNeeded(present, total, threshold int) Count {
	p, t, th := int64(present), int64(total), int64(threshold)
	if th >= MaxThreshold {
		if p < t {
			return Unreachable()
		}
		if t == 0 {
			return Exactly(1)
		}
		return Exactly(0)
	}

	// (p+k)*100 >= th*(t+k)  <=>  k >= (th*t - 100*p) / (100 - th)
	num := th*t - hundred*p
	den := hundred - th
	var k int64
	if num > 0 {
		k = (num + den - 1) / den
	}
	if t+k == 0 {
		k = 1
	}
	return Exactly(int(k))
}

// CanSkip returns the largest k >= 0 such that missing the next k lectures keeps
// present/(total+k) at or above threshold percent. A threshold of 0 never
// constrains skipping. It uses the exact ratio while the status uses the rounded
// percentage, so a subject at 74.996% against 75 is Safe with 0 to skip.
func CanSkip(present, total, threshold int) Count {
	if threshold <= MinThreshold {
		return Unbounded()
	}
	p, t, th := int64(present), int64(total), int64(threshold)

	// p*100 >= th*(t+k)  <=>  k <= (100*p - th*t) / th
	num := hundred*p - th*t
	if num <= 0 {
		return Exactly(0)
	}
	return Exactly(int(num / th))
}
