package smoke

import (
	"fmt"

	"github.com/okian/attendance/internal/domain/attendance"
)

// compareEvaluations reports the first difference between want and got.
func compareEvaluations(want, got attendance.Evaluation) error {
	if want.Threshold != got.Threshold {
		return fmt.Errorf("%w: threshold %d, want %d", ErrMismatch, got.Threshold, want.Threshold)
	}
	if len(want.Subjects) != len(got.Subjects) {
		return fmt.Errorf("%w: %d subjects, want %d", ErrMismatch, len(got.Subjects), len(want.Subjects))
	}
	for i := range want.Subjects {
		w, g := want.Subjects[i], got.Subjects[i]
		if w.Name != g.Name || w.Present != g.Present || w.Total != g.Total {
			return fmt.Errorf("%w: subject %d echoed as %q %d/%d", ErrMismatch, i, g.Name, g.Present, g.Total)
		}
		if err := compareOutcome(fmt.Sprintf("subject %q", w.Name),
			w.Percentage, g.Percentage, w.Status, g.Status,
			w.ClassesNeeded, g.ClassesNeeded, w.CanSkip, g.CanSkip); err != nil {
			return err
		}
	}

	wa, ga := want.Aggregate, got.Aggregate
	if wa.TotalPresent != ga.TotalPresent || wa.TotalLectures != ga.TotalLectures {
		return fmt.Errorf("%w: aggregate totals %d/%d, want %d/%d",
			ErrMismatch, ga.TotalPresent, ga.TotalLectures, wa.TotalPresent, wa.TotalLectures)
	}
	return compareOutcome("aggregate",
		wa.Percentage, ga.Percentage, wa.Status, ga.Status,
		wa.ClassesNeeded, ga.ClassesNeeded, wa.CanSkip, ga.CanSkip)
}

func compareOutcome(what string, wantPct, gotPct float64, wantStatus, gotStatus attendance.Status,
	wantNeeded, gotNeeded, wantSkip, gotSkip *attendance.Count,
) error {
	if wantPct != gotPct {
		return fmt.Errorf("%w: %s percentage %.2f, want %.2f", ErrMismatch, what, gotPct, wantPct)
	}
	if wantStatus != gotStatus {
		return fmt.Errorf("%w: %s status %s, want %s", ErrMismatch, what, gotStatus, wantStatus)
	}
	if !sameCount(wantNeeded, gotNeeded) {
		return fmt.Errorf("%w: %s classes needed %s, want %s", ErrMismatch, what, countText(gotNeeded), countText(wantNeeded))
	}
	if !sameCount(wantSkip, gotSkip) {
		return fmt.Errorf("%w: %s can skip %s, want %s", ErrMismatch, what, countText(gotSkip), countText(wantSkip))
	}
	return nil
}

func sameCount(a, b *attendance.Count) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func countText(c *attendance.Count) string {
	if c == nil {
		return "none"
	}
	return c.String()
}
