package attendance

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// CountKind distinguishes a finite lecture count from the two sentinels.
type CountKind uint8

const (
	// KindFinite is an ordinary non-negative count.
	KindFinite CountKind = iota
	// KindUnbounded means any number of lectures satisfies the threshold (threshold 0).
	KindUnbounded
	// KindUnreachable means no number of lectures satisfies the threshold (threshold 100
	// after an absence).
	KindUnreachable
)

const (
	unboundedText   = "unbounded"
	unreachableText = "unreachable"
)

// Count is a number of future lectures. The zero value is a finite 0.
type Count struct {
	Kind CountKind
	N    int
}

// Exactly returns a finite count.
func Exactly(n int) Count { return Count{Kind: KindFinite, N: n} }

// Unbounded returns the sentinel for "no limit".
func Unbounded() Count { return Count{Kind: KindUnbounded} }

// Unreachable returns the sentinel for "cannot be satisfied".
func Unreachable() Count { return Count{Kind: KindUnreachable} }

// IsFinite reports whether c holds an ordinary number.
func (c Count) IsFinite() bool { return c.Kind == KindFinite }

// Value returns the finite value and true, or 0 and false for a sentinel.
func (c Count) Value() (int, bool) {
	if c.Kind != KindFinite {
		return 0, false
	}
	return c.N, true
}

func (c Count) String() string {
	switch c.Kind {
	case KindUnbounded:
		return unboundedText
	case KindUnreachable:
		return unreachableText
	default:
		return strconv.Itoa(c.N)
	}
}

// MarshalJSON encodes finite counts as numbers and sentinels as strings.
func (c Count) MarshalJSON() ([]byte, error) {
	if c.Kind == KindFinite {
		return []byte(strconv.Itoa(c.N)), nil
	}
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts the forms produced by MarshalJSON.
func (c *Count) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*c = Exactly(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("count must be a number or a string: %w", err)
	}
	switch s {
	case unboundedText:
		*c = Unbounded()
	case unreachableText:
		*c = Unreachable()
	default:
		return fmt.Errorf("unknown count %q", s)
	}
	return nil
}
