package date

import (
	"fmt"
	"iter"
)

// Range is an inclusive span of days. The zero Range is empty.
type Range struct{ From, To Date }

// NewRange returns the inclusive range [from, to].
// It panics if to is before from; callers build ranges from ordered inputs.
func NewRange(from, to Date) Range {
	if to.Before(from) {
		panic(fmt.Sprintf("invalid range: %s after %s", from, to))
	}
	return Range{From: from, To: to}
}

// LastDays returns the range covering the n days ending at 'to', inclusive.
func LastDays(to Date, n int) Range {
	if n < 1 {
		n = 1
	}
	return Range{From: to.Add(-(n - 1)), To: to}
}

// Contains reports whether day is inside the range, boundaries included.
func (r Range) Contains(day Date) bool {
	return !day.Before(r.From) && !day.After(r.To)
}

// Days returns the number of days in the range, boundaries included.
func (r Range) Days() int { return r.To.Sub(r.From) + 1 }

// Each iterates the days of the range in ascending order.
func (r Range) Each() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for d := r.From; !d.After(r.To); d = d.Add(1) {
			if !yield(d) {
				return
			}
		}
	}
}

func (r Range) String() string {
	return fmt.Sprintf("%s..%s", r.From, r.To)
}
