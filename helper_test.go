package treeline

import (
	"time"

	"github.com/zack-schrag/treeline-money-sub002/date"
)

// USD is a helper for tests to create dollar money from const
func USD(v float64) Money { return M(v, "USD") }

// EUR is a helper for tests to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// day is a helper for tests to build a date from its ISO form
func day(s string) date.Date { return date.MustParse(s) }

// at is a helper for tests to build a noon instant on a day
func at(s string) time.Time { return day(s).Time().Add(12 * time.Hour) }

// srcTx is a helper for tests to build a fetched transaction
func srcTx(nativeID string, amount Money, desc, onDay string) SourceTransaction {
	return SourceTransaction{
		NativeID:    nativeID,
		Amount:      amount,
		Description: desc,
		Date:        day(onDay),
		Posted:      day(onDay),
	}
}

// fixedClock pins the pipeline's notion of now for a test
func fixedClock(s string) func() time.Time {
	t := at(s)
	return func() time.Time { return t }
}
