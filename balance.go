package treeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/zack-schrag/treeline-money-sub002/date"
)

// BalanceSnapshot records an account's balance on one day. Observed rows
// come from a provider or the user; estimated rows are derived by the
// backfill estimator walking transaction history. The set is append-only
// except that regeneration may replace estimated rows; an observed row for a
// day always outranks an estimated one, and nothing ever deletes observed
// rows.
type BalanceSnapshot struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Balance   Money     `json:"balance"`
	Day       date.Date `json:"day"`
	At        time.Time `json:"at"`
	Estimated bool      `json:"estimated"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewObservedSnapshot records a balance actually reported at time at.
func NewObservedSnapshot(accountID string, balance Money, at time.Time) BalanceSnapshot {
	return BalanceSnapshot{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Balance:   balance,
		Day:       date.FromTime(at),
		At:        at,
		Estimated: false,
		CreatedAt: time.Now().UTC(),
	}
}

// NewEstimatedSnapshot records a derived end-of-day balance.
func NewEstimatedSnapshot(accountID string, balance Money, day date.Date) BalanceSnapshot {
	return BalanceSnapshot{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Balance:   balance,
		Day:       day,
		At:        day.EndOfDay(),
		Estimated: true,
		CreatedAt: time.Now().UTC(),
	}
}
