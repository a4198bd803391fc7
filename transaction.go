package treeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/zack-schrag/treeline-money-sub002/date"
)

// Transaction is one posted movement of money on an account. Amount is
// signed: negative leaves the account, positive enters it.
//
// DedupKey is unique per account and is the identity sync reconciles on:
// either a namespaced provider native id or, failing that, the content
// fingerprint. Fingerprint is always the content fingerprint, stored even
// when the native id wins, so rows from id-less sources (CSV) can still
// collide with rows from id-bearing ones.
//
// After insert the core fields (amount, dates, description, keys) are never
// rewritten by sync. Tags belong to the tagging collaborator: sync writes
// them once at insert time (whatever the source pre-categorized, usually
// nothing) and never touches them again.
type Transaction struct {
	ID          string            `json:"id"`
	AccountID   string            `json:"accountId"`
	Amount      Money             `json:"amount"`
	Description string            `json:"description"`
	Date        date.Date         `json:"date"`
	Posted      date.Date         `json:"posted"`
	Tags        []string          `json:"tags,omitempty"`
	ExternalIDs map[string]string `json:"externalIds,omitempty"`
	DedupKey    string            `json:"dedupKey"`
	Fingerprint string            `json:"fingerprint"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// NewTransaction returns a transaction with a fresh id, posted date
// defaulting to the transaction date.
func NewTransaction(accountID string, amount Money, description string, day date.Date) Transaction {
	return Transaction{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Amount:      amount,
		Description: description,
		Date:        day,
		Posted:      day,
		CreatedAt:   time.Now().UTC(),
	}
}

// Net sums the signed amounts of txs. Currency follows Money's weak-""
// merge rule.
func Net(txs []Transaction) Money {
	var total Money
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	return total
}

// ByDay groups transactions by their posting day.
func ByDay(txs []Transaction) map[date.Date][]Transaction {
	m := make(map[date.Date][]Transaction)
	for _, tx := range txs {
		m[tx.Date] = append(m[tx.Date], tx)
	}
	return m
}
