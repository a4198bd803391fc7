package treeline

import (
	"time"

	"github.com/google/uuid"
)

// AccountType classifies an account for reporting. Providers rarely agree
// on taxonomy, so accounts discovered by sync start as TypeUnknown until the
// user sets one.
type AccountType string

const (
	TypeChecking   AccountType = "checking"
	TypeSavings    AccountType = "savings"
	TypeCredit     AccountType = "credit"
	TypeInvestment AccountType = "investment"
	TypeUnknown    AccountType = "unknown"
)

// ParseAccountType maps a free-form label to an AccountType, defaulting to
// TypeUnknown.
func ParseAccountType(s string) AccountType {
	switch AccountType(s) {
	case TypeChecking, TypeSavings, TypeCredit, TypeInvestment:
		return AccountType(s)
	case "depository":
		// SimpleFIN's umbrella term for checking/savings
		return TypeChecking
	}
	return TypeUnknown
}

// Account is a financial account known to the store. ExternalIDs maps each
// provider name to that provider's native account id; this is how a sync run
// recognizes which local account a payload belongs to. Sync creates accounts
// it has never seen and updates cached balances, but never deletes or
// unlinks one.
type Account struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Nickname    string            `json:"nickname,omitempty"`
	Type        AccountType       `json:"type"`
	Currency    string            `json:"currency"`
	Balance     Money             `json:"balance"`
	ExternalIDs map[string]string `json:"externalIds,omitempty"`
	Institution Institution       `json:"institution,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Institution describes the bank or org behind an account, as reported by
// the provider.
type Institution struct {
	Name   string `json:"name,omitempty"`
	URL    string `json:"url,omitempty"`
	Domain string `json:"domain,omitempty"`
}

// NewAccount returns an account with a fresh id, defaulting the currency to
// USD and the type to unknown.
func NewAccount(name string) Account {
	now := time.Now().UTC()
	return Account{
		ID:          uuid.NewString(),
		Name:        name,
		Type:        TypeUnknown,
		Currency:    "USD",
		ExternalIDs: map[string]string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// DisplayName prefers the user's nickname over the provider's name.
func (a Account) DisplayName() string {
	if a.Nickname != "" {
		return a.Nickname
	}
	return a.Name
}

// ExternalID returns the native id this account has under the given
// provider, if linked.
func (a Account) ExternalID(provider string) (string, bool) {
	id, ok := a.ExternalIDs[provider]
	return id, ok
}
