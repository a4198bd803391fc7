package treeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/zack-schrag/treeline-money-sub002/date"
)

// Provider adapts one external data source to the sync pipeline. Adapters
// normalize payloads into FetchResult and never touch the store; the
// reconciliation engine owns all writes.
type Provider interface {
	// Name is the identifier integrations dispatch on ("simplefin",
	// "csv", "demo").
	Name() string

	// Fetch returns accounts and transactions for the window. Individual
	// records the adapter cannot normalize become Warnings (the rest of
	// the batch survives); a failure of the source itself is returned as
	// a ProviderError.
	Fetch(ctx context.Context, integration Integration, window date.Range) (*FetchResult, error)
}

// FetchResult is a provider's normalized payload for one fetch.
type FetchResult struct {
	Accounts []SourceAccount
	// Warnings carries provider-reported notices and per-record
	// normalization failures that did not abort the fetch.
	Warnings []string
}

// SourceAccount is an account as one provider sees it, keyed by the
// provider's native account id.
type SourceAccount struct {
	NativeID string
	Name     string
	Currency string
	// TypeHint is the provider's free-form account classification
	// ("depository", "credit"); empty when the source has none.
	TypeHint     string
	Balance      Money
	HasBalance   bool // some sources (CSV) report no balance at all
	Institution  Institution
	Transactions []SourceTransaction
}

// SourceTransaction is one transaction as fetched, before fingerprinting.
// NativeID may be empty (CSV rows); Date is the calendar day the
// transaction occurred, Posted the day it settled.
type SourceTransaction struct {
	NativeID    string
	Amount      Money
	Description string
	Date        date.Date
	Posted      date.Date
	Tags        []string          // pre-categorized sources only
	Extra       map[string]string // loose provider fields, kept for display
}

// Registry is the closed set of providers a Syncer dispatches over. Unknown
// names are configuration mistakes, reported as MalformedDataError rather
// than discovered dynamically.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds a registry over the given providers. Duplicate names
// panic: the provider set is assembled once at startup from literals.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if _, dup := r.providers[p.Name()]; dup {
			panic(fmt.Sprintf("duplicate provider %q", p.Name()))
		}
		r.providers[p.Name()] = p
	}
	return r
}

// Lookup resolves a provider by name.
func (r *Registry) Lookup(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, &MalformedDataError{Reason: fmt.Sprintf("unknown provider %q (have %v)", name, r.Names())}
	}
	return p, nil
}

// Names lists the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
