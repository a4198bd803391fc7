package treeline

import (
	"errors"
	"fmt"
)

// The sync pipeline distinguishes five failure classes. What matters about
// each is its blast radius: whether it poisons a single item, an account
// batch, an integration run, or nothing at all. Callers branch with
// errors.As; everything wraps its cause for errors.Is.

// ProviderError is an upstream failure: network, auth, rate limit, or a
// payload the provider itself flags. It fails the integration it belongs to
// and never halts the others.
type ProviderError struct {
	Provider string
	Op       string // "fetch", "claim", ...
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// MalformedDataError is a single record the adapter cannot normalize: an
// unparseable amount, a missing date, an unknown provider name. The record
// is skipped and reported; the rest of the batch proceeds.
type MalformedDataError struct {
	Reason string
	Err    error
}

func (e *MalformedDataError) Error() string {
	if e.Err == nil {
		return "malformed data: " + e.Reason
	}
	return fmt.Sprintf("malformed data: %s: %v", e.Reason, e.Err)
}

func (e *MalformedDataError) Unwrap() error { return e.Err }

// FingerprintAmbiguityError marks the second occurrence of a content
// fingerprint inside one batch. The duplicate is skipped; two genuinely
// identical same-day cash purchases without native ids will collapse, and
// the warning is the user's only trace of it.
type FingerprintAmbiguityError struct {
	Fingerprint string
	Description string
}

func (e *FingerprintAmbiguityError) Error() string {
	return fmt.Sprintf("ambiguous fingerprint %s for %q: duplicate within batch skipped", e.Fingerprint, e.Description)
}

// BackfillPreconditionError reports an account the estimator cannot start
// on: no observed snapshot to anchor from, or no transaction history to walk.
// The account yields zero estimated rows and a warning, nothing more.
type BackfillPreconditionError struct {
	AccountID string
	Reason    string
}

func (e *BackfillPreconditionError) Error() string {
	return fmt.Sprintf("backfill skipped for account %s: %s", e.AccountID, e.Reason)
}

// StoreError is a persistence failure. The account batch it interrupted is
// rolled back whole; the integration run that owned the batch fails.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsFatal reports whether err must abort the current integration run rather
// than be downgraded to a warning.
func IsFatal(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
