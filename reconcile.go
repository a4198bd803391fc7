package treeline

import (
	"context"
	"fmt"
	"time"

	"github.com/zack-schrag/treeline-money-sub002/date"
)

// SyncStats counts the outcome of reconciling one batch. Discovered is
// everything the provider sent; New landed in the store; Skipped was
// already known (or collapsed by the ambiguity rule). Malformed records are
// reported as warnings and appear only in Discovered.
type SyncStats struct {
	Discovered int `json:"discovered"`
	New        int `json:"new"`
	Skipped    int `json:"skipped"`
}

// Add accumulates other into s.
func (s *SyncStats) Add(other SyncStats) {
	s.Discovered += other.Discovered
	s.New += other.New
	s.Skipped += other.Skipped
}

// reconcileAccount classifies one account's fetched transactions against
// the store and persists the unmatched ones as a single batch.
//
// Each record moves through: fetched, fingerprinted, then matched against
// the stored keys for the overlap window (matched records are skipped),
// and finally the unmatched remainder is persisted in one atomic insert.
// A second occurrence of a content-derived key inside the batch is the
// ambiguity case: skipped, with a warning, because two id-less records with
// identical content cannot be told apart. A repeated native id is just the
// provider stuttering and is skipped silently into the count.
func (s *Syncer) reconcileAccount(ctx context.Context, account Account, provider string, srcTxs []SourceTransaction, window date.Range) (SyncStats, []string, error) {
	log := Logger(ctx).With().Str("account", account.DisplayName()).Logger()

	stats := SyncStats{Discovered: len(srcTxs)}
	var warnings []string

	existing, err := s.store.ExistingDedupKeys(ctx, account.ID, window)
	if err != nil {
		return stats, warnings, &StoreError{Op: "existing dedup keys", Err: err}
	}

	seen := NewDedupIndex()
	batch := make([]Transaction, 0, len(srcTxs))

	for _, src := range srcTxs {
		if src.Date.IsZero() {
			err := &MalformedDataError{Reason: fmt.Sprintf("transaction %q has no date", src.Description)}
			warnings = append(warnings, err.Error())
			log.Warn().Err(err).Msg("skipping malformed transaction")
			continue
		}
		if src.Amount.Currency() == "" {
			// id-less CSV rows have no currency column; the account's
			// currency decides the fingerprint scale, so it must be set
			// before hashing
			src.Amount = M(src.Amount.Decimal(), account.Currency)
		}

		key, fingerprint := DedupKeyFor(provider, src, account.ID)

		if existing.Matches(key, fingerprint) {
			stats.Skipped++
			continue
		}
		if seen.Matches(key, fingerprint) {
			stats.Skipped++
			if key == fingerprint {
				amb := &FingerprintAmbiguityError{Fingerprint: fingerprint, Description: src.Description}
				warnings = append(warnings, amb.Error())
				log.Warn().Str("fingerprint", fingerprint).Str("description", src.Description).
					Msg("duplicate fingerprint within batch, keeping first occurrence")
			}
			continue
		}
		seen.Add(key, fingerprint)

		tx := NewTransaction(account.ID, src.Amount, src.Description, src.Date)
		if !src.Posted.IsZero() {
			tx.Posted = src.Posted
		}
		tx.Tags = append(tx.Tags, src.Tags...)
		tx.DedupKey = key
		tx.Fingerprint = fingerprint
		if src.NativeID != "" {
			tx.ExternalIDs = map[string]string{provider: src.NativeID}
		}
		batch = append(batch, tx)
	}

	if s.dryRun {
		stats.New = len(batch)
		log.Info().Int("would_insert", len(batch)).Msg("dry run, skipping writes")
		return stats, warnings, nil
	}

	inserted, err := s.store.InsertTransactionsIfAbsent(ctx, account.ID, batch)
	if err != nil {
		return stats, warnings, &StoreError{Op: "insert transactions", Err: err}
	}
	stats.New = inserted
	// the store can still skip rows whose key exists outside the window
	stats.Skipped += len(batch) - inserted

	log.Debug().Int("discovered", stats.Discovered).Int("new", stats.New).Int("skipped", stats.Skipped).
		Msg("account reconciled")
	return stats, warnings, nil
}

// resolveAccount finds the local account linked to a provider native
// account id, creating and persisting a fresh one on first sight. Creation
// happens before any transaction insert so the account row always exists
// when its transactions arrive.
func (s *Syncer) resolveAccount(ctx context.Context, provider string, src SourceAccount) (Account, bool, error) {
	account, ok, err := s.store.AccountByExternalID(ctx, provider, src.NativeID)
	if err != nil {
		return Account{}, false, &StoreError{Op: "account lookup", Err: err}
	}
	if ok {
		return account, false, nil
	}

	account = NewAccount(src.Name)
	if src.Currency != "" {
		account.Currency = src.Currency
	}
	if src.TypeHint != "" {
		account.Type = ParseAccountType(src.TypeHint)
	}
	account.ExternalIDs[provider] = src.NativeID
	account.Institution = src.Institution
	if src.HasBalance {
		account.Balance = src.Balance
	}

	if s.dryRun {
		return account, true, nil
	}
	if err := s.store.UpsertAccount(ctx, account); err != nil {
		return Account{}, false, &StoreError{Op: "create account", Err: err}
	}
	log := Logger(ctx)
	log.Info().Str("account", account.Name).Str("provider", provider).
		Str("native_id", src.NativeID).Msg("discovered new account")
	return account, true, nil
}

// syncWindow computes the fetch window for an integration: from the latest
// known transaction day across its accounts minus the overlap, or the
// initial window when no history exists yet.
func (s *Syncer) syncWindow(ctx context.Context, accountIDs []string) (date.Range, error) {
	today := date.FromTime(s.now())

	latest, ok, err := s.store.LatestTransactionDay(ctx, accountIDs)
	if err != nil {
		return date.Range{}, &StoreError{Op: "latest transaction day", Err: err}
	}
	if !ok {
		return date.LastDays(today, s.initialWindow), nil
	}
	from := latest.Add(-s.overlap)
	if from.After(today) {
		from = today
	}
	return date.Range{From: from, To: today}, nil
}

// DefaultOverlapDays is the refetch overlap guarding against transactions
// that post days after they occur.
const DefaultOverlapDays = 7

// DefaultInitialWindowDays is the first-sync window for an integration with
// no stored history.
const DefaultInitialWindowDays = 90

// SyncOptions tunes a Syncer. Zero values take the defaults.
type SyncOptions struct {
	OverlapDays       int
	InitialWindowDays int
	// DryRun classifies and reports without writing anything.
	DryRun bool
	// Now is the clock, injectable for tests.
	Now func() time.Time
}

// Syncer drives sync runs over a store and a closed provider registry. It
// holds no global state: build one per run or share one, both work.
type Syncer struct {
	store         Store
	registry      *Registry
	overlap       int
	initialWindow int
	dryRun        bool
	now           func() time.Time
}

// NewSyncer builds a Syncer.
func NewSyncer(store Store, registry *Registry, opts SyncOptions) *Syncer {
	s := &Syncer{
		store:         store,
		registry:      registry,
		overlap:       opts.OverlapDays,
		initialWindow: opts.InitialWindowDays,
		dryRun:        opts.DryRun,
		now:           opts.Now,
	}
	if s.overlap <= 0 {
		s.overlap = DefaultOverlapDays
	}
	if s.initialWindow <= 0 {
		s.initialWindow = DefaultInitialWindowDays
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}
