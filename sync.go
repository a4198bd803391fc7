package treeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/zack-schrag/treeline-money-sub002/date"
)

// SyncAll runs every enabled integration in turn. Failures are isolated:
// an integration that cannot fetch or persist is reported and the loop
// moves on. The report is returned even when an error is.
func (s *Syncer) SyncAll(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{Started: s.now(), DryRun: s.dryRun}
	defer func() { report.Finished = s.now() }()

	integrations, err := s.store.Integrations(ctx)
	if err != nil {
		return report, &StoreError{Op: "list integrations", Err: err}
	}

	log := Logger(ctx)
	for _, in := range integrations {
		if in.Disabled {
			log.Debug().Str("integration", in.Name).Msg("integration disabled, skipping")
			continue
		}
		report.add(s.syncIntegration(ctx, in))
	}
	return report, nil
}

// SyncOne runs a single integration by name.
func (s *Syncer) SyncOne(ctx context.Context, name string) (*SyncReport, error) {
	report := &SyncReport{Started: s.now(), DryRun: s.dryRun}
	defer func() { report.Finished = s.now() }()

	in, ok, err := s.store.Integration(ctx, name)
	if err != nil {
		return report, &StoreError{Op: "load integration", Err: err}
	}
	if !ok {
		return report, fmt.Errorf("no integration named %q", name)
	}

	report.add(s.syncIntegration(ctx, in))
	return report, nil
}

// syncIntegration fetches one integration and reconciles its accounts.
// Never returns an error: every failure lands in the report entry.
func (s *Syncer) syncIntegration(ctx context.Context, in Integration) IntegrationReport {
	start := s.now()
	entry := IntegrationReport{Integration: in.Name, Provider: in.Provider}
	defer func() { entry.Elapsed = s.now().Sub(start) }()

	log := Logger(ctx).With().Str("integration", in.Name).Str("provider", in.Provider).Logger()
	ctx = WithLogger(ctx, log)

	provider, err := s.registry.Lookup(in.Provider)
	if err != nil {
		entry.Err = err.Error()
		log.Error().Err(err).Msg("integration misconfigured")
		return entry
	}

	linked, err := s.linkedAccountIDs(ctx, in.Provider)
	if err != nil {
		entry.Err = err.Error()
		return entry
	}

	window, err := s.syncWindow(ctx, linked)
	if err != nil {
		entry.Err = err.Error()
		return entry
	}
	log.Info().Str("window", window.String()).Bool("dry_run", s.dryRun).Msg("sync started")

	result, err := provider.Fetch(ctx, in, window)
	if err != nil {
		var perr *ProviderError
		if !errors.As(err, &perr) {
			err = &ProviderError{Provider: in.Provider, Op: "fetch", Err: err}
		}
		entry.Err = err.Error()
		log.Warn().Err(err).Msg("fetch failed, integration isolated")
		return entry
	}
	entry.Warnings = append(entry.Warnings, result.Warnings...)

	for _, src := range result.Accounts {
		account, created, err := s.resolveAccount(ctx, in.Provider, src)
		if err != nil {
			entry.Err = err.Error()
			break
		}
		if created {
			entry.NewAccounts = append(entry.NewAccounts, account.DisplayName())
		}

		if in.BalancesOnly {
			entry.Stats.Discovered += len(src.Transactions)
			entry.Stats.Skipped += len(src.Transactions)
		} else {
			stats, warnings, err := s.reconcileAccount(ctx, account, in.Provider, src.Transactions, window)
			entry.Stats.Add(stats)
			entry.Warnings = append(entry.Warnings, warnings...)
			if err != nil {
				// the account batch rolled back whole; stop this
				// integration, others still run
				entry.Err = err.Error()
				log.Error().Err(err).Str("account", account.DisplayName()).Msg("persist failed")
				break
			}
		}

		recorded, err := s.recordAccountBalance(ctx, account, src)
		if err != nil {
			entry.Err = err.Error()
			break
		}
		if recorded {
			entry.SnapshotsRecorded++
		}
	}

	log.Info().Int("discovered", entry.Stats.Discovered).Int("new", entry.Stats.New).
		Int("skipped", entry.Stats.Skipped).Int("snapshots", entry.SnapshotsRecorded).
		Msg("sync finished")
	return entry
}

// linkedAccountIDs lists local accounts already linked to the provider,
// for window computation.
func (s *Syncer) linkedAccountIDs(ctx context.Context, provider string) ([]string, error) {
	accounts, err := s.store.Accounts(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list accounts", Err: err}
	}
	var ids []string
	for _, a := range accounts {
		if _, ok := a.ExternalID(provider); ok {
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

// Window exposes the fetch window the next sync of the given provider
// would use. The status command shows it.
func (s *Syncer) Window(ctx context.Context, provider string) (date.Range, error) {
	linked, err := s.linkedAccountIDs(ctx, provider)
	if err != nil {
		return date.Range{}, err
	}
	return s.syncWindow(ctx, linked)
}

// ImportInto reconciles an already-fetched result into one existing local
// account, outside the integration loop. One-shot CSV imports use it: the
// caller picks the account, and the dedup window spans the parsed rows so a
// file overlapping API history still collides with it.
func (s *Syncer) ImportInto(ctx context.Context, accountID, provider string, result *FetchResult) (SyncStats, []string, error) {
	account, err := s.store.Account(ctx, accountID)
	if err != nil {
		return SyncStats{}, nil, &StoreError{Op: "load account", Err: err}
	}

	var rows []SourceTransaction
	for _, src := range result.Accounts {
		rows = append(rows, src.Transactions...)
	}
	warnings := append([]string(nil), result.Warnings...)
	if len(rows) == 0 {
		return SyncStats{}, warnings, nil
	}

	window := rowSpan(rows, date.FromTime(s.now()))
	stats, more, err := s.reconcileAccount(ctx, account, provider, rows, window)
	return stats, append(warnings, more...), err
}

// rowSpan is the day range covered by the rows, falling back to a
// single-day range when no row carries a date.
func rowSpan(rows []SourceTransaction, fallback date.Date) date.Range {
	span := date.Range{From: fallback, To: fallback}
	first := true
	for _, src := range rows {
		if src.Date.IsZero() {
			continue
		}
		if first {
			span = date.Range{From: src.Date, To: src.Date}
			first = false
			continue
		}
		span.From = date.Min(span.From, src.Date)
		span.To = date.Max(span.To, src.Date)
	}
	return span
}
