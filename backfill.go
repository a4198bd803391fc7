package treeline

import (
	"context"
	"time"

	"github.com/zack-schrag/treeline-money-sub002/date"
)

// The backfill estimator reconstructs history no provider reported: given
// one trusted balance (the anchor) and the transaction log, yesterday's
// balance is today's balance minus today's net activity. Walking that
// recurrence backwards fills the days before the first observed snapshot
// with estimated rows.

// EstimateNote is the caveat attached to every backfill run.
const EstimateNote = "balance backfill produces estimates derived from transaction history, not observed balances"

// BackfillStats reports one backfill run.
type BackfillStats struct {
	AccountsProcessed int      `json:"accountsProcessed"`
	Created           int      `json:"created"`
	Skipped           int      `json:"skipped"`
	Warnings          []string `json:"warnings,omitempty"`
}

// BackfillOptions tunes a run. The zero value estimates as far back as the
// transaction history reaches.
type BackfillOptions struct {
	// Boundary stops the walk: no estimated row is written for a day
	// before it. Zero means no boundary.
	Boundary date.Date
	// MaxDays caps how many days back from the anchor the walk may go.
	// Zero means no cap.
	MaxDays int
	// DryRun counts what would be written without writing.
	DryRun bool
}

// Backfiller derives estimated balance snapshots from stored history.
type Backfiller struct {
	store Store
	now   func() time.Time
}

// NewBackfiller builds a Backfiller. now is injectable for tests; nil means
// the wall clock.
func NewBackfiller(store Store, now func() time.Time) *Backfiller {
	if now == nil {
		now = time.Now
	}
	return &Backfiller{store: store, now: now}
}

// BackfillAll runs the estimator over every account. Accounts that fail a
// precondition (no anchor, no history) contribute a warning and zero rows;
// a store failure on one account abandons that account's rows and moves on.
func (b *Backfiller) BackfillAll(ctx context.Context, opts BackfillOptions) (BackfillStats, error) {
	stats := BackfillStats{Warnings: []string{EstimateNote}}

	accounts, err := b.store.Accounts(ctx)
	if err != nil {
		return stats, &StoreError{Op: "list accounts", Err: err}
	}

	log := Logger(ctx)
	for _, account := range accounts {
		st, err := b.BackfillAccount(ctx, account.ID, opts)
		if err != nil {
			log.Warn().Err(err).Str("account", account.DisplayName()).
				Msg("backfill failed for account")
			stats.Warnings = append(stats.Warnings, err.Error())
			continue
		}
		stats.AccountsProcessed++
		stats.Created += st.Created
		stats.Skipped += st.Skipped
		stats.Warnings = append(stats.Warnings, st.Warnings...)
	}
	return stats, nil
}

// BackfillAccount estimates balances for one account, walking backwards
// from the latest observed snapshot:
//
//	balance(day) = balance(day+1) - net(day+1)
//
// where net(d) sums the signed amounts posted on day d. The walk stops at
// the earliest transaction day, or at opts.Boundary when that is later.
// Days that already carry an observed snapshot are skipped and re-anchor
// the walk at their observed balance, so an estimate never drifts across a
// day the provider actually reported. Previously estimated rows in the
// walked range are deleted first and regenerated; observed rows are never
// touched.
func (b *Backfiller) BackfillAccount(ctx context.Context, accountID string, opts BackfillOptions) (BackfillStats, error) {
	log := Logger(ctx).With().Str("account", accountID).Logger()
	var stats BackfillStats

	anchor, ok, err := b.store.LatestObservedSnapshot(ctx, accountID)
	if err != nil {
		return stats, &StoreError{Op: "latest observed snapshot", Err: err}
	}
	if !ok {
		perr := &BackfillPreconditionError{AccountID: accountID, Reason: "no observed balance snapshot to anchor from"}
		stats.Warnings = append(stats.Warnings, perr.Error())
		log.Warn().Msg(perr.Reason)
		return stats, nil
	}

	history, err := b.store.TransactionHistory(ctx, accountID)
	if err != nil {
		return stats, &StoreError{Op: "transaction history", Err: err}
	}
	if len(history) == 0 {
		perr := &BackfillPreconditionError{AccountID: accountID, Reason: "no transaction history to walk"}
		stats.Warnings = append(stats.Warnings, perr.Error())
		log.Warn().Msg(perr.Reason)
		return stats, nil
	}

	netByDay := make(map[date.Date]Money, len(history))
	earliest := postedDay(history[0])
	for _, tx := range history {
		d := postedDay(tx)
		netByDay[d] = netByDay[d].Add(tx.Amount)
		if d.Before(earliest) {
			earliest = d
		}
	}

	stop := earliest
	if !opts.Boundary.IsZero() && opts.Boundary.After(stop) {
		stop = opts.Boundary
	}
	if opts.MaxDays > 0 {
		if capped := anchor.Day.Add(-opts.MaxDays); capped.After(stop) {
			stop = capped
		}
	}
	if !stop.Before(anchor.Day) {
		log.Debug().Msg("nothing to backfill before the anchor")
		return stats, nil
	}

	walked := date.Range{From: stop, To: anchor.Day.Add(-1)}

	observed, err := b.store.ObservedSnapshotDays(ctx, accountID, walked)
	if err != nil {
		return stats, &StoreError{Op: "observed snapshot days", Err: err}
	}

	if !opts.DryRun {
		if _, err := b.store.DeleteEstimatedSnapshots(ctx, accountID, walked); err != nil {
			return stats, &StoreError{Op: "delete estimated snapshots", Err: err}
		}
	}

	running := anchor.Balance
	for day := anchor.Day.Add(-1); !day.Before(stop); day = day.Add(-1) {
		running = running.Sub(netByDay[day.Add(1)])

		if snap, ok := observed[day]; ok {
			running = snap.Balance
			stats.Skipped++
			continue
		}

		if !opts.DryRun {
			if err := b.store.InsertBalanceSnapshot(ctx, NewEstimatedSnapshot(accountID, running, day)); err != nil {
				return stats, &StoreError{Op: "insert estimated snapshot", Err: err}
			}
		}
		stats.Created++
	}

	log.Info().Int("created", stats.Created).Int("skipped", stats.Skipped).
		Str("range", walked.String()).Bool("dry_run", opts.DryRun).Msg("backfill complete")
	return stats, nil
}

// postedDay is the day a transaction affects the balance.
func postedDay(tx Transaction) date.Date {
	if !tx.Posted.IsZero() {
		return tx.Posted
	}
	return tx.Date
}
