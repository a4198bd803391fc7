package treeline

import (
	"context"
	"time"

	"github.com/zack-schrag/treeline-money-sub002/date"
)

// RecordObservedBalance appends one observed snapshot for the account at
// the given instant. A snapshot already recorded for the same day within a
// cent of the same balance is left alone and recorded=false is returned, so
// repeated same-day syncs do not pile up identical rows. An observed row
// always supersedes an estimated row for its day: readers prefer observed,
// and the estimated row stays only until the next backfill regeneration.
func RecordObservedBalance(ctx context.Context, store Store, accountID string, balance Money, at time.Time) (recorded bool, err error) {
	day := date.FromTime(at)

	prior, ok, err := store.SnapshotOn(ctx, accountID, day)
	if err != nil {
		return false, &StoreError{Op: "snapshot lookup", Err: err}
	}
	if ok && !prior.Estimated && prior.Balance.WithinCent(balance) {
		log := Logger(ctx)
		log.Debug().Str("account", accountID).Str("day", day.String()).
			Msg("balance snapshot already recorded for today")
		return false, nil
	}

	snap := NewObservedSnapshot(accountID, balance, at)
	if err := store.InsertBalanceSnapshot(ctx, snap); err != nil {
		return false, &StoreError{Op: "insert balance snapshot", Err: err}
	}
	return true, nil
}

// recordAccountBalance records the provider-reported balance for an account
// after its transactions reconciled, and refreshes the cached balance on
// the account row. No-op when the source carried no balance.
func (s *Syncer) recordAccountBalance(ctx context.Context, account Account, src SourceAccount) (bool, error) {
	if !src.HasBalance {
		return false, nil
	}
	if s.dryRun {
		return false, nil
	}

	recorded, err := RecordObservedBalance(ctx, s.store, account.ID, src.Balance, s.now())
	if err != nil {
		return false, err
	}

	if !account.Balance.Equal(src.Balance) {
		account.Balance = src.Balance
		account.UpdatedAt = s.now().UTC()
		if err := s.store.UpsertAccount(ctx, account); err != nil {
			return recorded, &StoreError{Op: "update account balance", Err: err}
		}
	}
	return recorded, nil
}
