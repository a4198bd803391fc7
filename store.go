package treeline

import (
	"context"

	"github.com/zack-schrag/treeline-money-sub002/date"
)

// Store is the persistence port for the sync pipeline. The sqlite package
// provides the real implementation; tests use an in-memory fake.
//
// Write discipline: InsertTransactionsIfAbsent commits one batch per
// account atomically, and a sync run issues at most one such batch per
// account. That batch-per-account rule is the single-writer guarantee; no
// additional locking exists around it.
type Store interface {
	// Accounts lists every account.
	Accounts(ctx context.Context) ([]Account, error)
	// Account fetches one account by id.
	Account(ctx context.Context, id string) (Account, error)
	// AccountByExternalID resolves the local account linked to a
	// provider's native account id, if any.
	AccountByExternalID(ctx context.Context, provider, nativeID string) (Account, bool, error)
	// UpsertAccount inserts or updates an account row. Sync uses it to
	// create newly discovered accounts (before any transaction insert)
	// and to refresh cached balances; it never deletes.
	UpsertAccount(ctx context.Context, a Account) error

	// ExistingDedupKeys indexes the dedup keys and content fingerprints
	// already stored for the account with a transaction date inside r.
	ExistingDedupKeys(ctx context.Context, accountID string, r date.Range) (DedupIndex, error)
	// InsertTransactionsIfAbsent writes the batch atomically, skipping
	// rows whose dedup key is already present, and reports how many were
	// inserted. On error nothing from the batch is persisted.
	InsertTransactionsIfAbsent(ctx context.Context, accountID string, batch []Transaction) (int, error)
	// TransactionHistory returns all transactions of the account in
	// ascending day order.
	TransactionHistory(ctx context.Context, accountID string) ([]Transaction, error)
	// LatestTransactionDay returns the most recent transaction date among
	// the given accounts; ok is false when they have no transactions.
	LatestTransactionDay(ctx context.Context, accountIDs []string) (date.Date, bool, error)

	// InsertBalanceSnapshot appends one snapshot row.
	InsertBalanceSnapshot(ctx context.Context, snap BalanceSnapshot) error
	// LatestObservedSnapshot returns the newest snapshot the account has
	// with Estimated == false; ok is false when none exists.
	LatestObservedSnapshot(ctx context.Context, accountID string) (BalanceSnapshot, bool, error)
	// SnapshotOn returns the snapshot recorded for the given day,
	// preferring an observed row over an estimated one.
	SnapshotOn(ctx context.Context, accountID string, day date.Date) (BalanceSnapshot, bool, error)
	// ObservedSnapshotDays lists days that carry an observed snapshot
	// inside r.
	ObservedSnapshotDays(ctx context.Context, accountID string, r date.Range) (map[date.Date]BalanceSnapshot, error)
	// DeleteEstimatedSnapshots removes estimated rows in r so a backfill
	// run can regenerate them. Observed rows are never deleted.
	DeleteEstimatedSnapshots(ctx context.Context, accountID string, r date.Range) (int, error)

	// Integrations lists configured integrations.
	Integrations(ctx context.Context) ([]Integration, error)
	// Integration fetches one by name; ok is false when absent.
	Integration(ctx context.Context, name string) (Integration, bool, error)
	// PutIntegration inserts or replaces an integration.
	PutIntegration(ctx context.Context, in Integration) error
	// DeleteIntegration removes an integration. Accounts and
	// transactions it produced stay.
	DeleteIntegration(ctx context.Context, name string) error

	// UpdateTransactionTags replaces the tag list of one transaction.
	// The only mutation allowed on a stored transaction.
	UpdateTransactionTags(ctx context.Context, txID string, tags []string) error
	// TagCounts returns how many transactions carry each tag.
	TagCounts(ctx context.Context) (map[string]int, error)

	Close() error
}
