package treeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/zack-schrag/treeline-money-sub002/date"
)

// memStore is the in-memory Store used by the engine tests. Transactions
// and snapshots are kept in day-sorted slices so history reads come back
// ordered the way the sqlite store orders them.
type memStore struct {
	accounts     map[string]Account
	txs          map[string][]Transaction
	snaps        map[string][]BalanceSnapshot
	integrations map[string]Integration

	// failInsertTx makes the next transaction insert fail, for testing
	// batch atomicity and integration isolation.
	failInsertTx error
}

func newMemStore() *memStore {
	return &memStore{
		accounts:     map[string]Account{},
		txs:          map[string][]Transaction{},
		snaps:        map[string][]BalanceSnapshot{},
		integrations: map[string]Integration{},
	}
}

func (m *memStore) Accounts(ctx context.Context) ([]Account, error) {
	out := make([]Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) Account(ctx context.Context, id string) (Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return Account{}, fmt.Errorf("no account %q", id)
	}
	return a, nil
}

func (m *memStore) AccountByExternalID(ctx context.Context, provider, nativeID string) (Account, bool, error) {
	for _, a := range m.accounts {
		if a.ExternalIDs[provider] == nativeID && nativeID != "" {
			return a, true, nil
		}
	}
	return Account{}, false, nil
}

func (m *memStore) UpsertAccount(ctx context.Context, a Account) error {
	m.accounts[a.ID] = a
	return nil
}

func (m *memStore) ExistingDedupKeys(ctx context.Context, accountID string, r date.Range) (DedupIndex, error) {
	ix := NewDedupIndex()
	for _, tx := range m.txs[accountID] {
		if r.Contains(tx.Date) {
			ix.Add(tx.DedupKey, tx.Fingerprint)
		}
	}
	return ix, nil
}

func (m *memStore) InsertTransactionsIfAbsent(ctx context.Context, accountID string, batch []Transaction) (int, error) {
	if m.failInsertTx != nil {
		err := m.failInsertTx
		m.failInsertTx = nil
		return 0, err
	}
	present := map[string]bool{}
	for _, tx := range m.txs[accountID] {
		present[tx.DedupKey] = true
	}
	inserted := 0
	for _, tx := range batch {
		if present[tx.DedupKey] {
			continue
		}
		present[tx.DedupKey] = true
		m.txs[accountID] = append(m.txs[accountID], tx)
		inserted++
	}
	sort.SliceStable(m.txs[accountID], func(i, j int) bool {
		return m.txs[accountID][i].Date.Before(m.txs[accountID][j].Date)
	})
	return inserted, nil
}

func (m *memStore) TransactionHistory(ctx context.Context, accountID string) ([]Transaction, error) {
	out := make([]Transaction, len(m.txs[accountID]))
	copy(out, m.txs[accountID])
	return out, nil
}

func (m *memStore) LatestTransactionDay(ctx context.Context, accountIDs []string) (date.Date, bool, error) {
	var latest date.Date
	found := false
	for _, id := range accountIDs {
		for _, tx := range m.txs[id] {
			if !found || tx.Date.After(latest) {
				latest = tx.Date
				found = true
			}
		}
	}
	return latest, found, nil
}

func (m *memStore) InsertBalanceSnapshot(ctx context.Context, snap BalanceSnapshot) error {
	m.snaps[snap.AccountID] = append(m.snaps[snap.AccountID], snap)
	sort.SliceStable(m.snaps[snap.AccountID], func(i, j int) bool {
		return m.snaps[snap.AccountID][i].Day.Before(m.snaps[snap.AccountID][j].Day)
	})
	return nil
}

func (m *memStore) LatestObservedSnapshot(ctx context.Context, accountID string) (BalanceSnapshot, bool, error) {
	snaps := m.snaps[accountID]
	for i := len(snaps) - 1; i >= 0; i-- {
		if !snaps[i].Estimated {
			return snaps[i], true, nil
		}
	}
	return BalanceSnapshot{}, false, nil
}

func (m *memStore) SnapshotOn(ctx context.Context, accountID string, d date.Date) (BalanceSnapshot, bool, error) {
	var est BalanceSnapshot
	var haveEst bool
	for _, snap := range m.snaps[accountID] {
		if snap.Day != d {
			continue
		}
		if !snap.Estimated {
			return snap, true, nil
		}
		est, haveEst = snap, true
	}
	return est, haveEst, nil
}

func (m *memStore) ObservedSnapshotDays(ctx context.Context, accountID string, r date.Range) (map[date.Date]BalanceSnapshot, error) {
	out := map[date.Date]BalanceSnapshot{}
	for _, snap := range m.snaps[accountID] {
		if !snap.Estimated && r.Contains(snap.Day) {
			out[snap.Day] = snap
		}
	}
	return out, nil
}

func (m *memStore) DeleteEstimatedSnapshots(ctx context.Context, accountID string, r date.Range) (int, error) {
	kept := m.snaps[accountID][:0]
	deleted := 0
	for _, snap := range m.snaps[accountID] {
		if snap.Estimated && r.Contains(snap.Day) {
			deleted++
			continue
		}
		kept = append(kept, snap)
	}
	m.snaps[accountID] = kept
	return deleted, nil
}

func (m *memStore) Integrations(ctx context.Context) ([]Integration, error) {
	out := make([]Integration, 0, len(m.integrations))
	for _, in := range m.integrations {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) Integration(ctx context.Context, name string) (Integration, bool, error) {
	in, ok := m.integrations[name]
	return in, ok, nil
}

func (m *memStore) PutIntegration(ctx context.Context, in Integration) error {
	m.integrations[in.Name] = in
	return nil
}

func (m *memStore) DeleteIntegration(ctx context.Context, name string) error {
	delete(m.integrations, name)
	return nil
}

func (m *memStore) UpdateTransactionTags(ctx context.Context, txID string, tags []string) error {
	for accountID, txs := range m.txs {
		for i := range txs {
			if txs[i].ID == txID {
				m.txs[accountID][i].Tags = tags
				return nil
			}
		}
	}
	return fmt.Errorf("no transaction %q", txID)
}

func (m *memStore) TagCounts(ctx context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, txs := range m.txs {
		for _, tx := range txs {
			for _, tag := range tx.Tags {
				counts[tag]++
			}
		}
	}
	return counts, nil
}

func (m *memStore) Close() error { return nil }

var _ Store = (*memStore)(nil)

// seedAccount registers an account linked to a provider native id.
func (m *memStore) seedAccount(provider, nativeID, name string) Account {
	a := NewAccount(name)
	a.ExternalIDs[provider] = nativeID
	m.accounts[a.ID] = a
	return a
}
