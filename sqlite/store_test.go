package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	treeline "github.com/zack-schrag/treeline-money-sub002"
	"github.com/zack-schrag/treeline-money-sub002/date"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "treeline.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func usd(v float64) treeline.Money { return treeline.M(v, "USD") }

func day(s string) date.Date { return date.MustParse(s) }

func seedAccount(t *testing.T, s *Store, name string) treeline.Account {
	t.Helper()
	a := treeline.NewAccount(name)
	a.ExternalIDs["testbank"] = "native-" + name
	if err := s.UpsertAccount(context.Background(), a); err != nil {
		t.Fatalf("seed account %s: %v", name, err)
	}
	return a
}

// storedTx builds an insert-ready transaction. An empty key means
// content-keyed, the way id-less CSV rows are stored.
func storedTx(a treeline.Account, key string, amount treeline.Money, desc string, onDay date.Date) treeline.Transaction {
	tr := treeline.NewTransaction(a.ID, amount, desc, onDay)
	tr.Fingerprint = treeline.ContentFingerprint(a.ID, amount, onDay, desc)
	tr.DedupKey = key
	if key == "" {
		tr.DedupKey = tr.Fingerprint
	}
	return tr
}

func TestOpenCreatesDataDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "treeline.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file missing: %v", err)
	}

	// reopening must not re-run migrations
	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
}

func TestAccountRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := treeline.NewAccount("Everyday Checking")
	a.Nickname = "daily"
	a.Type = treeline.TypeChecking
	a.Balance = usd(3247.85)
	a.ExternalIDs["simplefin"] = "act-123"
	a.Institution = treeline.Institution{Name: "Example Bank", URL: "https://example.bank", Domain: "example.bank"}
	if err := s.UpsertAccount(ctx, a); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.Account(ctx, a.ID)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if got.Name != a.Name || got.Nickname != "daily" || got.Type != treeline.TypeChecking {
		t.Errorf("account fields lost: %+v", got)
	}
	if !got.Balance.Equal(usd(3247.85)) {
		t.Errorf("balance = %s, want $3,247.85", got.Balance)
	}
	if got.ExternalIDs["simplefin"] != "act-123" {
		t.Errorf("external ids = %v", got.ExternalIDs)
	}
	if got.Institution.Name != "Example Bank" {
		t.Errorf("institution = %+v", got.Institution)
	}

	// upsert with the same id updates in place
	a.Name = "Primary Checking"
	a.Balance = usd(3000)
	if err := s.UpsertAccount(ctx, a); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	all, err := s.Accounts(ctx)
	if err != nil {
		t.Fatalf("accounts: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d accounts, want 1", len(all))
	}
	if all[0].Name != "Primary Checking" || !all[0].Balance.Equal(usd(3000)) {
		t.Errorf("update lost: %+v", all[0])
	}

	if _, err := s.Account(ctx, "nope"); err == nil {
		t.Error("expected error for unknown account id")
	}
}

func TestAccountByExternalID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := seedAccount(t, s, "Checking")

	got, ok, err := s.AccountByExternalID(ctx, "testbank", "native-Checking")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !ok || got.ID != a.ID {
		t.Errorf("lookup = %v ok=%v, want account %s", got.ID, ok, a.ID)
	}

	if _, ok, err = s.AccountByExternalID(ctx, "testbank", "unknown"); err != nil || ok {
		t.Errorf("unknown native id: ok=%v err=%v", ok, err)
	}
	if _, ok, err = s.AccountByExternalID(ctx, "otherbank", "native-Checking"); err != nil || ok {
		t.Errorf("wrong provider: ok=%v err=%v", ok, err)
	}
	if _, ok, err = s.AccountByExternalID(ctx, "testbank", ""); err != nil || ok {
		t.Errorf("empty native id must not match: ok=%v err=%v", ok, err)
	}
}

func TestInsertBatchSkipsExistingKeys(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := seedAccount(t, s, "Checking")

	batch := []treeline.Transaction{
		storedTx(a, "native:testbank:t1", usd(-42.50), "COFFEE SHOP", day("2026-08-10")),
		storedTx(a, "native:testbank:t2", usd(-12.00), "LUNCH", day("2026-08-11")),
	}
	n, err := s.InsertTransactionsIfAbsent(ctx, a.ID, batch)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted %d, want 2", n)
	}

	// same dedup keys under fresh row ids: all ignored
	again := []treeline.Transaction{
		storedTx(a, "native:testbank:t1", usd(-42.50), "COFFEE SHOP", day("2026-08-10")),
		storedTx(a, "native:testbank:t2", usd(-12.00), "LUNCH", day("2026-08-11")),
	}
	if n, err = s.InsertTransactionsIfAbsent(ctx, a.ID, again); err != nil {
		t.Fatalf("reinsert: %v", err)
	}
	if n != 0 {
		t.Errorf("reinsert stored %d rows, want 0", n)
	}

	mixed := []treeline.Transaction{
		storedTx(a, "native:testbank:t2", usd(-12.00), "LUNCH", day("2026-08-11")),
		storedTx(a, "native:testbank:t3", usd(1500), "PAYROLL", day("2026-08-15")),
	}
	if n, err = s.InsertTransactionsIfAbsent(ctx, a.ID, mixed); err != nil {
		t.Fatalf("mixed insert: %v", err)
	}
	if n != 1 {
		t.Errorf("mixed insert stored %d rows, want 1", n)
	}

	history, err := s.TransactionHistory(ctx, a.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history has %d rows, want 3", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].Date.Before(history[i-1].Date) {
			t.Errorf("history out of order at %d: %s before %s", i, history[i].Date, history[i-1].Date)
		}
	}

	latest, ok, err := s.LatestTransactionDay(ctx, []string{a.ID})
	if err != nil || !ok {
		t.Fatalf("latest day: ok=%v err=%v", ok, err)
	}
	if latest != day("2026-08-15") {
		t.Errorf("latest day = %s, want 2026-08-15", latest)
	}

	if _, ok, err = s.LatestTransactionDay(ctx, nil); err != nil || ok {
		t.Errorf("no accounts: ok=%v err=%v, want false nil", ok, err)
	}
}

func TestInsertBatchIsAtomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := seedAccount(t, s, "Checking")

	// second row belongs to a different account, so the batch is rejected
	// and the first row must roll back with it
	ghost := treeline.Account{ID: "ghost"}
	batch := []treeline.Transaction{
		storedTx(a, "native:testbank:t1", usd(-5), "GOOD ROW", day("2026-08-10")),
		storedTx(ghost, "native:testbank:t2", usd(-6), "BAD ROW", day("2026-08-10")),
	}
	if _, err := s.InsertTransactionsIfAbsent(ctx, a.ID, batch); err == nil {
		t.Fatal("expected batch error")
	}
	history, err := s.TransactionHistory(ctx, a.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("partial batch persisted: %d rows", len(history))
	}
}

func TestExistingDedupKeysWindow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := seedAccount(t, s, "Checking")

	inside := storedTx(a, "native:testbank:in", usd(-10), "INSIDE", day("2026-08-10"))
	before := storedTx(a, "native:testbank:old", usd(-20), "BEFORE", day("2026-07-01"))
	contentOnly := storedTx(a, "", usd(-30), "CSV ROW", day("2026-08-12"))
	if _, err := s.InsertTransactionsIfAbsent(ctx, a.ID, []treeline.Transaction{inside, before, contentOnly}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	ix, err := s.ExistingDedupKeys(ctx, a.ID, date.NewRange(day("2026-08-05"), day("2026-08-20")))
	if err != nil {
		t.Fatalf("existing keys: %v", err)
	}
	if ix.Len() != 2 {
		t.Fatalf("index holds %d keys, want 2", ix.Len())
	}
	if !ix.Matches(inside.DedupKey, inside.Fingerprint) {
		t.Error("in-window native key not matched")
	}
	if ix.Matches(before.DedupKey, before.Fingerprint) {
		t.Error("out-of-window key matched")
	}
	// an id-bearing arrival with the same content as the stored CSV row
	if !ix.Matches("native:testbank:late", contentOnly.Fingerprint) {
		t.Error("stored content-keyed row did not catch id-bearing duplicate")
	}
}

func TestSnapshotQueries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := seedAccount(t, s, "Checking")

	noon := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	observed := treeline.NewObservedSnapshot(a.ID, usd(100), noon)
	estimatedSameDay := treeline.NewEstimatedSnapshot(a.ID, usd(99), day("2026-08-10"))
	estimatedEarlier := treeline.NewEstimatedSnapshot(a.ID, usd(80), day("2026-08-08"))
	for _, snap := range []treeline.BalanceSnapshot{observed, estimatedSameDay, estimatedEarlier} {
		if err := s.InsertBalanceSnapshot(ctx, snap); err != nil {
			t.Fatalf("insert snapshot: %v", err)
		}
	}

	got, ok, err := s.SnapshotOn(ctx, a.ID, day("2026-08-10"))
	if err != nil || !ok {
		t.Fatalf("snapshot on: ok=%v err=%v", ok, err)
	}
	if got.Estimated || !got.Balance.Equal(usd(100)) {
		t.Errorf("observed row must win the day: %+v", got)
	}

	latest, ok, err := s.LatestObservedSnapshot(ctx, a.ID)
	if err != nil || !ok {
		t.Fatalf("latest observed: ok=%v err=%v", ok, err)
	}
	if latest.ID != observed.ID {
		t.Errorf("latest observed = %s, want %s", latest.ID, observed.ID)
	}

	days, err := s.ObservedSnapshotDays(ctx, a.ID, date.NewRange(day("2026-08-01"), day("2026-08-31")))
	if err != nil {
		t.Fatalf("observed days: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("observed days = %d, want 1", len(days))
	}
	if _, ok := days[day("2026-08-10")]; !ok {
		t.Error("2026-08-10 missing from observed days")
	}

	deleted, err := s.DeleteEstimatedSnapshots(ctx, a.ID, date.NewRange(day("2026-08-01"), day("2026-08-31")))
	if err != nil {
		t.Fatalf("delete estimated: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted %d rows, want 2", deleted)
	}
	if _, ok, _ := s.SnapshotOn(ctx, a.ID, day("2026-08-10")); !ok {
		t.Error("observed snapshot must survive estimated deletion")
	}
	if _, ok, _ := s.SnapshotOn(ctx, a.ID, day("2026-08-08")); ok {
		t.Error("estimated snapshot survived deletion")
	}
}

func TestIntegrationRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	type settings struct {
		AccessURL string `json:"accessUrl"`
	}
	in, err := treeline.NewIntegration("mybank", "simplefin", settings{AccessURL: "https://u:p@bridge.simplefin.org/simplefin"})
	if err != nil {
		t.Fatalf("new integration: %v", err)
	}
	in.BalancesOnly = true
	if err := s.PutIntegration(ctx, in); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := s.Integration(ctx, "mybank")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Provider != "simplefin" || !got.BalancesOnly || got.Disabled {
		t.Errorf("integration fields lost: %+v", got)
	}
	var dec settings
	if err := got.DecodeSettings(&dec); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if dec.AccessURL != "https://u:p@bridge.simplefin.org/simplefin" {
		t.Errorf("settings = %+v", dec)
	}

	// replace toggles a field in place
	in.Disabled = true
	if err := s.PutIntegration(ctx, in); err != nil {
		t.Fatalf("replace: %v", err)
	}
	all, err := s.Integrations(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || !all[0].Disabled {
		t.Errorf("replace lost: %+v", all)
	}

	if err := s.DeleteIntegration(ctx, "mybank"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Integration(ctx, "mybank"); ok {
		t.Error("integration survived delete")
	}
}

func TestUpdateTransactionTags(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := seedAccount(t, s, "Checking")

	t1 := storedTx(a, "native:testbank:t1", usd(-42.50), "GROCERY STORE", day("2026-08-10"))
	t2 := storedTx(a, "native:testbank:t2", usd(-12.00), "RESTAURANT", day("2026-08-11"))
	if _, err := s.InsertTransactionsIfAbsent(ctx, a.ID, []treeline.Transaction{t1, t2}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := s.UpdateTransactionTags(ctx, t1.ID, []string{"food", "groceries"}); err != nil {
		t.Fatalf("tag t1: %v", err)
	}
	if err := s.UpdateTransactionTags(ctx, t2.ID, []string{"food"}); err != nil {
		t.Fatalf("tag t2: %v", err)
	}

	counts, err := s.TagCounts(ctx)
	if err != nil {
		t.Fatalf("tag counts: %v", err)
	}
	if counts["food"] != 2 || counts["groceries"] != 1 {
		t.Errorf("counts = %v, want food:2 groceries:1", counts)
	}

	history, err := s.TransactionHistory(ctx, a.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history[0].Tags) != 2 {
		t.Errorf("t1 tags = %v", history[0].Tags)
	}

	if err := s.UpdateTransactionTags(ctx, "missing", []string{"x"}); err == nil {
		t.Error("expected error tagging unknown transaction")
	}
}

func TestSearchTransactions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := seedAccount(t, s, "Checking")
	b := seedAccount(t, s, "Savings")

	rows := []treeline.Transaction{
		storedTx(a, "native:testbank:t1", usd(-10), "ONE", day("2026-08-01")),
		storedTx(a, "native:testbank:t2", usd(-20), "TWO", day("2026-08-05")),
		storedTx(a, "native:testbank:t3", usd(-30), "THREE", day("2026-08-20")),
	}
	if _, err := s.InsertTransactionsIfAbsent(ctx, a.ID, rows); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	other := storedTx(b, "native:testbank:t4", usd(-40), "OTHER", day("2026-08-05"))
	if _, err := s.InsertTransactionsIfAbsent(ctx, b.ID, []treeline.Transaction{other}); err != nil {
		t.Fatalf("insert b: %v", err)
	}

	r := date.NewRange(day("2026-08-01"), day("2026-08-10"))
	got, err := s.SearchTransactions(ctx, "", r, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("search found %d rows, want 3", len(got))
	}
	if got[0].Date.Before(got[1].Date) {
		t.Error("search not newest-first")
	}

	got, err = s.SearchTransactions(ctx, a.ID, r, 1)
	if err != nil {
		t.Fatalf("filtered search: %v", err)
	}
	if len(got) != 1 || got[0].Description != "TWO" {
		t.Errorf("filtered search = %+v", got)
	}
}

func TestCountsAndOrphans(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := seedAccount(t, s, "Checking")

	tr := storedTx(a, "native:testbank:t1", usd(-10), "ONE", day("2026-08-01"))
	if _, err := s.InsertTransactionsIfAbsent(ctx, a.ID, []treeline.Transaction{tr}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertBalanceSnapshot(ctx, treeline.NewObservedSnapshot(a.ID, usd(1), time.Now())); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	accounts, transactions, snapshots, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if accounts != 1 || transactions != 1 || snapshots != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", accounts, transactions, snapshots)
	}

	orphans, err := s.OrphanedTransactionCount(ctx)
	if err != nil {
		t.Fatalf("orphans: %v", err)
	}
	if orphans != 0 {
		t.Errorf("orphans = %d, want 0", orphans)
	}
}

func TestBackupWritesAndPrunes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedAccount(t, s, "Checking")

	dir := t.TempDir()
	dest, err := s.Backup(ctx, dir)
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("backup file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("backup file is empty")
	}

	// the copy is a valid database
	copyStore, err := Open(dest)
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	got, err := copyStore.Accounts(ctx)
	copyStore.Close()
	if err != nil || len(got) != 1 {
		t.Errorf("backup contents: %d accounts err=%v, want 1 nil", len(got), err)
	}
}

func TestPruneBackupsKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"treeline-20260801-000000.db",
		"treeline-20260802-000000.db",
		"treeline-20260803-000000.db",
		"treeline-20260804-000000.db",
		"treeline-20260805-000000.db",
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// unrelated files are left alone
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := pruneBackups(dir, 3); err != nil {
		t.Fatalf("prune: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var left []string
	for _, e := range entries {
		left = append(left, e.Name())
	}
	want := map[string]bool{
		"treeline-20260803-000000.db": true,
		"treeline-20260804-000000.db": true,
		"treeline-20260805-000000.db": true,
		"notes.txt":                   true,
	}
	if len(left) != len(want) {
		t.Fatalf("dir holds %v, want %v", left, want)
	}
	for _, name := range left {
		if !want[name] {
			t.Errorf("unexpected survivor %s", name)
		}
	}
}
