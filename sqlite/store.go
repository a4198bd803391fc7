// Package sqlite persists the treeline data model in a single SQLite file.
//
// The store is local-first: one file under the data directory, no server.
// Amounts are stored as exact decimal strings, days as ISO-8601 text.
// Writes that must be atomic (a sync batch) run inside one transaction; the
// connection pool is capped at a single connection, which is what makes the
// one-batch-per-account discipline a real single-writer guarantee.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	treeline "github.com/zack-schrag/treeline-money-sub002"
	"github.com/zack-schrag/treeline-money-sub002/date"
)

// Store implements treeline.Store over a SQLite database file.
type Store struct {
	db   *sql.DB
	path string
}

var _ treeline.Store = (*Store)(nil)

// Open opens (or creates) the database at path and applies pending
// migrations. The parent directory is created when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one connection: serialized writers, and the PRAGMAs below stick
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

const timeFormat = time.RFC3339Nano

func encodeTime(t time.Time) string { return t.UTC().Format(timeFormat) }

func decodeTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func decodeMoney(amount, currency string) treeline.Money {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		d = decimal.Zero
	}
	return treeline.M(d, currency)
}

// Accounts lists every account ordered by name.
func (s *Store) Accounts(ctx context.Context) ([]treeline.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM sys_accounts
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []treeline.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Account fetches one account by id.
func (s *Store) Account(ctx context.Context, id string) (treeline.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM sys_accounts
		WHERE account_id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return treeline.Account{}, fmt.Errorf("no account %q", id)
	}
	return a, err
}

// AccountByExternalID resolves the account linked to a provider native id.
func (s *Store) AccountByExternalID(ctx context.Context, provider, nativeID string) (treeline.Account, bool, error) {
	if nativeID == "" {
		return treeline.Account{}, false, nil
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM sys_accounts
		WHERE json_extract(external_ids, ?) = ?`,
		`$."`+provider+`"`, nativeID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return treeline.Account{}, false, nil
	}
	if err != nil {
		return treeline.Account{}, false, err
	}
	return a, true, nil
}

// UpsertAccount inserts or updates an account row. Nothing here deletes.
func (s *Store) UpsertAccount(ctx context.Context, a treeline.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sys_accounts (
			account_id, name, nickname, account_type, currency,
			balance, external_ids, institution_name, institution_url,
			institution_domain, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			name = excluded.name,
			nickname = excluded.nickname,
			account_type = excluded.account_type,
			currency = excluded.currency,
			balance = excluded.balance,
			external_ids = excluded.external_ids,
			institution_name = excluded.institution_name,
			institution_url = excluded.institution_url,
			institution_domain = excluded.institution_domain,
			updated_at = excluded.updated_at`,
		a.ID, a.Name, a.Nickname, string(a.Type), a.Currency,
		a.Balance.Decimal().String(), encodeJSON(a.ExternalIDs),
		a.Institution.Name, a.Institution.URL, a.Institution.Domain,
		encodeTime(a.CreatedAt), encodeTime(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert account %q: %w", a.Name, err)
	}
	return nil
}

const accountColumns = `account_id, name, nickname, account_type, currency,
	balance, external_ids, institution_name, institution_url,
	institution_domain, created_at, updated_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanAccount(r rowScanner) (treeline.Account, error) {
	var a treeline.Account
	var accountType, balance, externalIDs, createdAt, updatedAt string
	err := r.Scan(&a.ID, &a.Name, &a.Nickname, &accountType, &a.Currency,
		&balance, &externalIDs, &a.Institution.Name, &a.Institution.URL,
		&a.Institution.Domain, &createdAt, &updatedAt)
	if err != nil {
		return treeline.Account{}, err
	}
	a.Type = treeline.AccountType(accountType)
	a.Balance = decodeMoney(balance, a.Currency)
	a.ExternalIDs = map[string]string{}
	if err := json.Unmarshal([]byte(externalIDs), &a.ExternalIDs); err != nil {
		return treeline.Account{}, fmt.Errorf("decode external ids of account %q: %w", a.ID, err)
	}
	a.CreatedAt = decodeTime(createdAt)
	a.UpdatedAt = decodeTime(updatedAt)
	return a, nil
}

// ExistingDedupKeys indexes stored identities for the account inside r.
func (s *Store) ExistingDedupKeys(ctx context.Context, accountID string, r date.Range) (treeline.DedupIndex, error) {
	ix := treeline.NewDedupIndex()
	rows, err := s.db.QueryContext(ctx, `
		SELECT dedup_key, fingerprint
		FROM sys_transactions
		WHERE account_id = ? AND transaction_date BETWEEN ? AND ?`,
		accountID, r.From.String(), r.To.String())
	if err != nil {
		return ix, fmt.Errorf("query dedup keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, fingerprint string
		if err := rows.Scan(&key, &fingerprint); err != nil {
			return ix, fmt.Errorf("scan dedup key: %w", err)
		}
		ix.Add(key, fingerprint)
	}
	return ix, rows.Err()
}

// InsertTransactionsIfAbsent writes the batch in one transaction. Rows whose
// (account_id, dedup_key) already exists are ignored by the unique index;
// any other failure rolls the whole batch back.
func (s *Store) InsertTransactionsIfAbsent(ctx context.Context, accountID string, batch []treeline.Transaction) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO sys_transactions (
			transaction_id, account_id, amount, currency, description,
			transaction_date, posted_date, tags, external_ids,
			dedup_key, fingerprint, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, t := range batch {
		if t.AccountID != accountID {
			return 0, fmt.Errorf("transaction %q belongs to account %q, batch is for %q", t.ID, t.AccountID, accountID)
		}
		posted := t.Posted
		if posted.IsZero() {
			posted = t.Date
		}
		res, err := stmt.ExecContext(ctx,
			t.ID, t.AccountID, t.Amount.Decimal().String(), t.Amount.Currency(),
			t.Description, t.Date.String(), posted.String(),
			encodeJSON(emptyIfNil(t.Tags)), encodeJSON(t.ExternalIDs),
			t.DedupKey, t.Fingerprint, encodeTime(t.CreatedAt))
		if err != nil {
			return 0, fmt.Errorf("insert transaction %q: %w", t.Description, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return inserted, nil
}

func emptyIfNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

const transactionColumns = `transaction_id, account_id, amount, currency,
	description, transaction_date, posted_date, tags, external_ids,
	dedup_key, fingerprint, created_at`

func scanTransaction(r rowScanner) (treeline.Transaction, error) {
	var t treeline.Transaction
	var amount, currency, txDate, posted, tags, externalIDs, createdAt string
	err := r.Scan(&t.ID, &t.AccountID, &amount, &currency, &t.Description,
		&txDate, &posted, &tags, &externalIDs, &t.DedupKey, &t.Fingerprint, &createdAt)
	if err != nil {
		return treeline.Transaction{}, err
	}
	t.Amount = decodeMoney(amount, currency)
	if t.Date, err = date.Parse(txDate); err != nil {
		return treeline.Transaction{}, fmt.Errorf("decode transaction date: %w", err)
	}
	if t.Posted, err = date.Parse(posted); err != nil {
		return treeline.Transaction{}, fmt.Errorf("decode posted date: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return treeline.Transaction{}, fmt.Errorf("decode tags: %w", err)
	}
	t.ExternalIDs = map[string]string{}
	if err := json.Unmarshal([]byte(externalIDs), &t.ExternalIDs); err != nil {
		return treeline.Transaction{}, fmt.Errorf("decode external ids: %w", err)
	}
	t.CreatedAt = decodeTime(createdAt)
	return t, nil
}

// Transaction fetches one transaction by id. The tag command uses it to
// merge new tags into the existing list.
func (s *Store) Transaction(ctx context.Context, id string) (treeline.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM sys_transactions
		WHERE transaction_id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return treeline.Transaction{}, fmt.Errorf("no transaction with id %q", id)
	}
	if err != nil {
		return treeline.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}
	return t, nil
}

// TransactionHistory returns the account's transactions, oldest day first.
func (s *Store) TransactionHistory(ctx context.Context, accountID string) ([]treeline.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM sys_transactions
		WHERE account_id = ?
		ORDER BY transaction_date ASC, created_at ASC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []treeline.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// LatestTransactionDay returns the newest transaction date among accounts.
func (s *Store) LatestTransactionDay(ctx context.Context, accountIDs []string) (date.Date, bool, error) {
	if len(accountIDs) == 0 {
		return date.Date{}, false, nil
	}
	placeholders := strings.Repeat("?,", len(accountIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(accountIDs))
	for i, id := range accountIDs {
		args[i] = id
	}

	var latest sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(transaction_date)
		FROM sys_transactions
		WHERE account_id IN (`+placeholders+`)`, args...).Scan(&latest)
	if err != nil {
		return date.Date{}, false, fmt.Errorf("query latest day: %w", err)
	}
	if !latest.Valid {
		return date.Date{}, false, nil
	}
	d, err := date.Parse(latest.String)
	if err != nil {
		return date.Date{}, false, err
	}
	return d, true, nil
}

// InsertBalanceSnapshot appends one snapshot row.
func (s *Store) InsertBalanceSnapshot(ctx context.Context, snap treeline.BalanceSnapshot) error {
	estimated := 0
	if snap.Estimated {
		estimated = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sys_balance_snapshots (
			snapshot_id, account_id, balance, currency,
			snapshot_day, snapshot_time, estimated, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.AccountID, snap.Balance.Decimal().String(), snap.Balance.Currency(),
		snap.Day.String(), encodeTime(snap.At), estimated, encodeTime(snap.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

const snapshotColumns = `snapshot_id, account_id, balance, currency,
	snapshot_day, snapshot_time, estimated, created_at`

func scanSnapshot(r rowScanner) (treeline.BalanceSnapshot, error) {
	var snap treeline.BalanceSnapshot
	var balance, currency, day, at, createdAt string
	var estimated int
	err := r.Scan(&snap.ID, &snap.AccountID, &balance, &currency, &day, &at, &estimated, &createdAt)
	if err != nil {
		return treeline.BalanceSnapshot{}, err
	}
	snap.Balance = decodeMoney(balance, currency)
	if snap.Day, err = date.Parse(day); err != nil {
		return treeline.BalanceSnapshot{}, fmt.Errorf("decode snapshot day: %w", err)
	}
	snap.At = decodeTime(at)
	snap.Estimated = estimated != 0
	snap.CreatedAt = decodeTime(createdAt)
	return snap, nil
}

// LatestObservedSnapshot returns the newest snapshot with estimated = 0.
func (s *Store) LatestObservedSnapshot(ctx context.Context, accountID string) (treeline.BalanceSnapshot, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM sys_balance_snapshots
		WHERE account_id = ? AND estimated = 0
		ORDER BY snapshot_day DESC, snapshot_time DESC
		LIMIT 1`, accountID)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return treeline.BalanceSnapshot{}, false, nil
	}
	if err != nil {
		return treeline.BalanceSnapshot{}, false, err
	}
	return snap, true, nil
}

// SnapshotOn returns the snapshot for one day, observed rows first.
func (s *Store) SnapshotOn(ctx context.Context, accountID string, day date.Date) (treeline.BalanceSnapshot, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM sys_balance_snapshots
		WHERE account_id = ? AND snapshot_day = ?
		ORDER BY estimated ASC, snapshot_time DESC
		LIMIT 1`, accountID, day.String())
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return treeline.BalanceSnapshot{}, false, nil
	}
	if err != nil {
		return treeline.BalanceSnapshot{}, false, err
	}
	return snap, true, nil
}

// ObservedSnapshotDays maps the days in r that carry an observed snapshot.
func (s *Store) ObservedSnapshotDays(ctx context.Context, accountID string, r date.Range) (map[date.Date]treeline.BalanceSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM sys_balance_snapshots
		WHERE account_id = ? AND estimated = 0 AND snapshot_day BETWEEN ? AND ?
		ORDER BY snapshot_day ASC, snapshot_time ASC`,
		accountID, r.From.String(), r.To.String())
	if err != nil {
		return nil, fmt.Errorf("query observed days: %w", err)
	}
	defer rows.Close()

	out := map[date.Date]treeline.BalanceSnapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out[snap.Day] = snap
	}
	return out, rows.Err()
}

// DeleteEstimatedSnapshots removes estimated rows in r. Observed rows are
// untouchable by construction of the WHERE clause.
func (s *Store) DeleteEstimatedSnapshots(ctx context.Context, accountID string, r date.Range) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM sys_balance_snapshots
		WHERE account_id = ? AND estimated = 1 AND snapshot_day BETWEEN ? AND ?`,
		accountID, r.From.String(), r.To.String())
	if err != nil {
		return 0, fmt.Errorf("delete estimated snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// Integrations lists configured integrations ordered by name.
func (s *Store) Integrations(ctx context.Context) ([]treeline.Integration, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT integration_name, provider, integration_settings,
			balances_only, disabled, created_at, updated_at
		FROM sys_integrations
		ORDER BY integration_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query integrations: %w", err)
	}
	defer rows.Close()

	var out []treeline.Integration
	for rows.Next() {
		in, err := scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// Integration fetches one integration by name.
func (s *Store) Integration(ctx context.Context, name string) (treeline.Integration, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT integration_name, provider, integration_settings,
			balances_only, disabled, created_at, updated_at
		FROM sys_integrations
		WHERE integration_name = ?`, name)
	in, err := scanIntegration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return treeline.Integration{}, false, nil
	}
	if err != nil {
		return treeline.Integration{}, false, err
	}
	return in, true, nil
}

func scanIntegration(r rowScanner) (treeline.Integration, error) {
	var in treeline.Integration
	var settings, createdAt, updatedAt string
	var balancesOnly, disabled int
	err := r.Scan(&in.Name, &in.Provider, &settings, &balancesOnly, &disabled, &createdAt, &updatedAt)
	if err != nil {
		return treeline.Integration{}, err
	}
	in.Settings = json.RawMessage(settings)
	in.BalancesOnly = balancesOnly != 0
	in.Disabled = disabled != 0
	in.CreatedAt = decodeTime(createdAt)
	in.UpdatedAt = decodeTime(updatedAt)
	return in, nil
}

// PutIntegration inserts or replaces an integration.
func (s *Store) PutIntegration(ctx context.Context, in treeline.Integration) error {
	balancesOnly, disabled := 0, 0
	if in.BalancesOnly {
		balancesOnly = 1
	}
	if in.Disabled {
		disabled = 1
	}
	settings := string(in.Settings)
	if settings == "" {
		settings = "{}"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sys_integrations (
			integration_name, provider, integration_settings,
			balances_only, disabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(integration_name) DO UPDATE SET
			provider = excluded.provider,
			integration_settings = excluded.integration_settings,
			balances_only = excluded.balances_only,
			disabled = excluded.disabled,
			updated_at = excluded.updated_at`,
		in.Name, in.Provider, settings, balancesOnly, disabled,
		encodeTime(in.CreatedAt), encodeTime(in.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put integration %q: %w", in.Name, err)
	}
	return nil
}

// DeleteIntegration removes the integration row only; accounts and
// transactions it produced stay.
func (s *Store) DeleteIntegration(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sys_integrations WHERE integration_name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete integration %q: %w", name, err)
	}
	return nil
}

// UpdateTransactionTags replaces one transaction's tag list.
func (s *Store) UpdateTransactionTags(ctx context.Context, txID string, tags []string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sys_transactions SET tags = ? WHERE transaction_id = ?`,
		encodeJSON(emptyIfNil(tags)), txID)
	if err != nil {
		return fmt.Errorf("update tags: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no transaction %q", txID)
	}
	return nil
}

// TagCounts counts transactions per tag using json_each over the tags
// column.
func (s *Store) TagCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT j.value, COUNT(*)
		FROM sys_transactions t, json_each(t.tags) j
		GROUP BY j.value`)
	if err != nil {
		return nil, fmt.Errorf("query tag counts: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var tag string
		var n int
		if err := rows.Scan(&tag, &n); err != nil {
			return nil, fmt.Errorf("scan tag count: %w", err)
		}
		out[tag] = n
	}
	return out, rows.Err()
}

// SearchTransactions returns transactions across accounts inside r, newest
// first, optionally filtered to one account.
func (s *Store) SearchTransactions(ctx context.Context, accountID string, r date.Range, limit int) ([]treeline.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM sys_transactions
		WHERE transaction_date BETWEEN ? AND ?`
	args := []any{r.From.String(), r.To.String()}
	if accountID != "" {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY transaction_date DESC, created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []treeline.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Counts returns the table sizes the status command reports.
func (s *Store) Counts(ctx context.Context) (accounts, transactions, snapshots int, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM sys_accounts),
			(SELECT COUNT(*) FROM sys_transactions),
			(SELECT COUNT(*) FROM sys_balance_snapshots)`)
	if err := row.Scan(&accounts, &transactions, &snapshots); err != nil {
		return 0, 0, 0, fmt.Errorf("count rows: %w", err)
	}
	return accounts, transactions, snapshots, nil
}

// OrphanedTransactionCount reports transactions whose account row is
// missing. Zero on a healthy database.
func (s *Store) OrphanedTransactionCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM sys_transactions t
		LEFT JOIN sys_accounts a ON t.account_id = a.account_id
		WHERE a.account_id IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count orphans: %w", err)
	}
	return n, nil
}
