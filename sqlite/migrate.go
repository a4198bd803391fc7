package sqlite

import (
	"context"
	"fmt"
)

// A migration is applied once and recorded in sys_migrations under its name.
// Names are ordered; never reuse or reorder them.
type migration struct {
	name string
	stmt string
}

var migrations = []migration{
	{
		name: "001_accounts",
		stmt: `
			CREATE TABLE sys_accounts (
				account_id         TEXT PRIMARY KEY,
				name               TEXT NOT NULL,
				nickname           TEXT NOT NULL DEFAULT '',
				account_type       TEXT NOT NULL DEFAULT 'unknown',
				currency           TEXT NOT NULL DEFAULT 'USD',
				balance            TEXT NOT NULL DEFAULT '0',
				external_ids       TEXT NOT NULL DEFAULT '{}',
				institution_name   TEXT NOT NULL DEFAULT '',
				institution_url    TEXT NOT NULL DEFAULT '',
				institution_domain TEXT NOT NULL DEFAULT '',
				created_at         TEXT NOT NULL,
				updated_at         TEXT NOT NULL
			)`,
	},
	{
		name: "002_transactions",
		stmt: `
			CREATE TABLE sys_transactions (
				transaction_id   TEXT PRIMARY KEY,
				account_id       TEXT NOT NULL REFERENCES sys_accounts(account_id),
				amount           TEXT NOT NULL,
				currency         TEXT NOT NULL DEFAULT 'USD',
				description      TEXT NOT NULL DEFAULT '',
				transaction_date TEXT NOT NULL,
				posted_date      TEXT NOT NULL,
				tags             TEXT NOT NULL DEFAULT '[]',
				external_ids     TEXT NOT NULL DEFAULT '{}',
				dedup_key        TEXT NOT NULL,
				fingerprint      TEXT NOT NULL,
				created_at       TEXT NOT NULL,
				UNIQUE (account_id, dedup_key)
			)`,
	},
	{
		name: "003_transactions_date_index",
		stmt: `CREATE INDEX idx_transactions_account_date
			ON sys_transactions (account_id, transaction_date)`,
	},
	{
		name: "004_balance_snapshots",
		stmt: `
			CREATE TABLE sys_balance_snapshots (
				snapshot_id   TEXT PRIMARY KEY,
				account_id    TEXT NOT NULL REFERENCES sys_accounts(account_id),
				balance       TEXT NOT NULL,
				currency      TEXT NOT NULL DEFAULT 'USD',
				snapshot_day  TEXT NOT NULL,
				snapshot_time TEXT NOT NULL,
				estimated     INTEGER NOT NULL DEFAULT 0,
				created_at    TEXT NOT NULL
			)`,
	},
	{
		name: "005_snapshots_day_index",
		stmt: `CREATE INDEX idx_snapshots_account_day
			ON sys_balance_snapshots (account_id, snapshot_day, estimated)`,
	},
	{
		name: "006_integrations",
		stmt: `
			CREATE TABLE sys_integrations (
				integration_name     TEXT PRIMARY KEY,
				provider             TEXT NOT NULL,
				integration_settings TEXT NOT NULL DEFAULT '{}',
				balances_only        INTEGER NOT NULL DEFAULT 0,
				disabled             INTEGER NOT NULL DEFAULT 0,
				created_at           TEXT NOT NULL,
				updated_at           TEXT NOT NULL
			)`,
	},
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sys_migrations (
			migration_name TEXT PRIMARY KEY,
			applied_at     TEXT NOT NULL DEFAULT (datetime('now'))
		)`)
	if err != nil {
		return fmt.Errorf("create migration ledger: %w", err)
	}

	applied := map[string]bool{}
	rows, err := s.db.QueryContext(ctx, `SELECT migration_name FROM sys_migrations`)
	if err != nil {
		return fmt.Errorf("read migration ledger: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("scan migration name: %w", err)
		}
		applied[name] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.name] {
			continue
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.name, err)
		}
		if _, err := tx.ExecContext(ctx, m.stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sys_migrations (migration_name) VALUES (?)`, m.name); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.name, err)
		}
	}
	return nil
}
