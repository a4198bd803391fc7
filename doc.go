// Package treeline synchronizes financial account data from heterogeneous
// sources into a local store. It is designed to be local-first and
// non-destructive: a sync run may add to your data, never rewrite or delete
// it.
//
// The core functionalities include:
//   - Provider Adapters: normalizing bank-aggregation payloads, CSV exports
//     and generated demo data into one shape (see the simplefin, csvimport
//     and demo packages).
//   - Fingerprinting: deriving a stable content identity for every
//     transaction so the same purchase arriving from two sources
//     deduplicates instead of doubling.
//   - Reconciliation: classifying fetched transactions as new or already
//     known against a refetch overlap window, and persisting new ones in
//     one atomic batch per account.
//   - Balance Snapshots: recording provider-reported balances as observed
//     rows, and estimating the days before the first observation by
//     walking transaction history backwards from an anchor.
//   - Orchestration: running all configured integrations with per-
//     integration failure isolation and a structured report of every run.
//
// This package is the foundational logic for the `tl` command-line tool;
// the sqlite package supplies the persistent store.
package treeline
