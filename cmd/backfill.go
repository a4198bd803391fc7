package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	treeline "github.com/zack-schrag/treeline-money-sub002"
	"github.com/zack-schrag/treeline-money-sub002/date"
	"github.com/zack-schrag/treeline-money-sub002/renderer"
)

type backfillCmd struct {
	account  string
	days     int
	boundary string
	dryRun   bool
	jsonOut  bool
}

func (*backfillCmd) Name() string     { return "backfill" }
func (*backfillCmd) Synopsis() string { return "estimate historical balances from transaction history" }
func (*backfillCmd) Usage() string {
	return `tl backfill [-a <account>] [-days <n>] [-boundary <day>] [-dry-run] [-json]

  Walks backwards from each account's latest observed snapshot, deriving
  earlier end-of-day balances from transaction history. Derived rows are
  marked estimated and never overwrite observed snapshots; re-running
  regenerates them. An account with no observed snapshot is skipped with a
  warning.

Usage Examples:
# Estimate as far back as the history reaches.
$ tl backfill

# Only the last 90 days, and see the plan first.
$ tl backfill -days 90 -dry-run
`
}

func (c *backfillCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Backfill only this account (id, name, or id prefix).")
	f.IntVar(&c.days, "days", 0, "Walk at most N days back from the anchor; 0 means no cap.")
	f.StringVar(&c.boundary, "boundary", "", "Never write an estimate before this day (YYYY-MM-DD).")
	f.BoolVar(&c.dryRun, "dry-run", false, "Count what would be written without writing.")
	f.BoolVar(&c.jsonOut, "json", false, "Print the stats as JSON.")
}

func (c *backfillCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	opts := treeline.BackfillOptions{MaxDays: c.days, DryRun: c.dryRun}
	if c.boundary != "" {
		var err error
		if opts.Boundary, err = date.Parse(c.boundary); err != nil {
			return usageError(f, "bad boundary: %v", err)
		}
	}

	store, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	ctx, closeLog := runContext(ctx)
	defer closeLog()

	backfiller := treeline.NewBackfiller(store, nil)

	var stats treeline.BackfillStats
	if c.account != "" {
		account, err := findAccount(ctx, store, c.account)
		if err != nil {
			return fail(err)
		}
		stats, err = backfiller.BackfillAccount(ctx, account.ID, opts)
		if err != nil {
			return fail(err)
		}
		stats.AccountsProcessed = 1
		stats.Warnings = append([]string{treeline.EstimateNote}, stats.Warnings...)
	} else {
		if stats, err = backfiller.BackfillAll(ctx, opts); err != nil {
			return fail(err)
		}
	}

	if c.jsonOut {
		return outputJSON(stats)
	}
	printMarkdown(renderer.RenderBackfill(stats, c.dryRun))
	return subcommands.ExitSuccess
}
