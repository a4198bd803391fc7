package cmd

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	treeline "github.com/zack-schrag/treeline-money-sub002"
	"github.com/zack-schrag/treeline-money-sub002/date"
)

type snapshotCmd struct {
	account string
	balance string
	day     string
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "record an observed balance for an account" }
func (*snapshotCmd) Usage() string {
	return `tl snapshot add -a <account> -balance <amount> [-d <day>]

  Records a balance you observed yourself (a statement, a bank site) as an
  observed snapshot. Observed snapshots anchor balance backfill and always
  outrank estimates. A snapshot already recorded for the same day within a
  cent is left alone.

Usage Examples:
# Today's statement balance.
$ tl snapshot add -a checking -balance 3247.85

# A month-end balance from an old statement.
$ tl snapshot add -a checking -balance 2980.00 -d 2025-06-30
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Account (id, name, or id prefix).")
	f.StringVar(&c.balance, "balance", "", "Balance amount, negative for debt.")
	f.StringVar(&c.day, "d", "", "Day the balance was observed (defaults to today).")
}

func (c *snapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.Arg(0) != "add" {
		return usageError(f, "'add' is the only snapshot action")
	}
	if c.account == "" || c.balance == "" {
		return usageError(f, "-a and -balance are required")
	}

	amount, err := decimal.NewFromString(c.balance)
	if err != nil {
		return usageError(f, "bad balance %q: %v", c.balance, err)
	}

	at := time.Now()
	if c.day != "" {
		d, err := date.Parse(c.day)
		if err != nil {
			return usageError(f, "bad day: %v", err)
		}
		at = d.EndOfDay()
	}

	store, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	ctx, closeLog := runContext(ctx)
	defer closeLog()

	account, err := findAccount(ctx, store, c.account)
	if err != nil {
		return fail(err)
	}

	balance := treeline.M(amount, account.Currency)
	recorded, err := treeline.RecordObservedBalance(ctx, store, account.ID, balance, at)
	if err != nil {
		return fail(err)
	}
	if !recorded {
		warnf("A snapshot within a cent of %s already exists for %s; nothing recorded.\n",
			balance.String(), date.FromTime(at))
		return subcommands.ExitSuccess
	}
	fmt.Printf("Recorded %s for %s on %s\n", balance.String(), account.DisplayName(), date.FromTime(at))
	return subcommands.ExitSuccess
}
