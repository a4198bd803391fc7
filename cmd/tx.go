package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/zack-schrag/treeline-money-sub002/date"
	"github.com/zack-schrag/treeline-money-sub002/renderer"
)

type txCmd struct {
	account string
	start   string
	end     string
	limit   int
	jsonOut bool
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list stored transactions, newest first" }
func (*txCmd) Usage() string {
	return `tl tx [-a <account>] [-s <start_date>] [-d <end_date>] [-n <limit>] [-json]

  Lists transactions from the ledger, newest first. Dates are YYYY-MM-DD.

Usage Examples:
# The 25 most recent transactions.
$ tl tx

# One account's August.
$ tl tx -a checking -s 2025-08-01 -d 2025-08-31
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Limit to one account (id, name, or id prefix).")
	f.StringVar(&c.start, "s", "", "Start of the date range.")
	f.StringVar(&c.end, "d", "", "End of the date range (defaults to today).")
	f.IntVar(&c.limit, "n", 25, "Show at most N transactions; 0 means all.")
	f.BoolVar(&c.jsonOut, "json", false, "Print transactions as JSON.")
}

func (c *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	ctx, closeLog := runContext(ctx)
	defer closeLog()

	r := date.Range{To: date.Today()}
	if c.start != "" {
		if r.From, err = date.Parse(c.start); err != nil {
			return usageError(f, "bad start date: %v", err)
		}
	}
	if c.end != "" {
		if r.To, err = date.Parse(c.end); err != nil {
			return usageError(f, "bad end date: %v", err)
		}
	}

	accountID := ""
	if c.account != "" {
		account, err := findAccount(ctx, store, c.account)
		if err != nil {
			return fail(err)
		}
		accountID = account.ID
	}

	transactions, err := store.SearchTransactions(ctx, accountID, r, c.limit)
	if err != nil {
		return fail(err)
	}

	if c.jsonOut {
		return outputJSON(transactions)
	}
	if len(transactions) == 0 {
		fmt.Println("No transactions in range.")
		return subcommands.ExitSuccess
	}

	accounts, err := store.Accounts(ctx)
	if err != nil {
		return fail(err)
	}
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.DisplayName()
	}

	rows := make([]renderer.TransactionRow, 0, len(transactions))
	for _, t := range transactions {
		rows = append(rows, renderer.TransactionRow{
			Day:         t.Date.String(),
			Account:     names[t.AccountID],
			Description: t.Description,
			Amount:      t.Amount.String(),
			Tags:        strings.Join(t.Tags, ", "),
			ID:          t.ID,
		})
	}
	printMarkdown(renderer.RenderTransactions(rows))
	return subcommands.ExitSuccess
}
