package cmd

import (
	"context"
	"flag"
	"strings"

	"github.com/google/subcommands"

	treeline "github.com/zack-schrag/treeline-money-sub002"
	"github.com/zack-schrag/treeline-money-sub002/renderer"
	"github.com/zack-schrag/treeline-money-sub002/sqlite"
)

type statusCmd struct {
	jsonOut bool
}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "show accounts, integrations, and data health" }
func (*statusCmd) Usage() string {
	return `tl status [-json]

  Shows where the data lives, per-account balances and last activity,
  configured integrations, and the window the next sync would fetch.
`
}

func (c *statusCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.jsonOut, "json", false, "Print the status as JSON.")
}

func (c *statusCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	ctx, closeLog := runContext(ctx)
	defer closeLog()

	view, err := buildStatus(ctx, store)
	if err != nil {
		return fail(err)
	}
	if c.jsonOut {
		return outputJSON(view)
	}
	printMarkdown(renderer.RenderStatus(view))
	return subcommands.ExitSuccess
}

// buildStatus assembles the status view from store queries.
func buildStatus(ctx context.Context, store *sqlite.Store) (*renderer.Status, error) {
	view := &renderer.Status{
		Path:     store.Path(),
		DemoMode: demoMode(),
	}

	_, transactions, snapshots, err := store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	view.TransactionCount = transactions
	view.SnapshotCount = snapshots

	if view.OrphanedTransactions, err = store.OrphanedTransactionCount(ctx); err != nil {
		return nil, err
	}

	accounts, err := store.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		row := renderer.AccountStatus{
			Name:    a.DisplayName(),
			Type:    string(a.Type),
			Balance: a.Balance.String(),
		}
		if day, ok, err := store.LatestTransactionDay(ctx, []string{a.ID}); err == nil && ok {
			row.LastActivity = day.String()
		}
		view.Accounts = append(view.Accounts, row)
	}

	integrations, err := store.Integrations(ctx)
	if err != nil {
		return nil, err
	}
	syncer := treeline.NewSyncer(store, newRegistry(false), treeline.SyncOptions{})
	for _, in := range integrations {
		var notes []string
		if in.Disabled {
			notes = append(notes, "disabled")
		}
		if in.BalancesOnly {
			notes = append(notes, "balances only")
		}
		view.Integrations = append(view.Integrations, renderer.IntegrationStatus{
			Name:     in.Name,
			Provider: in.Provider,
			Notes:    strings.Join(notes, ", "),
		})
		if view.NextWindow == "" && !in.Disabled {
			if w, err := syncer.Window(ctx, in.Provider); err == nil {
				view.NextWindow = w.String()
			}
		}
	}
	return view, nil
}
