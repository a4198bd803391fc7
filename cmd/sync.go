package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	treeline "github.com/zack-schrag/treeline-money-sub002"
	"github.com/zack-schrag/treeline-money-sub002/renderer"
)

type syncCmd struct {
	integration string
	dryRun      bool
	cached      bool
	jsonOut     bool
}

func (*syncCmd) Name() string { return "sync" }
func (*syncCmd) Synopsis() string {
	return "fetch accounts and transactions from configured integrations"
}
func (*syncCmd) Usage() string {
	return `tl sync [-i <integration>] [-dry-run] [-cached] [-json]

  Runs every enabled integration: fetches accounts and transactions,
  deduplicates them against stored history, and records balance snapshots.
  One integration's failure never stops the others; everything lands in
  the report.

Usage Examples:
# Sync everything.
$ tl sync

# Preview what a sync would insert, writing nothing.
$ tl sync -dry-run

# Sync a single integration by name.
$ tl sync -i simplefin
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.integration, "i", "", "Sync only this integration.")
	f.BoolVar(&c.dryRun, "dry-run", false, "Classify and report without writing anything.")
	f.BoolVar(&c.cached, "cached", false, "Reuse same-day SimpleFIN responses from the on-disk cache.")
	f.BoolVar(&c.jsonOut, "json", false, "Print the report as JSON.")
}

func (c *syncCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	ctx, closeLog := runContext(ctx)
	defer closeLog()

	syncer := treeline.NewSyncer(store, newRegistry(c.cached), treeline.SyncOptions{DryRun: c.dryRun})

	var report *treeline.SyncReport
	if c.integration != "" {
		report, err = syncer.SyncOne(ctx, c.integration)
	} else {
		report, err = syncer.SyncAll(ctx)
	}
	// the report still carries whatever completed before err

	if c.jsonOut {
		if err != nil {
			warnf("Error: %v\n", err)
		}
		return outputJSON(report)
	}

	if c.integration == "" && err == nil && len(report.Integrations) == 0 {
		warnf("No integrations configured.\n")
		fmt.Println("Use 'tl integrations add' to connect a data source, or 'tl demo on' to try sample data.")
		return subcommands.ExitSuccess
	}

	printMarkdown(renderer.RenderSyncReport(report))
	if err != nil {
		return fail(err)
	}
	if len(report.Errors()) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
