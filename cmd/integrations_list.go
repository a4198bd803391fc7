package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	treeline "github.com/zack-schrag/treeline-money-sub002"
)

type integrationsListCmd struct {
	jsonOut bool
}

func (*integrationsListCmd) Name() string     { return "list" }
func (*integrationsListCmd) Synopsis() string { return "list configured integrations" }
func (*integrationsListCmd) Usage() string {
	return `tl integrations list [-json]
`
}

func (c *integrationsListCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.jsonOut, "json", false, "Print integrations as JSON (settings included).")
}

func (c *integrationsListCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	ctx, closeLog := runContext(ctx)
	defer closeLog()

	integrations, err := store.Integrations(ctx)
	if err != nil {
		return fail(err)
	}

	if c.jsonOut {
		return outputJSON(integrations)
	}
	if len(integrations) == 0 {
		fmt.Println("No integrations configured. Use 'tl integrations add' to connect one.")
		return subcommands.ExitSuccess
	}
	printMarkdown(integrationsTable(integrations))
	return subcommands.ExitSuccess
}

func integrationsTable(integrations []treeline.Integration) string {
	var b strings.Builder
	b.WriteString("# Integrations\n\n")
	b.WriteString("| Name | Provider | Added | Notes |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, in := range integrations {
		var notes []string
		if in.Disabled {
			notes = append(notes, "disabled")
		}
		if in.BalancesOnly {
			notes = append(notes, "balances only")
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			in.Name, in.Provider, in.CreatedAt.Format("2006-01-02"), strings.Join(notes, ", "))
	}
	return b.String()
}
