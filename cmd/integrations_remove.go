package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type integrationsRemoveCmd struct {
	force bool
}

func (*integrationsRemoveCmd) Name() string     { return "remove" }
func (*integrationsRemoveCmd) Synopsis() string { return "remove an integration" }
func (*integrationsRemoveCmd) Usage() string {
	return `tl integrations remove [-f] <name>

  Removes an integration's configuration and credentials. Accounts and
  transactions it produced stay in the ledger.
`
}

func (c *integrationsRemoveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "f", false, "Skip the confirmation prompt.")
}

func (c *integrationsRemoveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(f, "exactly one integration name expected")
	}
	name := f.Arg(0)

	store, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	ctx, closeLog := runContext(ctx)
	defer closeLog()

	if _, ok, err := store.Integration(ctx, name); err != nil {
		return fail(err)
	} else if !ok {
		return fail(fmt.Errorf("no integration named %q", name))
	}

	if !c.force && !confirm(fmt.Sprintf("Remove integration %q? Its accounts and transactions stay.", name)) {
		fmt.Println("Cancelled.")
		return subcommands.ExitSuccess
	}

	if err := store.DeleteIntegration(ctx, name); err != nil {
		return fail(err)
	}
	fmt.Printf("Removed integration %q\n", name)
	return subcommands.ExitSuccess
}
