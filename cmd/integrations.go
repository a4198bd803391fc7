package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
)

// integrationsCmd is a container for the integration management
// subcommands.
type integrationsCmd struct{}

func (*integrationsCmd) Name() string     { return "integrations" }
func (*integrationsCmd) Synopsis() string { return "manage connections to data sources" }
func (*integrationsCmd) Usage() string {
	return `tl integrations <subcommand> [args]

Commands:
  add    - Connect a data source (simplefin, csv, demo).
  list   - List configured integrations.
  remove - Remove an integration; its accounts and transactions stay.
`
}

func (c *integrationsCmd) SetFlags(f *flag.FlagSet) {}
func (c *integrationsCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	commander := subcommands.NewCommander(f, "integrations")
	commander.Register(&integrationsAddCmd{}, "")
	commander.Register(&integrationsListCmd{}, "")
	commander.Register(&integrationsRemoveCmd{}, "")
	return commander.Execute(ctx, args...)
}
