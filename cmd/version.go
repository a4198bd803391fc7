package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

// version is stamped by the release build via -ldflags.
var version = "dev"

type versionCmd struct{}

func (*versionCmd) Name() string             { return "version" }
func (*versionCmd) Synopsis() string         { return "print the tl version" }
func (*versionCmd) Usage() string            { return "tl version\n" }
func (*versionCmd) SetFlags(f *flag.FlagSet) {}

func (*versionCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("tl", version)
	return subcommands.ExitSuccess
}
