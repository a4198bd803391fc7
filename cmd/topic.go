package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/zack-schrag/treeline-money-sub002/docs"
)

type topicCmd struct{}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show documentation" }
func (*topicCmd) Usage() string {
	return `tl topic [<topic> ...]

  Shows built-in documentation. Without arguments, lists the topics;
  'tl topic "*"' prints everything.
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	names := f.Args()
	if len(names) == 0 {
		names = []string{"readme"}
	}

	doc, err := docs.Topics(names...)
	if err != nil {
		all, listErr := docs.All()
		if listErr == nil {
			return fail(fmt.Errorf("%w (topics: %s)", err, strings.Join(all, ", ")))
		}
		return fail(err)
	}
	printMarkdown(doc)
	return subcommands.ExitSuccess
}
