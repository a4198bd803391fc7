package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/zack-schrag/treeline-money-sub002/tagging"
)

type tagCmd struct {
	id      string
	suggest bool
	bayes   bool
	limit   int
	replace bool
}

func (*tagCmd) Name() string     { return "tag" }
func (*tagCmd) Synopsis() string { return "tag a transaction, or ask for suggestions" }
func (*tagCmd) Usage() string {
	return `tl tag -i <transaction-id> [<tag> ...]
tl tag -i <transaction-id> -suggest [-bayes] [-n <limit>]

  Applies tags to one transaction (transaction ids come from 'tl tx').
  Tags append to the existing list unless -replace is given. With
  -suggest, prints likely tags instead: by default the most frequent tags
  in your history, or with -bayes a classifier trained on how you tagged
  similar descriptions.

Usage Examples:
# Tag a transaction.
$ tl tag -i 4f9f0c2e-... groceries costco

# What would fit this one?
$ tl tag -i 4f9f0c2e-... -suggest -bayes
`
}

func (c *tagCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "i", "", "Transaction id to tag.")
	f.BoolVar(&c.suggest, "suggest", false, "Print suggestions instead of applying tags.")
	f.BoolVar(&c.bayes, "bayes", false, "Suggest from description similarity rather than tag frequency.")
	f.IntVar(&c.limit, "n", 0, "Suggestions to print (default 5).")
	f.BoolVar(&c.replace, "replace", false, "Replace the tag list instead of appending.")
}

func (c *tagCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return usageError(f, "-i is required; transaction ids come from 'tl tx'")
	}

	store, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	ctx, closeLog := runContext(ctx)
	defer closeLog()

	tx, err := store.Transaction(ctx, c.id)
	if err != nil {
		return fail(err)
	}

	if c.suggest {
		var suggester tagging.Suggester = tagging.NewFrequency(store)
		if c.bayes {
			trained, err := tagging.TrainBayesFromStore(ctx, store)
			switch {
			case errors.Is(err, tagging.ErrInsufficientHistory):
				warnf("Not enough tagged history to train on; falling back to tag frequency.\n")
			case err != nil:
				return fail(err)
			default:
				suggester = trained
			}
		}

		suggestions, err := suggester.Suggest(ctx, tx, c.limit)
		if err != nil {
			return fail(err)
		}
		if len(suggestions) == 0 {
			fmt.Println("No suggestions yet. Tag a few transactions first.")
			return subcommands.ExitSuccess
		}
		fmt.Printf("Suggestions for %q:\n", tx.Description)
		for _, tag := range suggestions {
			fmt.Println("  " + tag)
		}
		return subcommands.ExitSuccess
	}

	tags := f.Args()
	if len(tags) == 0 && !c.replace {
		return usageError(f, "no tags given (or pass -suggest)")
	}
	if !c.replace {
		tags = append(append([]string{}, tx.Tags...), tags...)
	}

	if err := tagging.Apply(ctx, store, tx.ID, tags); err != nil {
		return fail(err)
	}
	if normalized := tagging.Normalize(tags); len(normalized) == 0 {
		fmt.Printf("Cleared tags on %q\n", tx.Description)
	} else {
		fmt.Printf("Tagged %q: %s\n", tx.Description, strings.Join(normalized, ", "))
	}
	return subcommands.ExitSuccess
}
