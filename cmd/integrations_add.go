package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	treeline "github.com/zack-schrag/treeline-money-sub002"
	"github.com/zack-schrag/treeline-money-sub002/csvimport"
	"github.com/zack-schrag/treeline-money-sub002/demo"
	"github.com/zack-schrag/treeline-money-sub002/simplefin"
	"github.com/zack-schrag/treeline-money-sub002/sqlite"
)

type integrationsAddCmd struct {
	provider     string
	name         string
	balancesOnly bool

	// simplefin
	token     string
	accessURL string

	// csv
	file          string
	account       string
	dateFormat    string
	flipSigns     bool
	debitNegative bool

	// demo
	windowDays int
}

func (*integrationsAddCmd) Name() string     { return "add" }
func (*integrationsAddCmd) Synopsis() string { return "connect a data source" }
func (*integrationsAddCmd) Usage() string {
	return `tl integrations add -p <provider> [-name <name>] [provider options]

  Connects a data source. Each provider takes its own options:

  simplefin   -token <setup-token> (prompted when omitted), or
              -access-url <url> for an already-claimed URL
  csv         -file <path> -a <account>, plus the import mapping flags
  demo        -window-days <n> (default 180)

Usage Examples:
# Claim a SimpleFIN setup token and store the access URL.
$ tl integrations add -p simplefin -token <paste-token-here>

# Re-sync a refreshed bank export in place.
$ tl integrations add -p csv -name chase-export -file ~/exports/chase.csv -a checking
`
}

func (c *integrationsAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.provider, "p", "", "Provider: simplefin, csv, or demo.")
	f.StringVar(&c.name, "name", "", "Integration name (defaults to the provider name).")
	f.BoolVar(&c.balancesOnly, "balances-only", false, "Record balance snapshots but skip transactions.")
	f.StringVar(&c.token, "token", "", "SimpleFIN setup token to claim.")
	f.StringVar(&c.accessURL, "access-url", "", "Already-claimed SimpleFIN access URL.")
	f.StringVar(&c.file, "file", "", "CSV file the integration re-reads on every sync.")
	f.StringVar(&c.account, "a", "", "Account the CSV rows belong to (id, name, or id prefix).")
	f.StringVar(&c.dateFormat, "date-format", "", "CSV date layout (default auto).")
	f.BoolVar(&c.flipSigns, "flip-signs", false, "Negate every CSV amount.")
	f.BoolVar(&c.debitNegative, "debit-negative", false, "Treat CSV debit-column values as negative.")
	f.IntVar(&c.windowDays, "window-days", 0, "Days of demo history to generate (default 180).")
}

func (c *integrationsAddCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.provider == "" {
		return usageError(f, "-p is required (simplefin, csv, or demo)")
	}
	if c.provider != demo.ProviderName && demoMode() {
		warnf("Demo mode is on; this integration would land in the demo database.\n")
		fmt.Println("Run 'tl demo off' first to connect real data.")
		return subcommands.ExitFailure
	}

	name := c.name
	if name == "" {
		name = c.provider
	}

	store, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	ctx, closeLog := runContext(ctx)
	defer closeLog()

	if _, ok, err := store.Integration(ctx, name); err != nil {
		return fail(err)
	} else if ok {
		return fail(fmt.Errorf("integration %q already exists; 'tl integrations remove %s' first", name, name))
	}

	debitNegativeSet := false
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == "debit-negative" {
			debitNegativeSet = true
		}
	})

	var in treeline.Integration
	switch c.provider {
	case simplefin.ProviderName:
		if in, err = c.buildSimpleFIN(ctx, name); err != nil {
			return fail(err)
		}
	case csvimport.ProviderName:
		if in, err = c.buildCSV(ctx, store, name, debitNegativeSet); err != nil {
			return fail(err)
		}
	case demo.ProviderName:
		if in, err = treeline.NewIntegration(name, demo.ProviderName, demo.Settings{WindowDays: c.windowDays}); err != nil {
			return fail(err)
		}
	default:
		return usageError(f, "unknown provider %q (simplefin, csv, demo)", c.provider)
	}
	in.BalancesOnly = c.balancesOnly

	if err := store.PutIntegration(ctx, in); err != nil {
		return fail(err)
	}
	fmt.Printf("Added integration %q (provider %s). Run 'tl sync' to fetch.\n", in.Name, in.Provider)
	return subcommands.ExitSuccess
}

func (c *integrationsAddCmd) buildSimpleFIN(ctx context.Context, name string) (treeline.Integration, error) {
	accessURL := c.accessURL
	if accessURL == "" {
		token := c.token
		if token == "" {
			fmt.Fprintln(os.Stderr, "Create a setup token at https://beta-bridge.simplefin.org/ and paste it here.")
			token = promptLine("Setup token")
		}
		if token == "" {
			return treeline.Integration{}, fmt.Errorf("a setup token or access URL is required")
		}
		var err error
		if accessURL, err = simplefin.New().ClaimSetupToken(ctx, token); err != nil {
			return treeline.Integration{}, err
		}
	}
	return treeline.NewIntegration(name, simplefin.ProviderName, simplefin.Settings{AccessURL: accessURL})
}

func (c *integrationsAddCmd) buildCSV(ctx context.Context, store *sqlite.Store, name string, debitNegativeSet bool) (treeline.Integration, error) {
	if c.file == "" || c.account == "" {
		return treeline.Integration{}, fmt.Errorf("csv integrations need -file and -a")
	}

	account, err := findAccount(ctx, store, c.account)
	if err != nil {
		return treeline.Integration{}, err
	}

	mapping, err := detectMapping(c.file, c.dateFormat, c.flipSigns, c.debitNegative, debitNegativeSet)
	if err != nil {
		return treeline.Integration{}, err
	}

	abs, err := filepath.Abs(c.file)
	if err != nil {
		abs = c.file
	}
	in, err := treeline.NewIntegration(name, csvimport.ProviderName, csvimport.Settings{
		FilePath:    abs,
		AccountID:   account.ID,
		AccountName: account.DisplayName(),
		Mapping:     mapping,
	})
	if err != nil {
		return treeline.Integration{}, err
	}

	// link the account so sync recognizes the rows as its own
	if account.ExternalIDs == nil {
		account.ExternalIDs = map[string]string{}
	}
	account.ExternalIDs[csvimport.ProviderName] = account.ID
	if err := store.UpsertAccount(ctx, account); err != nil {
		return treeline.Integration{}, err
	}

	if mapping.DebitNegative && !debitNegativeSet {
		warnf("Debit column looks unsigned; treating debits as negative.\n")
	}
	return in, nil
}
