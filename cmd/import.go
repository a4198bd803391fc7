package cmd

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	treeline "github.com/zack-schrag/treeline-money-sub002"
	"github.com/zack-schrag/treeline-money-sub002/csvimport"
)

type importCmd struct {
	account       string
	dateFormat    string
	flipSigns     bool
	debitNegative bool
	preview       int
	yes           bool
	saveAs        string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a CSV statement into an account" }
func (*importCmd) Usage() string {
	return `tl import -a <account> [options] <file.csv>

  Imports a bank CSV export. Columns are detected from the header row;
  the first rows are previewed before anything is written. Rows that
  duplicate stored transactions are skipped, so re-importing a file, or
  importing a file that overlaps API history, is safe.

  -save keeps the file path and column mapping as a csv integration, so
  future 'tl sync' runs re-read the file in place.

Usage Examples:
# Preview and import a statement.
$ tl import -a checking statement.csv

# Script it: no prompt, flip unsigned spending to negative.
$ tl import -a checking -y -flip-signs statement.csv

# Keep the mapping for recurring syncs of a refreshed export.
$ tl import -a checking -save chase-export statement.csv
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Account the rows belong to (id, name, or id prefix).")
	f.StringVar(&c.dateFormat, "date-format", "", "Date layout: YYYY-MM-DD, MM/DD/YYYY, DD/MM/YYYY, YYYY/MM/DD (default auto).")
	f.BoolVar(&c.flipSigns, "flip-signs", false, "Negate every amount (for exports that report spending as positive).")
	f.BoolVar(&c.debitNegative, "debit-negative", false, "Treat debit-column values as negative (detected from the data when unset).")
	f.IntVar(&c.preview, "n", 5, "Rows to preview before confirming.")
	f.BoolVar(&c.yes, "y", false, "Skip the confirmation prompt.")
	f.StringVar(&c.saveAs, "save", "", "Also save the file and mapping as a csv integration with this name.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(f, "exactly one CSV file expected")
	}
	file := f.Arg(0)
	if c.account == "" {
		return usageError(f, "-a is required to pick the target account")
	}

	debitNegativeSet := false
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == "debit-negative" {
			debitNegativeSet = true
		}
	})

	mapping, err := detectMapping(file, c.dateFormat, c.flipSigns, c.debitNegative, debitNegativeSet)
	if err != nil {
		return fail(err)
	}

	store, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	ctx, closeLog := runContext(ctx)
	defer closeLog()

	account, err := findAccount(ctx, store, c.account)
	if err != nil {
		return fail(err)
	}

	if !c.yes {
		rows, err := previewRows(file, mapping, c.preview)
		if err != nil {
			return fail(err)
		}
		printMarkdown(previewTable(file, rows))
		if mapping.DebitNegative && !debitNegativeSet {
			warnf("Debit column looks unsigned; treating debits as negative. Pass -debit-negative=false to override.\n")
		}
		if !confirm(fmt.Sprintf("Import into %s?", account.DisplayName())) {
			fmt.Println("Cancelled.")
			return subcommands.ExitSuccess
		}
	}

	g, err := os.Open(file)
	if err != nil {
		return fail(err)
	}
	defer g.Close()
	result, err := csvimport.Parse(g, mapping, treeline.SourceAccount{NativeID: account.ID, Name: account.DisplayName()})
	if err != nil {
		return fail(err)
	}

	syncer := treeline.NewSyncer(store, newRegistry(false), treeline.SyncOptions{})
	stats, warnings, err := syncer.ImportInto(ctx, account.ID, csvimport.ProviderName, result)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("Imported %d new transaction(s) into %s (%d in file, %d already present)\n",
		stats.New, account.DisplayName(), stats.Discovered, stats.Skipped)
	for _, w := range warnings {
		warnf("⚠ %s\n", w)
	}

	if c.saveAs != "" {
		if st := c.saveIntegration(ctx, store, account, file, mapping); st != subcommands.ExitSuccess {
			return st
		}
	}
	return subcommands.ExitSuccess
}

// saveIntegration persists the file path and mapping as a csv integration
// and links the account to it, so 'tl sync' re-reads the file.
func (c *importCmd) saveIntegration(ctx context.Context, store treeline.Store, account treeline.Account, file string, mapping csvimport.Mapping) subcommands.ExitStatus {
	abs, err := filepath.Abs(file)
	if err != nil {
		abs = file
	}
	in, err := treeline.NewIntegration(c.saveAs, csvimport.ProviderName, csvimport.Settings{
		FilePath:    abs,
		AccountID:   account.ID,
		AccountName: account.DisplayName(),
		Mapping:     mapping,
	})
	if err != nil {
		return fail(err)
	}
	if err := store.PutIntegration(ctx, in); err != nil {
		return fail(err)
	}

	if account.ExternalIDs == nil {
		account.ExternalIDs = map[string]string{}
	}
	account.ExternalIDs[csvimport.ProviderName] = account.ID
	if err := store.UpsertAccount(ctx, account); err != nil {
		return fail(err)
	}

	fmt.Printf("Saved csv integration %q; 'tl sync' will re-read %s\n", c.saveAs, abs)
	return subcommands.ExitSuccess
}

// detectMapping sniffs the header row for the column mapping and applies
// the caller's overrides. When the caller did not decide the debit sign
// convention and the file has a debit column, the first data rows decide
// it.
func detectMapping(path, dateFormat string, flipSigns, debitNegative, debitNegativeSet bool) (csvimport.Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return csvimport.Mapping{}, err
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		return csvimport.Mapping{}, fmt.Errorf("read header of %s: %w", path, err)
	}

	mapping := csvimport.DetectColumns(header)
	if dateFormat != "" {
		mapping.DateFormat = dateFormat
	}
	mapping.FlipSigns = flipSigns
	mapping.DebitNegative = debitNegative

	if !debitNegativeSet && mapping.Debit != "" {
		g, err := os.Open(path)
		if err != nil {
			return csvimport.Mapping{}, err
		}
		defer g.Close()
		if suggested, err := csvimport.SuggestDebitNegative(g, mapping); err == nil {
			mapping.DebitNegative = suggested
		}
	}
	return mapping, nil
}

func previewRows(path string, mapping csvimport.Mapping, n int) ([]treeline.SourceTransaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csvimport.Preview(f, mapping, n)
}

func previewTable(file string, rows []treeline.SourceTransaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Import Preview: %s\n\n", filepath.Base(file))
	if len(rows) == 0 {
		b.WriteString("No parseable rows found.\n")
		return b.String()
	}
	b.WriteString("| Date | Description | Amount |\n")
	b.WriteString("|---|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", r.Date, r.Description, r.Amount.String())
	}
	return b.String()
}
