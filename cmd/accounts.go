package cmd

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/google/subcommands"

	treeline "github.com/zack-schrag/treeline-money-sub002"
)

type accountsCmd struct {
	account  string
	nickname string
	accType  string
	jsonOut  bool
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list accounts, or set an account's nickname or type" }
func (*accountsCmd) Usage() string {
	return `tl accounts [-a <account> [-nickname <name>] [-type <type>]] [-json]

  Without flags, lists every account. With -a, shows that account; adding
  -nickname or -type updates it. Accounts discovered by sync start with an
  unknown type until you classify them.

  Types: checking, savings, credit, investment, unknown.

Usage Examples:
# List accounts.
$ tl accounts

# Nickname an account and mark it a credit card.
$ tl accounts -a "Demo Credit Card" -nickname visa -type credit
`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Account to show or edit (id, name, or id prefix).")
	f.StringVar(&c.nickname, "nickname", "", "Set the account's nickname.")
	f.StringVar(&c.accType, "type", "", "Set the account's type.")
	f.BoolVar(&c.jsonOut, "json", false, "Print accounts as JSON.")
}

func (c *accountsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := openStore()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	ctx, closeLog := runContext(ctx)
	defer closeLog()

	if c.account == "" {
		if c.nickname != "" || c.accType != "" {
			return usageError(f, "-nickname and -type need -a to pick the account")
		}
		accounts, err := store.Accounts(ctx)
		if err != nil {
			return fail(err)
		}
		if c.jsonOut {
			return outputJSON(accounts)
		}
		if len(accounts) == 0 {
			fmt.Println("No accounts yet. Run 'tl sync' or 'tl import' to add some.")
			return subcommands.ExitSuccess
		}
		printMarkdown(accountsTable(accounts))
		return subcommands.ExitSuccess
	}

	account, err := findAccount(ctx, store, c.account)
	if err != nil {
		return fail(err)
	}

	changed := false
	if c.nickname != "" {
		account.Nickname = c.nickname
		changed = true
	}
	if c.accType != "" {
		parsed := treeline.ParseAccountType(c.accType)
		if parsed == treeline.TypeUnknown && !strings.EqualFold(c.accType, string(treeline.TypeUnknown)) {
			return usageError(f, "unknown account type %q (checking, savings, credit, investment, unknown)", c.accType)
		}
		account.Type = parsed
		changed = true
	}

	if changed {
		if err := store.UpsertAccount(ctx, account); err != nil {
			return fail(err)
		}
	}

	if c.jsonOut {
		return outputJSON(account)
	}
	printMarkdown(accountDetail(account))
	return subcommands.ExitSuccess
}

func accountsTable(accounts []treeline.Account) string {
	var b strings.Builder
	b.WriteString("# Accounts\n\n")
	b.WriteString("| Account | Type | Balance | Institution | ID |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, a := range accounts {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			a.DisplayName(), a.Type, a.Balance.String(), a.Institution.Name, a.ID)
	}
	return b.String()
}

func accountDetail(a treeline.Account) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", a.DisplayName())
	fmt.Fprintf(&b, "- ID: %s\n", a.ID)
	if a.Nickname != "" {
		fmt.Fprintf(&b, "- Name: %s\n", a.Name)
	}
	fmt.Fprintf(&b, "- Type: %s\n", a.Type)
	fmt.Fprintf(&b, "- Currency: %s\n", a.Currency)
	fmt.Fprintf(&b, "- Balance: %s\n", a.Balance.String())
	if a.Institution.Name != "" {
		fmt.Fprintf(&b, "- Institution: %s\n", a.Institution.Name)
	}
	if len(a.ExternalIDs) > 0 {
		providers := make([]string, 0, len(a.ExternalIDs))
		for p := range a.ExternalIDs {
			providers = append(providers, p)
		}
		sort.Strings(providers)
		var links []string
		for _, p := range providers {
			links = append(links, fmt.Sprintf("%s=%s", p, a.ExternalIDs[p]))
		}
		fmt.Fprintf(&b, "- Linked: %s\n", strings.Join(links, ", "))
	}
	return b.String()
}
