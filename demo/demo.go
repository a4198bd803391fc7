// Package demo is a bank feed that exists entirely in memory. It serves
// three fixture accounts with six months of plausible activity so the whole
// pipeline (discovery, reconciliation, snapshots, backfill, tagging) can be
// exercised without credentials or network access.
//
// Generation is a pure function of the calendar: recurring bills land on
// fixed days of the month and variable spending fires on a fixed weekly
// grid, so two fetches over the same window return identical rows and a
// shifted window re-offers the overlap under the same native ids. Syncing
// demo data is therefore idempotent no matter how often or how raggedly it
// runs.
package demo

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	treeline "github.com/zack-schrag/treeline-money-sub002"
	"github.com/zack-schrag/treeline-money-sub002/date"
)

// ProviderName is the registry name demo integrations dispatch on.
const ProviderName = "demo"

// DefaultWindowDays is how much history the feed serves when the requested
// window is narrower. A fresh demo database gets six months of activity
// even though first-sync windows are shorter.
const DefaultWindowDays = 180

// Settings configures a demo integration. All fields are optional.
type Settings struct {
	// WindowDays widens every fetch to at least this much history.
	WindowDays int `json:"windowDays,omitempty"`
}

// Provider serves the fixture feed.
type Provider struct{}

var _ treeline.Provider = (*Provider)(nil)

// New returns a demo Provider.
func New() *Provider { return &Provider{} }

// Name implements treeline.Provider.
func (p *Provider) Name() string { return ProviderName }

// fixtureAccount is one of the three demo accounts. Balances are fixed:
// the point of demo mode is a stable, recognizable dataset, not a
// simulation that drifts.
type fixtureAccount struct {
	nativeID    string
	name        string
	typeHint    string
	balance     string
	institution treeline.Institution
}

var demoBank = treeline.Institution{
	Name:   "Demo Bank",
	URL:    "https://demo-bank.example.com",
	Domain: "demo-bank.example.com",
}

var demoCreditUnion = treeline.Institution{
	Name:   "Demo Credit Union",
	URL:    "https://demo-credit.example.com",
	Domain: "demo-credit.example.com",
}

var fixtureAccounts = []fixtureAccount{
	{"demo-checking-001", "Demo Checking Account", "depository", "3247.85", demoBank},
	{"demo-savings-001", "Demo Savings Account", "savings", "15420.50", demoBank},
	{"demo-credit-001", "Demo Credit Card", "credit", "-842.32", demoCreditUnion},
}

// recurringTemplate fires once a month on a fixed day, clamped to the
// month's length (a day-30 payroll lands on Feb 28).
type recurringTemplate struct {
	account     string
	description string
	amount      string
	tag         string
	day         int
}

var recurringTemplates = []recurringTemplate{
	{"demo-checking-001", "Direct Deposit - Payroll", "3500.00", "income", 15},
	{"demo-checking-001", "Direct Deposit - Payroll", "3500.00", "income", 30},
	{"demo-checking-001", "PG&E Utility Bill", "-145.23", "utilities", 5},
	{"demo-checking-001", "Water & Sewer", "-65.00", "utilities", 10},
	{"demo-checking-001", "Netflix", "-15.99", "entertainment", 1},
	{"demo-credit-001", "Spotify Premium", "-9.99", "entertainment", 1},
	{"demo-checking-001", "Gym Membership", "-49.99", "health", 1},
	{"demo-savings-001", "Transfer from Checking", "500.00", "transfer", 16},
	{"demo-savings-001", "Interest Payment", "12.45", "income", 28},
	{"demo-credit-001", "Payment Thank You", "800.00", "payment", 20},
}

// variableTemplate fires weekly, each template on its own weekday phase so
// the spending spreads across the week instead of clumping.
type variableTemplate struct {
	account     string
	description string
	amount      string
	tag         string
}

var variableTemplates = []variableTemplate{
	{"demo-checking-001", "QFC Grocery Store", "-87.43", "groceries"},
	{"demo-checking-001", "Whole Foods", "-112.56", "groceries"},
	{"demo-checking-001", "Trader Joe's", "-68.24", "groceries"},
	{"demo-checking-001", "Safeway", "-54.89", "groceries"},
	{"demo-checking-001", "Starbucks", "-5.75", "coffee"},
	{"demo-checking-001", "Starbucks", "-6.25", "coffee"},
	{"demo-checking-001", "Shell Gas Station", "-52.00", "transportation"},
	{"demo-checking-001", "Chevron", "-48.50", "transportation"},
	{"demo-checking-001", "Uber", "-23.40", "transportation"},
	{"demo-checking-001", "Lyft", "-18.75", "transportation"},
	{"demo-checking-001", "Amazon.com", "-124.87", "shopping"},
	{"demo-checking-001", "Target", "-67.92", "shopping"},
	{"demo-credit-001", "Amazon.com", "-89.99", "shopping"},
	{"demo-credit-001", "Restaurant - Italian", "-78.50", "dining"},
	{"demo-credit-001", "Restaurant - Thai", "-45.00", "dining"},
	{"demo-credit-001", "Restaurant - Fine Dining", "-125.75", "dining"},
	{"demo-credit-001", "Delta Airlines", "-450.00", "travel"},
	{"demo-credit-001", "Hilton Hotel", "-285.60", "travel"},
	{"demo-credit-001", "Apple Store", "-199.00", "electronics"},
}

func usd(amount string) treeline.Money {
	return treeline.M(decimal.RequireFromString(amount), "USD")
}

// Fetch implements treeline.Provider. The requested window is widened
// backward to Settings.WindowDays (default 180) so a brand-new demo store
// fills with history; re-offered rows are deduplicated downstream.
func (p *Provider) Fetch(ctx context.Context, integration treeline.Integration, window date.Range) (*treeline.FetchResult, error) {
	cfg := Settings{}
	if len(integration.Settings) > 0 {
		if err := integration.DecodeSettings(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = DefaultWindowDays
	}
	window.From = date.Min(window.From, window.To.Add(-(cfg.WindowDays - 1)))

	byAccount := make(map[string][]treeline.SourceTransaction)
	generateRecurring(window, byAccount)
	generateVariable(window, byAccount)

	result := &treeline.FetchResult{}
	for _, fa := range fixtureAccounts {
		txs := byAccount[fa.nativeID]
		sort.Slice(txs, func(i, j int) bool {
			if c := txs[i].Date.Compare(txs[j].Date); c != 0 {
				return c < 0
			}
			return txs[i].NativeID < txs[j].NativeID
		})
		result.Accounts = append(result.Accounts, treeline.SourceAccount{
			NativeID:     fa.nativeID,
			Name:         fa.name,
			Currency:     "USD",
			TypeHint:     fa.typeHint,
			Balance:      usd(fa.balance),
			HasBalance:   true,
			Institution:  fa.institution,
			Transactions: txs,
		})
	}
	return result, nil
}

// generateRecurring emits each monthly template once per calendar month
// overlapping the window. The native id encodes template index and month,
// so the same bill carries the same id regardless of the window that
// uncovered it.
func generateRecurring(window date.Range, byAccount map[string][]treeline.SourceTransaction) {
	first := date.New(window.From.Year(), window.From.Month(), 1)
	for ; !first.After(window.To); first = date.New(first.Year(), first.Month()+1, 1) {
		daysInMonth := date.New(first.Year(), first.Month()+1, 1).Sub(first)
		for i, t := range recurringTemplates {
			day := t.day
			if day > daysInMonth {
				day = daysInMonth
			}
			d := first.Add(day - 1)
			if !window.Contains(d) {
				continue
			}
			byAccount[t.account] = append(byAccount[t.account], treeline.SourceTransaction{
				NativeID:    fmt.Sprintf("demo-tx-r%02d-%04d%02d", i, first.Year(), int(first.Month())),
				Amount:      usd(t.amount),
				Description: t.description,
				Date:        d,
				Posted:      d,
				Tags:        []string{t.tag},
			})
		}
	}
}

// generateVariable emits template i on every day where (epochDay + 3*i) is
// a multiple of seven: one occurrence per template per week, phases spread
// over the weekdays. The grid is anchored to the epoch, not the window, so
// occurrences and their ids never move when the window does.
func generateVariable(window date.Range, byAccount map[string][]treeline.SourceTransaction) {
	var epoch date.Date
	for d := range window.Each() {
		days := d.Sub(epoch)
		for i, t := range variableTemplates {
			if (days+3*i)%7 != 0 {
				continue
			}
			byAccount[t.account] = append(byAccount[t.account], treeline.SourceTransaction{
				NativeID:    fmt.Sprintf("demo-tx-v%02d-%04d%02d%02d", i, d.Year(), int(d.Month()), d.Day()),
				Amount:      usd(t.amount),
				Description: t.description,
				Date:        d,
				Posted:      d,
				Tags:        []string{t.tag},
			})
		}
	}
}
