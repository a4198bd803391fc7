package demo

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	treeline "github.com/zack-schrag/treeline-money-sub002"
	"github.com/zack-schrag/treeline-money-sub002/date"
)

func fetch(t *testing.T, window date.Range, settings Settings) *treeline.FetchResult {
	t.Helper()
	in, err := treeline.NewIntegration("demo-main", ProviderName, settings)
	if err != nil {
		t.Fatal(err)
	}
	res, err := New().Fetch(context.Background(), in, window)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

// exact keeps the requested window as is (no widening to a history floor).
var exact = Settings{WindowDays: 1}

func allRows(res *treeline.FetchResult) map[string]treeline.SourceTransaction {
	rows := make(map[string]treeline.SourceTransaction)
	for _, acc := range res.Accounts {
		for _, tx := range acc.Transactions {
			rows[tx.NativeID] = tx
		}
	}
	return rows
}

func TestFetchAccounts(t *testing.T) {
	res := fetch(t, date.LastDays(date.MustParse("2025-03-31"), 30), exact)

	if len(res.Accounts) != 3 {
		t.Fatalf("got %d accounts, want 3", len(res.Accounts))
	}
	want := []struct {
		nativeID, name, typeHint, balance, institution string
	}{
		{"demo-checking-001", "Demo Checking Account", "depository", "3247.85", "Demo Bank"},
		{"demo-savings-001", "Demo Savings Account", "savings", "15420.50", "Demo Bank"},
		{"demo-credit-001", "Demo Credit Card", "credit", "-842.32", "Demo Credit Union"},
	}
	for i, w := range want {
		acc := res.Accounts[i]
		if acc.NativeID != w.nativeID || acc.Name != w.name || acc.TypeHint != w.typeHint {
			t.Errorf("account %d: got (%s, %s, %s), want (%s, %s, %s)",
				i, acc.NativeID, acc.Name, acc.TypeHint, w.nativeID, w.name, w.typeHint)
		}
		if !acc.HasBalance || !acc.Balance.Decimal().Equal(decimal.RequireFromString(w.balance)) {
			t.Errorf("account %s: balance %s, want %s", acc.NativeID, acc.Balance.Decimal(), w.balance)
		}
		if acc.Institution.Name != w.institution {
			t.Errorf("account %s: institution %q, want %q", acc.NativeID, acc.Institution.Name, w.institution)
		}
		if acc.Currency != "USD" {
			t.Errorf("account %s: currency %q, want USD", acc.NativeID, acc.Currency)
		}
	}
}

func TestFetchDeterministic(t *testing.T) {
	window := date.NewRange(date.MustParse("2025-01-01"), date.MustParse("2025-03-31"))
	a := fetch(t, window, exact)
	b := fetch(t, window, exact)

	rowsA, rowsB := allRows(a), allRows(b)
	if len(rowsA) == 0 {
		t.Fatal("no rows generated")
	}
	if len(rowsA) != len(rowsB) {
		t.Fatalf("runs disagree: %d vs %d rows", len(rowsA), len(rowsB))
	}
	for id, txA := range rowsA {
		txB, ok := rowsB[id]
		if !ok {
			t.Fatalf("row %s missing from second run", id)
		}
		if txA.Date != txB.Date || txA.Description != txB.Description || !txA.Amount.Equal(txB.Amount) {
			t.Errorf("row %s differs across runs: %+v vs %+v", id, txA, txB)
		}
	}
}

func TestFetchWindowShiftKeepsIDs(t *testing.T) {
	// Overlapping windows must describe the shared days identically, id
	// included, or every overlapped sync would insert duplicates.
	a := fetch(t, date.NewRange(date.MustParse("2025-01-01"), date.MustParse("2025-03-31")), exact)
	b := fetch(t, date.NewRange(date.MustParse("2025-02-01"), date.MustParse("2025-04-30")), exact)
	overlap := date.NewRange(date.MustParse("2025-02-01"), date.MustParse("2025-03-31"))

	inOverlap := func(res *treeline.FetchResult) map[string]date.Date {
		rows := make(map[string]date.Date)
		for id, tx := range allRows(res) {
			if overlap.Contains(tx.Date) {
				rows[id] = tx.Date
			}
		}
		return rows
	}
	rowsA, rowsB := inOverlap(a), inOverlap(b)
	if len(rowsA) == 0 {
		t.Fatal("no rows in overlap")
	}
	if len(rowsA) != len(rowsB) {
		t.Fatalf("overlap disagrees: %d vs %d rows", len(rowsA), len(rowsB))
	}
	for id, day := range rowsA {
		if rowsB[id] != day {
			t.Errorf("row %s: day %s in first window, %s in second", id, day, rowsB[id])
		}
	}
}

func TestRecurringKnownOccurrence(t *testing.T) {
	res := fetch(t, date.NewRange(date.MustParse("2025-01-01"), date.MustParse("2025-01-31")), exact)
	rows := allRows(res)

	payroll, ok := rows["demo-tx-r00-202501"]
	if !ok {
		t.Fatal("January payroll missing")
	}
	if payroll.Date != date.MustParse("2025-01-15") {
		t.Errorf("payroll on %s, want 2025-01-15", payroll.Date)
	}
	if payroll.Description != "Direct Deposit - Payroll" || !payroll.Amount.Equal(treeline.M(3500, "USD")) {
		t.Errorf("payroll row wrong: %+v", payroll)
	}
	if len(payroll.Tags) != 1 || payroll.Tags[0] != "income" {
		t.Errorf("payroll tags %v, want [income]", payroll.Tags)
	}
}

func TestRecurringClampsToMonthLength(t *testing.T) {
	// Day-30 payroll lands on the last day of February.
	tests := []struct {
		window date.Range
		id     string
		want   date.Date
	}{
		{date.NewRange(date.MustParse("2025-02-01"), date.MustParse("2025-02-28")), "demo-tx-r01-202502", date.MustParse("2025-02-28")},
		{date.NewRange(date.MustParse("2024-02-01"), date.MustParse("2024-02-29")), "demo-tx-r01-202402", date.MustParse("2024-02-29")},
	}
	for _, tc := range tests {
		rows := allRows(fetch(t, tc.window, exact))
		tx, ok := rows[tc.id]
		if !ok {
			t.Errorf("%s: missing", tc.id)
			continue
		}
		if tx.Date != tc.want {
			t.Errorf("%s: on %s, want %s", tc.id, tx.Date, tc.want)
		}
	}
}

func TestVariableWeeklyCadence(t *testing.T) {
	// 2025-01-02 is a multiple of seven days past the epoch, so the first
	// variable template fires there and again exactly a week later.
	res := fetch(t, date.NewRange(date.MustParse("2025-01-02"), date.MustParse("2025-01-15")), exact)

	var qfc []date.Date
	for id, tx := range allRows(res) {
		if strings.HasPrefix(id, "demo-tx-v00-") {
			qfc = append(qfc, tx.Date)
		}
	}
	if len(qfc) != 2 {
		t.Fatalf("got %d QFC rows in two weeks, want 2", len(qfc))
	}
	if d := qfc[0].Sub(qfc[1]); d != 7 && d != -7 {
		t.Errorf("QFC rows %s and %s are not a week apart", qfc[0], qfc[1])
	}
}

func TestVariableOnePerTemplatePerWeek(t *testing.T) {
	res := fetch(t, date.NewRange(date.MustParse("2025-01-02"), date.MustParse("2025-01-08")), exact)

	var variable int
	for id := range allRows(res) {
		if strings.HasPrefix(id, "demo-tx-v") {
			variable++
		}
	}
	if variable != len(variableTemplates) {
		t.Errorf("got %d variable rows in one week, want %d", variable, len(variableTemplates))
	}
}

func TestFetchWidensToHistoryFloor(t *testing.T) {
	today := date.MustParse("2025-06-10")
	res := fetch(t, date.NewRange(today, today), Settings{})

	earliest := today
	for _, tx := range allRows(res) {
		earliest = date.Min(earliest, tx.Date)
	}
	floor := today.Add(-(DefaultWindowDays - 1))
	if earliest.Before(floor) {
		t.Errorf("row on %s precedes the %d-day floor %s", earliest, DefaultWindowDays, floor)
	}
	if earliest.After(floor.Add(7)) {
		t.Errorf("earliest row %s, expected history back to about %s", earliest, floor)
	}
}

func TestFetchHonorsConfiguredWindowDays(t *testing.T) {
	today := date.MustParse("2025-06-10")
	res := fetch(t, date.NewRange(today, today), Settings{WindowDays: 30})

	floor := today.Add(-29)
	count := 0
	for _, tx := range allRows(res) {
		count++
		if tx.Date.Before(floor) {
			t.Errorf("row on %s precedes the 30-day floor %s", tx.Date, floor)
		}
	}
	if count == 0 {
		t.Fatal("no rows generated in 30-day window")
	}
}

func TestTransactionsSortedByDay(t *testing.T) {
	res := fetch(t, date.NewRange(date.MustParse("2025-01-01"), date.MustParse("2025-02-28")), exact)
	for _, acc := range res.Accounts {
		for i := 1; i < len(acc.Transactions); i++ {
			if acc.Transactions[i].Date.Before(acc.Transactions[i-1].Date) {
				t.Fatalf("account %s: transactions out of order at %d", acc.NativeID, i)
			}
		}
	}
}
