package renderer

import (
	"embed"
	"io/fs"
	"strings"
	"testing"
	"time"

	treeline "github.com/zack-schrag/treeline-money-sub002"
)

//go:embed testdata/*.md
var goldenFS embed.FS

func golden(t *testing.T, name string) string {
	t.Helper()
	b, err := fs.ReadFile(goldenFS, "testdata/"+name)
	if err != nil {
		t.Fatalf("missing golden file %s: %v", name, err)
	}
	return string(b)
}

func fullSyncReport() *treeline.SyncReport {
	started := time.Date(2025, 8, 20, 6, 0, 0, 0, time.UTC)
	return &treeline.SyncReport{
		Started:  started,
		Finished: started.Add(1300 * time.Millisecond),
		Integrations: []treeline.IntegrationReport{
			{
				Integration:       "simplefin-main",
				Provider:          "simplefin",
				Stats:             treeline.SyncStats{Discovered: 120, New: 5, Skipped: 115},
				SnapshotsRecorded: 3,
				NewAccounts:       []string{"Chase Checking"},
				Warnings:          []string{"bridge reported: connection to Big Bank is stale"},
				Elapsed:           1200 * time.Millisecond,
			},
			{
				Integration: "csv-chase",
				Provider:    "csv",
				Err:         "open statement.csv: no such file",
				Elapsed:     100 * time.Millisecond,
			},
		},
		Totals:            treeline.SyncStats{Discovered: 120, New: 5, Skipped: 115},
		SnapshotsRecorded: 3,
		NewAccounts:       []string{"Chase Checking"},
	}
}

func TestRenderSyncReport(t *testing.T) {
	got := RenderSyncReport(fullSyncReport())
	if want := golden(t, "sync_report.md"); got != want {
		t.Errorf("sync report mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestRenderSyncReportOmitsEmptySections(t *testing.T) {
	started := time.Date(2025, 8, 20, 6, 0, 0, 0, time.UTC)
	r := &treeline.SyncReport{Started: started, Finished: started}
	got := RenderSyncReport(r)

	for _, heading := range []string{"## New Accounts", "## Warnings", "## Errors"} {
		if strings.Contains(got, heading) {
			t.Errorf("empty report should not contain %q:\n%s", heading, got)
		}
	}
	if !strings.HasSuffix(got, "recorded in 0s.\n") {
		t.Errorf("report should end at the totals line:\n%q", got)
	}
}

func TestRenderSyncReportDryRun(t *testing.T) {
	r := fullSyncReport()
	r.DryRun = true
	got := RenderSyncReport(r)

	if !strings.Contains(got, "_Dry run: nothing was written._") {
		t.Errorf("dry-run marker missing:\n%s", got)
	}
}

func TestRenderStatus(t *testing.T) {
	s := &Status{
		Path:                 "/home/ada/.treeline/treeline.db",
		DemoMode:             true,
		TransactionCount:     542,
		SnapshotCount:        61,
		OrphanedTransactions: 2,
		NextWindow:           "2025-08-13..2025-08-20",
		Accounts: []AccountStatus{
			{Name: "Chase Checking", Type: "checking", Balance: "$1,234.56", LastActivity: "2025-08-19"},
			{Name: "Demo Credit Card", Type: "credit", Balance: "-$842.32", LastActivity: "2025-08-18"},
		},
		Integrations: []IntegrationStatus{
			{Name: "simplefin-main", Provider: "simplefin"},
			{Name: "demo-main", Provider: "demo", Notes: "disabled"},
		},
	}
	got := RenderStatus(s)
	if want := golden(t, "status.md"); got != want {
		t.Errorf("status mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestRenderStatusMinimal(t *testing.T) {
	got := RenderStatus(&Status{Path: "/tmp/t.db"})

	for _, heading := range []string{"## Accounts", "## Integrations", "orphaned", "Next sync window", "demo mode"} {
		if strings.Contains(got, heading) {
			t.Errorf("minimal status should not contain %q:\n%s", heading, got)
		}
	}
	if !strings.Contains(got, "| 0 | 0 | 0 | 0 |") {
		t.Errorf("counts row missing:\n%s", got)
	}
}

func TestRenderBackfill(t *testing.T) {
	stats := treeline.BackfillStats{
		AccountsProcessed: 3,
		Created:           120,
		Skipped:           8,
		Warnings: []string{
			treeline.EstimateNote,
			"Demo Savings Account: no observed snapshot to anchor on",
		},
	}
	got := RenderBackfill(stats, false)
	if want := golden(t, "backfill.md"); got != want {
		t.Errorf("backfill mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestRenderBackfillDryRun(t *testing.T) {
	got := RenderBackfill(treeline.BackfillStats{AccountsProcessed: 1}, true)
	if !strings.Contains(got, "_Dry run: nothing was written._") {
		t.Errorf("dry-run marker missing:\n%s", got)
	}
}

func TestRenderTransactions(t *testing.T) {
	rows := []TransactionRow{
		{
			Day:         "2025-08-19",
			Account:     "Chase Checking",
			Description: "STARBUCKS STORE 08041",
			Amount:      "-$5.75",
			Tags:        "coffee, food",
			ID:          "b3e1c6d2",
		},
		{
			Day:         "2025-08-18",
			Account:     "Chase Checking",
			Description: "PAYROLL ACME CORP",
			Amount:      "$2,450.00",
			ID:          "9f04aa01",
		},
	}
	got := RenderTransactions(rows)
	if want := golden(t, "transactions.md"); got != want {
		t.Errorf("transactions mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}
