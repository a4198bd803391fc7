package renderer

import (
	"time"

	treeline "github.com/zack-schrag/treeline-money-sub002"
)

// syncView is the pre-formatted shape the sync templates consume.
type syncView struct {
	DryRun          bool
	TotalDiscovered int
	TotalNew        int
	TotalSkipped    int
	Snapshots       int
	Elapsed         string
	Integrations    []syncRow
	NewAccounts     []string
	Warnings        []string
	Errors          []string
}

// syncRow is one integration line of the report table.
type syncRow struct {
	Name       string
	Provider   string
	Discovered int
	New        int
	Skipped    int
	Snapshots  int
	Elapsed    string
	Status     string
}

// RenderSyncReport renders a sync run to markdown. Sections without
// content (new accounts, warnings, errors) are omitted entirely.
func RenderSyncReport(r *treeline.SyncReport) string {
	view := syncView{
		DryRun:          r.DryRun,
		TotalDiscovered: r.Totals.Discovered,
		TotalNew:        r.Totals.New,
		TotalSkipped:    r.Totals.Skipped,
		Snapshots:       r.SnapshotsRecorded,
		Elapsed:         r.Elapsed().Round(time.Millisecond).String(),
		NewAccounts:     r.NewAccounts,
		Warnings:        r.Warnings(),
		Errors:          r.Errors(),
	}
	for _, ir := range r.Integrations {
		row := syncRow{
			Name:       ir.Integration,
			Provider:   ir.Provider,
			Discovered: ir.Stats.Discovered,
			New:        ir.Stats.New,
			Skipped:    ir.Stats.Skipped,
			Snapshots:  ir.SnapshotsRecorded,
			Elapsed:    ir.Elapsed.Round(time.Millisecond).String(),
			Status:     "ok",
		}
		if ir.Failed() {
			row.Status = "failed: " + ir.Err
		}
		view.Integrations = append(view.Integrations, row)
	}

	partials := map[string]string{
		"sync_integrations": "sync_integrations.md",
		"sync_new_accounts": "sync_new_accounts.md",
		"sync_warnings":     "sync_warnings.md",
		"sync_errors":       "sync_errors.md",
	}
	return renderTemplate("syncReport", "sync_report.md", partials, view)
}
