package treeline

import (
	"time"
)

// SyncReport is the structured outcome of a sync run. It is always
// produced, even when every integration fails: one integration's failure
// must never erase another's counts.
type SyncReport struct {
	Started      time.Time           `json:"started"`
	Finished     time.Time           `json:"finished"`
	DryRun       bool                `json:"dryRun,omitempty"`
	Integrations []IntegrationReport `json:"integrations"`
	Totals       SyncStats           `json:"totals"`
	// SnapshotsRecorded counts observed balance snapshots written across
	// the run.
	SnapshotsRecorded int `json:"snapshotsRecorded"`
	// NewAccounts lists accounts discovered this run, by display name.
	// They are created with an unknown type for the user to classify.
	NewAccounts []string `json:"newAccounts,omitempty"`
}

// IntegrationReport is one integration's slice of the run.
type IntegrationReport struct {
	Integration       string        `json:"integration"`
	Provider          string        `json:"provider"`
	Stats             SyncStats     `json:"stats"`
	SnapshotsRecorded int           `json:"snapshotsRecorded"`
	NewAccounts       []string      `json:"newAccounts,omitempty"`
	Warnings          []string      `json:"warnings,omitempty"`
	Err               string        `json:"error,omitempty"`
	Elapsed           time.Duration `json:"elapsed"`
}

// Failed reports whether the integration run ended in an error.
func (r IntegrationReport) Failed() bool { return r.Err != "" }

// Errors collects the per-integration error messages, in order.
func (r *SyncReport) Errors() []string {
	var errs []string
	for _, ir := range r.Integrations {
		if ir.Failed() {
			errs = append(errs, ir.Integration+": "+ir.Err)
		}
	}
	return errs
}

// Warnings collects every warning across integrations, in order.
func (r *SyncReport) Warnings() []string {
	var all []string
	for _, ir := range r.Integrations {
		all = append(all, ir.Warnings...)
	}
	return all
}

// Elapsed is the wall time of the whole run.
func (r *SyncReport) Elapsed() time.Duration { return r.Finished.Sub(r.Started) }

func (r *SyncReport) add(ir IntegrationReport) {
	r.Integrations = append(r.Integrations, ir)
	r.Totals.Add(ir.Stats)
	r.SnapshotsRecorded += ir.SnapshotsRecorded
	r.NewAccounts = append(r.NewAccounts, ir.NewAccounts...)
}
