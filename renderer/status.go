package renderer

// Status is the view model for the status report. Commands assemble it
// from store queries; every field is already formatted for display.
type Status struct {
	Path                 string
	DemoMode             bool
	TransactionCount     int
	SnapshotCount        int
	OrphanedTransactions int
	// NextWindow is the day range the next sync would fetch, empty when
	// no integration is configured.
	NextWindow   string
	Accounts     []AccountStatus
	Integrations []IntegrationStatus
}

// AccountStatus is one account line of the status report.
type AccountStatus struct {
	Name         string
	Type         string
	Balance      string
	LastActivity string
}

// IntegrationStatus is one integration line of the status report.
type IntegrationStatus struct {
	Name     string
	Provider string
	Notes    string
}

// RenderStatus renders the status report to markdown.
func RenderStatus(s *Status) string {
	partials := map[string]string{
		"status_accounts":     "status_accounts.md",
		"status_integrations": "status_integrations.md",
	}
	return renderTemplate("status", "status.md", partials, s)
}
