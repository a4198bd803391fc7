package csvimport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	treeline "github.com/zack-schrag/treeline-money-sub002"
	"github.com/zack-schrag/treeline-money-sub002/date"
)

// Settings configures a recurring CSV integration: a file path the user
// keeps refreshing (a bank's scheduled export), the local account its rows
// belong to, and the column mapping captured at setup time.
type Settings struct {
	FilePath    string  `json:"filePath"`
	AccountID   string  `json:"accountId"`
	AccountName string  `json:"accountName,omitempty"`
	Mapping     Mapping `json:"columnMapping"`
}

// Provider implements treeline.Provider for configured CSV integrations.
// One-shot imports skip it and call Parse directly.
type Provider struct{}

var _ treeline.Provider = (*Provider)(nil)

// New returns the CSV provider.
func New() *Provider { return &Provider{} }

func (*Provider) Name() string { return ProviderName }

// Fetch parses the configured file. The sync window is ignored: a file is
// read whole, and reconciliation dedups over the span of its rows.
func (p *Provider) Fetch(_ context.Context, in treeline.Integration, _ date.Range) (*treeline.FetchResult, error) {
	var cfg Settings
	if err := in.DecodeSettings(&cfg); err != nil {
		return nil, err
	}
	if cfg.FilePath == "" {
		return nil, &treeline.MalformedDataError{Reason: fmt.Sprintf("integration %q has no filePath", in.Name)}
	}
	if cfg.AccountID == "" {
		return nil, &treeline.MalformedDataError{Reason: fmt.Sprintf("integration %q has no accountId", in.Name)}
	}

	f, err := os.Open(cfg.FilePath)
	if err != nil {
		return nil, &treeline.ProviderError{Provider: ProviderName, Op: "open file", Err: err}
	}
	defer f.Close()

	name := cfg.AccountName
	if name == "" {
		name = filepath.Base(cfg.FilePath)
	}
	return Parse(f, cfg.Mapping, treeline.SourceAccount{NativeID: cfg.AccountID, Name: name})
}
