package treeline

import (
	"encoding/json"
	"fmt"
	"time"
)

// Integration is one configured connection to a data source. Provider names
// the adapter that serves it; Settings is an opaque blob owned by that
// adapter (access URL for SimpleFIN, column mapping for CSV, window length
// for demo) which the core never interprets.
type Integration struct {
	Name         string          `json:"name"`
	Provider     string          `json:"provider"`
	Settings     json.RawMessage `json:"settings,omitempty"`
	BalancesOnly bool            `json:"balancesOnly,omitempty"`
	Disabled     bool            `json:"disabled,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// NewIntegration builds an integration whose settings marshal from v.
func NewIntegration(name, provider string, v any) (Integration, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Integration{}, fmt.Errorf("encode settings for integration %q: %w", name, err)
	}
	now := time.Now().UTC()
	return Integration{
		Name:      name,
		Provider:  provider,
		Settings:  raw,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// DecodeSettings unmarshals the settings blob into v. Adapters call this
// with their own settings struct.
func (in Integration) DecodeSettings(v any) error {
	if len(in.Settings) == 0 {
		return &MalformedDataError{Reason: fmt.Sprintf("integration %q has no settings", in.Name)}
	}
	if err := json.Unmarshal(in.Settings, v); err != nil {
		return &MalformedDataError{Reason: fmt.Sprintf("integration %q settings", in.Name), Err: err}
	}
	return nil
}
