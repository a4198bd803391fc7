// Package simplefin adapts the SimpleFIN Bridge protocol
// (https://www.simplefin.org/protocol.html) to the sync pipeline.
//
// A SimpleFIN integration stores one secret, the access URL: an https URL on
// a simplefin.org host with basic-auth credentials embedded. Fetch calls
// GET {access-url}/accounts with the sync window as unix-second query
// parameters and normalizes the payload. The bridge reports per-connection
// problems in a top-level errors array; those become warnings, never a
// failed fetch.
package simplefin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	treeline "github.com/zack-schrag/treeline-money-sub002"
	"github.com/zack-schrag/treeline-money-sub002/date"
)

// ProviderName is the registry name integrations dispatch on.
const ProviderName = "simplefin"

// bridgeURL is where users manage tokens; surfaced in credential errors.
const bridgeURL = "https://beta-bridge.simplefin.org/"

// Settings is the integration settings blob for this provider.
type Settings struct {
	AccessURL string `json:"accessUrl"`
}

// Provider implements treeline.Provider over the SimpleFIN Bridge.
type Provider struct {
	client *http.Client
}

var _ treeline.Provider = (*Provider)(nil)

// New returns a provider with a plain 30-second-timeout client.
func New() *Provider {
	return NewWithClient(&http.Client{Timeout: 30 * time.Second})
}

// NewWithClient returns a provider using the given client. Pass
// CachedClient() to reuse responses across runs on the same day.
func NewWithClient(client *http.Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Name() string { return ProviderName }

// Fetch retrieves accounts and their windowed transactions.
func (p *Provider) Fetch(ctx context.Context, in treeline.Integration, window date.Range) (*treeline.FetchResult, error) {
	var cfg Settings
	if err := in.DecodeSettings(&cfg); err != nil {
		return nil, err
	}
	ep, err := parseAccessURL(cfg.AccessURL)
	if err != nil {
		return nil, err
	}
	return p.fetchAccounts(ctx, ep, window)
}

// endpoint is a validated access URL split into callable parts.
type endpoint struct {
	base     string // scheme://host/path with credentials stripped
	username string
	password string
}

// parseAccessURL validates the access URL: https only, a simplefin.org
// host, and embedded basic-auth credentials.
func parseAccessURL(accessURL string) (endpoint, error) {
	if accessURL == "" {
		return endpoint{}, &treeline.MalformedDataError{Reason: "simplefin integration needs an accessUrl"}
	}
	u, err := url.Parse(accessURL)
	if err != nil {
		return endpoint{}, &treeline.MalformedDataError{Reason: "invalid access URL", Err: err}
	}
	if u.Scheme != "https" {
		return endpoint{}, &treeline.MalformedDataError{Reason: "access URL must use https"}
	}
	if !strings.HasSuffix(u.Hostname(), "simplefin.org") {
		return endpoint{}, &treeline.MalformedDataError{Reason: "access URL must be on a simplefin.org host"}
	}
	password, hasPassword := u.User.Password()
	if u.User.Username() == "" || !hasPassword {
		return endpoint{}, &treeline.MalformedDataError{Reason: "access URL must embed username and password"}
	}
	return endpoint{
		base:     u.Scheme + "://" + u.Host + strings.TrimSuffix(u.Path, "/"),
		username: u.User.Username(),
		password: password,
	}, nil
}

// payload is the bridge's /accounts response. Amounts arrive as quoted
// decimal strings; shopspring accepts both quoted and bare numbers. Org and
// extra are kept raw: their shape varies by institution and is picked over
// with jsonpath.
type payload struct {
	Errors   []string     `json:"errors"`
	Accounts []rawAccount `json:"accounts"`
}

type rawAccount struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Currency     string           `json:"currency"`
	Balance      *decimal.Decimal `json:"balance"`
	Org          json.RawMessage  `json:"org"`
	Transactions []rawTransaction `json:"transactions"`
}

type rawTransaction struct {
	ID           string          `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	Posted       int64           `json:"posted"`
	TransactedAt *int64          `json:"transacted_at"`
	Pending      bool            `json:"pending"`
	Extra        json.RawMessage `json:"extra"`
}

func (p *Provider) fetchAccounts(ctx context.Context, ep endpoint, window date.Range) (*treeline.FetchResult, error) {
	q := url.Values{}
	q.Set("start-date", strconv.FormatInt(window.From.Unix(), 10))
	q.Set("end-date", strconv.FormatInt(window.To.EndOfDay().Unix(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.base+"/accounts?"+q.Encode(), nil)
	if err != nil {
		return nil, &treeline.ProviderError{Provider: ProviderName, Op: "build request", Err: err}
	}
	req.SetBasicAuth(ep.username, ep.password)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &treeline.ProviderError{Provider: ProviderName, Op: "fetch accounts", Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return nil, &treeline.ProviderError{Provider: ProviderName, Op: "fetch accounts",
			Err: errors.New("authentication failed: the access token may be invalid or revoked; reset credentials at " + bridgeURL)}
	case http.StatusPaymentRequired:
		return nil, &treeline.ProviderError{Provider: ProviderName, Op: "fetch accounts",
			Err: errors.New("subscription payment required; check your account at " + bridgeURL)}
	default:
		return nil, &treeline.ProviderError{Provider: ProviderName, Op: "fetch accounts",
			Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var pl payload
	if err := json.NewDecoder(resp.Body).Decode(&pl); err != nil {
		return nil, &treeline.ProviderError{Provider: ProviderName, Op: "decode response", Err: err}
	}
	return mapPayload(pl), nil
}

func mapPayload(pl payload) *treeline.FetchResult {
	result := &treeline.FetchResult{}
	for _, e := range pl.Errors {
		result.Warnings = append(result.Warnings, "bridge reported: "+e)
	}

	for _, acc := range pl.Accounts {
		currency := acc.Currency
		if currency == "" {
			currency = "USD"
		}
		src := treeline.SourceAccount{
			NativeID: acc.ID,
			Name:     acc.Name,
			Currency: currency,
			Institution: treeline.Institution{
				Name:   jsonString(acc.Org, "$.name"),
				URL:    jsonString(acc.Org, "$.url"),
				Domain: jsonString(acc.Org, "$.domain"),
			},
		}
		if src.Institution.Domain == "" {
			src.Institution.Domain = jsonString(acc.Org, `$["sfin-url"]`)
		}
		if acc.Balance != nil {
			src.Balance = treeline.M(*acc.Balance, currency)
			src.HasBalance = true
		}

		for _, tx := range acc.Transactions {
			src.Transactions = append(src.Transactions, mapTransaction(tx, currency))
		}
		result.Accounts = append(result.Accounts, src)
	}
	return result
}

// mapTransaction converts one bridge transaction. Posted is unix seconds;
// zero means the transaction is still pending, which leaves the dates zero
// for the reconciler to flag.
func mapTransaction(tx rawTransaction, currency string) treeline.SourceTransaction {
	out := treeline.SourceTransaction{
		NativeID:    tx.ID,
		Amount:      treeline.M(tx.Amount, currency),
		Description: tx.Description,
	}
	if tx.Posted > 0 {
		out.Posted = date.FromUnix(tx.Posted)
		out.Date = out.Posted
	}
	if tx.TransactedAt != nil && *tx.TransactedAt > 0 {
		out.Date = date.FromUnix(*tx.TransactedAt)
	}
	if category := jsonString(tx.Extra, "$.category"); category != "" {
		out.Extra = map[string]string{"category": category}
	}
	if tx.Pending {
		if out.Extra == nil {
			out.Extra = map[string]string{}
		}
		out.Extra["pending"] = "true"
	}
	return out
}

// jsonString picks one string out of a loose JSON blob by path. Anything
// missing or mistyped is simply absent; these fields are cosmetic.
func jsonString(raw json.RawMessage, path string) string {
	if len(raw) == 0 {
		return ""
	}
	var jobj any
	if err := json.Unmarshal(raw, &jobj); err != nil {
		return ""
	}
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return ""
	}
	// jsonpath sometimes wraps a single answer in a list; keep the first
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	s, _ := jval.(string)
	return s
}
