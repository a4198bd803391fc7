package simplefin

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	treeline "github.com/zack-schrag/treeline-money-sub002"
)

// ClaimSetupToken exchanges a one-time setup token for an access URL.
//
// The token the user copies from the bridge is the base64 of a claim URL;
// a single POST to that URL consumes the token and returns the access URL
// in the response body. The result is validated before being returned, so
// a successful claim is always storable as integration settings.
func (p *Provider) ClaimSetupToken(ctx context.Context, setupToken string) (string, error) {
	token := strings.TrimSpace(setupToken)
	if token == "" {
		return "", &treeline.MalformedDataError{Reason: "setup token is empty"}
	}
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", &treeline.MalformedDataError{Reason: "setup token is not valid base64", Err: err}
	}
	claimURL := strings.TrimSpace(string(decoded))
	if !strings.HasPrefix(claimURL, "https://") {
		return "", &treeline.MalformedDataError{Reason: "setup token does not decode to an https claim URL"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claimURL, nil)
	if err != nil {
		return "", &treeline.ProviderError{Provider: ProviderName, Op: "claim token", Err: err}
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", &treeline.ProviderError{Provider: ProviderName, Op: "claim token", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &treeline.ProviderError{Provider: ProviderName, Op: "claim token",
			Err: fmt.Errorf("unexpected status %s (setup tokens are single-use; generate a new one at %s)", resp.Status, bridgeURL)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &treeline.ProviderError{Provider: ProviderName, Op: "claim token", Err: err}
	}
	accessURL := strings.TrimSpace(string(body))
	if accessURL == "" {
		return "", &treeline.ProviderError{Provider: ProviderName, Op: "claim token",
			Err: errors.New("bridge returned an empty access URL")}
	}
	if _, err := parseAccessURL(accessURL); err != nil {
		return "", err
	}
	return accessURL, nil
}
