package turnstile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"QuestsInvite/config"
)

// CloudflareClient verifies tokens against the Turnstile siteverify endpoint.
type CloudflareClient struct {
	httpClient *http.Client
}

func NewCloudflareClient() *CloudflareClient {
	return &CloudflareClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Verify posts the form-encoded token to siteverify. The shared secret is
// resolved at call time so a rotated secret takes effect without restart.
func (c *CloudflareClient) Verify(ctx context.Context, token, remoteIP string) (*Result, error) {
	form := url.Values{}
	form.Set("secret", config.Cfg.TurnstileSecret())
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		config.Cfg.TurnstileVerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("siteverify request failed: %w", err)
	}
	defer resp.Body.Close()

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode siteverify response: %w", err)
	}

	return &result, nil
}
