package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"QuestsInvite/config"
	"QuestsInvite/pkg/logger"
)

// ClaimOutcome is the documented return shape of the start_link_claim stored
// procedure. Either Error is set, or the claim fields are.
type ClaimOutcome struct {
	Error       string `json:"error,omitempty"`
	ClaimID     string `json:"claim_id"`
	MaskedPhone string `json:"masked_phone"`
	Status      string `json:"status"`
	ExpiresAt   string `json:"expires_at"`
}

// Backend error strings the handler maps explicitly. Anything else degrades
// to internal_error; the set is not closed.
const (
	ErrQuestNotFound    = "quest_not_found"
	ErrQuestUnavailable = "quest_unavailable"
	ErrAlreadyClaimed   = "already_claimed"
)

// Client registers claims through the backend RPC.
type Client interface {
	StartLinkClaim(ctx context.Context, shareCode, phone, phoneLast4 string) (*ClaimOutcome, error)
}

var (
	rpcClient Client
	rpcOnce   sync.Once
)

// Init initializes the RPC client. URL and credential presence is enforced
// per request by the claim service, not here.
func Init() error {
	rpcOnce.Do(func() {
		rpcClient = NewHTTPClient()

		logger.Logger.Info("Supabase RPC client initialized successfully")
	})

	return nil
}

func GetClient() Client {
	if rpcClient == nil {
		panic("Supabase client not initialized, call supabase.Init() first")
	}
	return rpcClient
}

// HTTPClient calls the Supabase REST RPC surface directly. The data store is
// consumed only through this contract.
type HTTPClient struct {
	httpClient *http.Client
}

func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type startLinkClaimParams struct {
	PShareCode  string `json:"p_share_code"`
	PPhone      string `json:"p_phone"`
	PPhoneLast4 string `json:"p_phone_last4"`
}

func (c *HTTPClient) StartLinkClaim(ctx context.Context, shareCode, phone, phoneLast4 string) (*ClaimOutcome, error) {
	cfg := config.Cfg

	payload, err := json.Marshal(startLinkClaimParams{
		PShareCode:  shareCode,
		PPhone:      phone,
		PPhoneLast4: phoneLast4,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode rpc params: %w", err)
	}

	endpoint := cfg.SupabaseURL + "/rest/v1/rpc/start_link_claim"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build rpc request: %w", err)
	}

	// Supabase expects the service credential both as apikey and bearer token.
	key := cfg.SupabaseKey()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", key)
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Logger.Error("Supabase RPC returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, fmt.Errorf("rpc returned status %d", resp.StatusCode)
	}

	var outcome ClaimOutcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		return nil, fmt.Errorf("failed to decode rpc response: %w", err)
	}

	return &outcome, nil
}
