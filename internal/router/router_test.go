package router

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"

	"QuestsInvite/config"
	"QuestsInvite/internal/cache"
	"QuestsInvite/internal/middleware"
	"QuestsInvite/internal/service"
	"QuestsInvite/pkg/logger"
	"QuestsInvite/pkg/supabase"
	"QuestsInvite/pkg/turnstile"
)

func TestMain(m *testing.M) {
	logger.Init()
	if err := middleware.Init(); err != nil {
		panic(err)
	}

	config.Cfg.TurnstileSecretKey = "test-secret"
	config.Cfg.SupabaseURL = "https://example.supabase.co"
	config.Cfg.SupabaseServiceKey = "svc-key"

	os.Exit(m.Run())
}

type fakeVerifier struct {
	result *turnstile.Result
	calls  int
}

func (f *fakeVerifier) Verify(ctx context.Context, token, remoteIP string) (*turnstile.Result, error) {
	f.calls++
	return f.result, nil
}

type countingStore struct {
	counters map[string]cache.Counter
	gets     int
	puts     int
}

func newCountingStore() *countingStore {
	return &countingStore{counters: make(map[string]cache.Counter)}
}

func (s *countingStore) Get(ctx context.Context, key string) (*cache.Counter, error) {
	s.gets++
	c, ok := s.counters[key]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *countingStore) Put(ctx context.Context, key string, c cache.Counter, ttl time.Duration) error {
	s.puts++
	s.counters[key] = c
	return nil
}

type fakeBackend struct {
	outcome *supabase.ClaimOutcome
	calls   int
}

func (f *fakeBackend) StartLinkClaim(ctx context.Context, shareCode, phone, phoneLast4 string) (*supabase.ClaimOutcome, error) {
	f.calls++
	return f.outcome, nil
}

type testEnv struct {
	verifier *fakeVerifier
	store    *countingStore
	backend  *fakeBackend
	h        *server.Hertz
}

func newTestEnv() *testEnv {
	env := &testEnv{
		verifier: &fakeVerifier{result: &turnstile.Result{Success: true, Hostname: "thequestsapp.com"}},
		store:    newCountingStore(),
		backend:  &fakeBackend{outcome: &supabase.ClaimOutcome{ClaimID: "c1", MaskedPhone: "***4567", ExpiresAt: "2025-01-01T00:00:00Z"}},
	}
	service.Init(env.verifier, env.store, env.backend)

	env.h = server.Default()
	Register(env.h)
	return env
}

func (e *testEnv) post(body string, headers ...ut.Header) *ut.ResponseRecorder {
	headers = append(headers, ut.Header{Key: "Content-Type", Value: "application/json"})
	return ut.PerformRequest(e.h.Engine, "POST", "/api/link-claims/start",
		&ut.Body{Body: bytes.NewBufferString(body), Len: len(body)},
		headers...,
	)
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, body)
	}
	return parsed.Error
}

func TestPreflightNeverReachesBusinessLogic(t *testing.T) {
	env := newTestEnv()

	w := ut.PerformRequest(env.h.Engine, "OPTIONS", "/api/link-claims/start", nil,
		ut.Header{Key: "Origin", Value: "https://thequestsapp.com"},
	)
	resp := w.Result()

	if resp.StatusCode() != 204 {
		t.Fatalf("status = %d, want 204", resp.StatusCode())
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://thequestsapp.com" {
		t.Errorf("allow-origin = %q", got)
	}
	if got := resp.Header.Get("Vary"); got != "Origin" {
		t.Errorf("vary = %q, want Origin", got)
	}

	if env.verifier.calls != 0 || env.store.gets != 0 || env.backend.calls != 0 {
		t.Error("preflight must not touch verification, counters or the backend")
	}
}

func TestDisallowedOriginGetsNoAllowHeader(t *testing.T) {
	env := newTestEnv()

	w := env.post(`{"shareCode":"ABCDefgh","phone":"5551234567","turnstileToken":"tok"}`,
		ut.Header{Key: "Origin", Value: "https://evil.example"},
	)
	resp := w.Result()

	// The request is still served; only the browser-side grant is withheld.
	if resp.StatusCode() != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode())
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow-origin = %q, want empty for disallowed origin", got)
	}
	if got := resp.Header.Get("Vary"); got != "Origin" {
		t.Errorf("vary = %q, want Origin", got)
	}
}

func TestSecurityHeadersOverlaid(t *testing.T) {
	env := newTestEnv()

	resp := env.post(`not json`).Result()

	checks := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"X-XSS-Protection":       "0",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
		"Content-Type":           "application/json",
	}
	for header, want := range checks {
		if got := resp.Header.Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestInvalidJSON(t *testing.T) {
	env := newTestEnv()

	resp := env.post(`{not json`).Result()
	if resp.StatusCode() != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode())
	}
	if code := errorCode(t, resp.Body()); code != "invalid_json" {
		t.Errorf("error = %q, want invalid_json", code)
	}
}

func TestMissingFields(t *testing.T) {
	env := newTestEnv()

	resp := env.post(`{"shareCode":"ABCDefgh","phone":"5551234567"}`).Result()
	if resp.StatusCode() != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode())
	}
	if code := errorCode(t, resp.Body()); code != "missing_fields" {
		t.Errorf("error = %q, want missing_fields", code)
	}
}

func TestInvalidShareCodeMakesNoCalls(t *testing.T) {
	env := newTestEnv()

	resp := env.post(`{"shareCode":"BADC0DE!","phone":"5551234567","turnstileToken":"tok"}`).Result()
	if resp.StatusCode() != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode())
	}
	if code := errorCode(t, resp.Body()); code != "invalid_share_code" {
		t.Errorf("error = %q, want invalid_share_code", code)
	}

	if env.verifier.calls != 0 || env.store.gets != 0 || env.store.puts != 0 || env.backend.calls != 0 {
		t.Error("rejected share code must not trigger any external call")
	}
}

func TestInvalidPhone(t *testing.T) {
	env := newTestEnv()

	resp := env.post(`{"shareCode":"ABCDefgh","phone":"123","turnstileToken":"tok"}`).Result()
	if resp.StatusCode() != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode())
	}
	if code := errorCode(t, resp.Body()); code != "invalid_phone" {
		t.Errorf("error = %q, want invalid_phone", code)
	}
}

func TestMisconfiguredBeforeAnythingElse(t *testing.T) {
	env := newTestEnv()

	saved := config.Cfg
	defer func() { config.Cfg = saved }()
	config.Cfg.SupabaseServiceKey = ""
	config.Cfg.SupabaseServiceLegacy = ""

	// Body contents are irrelevant: the config check runs first.
	resp := env.post(`{not even json`).Result()
	if resp.StatusCode() != 500 {
		t.Fatalf("status = %d, want 500", resp.StatusCode())
	}
	if code := errorCode(t, resp.Body()); code != "misconfigured" {
		t.Errorf("error = %q, want misconfigured", code)
	}

	if env.verifier.calls != 0 || env.store.gets != 0 || env.backend.calls != 0 {
		t.Error("misconfigured service must not make external calls")
	}
}

func TestRateLimitedResponse(t *testing.T) {
	env := newTestEnv()

	now := time.Now().Unix()
	env.store.counters[cache.IPKey("1.2.3.4")] = cache.Counter{Count: 5, FirstSeen: now - 1800}

	resp := env.post(`{"shareCode":"ABCDefgh","phone":"5551234567","turnstileToken":"tok"}`,
		ut.Header{Key: "CF-Connecting-IP", Value: "1.2.3.4"},
	).Result()

	if resp.StatusCode() != 429 {
		t.Fatalf("status = %d, want 429", resp.StatusCode())
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}

	var parsed struct {
		Error      string `json:"error"`
		RetryAfter int    `json:"retryAfter"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if parsed.Error != "rate_limited" {
		t.Errorf("error = %q, want rate_limited", parsed.Error)
	}
	if parsed.RetryAfter < 1798 || parsed.RetryAfter > 1800 {
		t.Errorf("retryAfter = %d, want about 1800", parsed.RetryAfter)
	}

	if env.backend.calls != 0 {
		t.Error("backend must not be called when rate limited")
	}
}

func TestClaimHappyPath(t *testing.T) {
	env := newTestEnv()

	resp := env.post(`{"shareCode":"ABCDefgh","phone":"(555) 123-4567","turnstileToken":"tok"}`,
		ut.Header{Key: "Origin", Value: "https://invite.thequestsapp.com"},
	).Result()

	if resp.StatusCode() != 200 {
		t.Fatalf("status = %d, body = %s", resp.StatusCode(), resp.Body())
	}

	var parsed struct {
		ClaimID     string `json:"claimId"`
		MaskedPhone string `json:"maskedPhone"`
		Status      string `json:"status"`
		ExpiresAt   string `json:"expiresAt"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if parsed.ClaimID != "c1" || parsed.Status != "PENDING" {
		t.Errorf("unexpected response: %+v", parsed)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://invite.thequestsapp.com" {
		t.Errorf("allow-origin = %q", got)
	}

	if env.verifier.calls != 1 || env.backend.calls != 1 {
		t.Errorf("verifier calls = %d, backend calls = %d, want 1 and 1", env.verifier.calls, env.backend.calls)
	}
	if env.store.puts != 3 {
		t.Errorf("counter writes = %d, want 3", env.store.puts)
	}
}

func TestAlreadyClaimedIsSuccess(t *testing.T) {
	env := newTestEnv()
	env.backend.outcome = &supabase.ClaimOutcome{
		Error:       supabase.ErrAlreadyClaimed,
		ClaimID:     "abc",
		MaskedPhone: "***1234",
		Status:      "x",
		ExpiresAt:   "2025-01-01T00:00:00Z",
	}

	resp := env.post(`{"shareCode":"ABCDefgh","phone":"5551234567","turnstileToken":"tok"}`).Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode())
	}

	var parsed struct {
		ClaimID string `json:"claimId"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if parsed.Status != "ALREADY_CLAIMED" || parsed.ClaimID != "abc" {
		t.Errorf("unexpected response: %+v", parsed)
	}
}

func TestQuestNotFound(t *testing.T) {
	env := newTestEnv()
	env.backend.outcome = &supabase.ClaimOutcome{Error: supabase.ErrQuestUnavailable}

	resp := env.post(`{"shareCode":"ABCDefgh","phone":"5551234567","turnstileToken":"tok"}`).Result()
	if resp.StatusCode() != 404 {
		t.Fatalf("status = %d, want 404", resp.StatusCode())
	}
	if code := errorCode(t, resp.Body()); code != "quest_not_found" {
		t.Errorf("error = %q, want quest_not_found", code)
	}
}
