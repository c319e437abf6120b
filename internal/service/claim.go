package service

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"QuestsInvite/config"
	"QuestsInvite/internal/cache"
	"QuestsInvite/internal/model/dto"
	pkgerrors "QuestsInvite/pkg/errors"
	"QuestsInvite/pkg/logger"
	"QuestsInvite/pkg/metrics"
	"QuestsInvite/pkg/supabase"
	"QuestsInvite/pkg/turnstile"
	"QuestsInvite/utils"
)

var claimService *ClaimService

// Init wires the claim service. A nil store means the counter store is down;
// the pipeline then fails closed with 503 instead of skipping rate limits.
func Init(verifier turnstile.Client, store cache.CounterStore, backend supabase.Client) {
	claimService = NewClaimService(verifier, store, backend)
}

func Claim() *ClaimService {
	if claimService == nil {
		panic("Claim service not initialized, call service.Init() first")
	}
	return claimService
}

// ClaimService orchestrates the anti-abuse checks and the backend write for
// one claim submission. It holds no per-request state.
type ClaimService struct {
	verifier turnstile.Client
	store    cache.CounterStore
	backend  supabase.Client
}

func NewClaimService(verifier turnstile.Client, store cache.CounterStore, backend supabase.Client) *ClaimService {
	return &ClaimService{
		verifier: verifier,
		store:    store,
		backend:  backend,
	}
}

// StartClaimInput is a validated, normalized claim submission.
type StartClaimInput struct {
	ShareCode      string
	Phone          string // E.164
	TurnstileToken string
	ClientIP       string
}

// CheckConfig rejects traffic when required bindings are absent. Runs before
// anything else so a broken deployment never reaches the backend.
func (s *ClaimService) CheckConfig() error {
	cfg := config.Cfg

	if cfg.TurnstileSecret() == "" {
		logger.Logger.Error("Turnstile secret is missing (TURNSTILE_SECRET_KEY | TURNSTILE_SECRET | CF_TURNSTILE_SECRET_KEY)")
		return pkgerrors.Misconfigured
	}

	if cfg.SupabaseURL == "" || cfg.SupabaseKey() == "" {
		logger.Logger.Error("Supabase bindings are missing")
		return pkgerrors.Misconfigured
	}

	return nil
}

// StartClaim runs verify-human -> rate-limit -> backend RPC -> mapping.
// Every step short-circuits; the RPC is never called unless all prior steps
// pass.
func (s *ClaimService) StartClaim(ctx context.Context, in StartClaimInput) (*dto.ClaimStartResponse, error) {
	if err := s.verifyHuman(ctx, in); err != nil {
		metrics.RecordClaimRejected(ctx, "turnstile")
		return nil, err
	}

	if err := s.applyRateLimits(ctx, in); err != nil {
		metrics.RecordClaimRejected(ctx, "rate_limit")
		return nil, err
	}

	resp, err := s.registerClaim(ctx, in)
	if err != nil {
		return nil, err
	}

	metrics.RecordClaimOutcome(ctx, resp.Status)
	return resp, nil
}

func (s *ClaimService) verifyHuman(ctx context.Context, in StartClaimInput) error {
	result, err := s.verifier.Verify(ctx, in.TurnstileToken, in.ClientIP)
	if err != nil {
		logger.Logger.Error("Turnstile verification request failed", zap.Error(err))
		return pkgerrors.InternalError
	}

	if !result.Success {
		return pkgerrors.TurnstileFailed
	}

	// A token minted on another site must not be replayable here. Only
	// enforced when the service reports a hostname at all.
	if result.Hostname != "" && !slices.Contains(config.Cfg.TurnstileHosts(), result.Hostname) {
		logger.Logger.Error("Turnstile hostname mismatch",
			zap.String("hostname", result.Hostname),
			zap.Strings("allowed_hosts", config.Cfg.TurnstileHosts()),
		)
		return pkgerrors.TurnstileFailed
	}

	return nil
}

// applyRateLimits evaluates ip -> phone -> code+block, returning on the
// first breach. Rate limiting is a safety control: an unreachable store
// rejects traffic rather than letting it through unmetered.
func (s *ClaimService) applyRateLimits(ctx context.Context, in StartClaimInput) error {
	if s.store == nil {
		logger.Logger.Error("Rate-limit counter store not available, rejecting request")
		return pkgerrors.ServiceUnavailable
	}

	cfg := config.Cfg
	checks := []struct {
		key    string
		limit  int
		window int
	}{
		{cache.IPKey(in.ClientIP), cfg.RateLimitIPMax, cfg.RateLimitIPWindow},
		{cache.PhoneKey(utils.HashPhone(in.Phone)), cfg.RateLimitPhoneMax, cfg.RateLimitPhoneWindow},
		{cache.CodeIPKey(in.ShareCode, utils.IPBlock(in.ClientIP)), cfg.RateLimitCodeMax, cfg.RateLimitCodeWindow},
	}

	for _, check := range checks {
		result, err := cache.CheckAndIncrement(ctx, s.store, check.key, check.limit, check.window)
		if err != nil {
			logger.Logger.Error("Rate-limit check failed",
				zap.String("key", check.key),
				zap.Error(err),
			)
			return pkgerrors.InternalError
		}
		if result.Limited {
			return &pkgerrors.RateLimitedError{RetryAfter: result.RetryAfter}
		}
	}

	return nil
}

func (s *ClaimService) registerClaim(ctx context.Context, in StartClaimInput) (*dto.ClaimStartResponse, error) {
	outcome, err := s.backend.StartLinkClaim(ctx, in.ShareCode, in.Phone, utils.PhoneLast4(in.Phone))
	if err != nil {
		logger.Logger.Error("Supabase RPC call failed", zap.Error(err))
		return nil, pkgerrors.InternalError
	}

	if outcome.Error != "" {
		switch outcome.Error {
		case supabase.ErrQuestNotFound, supabase.ErrQuestUnavailable:
			// Callers cannot distinguish gone from temporarily disabled.
			return nil, pkgerrors.QuestNotFound
		case supabase.ErrAlreadyClaimed:
			// Resubmitting the same claim is a normal flow, not an error.
			return &dto.ClaimStartResponse{
				ClaimID:     outcome.ClaimID,
				MaskedPhone: outcome.MaskedPhone,
				Status:      "ALREADY_CLAIMED",
				ExpiresAt:   outcome.ExpiresAt,
			}, nil
		default:
			logger.Logger.Error("Supabase RPC returned error", zap.String("rpc_error", outcome.Error))
			return nil, pkgerrors.InternalError
		}
	}

	status := outcome.Status
	if status == "" {
		status = "PENDING"
	}

	return &dto.ClaimStartResponse{
		ClaimID:     outcome.ClaimID,
		MaskedPhone: outcome.MaskedPhone,
		Status:      status,
		ExpiresAt:   outcome.ExpiresAt,
	}, nil
}
