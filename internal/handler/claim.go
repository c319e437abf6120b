package handler

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/hertz/pkg/app"

	"QuestsInvite/internal/model/dto"
	"QuestsInvite/internal/service"
	pkgerrors "QuestsInvite/pkg/errors"
	"QuestsInvite/pkg/response"
	"QuestsInvite/utils"
)

// StartClaim handles phone claim submissions for web-to-app quest handoff.
// POST /api/link-claims/start
func StartClaim(ctx context.Context, c *app.RequestContext) {
	svc := service.Claim()

	// Config precheck comes before the body is even looked at.
	if err := svc.CheckConfig(); err != nil {
		response.Error(ctx, c, err)
		return
	}

	var req dto.ClaimStartRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		response.Error(ctx, c, pkgerrors.InvalidJSON)
		return
	}

	if req.ShareCode == "" || req.Phone == "" || req.TurnstileToken == "" {
		response.Error(ctx, c, pkgerrors.MissingFields)
		return
	}

	if !utils.ValidateShareCode(req.ShareCode) {
		response.Error(ctx, c, pkgerrors.InvalidShareCode)
		return
	}

	normalized, ok := utils.NormalizePhone(req.Phone)
	if !ok {
		response.Error(ctx, c, pkgerrors.InvalidPhone)
		return
	}

	// Defense in depth: presence is checked above, but the token must still
	// be a non-empty string after binding.
	if len(req.TurnstileToken) == 0 {
		response.Error(ctx, c, pkgerrors.MissingFields)
		return
	}

	result, err := svc.StartClaim(ctx, service.StartClaimInput{
		ShareCode:      req.ShareCode,
		Phone:          normalized,
		TurnstileToken: req.TurnstileToken,
		ClientIP:       clientIP(c),
	})
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// Preflight is the OPTIONS endpoint body. The CORS middleware answers the
// preflight before this ever runs; it exists so the route is registered.
func Preflight(ctx context.Context, c *app.RequestContext) {
	response.NoContent(ctx, c)
}

// clientIP prefers the Cloudflare-provided header, since the service sits
// behind its proxy in production.
func clientIP(c *app.RequestContext) string {
	if ip := c.Request.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	return c.ClientIP()
}
