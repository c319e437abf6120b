package response

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"QuestsInvite/pkg/errors"
)

// ErrorBody is the public error contract: a bare code, plus retry guidance
// for rate limiting only.
type ErrorBody struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

func errorToHTTPStatus(def errors.Definition) int {
	switch def.Code {
	case "invalid_json", "missing_fields", "invalid_share_code", "invalid_phone":
		return http.StatusBadRequest // 400
	case "turnstile_failed":
		return http.StatusForbidden // 403
	case "quest_not_found":
		return http.StatusNotFound // 404
	case "rate_limited":
		return http.StatusTooManyRequests // 429
	case "service_unavailable":
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}

// Error writes the error contract for any pipeline failure. Unknown error
// types degrade to internal_error rather than leaking detail.
func Error(ctx context.Context, c *app.RequestContext, err error) {
	var rl *errors.RateLimitedError
	if stderrors.As(err, &rl) {
		RateLimited(ctx, c, rl.RetryAfter)
		return
	}

	def, ok := err.(errors.Definition)
	if !ok {
		def = errors.InternalError
	}

	c.JSON(errorToHTTPStatus(def), ErrorBody{Error: def.Code})
}

// RateLimited writes 429 with retryAfter both in the body and as a
// Retry-After header.
func RateLimited(ctx context.Context, c *app.RequestContext, retryAfter int) {
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Response.Header.Set("Retry-After", strconv.Itoa(retryAfter))
	c.JSON(http.StatusTooManyRequests, ErrorBody{
		Error:      errors.RateLimited.Code,
		RetryAfter: retryAfter,
	})
}

// Success writes a 200 with the given payload verbatim. The claim contract
// is flat, so there is no envelope.
func Success(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// NoContent returns 204 (used for CORS preflight).
func NoContent(ctx context.Context, c *app.RequestContext) {
	c.Status(http.StatusNoContent)
}
