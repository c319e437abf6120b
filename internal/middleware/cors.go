package middleware

import (
	"context"
	"slices"

	"github.com/cloudwego/hertz/pkg/app"

	"QuestsInvite/config"
)

// CORSMiddleware enforces the cross-origin and response-security policy for
// every route, independent of business logic.
//
// Origins outside the allow-list get no Access-Control-Allow-Origin header
// (browsers then deny script access) but the request itself still runs.
// Vary: Origin is always emitted so caches never leak a cross-origin answer.
func CORSMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		origin := string(c.Request.Header.Get("Origin"))

		allowOrigin := ""
		if origin != "" && slices.Contains(config.Cfg.AllowedOrigins(), origin) {
			allowOrigin = origin
		}

		// Preflight terminates here; the claim handler never sees it.
		if string(c.Method()) == "OPTIONS" {
			setCORSHeaders(c, allowOrigin)
			setSecurityHeaders(c)
			c.AbortWithStatus(204)
			return
		}

		c.Next(ctx)

		// Overlay onto whatever the handler produced; status and body stay
		// untouched.
		setCORSHeaders(c, allowOrigin)
		setSecurityHeaders(c)
	}
}

func setCORSHeaders(c *app.RequestContext, allowOrigin string) {
	if allowOrigin != "" {
		c.Response.Header.Set("Access-Control-Allow-Origin", allowOrigin)
	}
	c.Response.Header.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type")
	c.Response.Header.Set("Access-Control-Max-Age", "86400")
	c.Response.Header.Set("Vary", "Origin")
}

func setSecurityHeaders(c *app.RequestContext) {
	c.Response.Header.Set("X-Content-Type-Options", "nosniff")
	c.Response.Header.Set("X-Frame-Options", "DENY")
	c.Response.Header.Set("X-XSS-Protection", "0")
	c.Response.Header.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	c.Response.Header.Set("Content-Type", "application/json")
}
