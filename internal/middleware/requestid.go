package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
)

// RequestIDMiddleware assigns a request id when the edge did not already,
// so log lines and traces for one request can be correlated.
func RequestIDMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		requestID := string(c.GetHeader("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.New().String()
			c.Request.Header.Set("X-Request-Id", requestID)
		}

		c.Response.Header.Set("X-Request-Id", requestID)

		c.Next(ctx)
	}
}
