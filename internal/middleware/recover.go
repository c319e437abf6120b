package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	pkgerrors "QuestsInvite/pkg/errors"
	"QuestsInvite/pkg/logger"
	"QuestsInvite/pkg/response"
)

// RecoverMiddleware catches any panic in the pipeline and converts it to the
// opaque internal_error contract. Nothing may escape as an unformatted
// response.
func RecoverMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				logPanic(c, err)
				response.Error(ctx, c, pkgerrors.InternalError)
			}
		}()

		c.Next(ctx)
	}
}

func logPanic(c *app.RequestContext, err interface{}) {
	fields := []zap.Field{
		zap.String("panic", fmt.Sprintf("%v", err)),
		zap.String("path", string(c.Path())),
		zap.String("method", string(c.Method())),
		zap.String("client_ip", c.ClientIP()),
		zap.ByteString("stack", debug.Stack()),
	}

	if requestID := c.GetHeader("X-Request-Id"); len(requestID) > 0 {
		fields = append(fields, zap.String("request_id", string(requestID)))
	}

	logger.Logger.Error("[PANIC RECOVERED]", fields...)
}
