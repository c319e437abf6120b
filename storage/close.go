package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"QuestsInvite/pkg/logger"
	"QuestsInvite/storage/redis"
)

// Close shuts down storage connections on graceful shutdown.
func Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := redis.Close(ctx); err != nil {
		logger.Logger.Error("Failed to close Redis connection", zap.Error(err))
	}
}
