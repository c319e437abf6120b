package middleware

import (
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"QuestsInvite/pkg/logger"
	"QuestsInvite/pkg/metrics"
)

// Init initializes middleware-owned instruments. Works against the global
// no-op meter provider when no exporter is configured.
func Init() error {
	if err := InitMetrics(otel.Meter("hertz-server")); err != nil {
		logger.Logger.Error("Failed to initialize HTTP metrics", zap.Error(err))
		return err
	}

	if err := metrics.InitMetrics(); err != nil {
		logger.Logger.Error("Failed to initialize claim metrics", zap.Error(err))
		return err
	}

	logger.Logger.Info("All middlewares initialized successfully")
	return nil
}
