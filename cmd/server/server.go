package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"go.uber.org/zap"

	"QuestsInvite/config"
	"QuestsInvite/internal/cache"
	"QuestsInvite/internal/middleware"
	"QuestsInvite/internal/router"
	"QuestsInvite/internal/service"
	"QuestsInvite/pkg/logger"
	"QuestsInvite/pkg/otel"
	"QuestsInvite/pkg/supabase"
	"QuestsInvite/pkg/turnstile"
	"QuestsInvite/storage"
	"QuestsInvite/storage/redis"
)

func main() {
	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	// The counter store is allowed to be down at boot: the claim endpoint
	// then fails closed with 503 instead of the whole service refusing to
	// start.
	var store cache.CounterStore
	if err := storage.Init(); err != nil {
		logger.Logger.Warn("Failed to initialize storage, claim requests will be rejected", zap.Error(err))
	} else {
		store = cache.NewRedisStore()
	}
	defer storage.Close()

	if err := turnstile.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize turnstile client", zap.Error(err))
	}

	if err := supabase.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize supabase client", zap.Error(err))
	}

	if config.Cfg.TracingEnabled {
		shutdown, err := otel.InitOpenTelemetry(ctx, otel.Config{
			ServiceName:    config.Cfg.ServiceName,
			ServiceVersion: "1.0.0",
			Environment:    config.Cfg.Environment,
			OTLPEndpoint:   config.Cfg.TracingEndpoint,
			SampleRatio:    config.Cfg.TracingSampler,
		})
		if err != nil {
			logger.Logger.Warn("Failed to initialize OpenTelemetry", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
				}
			}()
		}
	}

	if err := middleware.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize middlewares", zap.Error(err))
	}

	service.Init(turnstile.GetClient(), store, supabase.GetClient())

	logger.Logger.Info("Server starting",
		zap.String("service", config.Cfg.ServiceName),
		zap.String("port", config.Cfg.ServerPort),
		zap.String("environment", config.Cfg.Environment),
		zap.Bool("counter_store_ready", redis.Ready()),
	)

	addr := net.JoinHostPort(config.Cfg.ServerHost, config.Cfg.ServerPort)

	tracerOpt, tracingMiddleware := middleware.NewServerTracerConfig()
	h := server.Default(server.WithHostPorts(addr), tracerOpt)
	h.Use(tracingMiddleware)

	router.Register(h)

	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	logger.Logger.Info("Server shutting down gracefully")
}
