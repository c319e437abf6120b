package turnstile

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"QuestsInvite/config"
	"QuestsInvite/pkg/logger"
)

// Result is what the verification service reports for one token.
type Result struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Client verifies human-verification tokens.
type Client interface {
	// Verify submits the token, with the caller's IP when known.
	// A transport failure is returned as an error; a rejected token is a
	// Result with Success=false.
	Verify(ctx context.Context, token, remoteIP string) (*Result, error)
}

var (
	verifyClient Client
	verifyOnce   sync.Once
	verifyErr    error
)

// Init initializes the verification client.
func Init() error {
	verifyOnce.Do(func() {
		cfg := config.Cfg

		switch cfg.TurnstileProvider {
		case "cloudflare":
			verifyClient = NewCloudflareClient()
		case "none":
			verifyClient = &MockClient{}
		default:
			verifyErr = fmt.Errorf("unsupported turnstile provider: %s", cfg.TurnstileProvider)
		}

		if verifyErr != nil {
			logger.Logger.Error("Failed to initialize turnstile client", zap.Error(verifyErr))
			return
		}

		logger.Logger.Info("Turnstile client initialized successfully",
			zap.String("provider", cfg.TurnstileProvider),
		)
	})

	return verifyErr
}

func GetClient() Client {
	if verifyClient == nil {
		panic("Turnstile client not initialized, call turnstile.Init() first")
	}
	return verifyClient
}

func Verify(ctx context.Context, token, remoteIP string) (*Result, error) {
	return GetClient().Verify(ctx, token, remoteIP)
}
