package config

import (
	"log"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// Server
	ServerPort  string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"quests-invite"`

	// Turnstile (human verification)
	// The secret historically lived under several names; resolution order is
	// TURNSTILE_SECRET_KEY, TURNSTILE_SECRET, CF_TURNSTILE_SECRET_KEY.
	TurnstileSecretKey    string `env:"TURNSTILE_SECRET_KEY"`
	TurnstileSecretLegacy string `env:"TURNSTILE_SECRET"`
	TurnstileSecretCF     string `env:"CF_TURNSTILE_SECRET_KEY"`
	TurnstileProvider     string `env:"TURNSTILE_PROVIDER" envDefault:"cloudflare"` // cloudflare, none
	TurnstileVerifyURL    string `env:"TURNSTILE_VERIFY_URL" envDefault:"https://challenges.cloudflare.com/turnstile/v0/siteverify"`
	TurnstileAllowedHosts string `env:"TURNSTILE_ALLOWED_HOSTS"` // comma separated, defaults to production hosts

	// Supabase backend (claims are written through an RPC, never directly)
	SupabaseURL           string `env:"SUPABASE_URL"`
	SupabaseServiceKey    string `env:"SUPABASE_SERVICE_KEY"`
	SupabaseServiceLegacy string `env:"CLOUDFLARE_KEY"`

	// Redis (rate-limit counter store)
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"qinv"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"https://invite.thequestsapp.com,https://thequestsapp.com"`

	// Rate limits per abuse dimension. Windows are seconds.
	RateLimitIPMax       int `env:"RATE_LIMIT_IP_MAX" envDefault:"5"`
	RateLimitIPWindow    int `env:"RATE_LIMIT_IP_WINDOW" envDefault:"3600"`
	RateLimitPhoneMax    int `env:"RATE_LIMIT_PHONE_MAX" envDefault:"3"`
	RateLimitPhoneWindow int `env:"RATE_LIMIT_PHONE_WINDOW" envDefault:"86400"`
	RateLimitCodeMax     int `env:"RATE_LIMIT_CODE_MAX" envDefault:"20"`
	RateLimitCodeWindow  int `env:"RATE_LIMIT_CODE_WINDOW" envDefault:"86400"`

	// Logging
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// Tracing
	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint string  `env:"TRACING_ENDPOINT" envDefault:"localhost:4317"`
	TracingSampler  float64 `env:"TRACING_SAMPLER" envDefault:"0.1"`
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	Cfg = Config{}
	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}

	validateConfig()
}

// validateConfig only warns about missing verification/backend settings.
// The claim pipeline fails closed per request (500 misconfigured) instead of
// refusing to boot.
func validateConfig() {
	if Cfg.TurnstileSecret() == "" {
		log.Printf("WARN: Turnstile secret is not set, claim requests will be rejected as misconfigured")
	}

	if Cfg.SupabaseURL == "" || Cfg.SupabaseKey() == "" {
		log.Printf("WARN: Supabase bindings are not set, claim requests will be rejected as misconfigured")
	}
}

// TurnstileSecret resolves the shared secret through its ordered name fallbacks.
func (c *Config) TurnstileSecret() string {
	if c.TurnstileSecretKey != "" {
		return c.TurnstileSecretKey
	}
	if c.TurnstileSecretLegacy != "" {
		return c.TurnstileSecretLegacy
	}
	return c.TurnstileSecretCF
}

// SupabaseKey resolves the backend service credential, preferring the
// current name over the legacy one.
func (c *Config) SupabaseKey() string {
	if c.SupabaseServiceKey != "" {
		return c.SupabaseServiceKey
	}
	return c.SupabaseServiceLegacy
}

// AllowedOrigins returns the CORS allow-list, trimmed, empty entries dropped.
func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

// TurnstileHosts returns the hostnames tokens may be issued for. Defaults to
// the production site hostnames when unset.
func (c *Config) TurnstileHosts() []string {
	if c.TurnstileAllowedHosts == "" {
		return []string{
			"invite.thequestsapp.com",
			"thequestsapp.com",
			"www.thequestsapp.com",
		}
	}
	return splitList(c.TurnstileAllowedHosts)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
