package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Claim funnel metrics: how many submissions are rejected by which gate, and
// what the backend decides for the rest.
var (
	claimRejectedTotal metric.Int64Counter
	claimOutcomeTotal  metric.Int64Counter

	meter = otel.Meter("quests-invite")
)

// InitMetrics creates the claim instruments. Safe to call with the global
// no-op meter provider when no exporter is configured.
func InitMetrics() error {
	var err error

	claimRejectedTotal, err = meter.Int64Counter(
		"claims.rejected.total",
		metric.WithDescription("Claim submissions rejected before reaching the backend"),
		metric.WithUnit("{claim}"),
	)
	if err != nil {
		return err
	}

	claimOutcomeTotal, err = meter.Int64Counter(
		"claims.outcome.total",
		metric.WithDescription("Backend outcomes for claim submissions"),
		metric.WithUnit("{claim}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// RecordClaimRejected counts a pipeline rejection by gate (turnstile,
// rate_limit).
func RecordClaimRejected(ctx context.Context, gate string) {
	if claimRejectedTotal == nil {
		return
	}
	claimRejectedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("gate", gate),
	))
}

// RecordClaimOutcome counts a successful registration by resulting status.
func RecordClaimOutcome(ctx context.Context, status string) {
	if claimOutcomeTotal == nil {
		return
	}
	claimOutcomeTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}
