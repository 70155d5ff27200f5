package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Verification outcomes recorded against coveVerificationCounter.
const (
	// OutcomeVerified means the full plan, execute, synthesize sequence ran.
	OutcomeVerified = "verified"
	// OutcomeUnverified means planning accepted no questions and the draft
	// response was returned unchanged.
	OutcomeUnverified = "unverified"
)

var (
	metricsOnce               sync.Once
	metricsInitErr            error
	coveVerificationCounter   metric.Int64Counter
	coveQuestionHistogram     metric.Int64Histogram
	coveStageLatencyHistogram metric.Float64Histogram
)

// StageMetrics captures the fields needed to record one pipeline stage.
type StageMetrics struct {
	Stage    string
	Duration time.Duration
}

// VerificationMetrics captures the fields describing one completed Verify
// invocation.
type VerificationMetrics struct {
	Outcome   string
	Questions int
}

// RecordStage emits the latency histogram for one pipeline stage.
func RecordStage(ctx context.Context, metrics StageMetrics) {
	if err := ensureMetrics(); err != nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("cove.stage", metrics.Stage),
	}
	if metrics.Duration > 0 {
		coveStageLatencyHistogram.Record(ctx, float64(metrics.Duration)/float64(time.Millisecond), metric.WithAttributes(attrs...))
	}
}

// RecordVerification emits counters describing a completed verification.
func RecordVerification(ctx context.Context, metrics VerificationMetrics) {
	if err := ensureMetrics(); err != nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("cove.outcome", metrics.Outcome),
	}
	coveVerificationCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	coveQuestionHistogram.Record(ctx, int64(metrics.Questions), metric.WithAttributes(attrs...))
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.Meter("guardstack/cove")

		coveVerificationCounter, metricsInitErr = meter.Int64Counter(
			"cove_verifications_total",
			metric.WithDescription("Completed chain-of-verification invocations by outcome"),
		)
		if metricsInitErr != nil {
			return
		}

		coveQuestionHistogram, metricsInitErr = meter.Int64Histogram(
			"cove_verification_questions",
			metric.WithDescription("Accepted verification questions per invocation"),
		)
		if metricsInitErr != nil {
			return
		}

		coveStageLatencyHistogram, metricsInitErr = meter.Float64Histogram(
			"cove_stage_duration_milliseconds",
			metric.WithDescription("Latency of each chain-of-verification stage"),
			metric.WithUnit("ms"),
		)
	})
	return metricsInitErr
}
