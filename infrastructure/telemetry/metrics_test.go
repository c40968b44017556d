package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestMetricsProviderInitializes(t *testing.T) {
	t.Parallel()

	mp := NewMetricsProvider(DefaultMetricsConfig())
	if err := mp.Error(); err != nil {
		t.Fatalf("instrument init: %v", err)
	}

	// Recording against the default (no-op) global provider must not panic.
	ctx := context.Background()
	mp.RecordPlanCreated(ctx, 42, 12.5, 30*time.Millisecond)
	mp.RecordPlanFailed(ctx, "budget_exceeded", 10_000)
	mp.RecordActionRejected(ctx, "draft_chapter_1", "cycle")
	mp.RecordActionExecution(ctx, "draft_chapter_1", "writer", true, false, 800*time.Millisecond)
	mp.RecordRetry(ctx, "draft_chapter_1", "rate_limit")
	mp.RecordRateLimitWait(ctx, 200*time.Millisecond)
	mp.RecordRunDuration(ctx, 3*time.Second, "done")
	mp.IncrementActiveRuns(ctx)
	mp.DecrementActiveRuns(ctx)
}

func TestMetricsProviderDefaultsEmptyConfig(t *testing.T) {
	t.Parallel()

	mp := NewMetricsProvider(MetricsConfig{})
	if err := mp.Error(); err != nil {
		t.Fatalf("instrument init with empty config: %v", err)
	}
}

func TestNoopMetricsSatisfiesInterface(t *testing.T) {
	t.Parallel()

	var m Metrics = NoopMetrics{}
	m.RecordPlanCreated(context.Background(), 0, 0, 0)
	m.RecordRunDuration(context.Background(), 0, "failed")
}
