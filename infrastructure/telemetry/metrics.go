// Package telemetry provides OpenTelemetry metrics for the planning and
// execution pipeline.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordPlanCreated(ctx context.Context, nodesExpanded int, totalCost float64, duration time.Duration)
	RecordPlanFailed(ctx context.Context, reason string, nodesExpanded int)
	RecordActionRejected(ctx context.Context, actionID, reason string)
	RecordActionExecution(ctx context.Context, actionID, role string, success, degraded bool, duration time.Duration)
	RecordRetry(ctx context.Context, actionID, errorKind string)
	RecordRateLimitWait(ctx context.Context, wait time.Duration)
	RecordRunDuration(ctx context.Context, duration time.Duration, outcome string)
	IncrementActiveRuns(ctx context.Context)
	DecrementActiveRuns(ctx context.Context)
}

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	plansCreated    metric.Int64Counter
	plansFailed     metric.Int64Counter
	nodesExpanded   metric.Int64Counter
	actionsRejected metric.Int64Counter
	executions      metric.Int64Counter
	retries         metric.Int64Counter
	degraded        metric.Int64Counter
	rateLimitWaits  metric.Int64Counter

	// Histograms
	planningDuration metric.Float64Histogram
	actionDuration   metric.Float64Histogram
	runDuration      metric.Float64Histogram

	// Gauges (UpDownCounter)
	activeRuns metric.Int64UpDownCounter

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter.
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/inkwell-labs/storyplan",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a metrics provider on the global meter
// provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config = DefaultMetricsConfig()
	}

	meter := otel.GetMeterProvider().Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{meter: meter}
	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})
	return mp
}

func (mp *MetricsProvider) initInstruments() error {
	var err error

	mp.plansCreated, err = mp.meter.Int64Counter(
		"storyplan.plans.created",
		metric.WithDescription("Number of plans created"),
		metric.WithUnit("{plan}"),
	)
	if err != nil {
		return err
	}

	mp.plansFailed, err = mp.meter.Int64Counter(
		"storyplan.plans.failed",
		metric.WithDescription("Number of planning failures"),
		metric.WithUnit("{plan}"),
	)
	if err != nil {
		return err
	}

	mp.nodesExpanded, err = mp.meter.Int64Counter(
		"storyplan.planner.nodes",
		metric.WithDescription("Search nodes expanded during planning"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return err
	}

	mp.actionsRejected, err = mp.meter.Int64Counter(
		"storyplan.planner.rejections",
		metric.WithDescription("Candidate actions rejected during planning"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		return err
	}

	mp.executions, err = mp.meter.Int64Counter(
		"storyplan.actions.executions",
		metric.WithDescription("Number of action executions"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return err
	}

	mp.retries, err = mp.meter.Int64Counter(
		"storyplan.actions.retries",
		metric.WithDescription("Number of invocation retries"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return err
	}

	mp.degraded, err = mp.meter.Int64Counter(
		"storyplan.actions.degraded",
		metric.WithDescription("Number of degraded template results"),
		metric.WithUnit("{result}"),
	)
	if err != nil {
		return err
	}

	mp.rateLimitWaits, err = mp.meter.Int64Counter(
		"storyplan.ratelimit.waits",
		metric.WithDescription("Number of waits on the rate window"),
		metric.WithUnit("{wait}"),
	)
	if err != nil {
		return err
	}

	mp.planningDuration, err = mp.meter.Float64Histogram(
		"storyplan.planning.duration",
		metric.WithDescription("Duration of planning operations"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.actionDuration, err = mp.meter.Float64Histogram(
		"storyplan.action.duration",
		metric.WithDescription("Duration of action executions"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.runDuration, err = mp.meter.Float64Histogram(
		"storyplan.run.duration",
		metric.WithDescription("Duration of plan runs"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.activeRuns, err = mp.meter.Int64UpDownCounter(
		"storyplan.runs.active",
		metric.WithDescription("Number of active runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordPlanCreated records a successful planning operation.
func (mp *MetricsProvider) RecordPlanCreated(ctx context.Context, nodesExpanded int, totalCost float64, duration time.Duration) {
	mp.plansCreated.Add(ctx, 1)
	mp.nodesExpanded.Add(ctx, int64(nodesExpanded))
	mp.planningDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(
		attribute.Float64("plan.cost", totalCost),
	))
}

// RecordPlanFailed records a planning failure.
func (mp *MetricsProvider) RecordPlanFailed(ctx context.Context, reason string, nodesExpanded int) {
	mp.plansFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("failure.reason", reason),
	))
	mp.nodesExpanded.Add(ctx, int64(nodesExpanded))
}

// RecordActionRejected records a candidate rejected during planning.
func (mp *MetricsProvider) RecordActionRejected(ctx context.Context, actionID, reason string) {
	mp.actionsRejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action.id", actionID),
		attribute.String("reject.reason", reason),
	))
}

// RecordActionExecution records an action execution.
func (mp *MetricsProvider) RecordActionExecution(ctx context.Context, actionID, role string, success, degraded bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("action.id", actionID),
		attribute.String("agent.role", role),
		attribute.Bool("success", success),
	}
	mp.executions.Add(ctx, 1, metric.WithAttributes(attrs...))
	mp.actionDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if degraded {
		mp.degraded.Add(ctx, 1, metric.WithAttributes(attribute.String("action.id", actionID)))
	}
}

// RecordRetry records an invocation retry.
func (mp *MetricsProvider) RecordRetry(ctx context.Context, actionID, errorKind string) {
	mp.retries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action.id", actionID),
		attribute.String("error.kind", errorKind),
	))
}

// RecordRateLimitWait records a wait on the shared rate window.
func (mp *MetricsProvider) RecordRateLimitWait(ctx context.Context, wait time.Duration) {
	mp.rateLimitWaits.Add(ctx, 1, metric.WithAttributes(
		attribute.Int64("wait.ms", wait.Milliseconds()),
	))
}

// RecordRunDuration records the duration of a full run.
func (mp *MetricsProvider) RecordRunDuration(ctx context.Context, duration time.Duration, outcome string) {
	mp.runDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(
		attribute.String("run.outcome", outcome),
	))
}

// IncrementActiveRuns increments the active runs counter.
func (mp *MetricsProvider) IncrementActiveRuns(ctx context.Context) {
	mp.activeRuns.Add(ctx, 1)
}

// DecrementActiveRuns decrements the active runs counter.
func (mp *MetricsProvider) DecrementActiveRuns(ctx context.Context) {
	mp.activeRuns.Add(ctx, -1)
}

// NoopMetrics is a no-op metrics implementation for tests or when metrics
// are disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordPlanCreated(ctx context.Context, nodesExpanded int, totalCost float64, duration time.Duration) {
}
func (NoopMetrics) RecordPlanFailed(ctx context.Context, reason string, nodesExpanded int) {}
func (NoopMetrics) RecordActionRejected(ctx context.Context, actionID, reason string)     {}
func (NoopMetrics) RecordActionExecution(ctx context.Context, actionID, role string, success, degraded bool, duration time.Duration) {
}
func (NoopMetrics) RecordRetry(ctx context.Context, actionID, errorKind string)      {}
func (NoopMetrics) RecordRateLimitWait(ctx context.Context, wait time.Duration)      {}
func (NoopMetrics) RecordRunDuration(ctx context.Context, d time.Duration, o string) {}
func (NoopMetrics) IncrementActiveRuns(ctx context.Context)                          {}
func (NoopMetrics) DecrementActiveRuns(ctx context.Context)                          {}

var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = NoopMetrics{}
)
