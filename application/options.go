package application

import (
	"github.com/inkwell-labs/storyplan/domain/run"
	"github.com/inkwell-labs/storyplan/domain/trace"
	"github.com/inkwell-labs/storyplan/infrastructure/telemetry"
)

// Option configures a Service beyond what the config file carries.
type Option func(*Service)

// WithMetrics replaces the no-op metrics recorder.
func WithMetrics(m telemetry.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTraceStore replaces the in-memory trace store, for example with
// the persistent Badger-backed one.
func WithTraceStore(ts trace.Store) Option {
	return func(s *Service) { s.traces = ts }
}

// WithRunStore replaces the in-memory run store.
func WithRunStore(rs run.Store) Option {
	return func(s *Service) { s.runs = rs }
}

// WithPlanner replaces the planner built from configuration.
func WithPlanner(p *Planner) Option {
	return func(s *Service) { s.planner = p }
}

// WithEngine replaces the execution engine built from configuration.
func WithEngine(e *Engine) Option {
	return func(s *Service) { s.engine = e }
}

// WithDefaultMode overrides the configured default dispatch mode.
func WithDefaultMode(m run.Mode) Option {
	return func(s *Service) { s.defaultMode = m }
}
