// Package config provides configuration loading and validation for the
// storyplan runtime.
package config

import (
	"fmt"
	"strings"
)

// Config is the full runtime configuration.
type Config struct {
	Planner        PlannerConfig        `yaml:"planner" json:"planner"`
	Agents         AgentsConfig         `yaml:"agents" json:"agents"`
	RateLimits     RateLimitsConfig     `yaml:"rate_limits" json:"rate_limits"`
	ModelSelection ModelSelectionConfig `yaml:"model_selection" json:"model_selection"`
	Logging        LoggingConfig        `yaml:"logging" json:"logging"`
	Storage        StorageConfig        `yaml:"storage" json:"storage"`
}

// PlannerConfig bounds the plan search.
type PlannerConfig struct {
	// MaxPlanningNodes caps search-node expansions before the planner
	// gives up.
	MaxPlanningNodes int `yaml:"max_planning_nodes" json:"max_planning_nodes"`
}

// AgentsConfig sizes the agent pool and picks the default dispatch mode.
type AgentsConfig struct {
	// PoolSize is the number of agents available per role.
	PoolSize int `yaml:"pool_size" json:"pool_size"`

	// DefaultMode is the dispatch mode used when a run does not choose
	// one: single, parallel, hybrid, or swarm.
	DefaultMode string `yaml:"default_mode" json:"default_mode"`
}

// RateLimitsConfig bounds traffic to the generation provider.
type RateLimitsConfig struct {
	MaxRequestsPerMinute  int `yaml:"max_requests_per_minute" json:"max_requests_per_minute"`
	MaxTokensPerMinute    int `yaml:"max_tokens_per_minute" json:"max_tokens_per_minute"`
	MaxConcurrentRequests int `yaml:"max_concurrent_requests" json:"max_concurrent_requests"`
}

// ModelSelectionConfig tunes model tier selection.
type ModelSelectionConfig struct {
	// CostSensitive prefers the cheaper balanced-tier model for
	// medium-complexity tasks.
	CostSensitive bool `yaml:"cost_sensitive" json:"cost_sensitive"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `yaml:"level" json:"level"`

	// Format is json or console.
	Format string `yaml:"format" json:"format"`
}

// StorageConfig selects the trace store backend.
type StorageConfig struct {
	// TracePath is the on-disk trace database directory. Empty keeps
	// traces in memory.
	TracePath string `yaml:"trace_path" json:"trace_path"`
}

// validModes are the accepted dispatch mode names.
var validModes = map[string]bool{
	"single":   true,
	"parallel": true,
	"hybrid":   true,
	"swarm":    true,
}

// validLevels are the accepted log levels.
var validLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Default returns a configuration with sensible defaults.
func Default() Config {
	return Config{
		Planner: PlannerConfig{
			MaxPlanningNodes: 10_000,
		},
		Agents: AgentsConfig{
			PoolSize:    2,
			DefaultMode: "hybrid",
		},
		RateLimits: RateLimitsConfig{
			MaxRequestsPerMinute:  60,
			MaxTokensPerMinute:    90_000,
			MaxConcurrentRequests: 8,
		},
		ModelSelection: ModelSelectionConfig{
			CostSensitive: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// applyDefaults fills zero-valued fields from Default.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Planner.MaxPlanningNodes == 0 {
		c.Planner.MaxPlanningNodes = def.Planner.MaxPlanningNodes
	}
	if c.Agents.PoolSize == 0 {
		c.Agents.PoolSize = def.Agents.PoolSize
	}
	if c.Agents.DefaultMode == "" {
		c.Agents.DefaultMode = def.Agents.DefaultMode
	}
	if c.RateLimits.MaxRequestsPerMinute == 0 {
		c.RateLimits.MaxRequestsPerMinute = def.RateLimits.MaxRequestsPerMinute
	}
	if c.RateLimits.MaxTokensPerMinute == 0 {
		c.RateLimits.MaxTokensPerMinute = def.RateLimits.MaxTokensPerMinute
	}
	if c.RateLimits.MaxConcurrentRequests == 0 {
		c.RateLimits.MaxConcurrentRequests = def.RateLimits.MaxConcurrentRequests
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Planner.MaxPlanningNodes < 0 {
		return fmt.Errorf("%w: planner.max_planning_nodes must be positive", ErrValidation)
	}
	if c.Agents.PoolSize < 0 {
		return fmt.Errorf("%w: agents.pool_size must be positive", ErrValidation)
	}
	if mode := strings.ToLower(c.Agents.DefaultMode); mode != "" && !validModes[mode] {
		return fmt.Errorf("%w: agents.default_mode %q is not one of single, parallel, hybrid, swarm", ErrValidation, c.Agents.DefaultMode)
	}
	if c.RateLimits.MaxRequestsPerMinute < 0 ||
		c.RateLimits.MaxTokensPerMinute < 0 ||
		c.RateLimits.MaxConcurrentRequests < 0 {
		return fmt.Errorf("%w: rate_limits values must be positive", ErrValidation)
	}
	if lvl := strings.ToLower(c.Logging.Level); lvl != "" && !validLevels[lvl] {
		return fmt.Errorf("%w: logging.level %q is not a known level", ErrValidation, c.Logging.Level)
	}
	if f := strings.ToLower(c.Logging.Format); f != "" && f != "json" && f != "console" {
		return fmt.Errorf("%w: logging.format %q is not json or console", ErrValidation, c.Logging.Format)
	}
	return nil
}
