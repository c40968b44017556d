package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadYAML(t *testing.T) {
	content := `
planner:
  max_planning_nodes: 2500
agents:
  pool_size: 3
  default_mode: swarm
rate_limits:
  max_requests_per_minute: 30
  max_tokens_per_minute: 45000
  max_concurrent_requests: 4
model_selection:
  cost_sensitive: true
logging:
  level: debug
  format: json
`
	cfg, err := NewLoader().LoadString(content, FormatYAML)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if cfg.Planner.MaxPlanningNodes != 2500 {
		t.Errorf("MaxPlanningNodes = %d, want 2500", cfg.Planner.MaxPlanningNodes)
	}
	if cfg.Agents.PoolSize != 3 || cfg.Agents.DefaultMode != "swarm" {
		t.Errorf("agents = %+v", cfg.Agents)
	}
	if cfg.RateLimits.MaxRequestsPerMinute != 30 ||
		cfg.RateLimits.MaxTokensPerMinute != 45_000 ||
		cfg.RateLimits.MaxConcurrentRequests != 4 {
		t.Errorf("rate limits = %+v", cfg.RateLimits)
	}
	if !cfg.ModelSelection.CostSensitive {
		t.Error("CostSensitive should be true")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := NewLoader().LoadString("agents:\n  pool_size: 5\n", FormatYAML)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}

	def := Default()
	if cfg.Agents.PoolSize != 5 {
		t.Errorf("PoolSize = %d, want 5", cfg.Agents.PoolSize)
	}
	if cfg.Planner.MaxPlanningNodes != def.Planner.MaxPlanningNodes {
		t.Errorf("MaxPlanningNodes = %d, want default %d", cfg.Planner.MaxPlanningNodes, def.Planner.MaxPlanningNodes)
	}
	if cfg.Agents.DefaultMode != def.Agents.DefaultMode {
		t.Errorf("DefaultMode = %q, want default %q", cfg.Agents.DefaultMode, def.Agents.DefaultMode)
	}
	if cfg.RateLimits != def.RateLimits {
		t.Errorf("RateLimits = %+v, want defaults %+v", cfg.RateLimits, def.RateLimits)
	}
}

func TestLoadRejectsInvalidMode(t *testing.T) {
	_, err := NewLoader().LoadString("agents:\n  default_mode: turbo\n", FormatYAML)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("STORYPLAN_LOG_LEVEL", "warn")

	cfg, err := NewLoader().LoadString("logging:\n  level: ${STORYPLAN_LOG_LEVEL}\n", FormatYAML)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestLoadEnvDefaultModifier(t *testing.T) {
	cfg, err := NewLoader().LoadString("storage:\n  trace_path: ${STORYPLAN_UNSET_DIR:-/tmp/traces}\n", FormatYAML)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if cfg.Storage.TracePath != "/tmp/traces" {
		t.Errorf("TracePath = %q, want /tmp/traces", cfg.Storage.TracePath)
	}
}

func TestLoadStrictEnvFails(t *testing.T) {
	l := NewLoader()
	l.StrictEnv = true

	_, err := l.LoadString("logging:\n  level: ${STORYPLAN_DEFINITELY_UNSET}\n", FormatYAML)
	if !errors.Is(err, ErrMissingEnvVar) {
		t.Fatalf("err = %v, want ErrMissingEnvVar", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storyplan.yaml")
	if err := os.WriteFile(path, []byte("planner:\n  max_planning_nodes: 123\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Planner.MaxPlanningNodes != 123 {
		t.Errorf("MaxPlanningNodes = %d, want 123", cfg.Planner.MaxPlanningNodes)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := NewLoader().LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("err = %v, want ErrConfigNotFound", err)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storyplan.toml")
	if err := os.WriteFile(path, []byte(""), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader().LoadFile(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}
