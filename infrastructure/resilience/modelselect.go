package resilience

import "strings"

// ModelTier is the selected capability class for a generation call.
type ModelTier string

const (
	// TierFast is the cheapest/fastest tier.
	TierFast ModelTier = "fast"
	// TierStandard is the cost/quality-balanced tier.
	TierStandard ModelTier = "standard"
	// TierAdvanced is the top tier.
	TierAdvanced ModelTier = "advanced"
)

// Complexity is the scored difficulty band of a generation task.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// TaskProfile describes a generation task for model selection.
type TaskProfile struct {
	// TargetWords is the requested output length.
	TargetWords int

	// PromptWords is the approximate prompt length.
	PromptWords int

	// Prompt is inspected for complexity keywords.
	Prompt string

	// Genre contributes a genre complexity signal.
	Genre string
}

// Selection is the outcome of model selection: the tier and the concrete
// model within it.
type Selection struct {
	Tier  ModelTier
	Model string
}

// ModelSelectorConfig configures model selection.
type ModelSelectorConfig struct {
	// CostSensitive picks the cheaper of the two balanced-tier models for
	// medium-complexity tasks.
	CostSensitive bool
}

// ModelSelector maps task complexity to a model tier. A user preference,
// when present, wins outright.
type ModelSelector struct {
	cfg ModelSelectorConfig
}

// NewModelSelector creates a model selector.
func NewModelSelector(cfg ModelSelectorConfig) *ModelSelector {
	return &ModelSelector{cfg: cfg}
}

// Concrete model identifiers per tier. The balanced tier has an economy
// and a quality sub-choice gated by CostSensitive.
const (
	modelFast            = "quill-nano"
	modelBalancedEconomy = "quill-core-eco"
	modelBalanced        = "quill-core"
	modelAdvanced        = "quill-max"
)

// complexityKeywords raise the score when present in the prompt.
var complexityKeywords = []string{
	"multi-pov", "subplot", "foreshadow", "nonlinear", "unreliable narrator",
	"worldbuilding", "magic system", "timeline", "continuity",
}

// complexGenres carry an inherent complexity signal.
var complexGenres = map[string]bool{
	"fantasy": true, "science fiction": true, "historical": true, "epic": true,
}

// Select picks the model tier for a task. userPreference, if non-empty,
// is honored unconditionally.
func (m *ModelSelector) Select(p TaskProfile, userPreference ModelTier) Selection {
	if userPreference != "" {
		return Selection{Tier: userPreference, Model: m.modelFor(userPreference)}
	}

	switch scoreComplexity(p) {
	case ComplexityHigh:
		return Selection{Tier: TierAdvanced, Model: modelAdvanced}
	case ComplexityMedium:
		if m.cfg.CostSensitive {
			return Selection{Tier: TierStandard, Model: modelBalancedEconomy}
		}
		return Selection{Tier: TierStandard, Model: modelBalanced}
	default:
		return Selection{Tier: TierFast, Model: modelFast}
	}
}

// modelFor returns the default model within a tier.
func (m *ModelSelector) modelFor(tier ModelTier) string {
	switch tier {
	case TierAdvanced:
		return modelAdvanced
	case TierStandard:
		if m.cfg.CostSensitive {
			return modelBalancedEconomy
		}
		return modelBalanced
	default:
		return modelFast
	}
}

// scoreComplexity bands a task into low/medium/high. The thresholds are
// engineering defaults, not contractual (see DESIGN.md).
func scoreComplexity(p TaskProfile) Complexity {
	var score float64

	// Target length: normalized against a 5k-word ceiling, weight 0.4.
	length := float64(p.TargetWords) / 5000
	if length > 1 {
		length = 1
	}
	score += 0.4 * length

	// Prompt length: normalized against a 2k-word ceiling, weight 0.2.
	prompt := float64(p.PromptWords) / 2000
	if prompt > 1 {
		prompt = 1
	}
	score += 0.2 * prompt

	// Keyword signals, weight 0.25.
	lower := strings.ToLower(p.Prompt)
	hits := 0
	for _, kw := range complexityKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	kwScore := float64(hits) / 3
	if kwScore > 1 {
		kwScore = 1
	}
	score += 0.25 * kwScore

	// Genre signal, weight 0.15.
	if complexGenres[strings.ToLower(p.Genre)] {
		score += 0.15
	}

	switch {
	case score < 0.34:
		return ComplexityLow
	case score < 0.67:
		return ComplexityMedium
	default:
		return ComplexityHigh
	}
}
