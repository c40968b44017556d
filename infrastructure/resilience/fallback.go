package resilience

import (
	"fmt"
	"sort"
	"strings"

	"github.com/inkwell-labs/storyplan/domain/action"
	"github.com/inkwell-labs/storyplan/domain/world"
)

// TemplateFallback produces a degraded but structurally valid result for an
// action whose generation call could not be recovered. It calls no external
// services and is fully deterministic: the same action and world state
// always yield the same patch and content.
type TemplateFallback struct{}

// NewTemplateFallback creates the fallback generator.
func NewTemplateFallback() *TemplateFallback {
	return &TemplateFallback{}
}

// FallbackResult is the degraded substitute for a generation call.
type FallbackResult struct {
	// Patch applies the action's declared effects so the plan remains
	// sound for downstream steps.
	Patch world.Patch

	// Content is placeholder text marking the output as degraded.
	Content string
}

// Produce builds the degraded result for an action against the given view
// of the world.
func (t *TemplateFallback) Produce(act action.Action, view world.State) FallbackResult {
	patch := act.StaticPatch(view)

	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "[placeholder] %s could not be generated; effects applied from the action template.\n", act.Name)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s = %s\n", k, patch[k].String())
	}

	return FallbackResult{Patch: patch, Content: b.String()}
}
