package cli

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/inkwell-labs/storyplan/domain/action"
	"github.com/inkwell-labs/storyplan/domain/agent"
	"github.com/inkwell-labs/storyplan/domain/world"
)

// Scenario is a YAML description of a planning problem: the starting
// facts, the goal facts, and the action catalog. Actions in a scenario
// carry no generation backend; running one simulates each step by
// applying its declared effects.
type Scenario struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Initial     map[string]any   `yaml:"initial,omitempty"`
	Goal        map[string]any   `yaml:"goal"`
	Actions     []ScenarioAction `yaml:"actions"`
}

// ScenarioAction is one catalog entry in a scenario file.
type ScenarioAction struct {
	ID            string         `yaml:"id"`
	Name          string         `yaml:"name"`
	Role          string         `yaml:"role"`
	Cost          float64        `yaml:"cost"`
	Prompt        string         `yaml:"prompt,omitempty"`
	Genre         string         `yaml:"genre,omitempty"`
	TargetWords   int            `yaml:"target_words,omitempty"`
	Preconditions map[string]any `yaml:"preconditions,omitempty"`
	Effects       map[string]any `yaml:"effects"`
}

// LoadScenario reads and parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-supplied scenario path
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if len(sc.Goal) == 0 {
		return nil, fmt.Errorf("scenario %s declares no goal facts", path)
	}
	if len(sc.Actions) == 0 {
		return nil, fmt.Errorf("scenario %s declares no actions", path)
	}
	return &sc, nil
}

// Build converts the scenario into a catalog, initial state, and goal.
func (sc *Scenario) Build() (*action.Catalog, world.State, world.Goal, error) {
	initial, err := toValues(sc.Initial)
	if err != nil {
		return nil, world.State{}, world.Goal{}, fmt.Errorf("initial state: %w", err)
	}
	goalFacts, err := toValues(sc.Goal)
	if err != nil {
		return nil, world.State{}, world.Goal{}, fmt.Errorf("goal: %w", err)
	}

	catalog := action.NewCatalog()
	for _, sa := range sc.Actions {
		a, err := sa.toAction()
		if err != nil {
			return nil, world.State{}, world.Goal{}, err
		}
		if err := catalog.Register(a); err != nil {
			return nil, world.State{}, world.Goal{}, err
		}
	}

	return catalog, world.New(initial), world.NewGoal(goalFacts), nil
}

// toAction converts a scenario action, attaching the simulation invoker.
func (sa ScenarioAction) toAction() (action.Action, error) {
	pre, err := toValues(sa.Preconditions)
	if err != nil {
		return action.Action{}, fmt.Errorf("action %s preconditions: %w", sa.ID, err)
	}
	eff, err := toValues(sa.Effects)
	if err != nil {
		return action.Action{}, fmt.Errorf("action %s effects: %w", sa.ID, err)
	}

	a := action.Action{
		ID:          sa.ID,
		Name:        sa.Name,
		Role:        agent.Role(sa.Role),
		Cost:        sa.Cost,
		Prompt:      sa.Prompt,
		Genre:       sa.Genre,
		TargetWords: sa.TargetWords,
	}
	for _, key := range sortedKeys(pre) {
		a.Preconditions = append(a.Preconditions, world.Fact{Key: key, Value: pre[key]})
	}
	for _, key := range sortedKeys(eff) {
		a.Effects = append(a.Effects, action.Effect{Key: key, Value: eff[key]})
	}
	a.Invoke = func(_ context.Context, view world.State, _ action.Invocation) (world.Patch, error) {
		return a.StaticPatch(view), nil
	}
	return a, nil
}

func toValues(m map[string]any) (map[string]world.Value, error) {
	out := make(map[string]world.Value, len(m))
	for k, raw := range m {
		v, err := world.FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("fact %s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func sortedKeys(m map[string]world.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
