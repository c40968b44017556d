package action

import (
	"fmt"
	"sync"

	"github.com/inkwell-labs/storyplan/domain/world"
)

// Catalog is the static action registry. Registration order is preserved
// because it is the final planner tie-break, which keeps plans reproducible.
type Catalog struct {
	actions []Action
	byID    map[string]int
	mu      sync.RWMutex
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byID: make(map[string]int),
	}
}

// Register adds an action to the catalog. Structural violations (empty ID,
// no effects, unknown role, negative cost, duplicates) are rejected here so
// a malformed catalog fails at startup rather than mid-run.
func (c *Catalog) Register(a Action) error {
	if err := a.validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[a.ID]; exists {
		return fmt.Errorf("%w: %s", ErrActionExists, a.ID)
	}

	c.byID[a.ID] = len(c.actions)
	c.actions = append(c.actions, a)
	return nil
}

// MustRegister registers an action and panics on error. Intended for
// process-start catalog construction where a failure is a programming error.
func (c *Catalog) MustRegister(a Action) {
	if err := c.Register(a); err != nil {
		panic(err)
	}
}

// Get returns the action with the given ID.
func (c *Catalog) Get(id string) (Action, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx, ok := c.byID[id]
	if !ok {
		return Action{}, false
	}
	return c.actions[idx], true
}

// Actions returns all actions in registration order.
func (c *Catalog) Actions() []Action {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Action, len(c.actions))
	copy(out, c.actions)
	return out
}

// Len returns the number of registered actions.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.actions)
}

// Providers returns the actions whose effects can satisfy the fact, in
// registration order.
func (c *Catalog) Providers(f world.Fact) []Action {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Action
	for _, a := range c.actions {
		if a.Satisfies(f) {
			out = append(out, a)
		}
	}
	return out
}

// KnownKeys returns every fact key referenced by any registered action's
// preconditions or effects.
func (c *Catalog) KnownKeys() map[string]struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make(map[string]struct{})
	for _, a := range c.actions {
		for _, p := range a.Preconditions {
			keys[p.Key] = struct{}{}
		}
		for _, e := range a.Effects {
			keys[e.Key] = struct{}{}
		}
	}
	return keys
}
