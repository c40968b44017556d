package action_test

import (
	"errors"
	"testing"

	"github.com/inkwell-labs/storyplan/domain/action"
	"github.com/inkwell-labs/storyplan/domain/agent"
	"github.com/inkwell-labs/storyplan/domain/world"
)

func draftChapter() action.Action {
	return action.Action{
		ID:   "draft_chapter",
		Name: "Draft Chapter",
		Role: agent.RoleWriter,
		Preconditions: []world.Fact{
			{Key: "hasOutline", Value: world.Bool(true)},
		},
		Effects: []action.Effect{
			{Key: "chapterDrafted", Value: world.Bool(true)},
		},
		Cost: 1,
	}
}

func TestCatalog_Register(t *testing.T) {
	t.Parallel()

	t.Run("registers and retrieves", func(t *testing.T) {
		t.Parallel()

		c := action.NewCatalog()
		if err := c.Register(draftChapter()); err != nil {
			t.Fatalf("Register() error = %v", err)
		}

		got, ok := c.Get("draft_chapter")
		if !ok {
			t.Fatal("Get() did not find registered action")
		}
		if got.Name != "Draft Chapter" {
			t.Errorf("Name = %s, want Draft Chapter", got.Name)
		}
		if c.Len() != 1 {
			t.Errorf("Len() = %d, want 1", c.Len())
		}
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		t.Parallel()

		c := action.NewCatalog()
		if err := c.Register(draftChapter()); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		if err := c.Register(draftChapter()); !errors.Is(err, action.ErrActionExists) {
			t.Errorf("Register() error = %v, want ErrActionExists", err)
		}
	})

	t.Run("rejects malformed actions", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name   string
			mutate func(*action.Action)
			want   error
		}{
			{"empty id", func(a *action.Action) { a.ID = "" }, action.ErrEmptyID},
			{"empty name", func(a *action.Action) { a.Name = "" }, action.ErrEmptyName},
			{"no effects", func(a *action.Action) { a.Effects = nil }, action.ErrNoEffects},
			{"negative cost", func(a *action.Action) { a.Cost = -1 }, action.ErrNegativeCost},
			{"unknown role", func(a *action.Action) { a.Role = "janitor" }, agent.ErrInvalidRole},
			{"empty effect key", func(a *action.Action) { a.Effects[0].Key = "" }, action.ErrEmptyEffectKey},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				a := draftChapter()
				tt.mutate(&a)

				c := action.NewCatalog()
				if err := c.Register(a); !errors.Is(err, tt.want) {
					t.Errorf("Register() error = %v, want %v", err, tt.want)
				}
			})
		}
	})

	t.Run("preserves registration order", func(t *testing.T) {
		t.Parallel()

		c := action.NewCatalog()
		first := draftChapter()
		second := draftChapter()
		second.ID = "draft_chapter_alt"

		if err := c.Register(first); err != nil {
			t.Fatal(err)
		}
		if err := c.Register(second); err != nil {
			t.Fatal(err)
		}

		actions := c.Actions()
		if actions[0].ID != "draft_chapter" || actions[1].ID != "draft_chapter_alt" {
			t.Errorf("Actions() order = [%s %s], want registration order", actions[0].ID, actions[1].ID)
		}
	})
}

func TestCatalog_Providers(t *testing.T) {
	t.Parallel()

	c := action.NewCatalog()
	c.MustRegister(draftChapter())
	c.MustRegister(action.Action{
		ID:   "count_words",
		Name: "Count Words",
		Role: agent.RoleProfiler,
		Effects: []action.Effect{
			{Key: "draftWordCount", Compute: func(s world.State) world.Value {
				return world.Number(2500)
			}},
		},
		Cost: 0.1,
	})

	t.Run("matches static effects by value", func(t *testing.T) {
		t.Parallel()

		got := c.Providers(world.Fact{Key: "chapterDrafted", Value: world.Bool(true)})
		if len(got) != 1 || got[0].ID != "draft_chapter" {
			t.Errorf("Providers() = %v, want [draft_chapter]", got)
		}

		none := c.Providers(world.Fact{Key: "chapterDrafted", Value: world.Bool(false)})
		if len(none) != 0 {
			t.Errorf("Providers() for wrong value = %v, want empty", none)
		}
	})

	t.Run("computed effects satisfy any value", func(t *testing.T) {
		t.Parallel()

		got := c.Providers(world.Fact{Key: "draftWordCount", Value: world.Number(9000)})
		if len(got) != 1 || got[0].ID != "count_words" {
			t.Errorf("Providers() = %v, want [count_words]", got)
		}
	})
}

func TestAction_ApplicableTo(t *testing.T) {
	t.Parallel()

	a := draftChapter()

	ready := world.New(map[string]world.Value{"hasOutline": world.Bool(true)})
	if !a.ApplicableTo(ready) {
		t.Error("ApplicableTo() = false with preconditions met")
	}

	blocked := world.New(map[string]world.Value{"hasOutline": world.Bool(false)})
	if a.ApplicableTo(blocked) {
		t.Error("ApplicableTo() = true with preconditions unmet")
	}
	if unmet := a.UnmetPreconditions(blocked); len(unmet) != 1 || unmet[0].Key != "hasOutline" {
		t.Errorf("UnmetPreconditions() = %v, want [hasOutline]", unmet)
	}
}

func TestAction_StaticPatch(t *testing.T) {
	t.Parallel()

	a := action.Action{
		ID:   "revise",
		Name: "Revise",
		Role: agent.RoleEditor,
		Effects: []action.Effect{
			{Key: "revised", Value: world.Bool(true)},
			{Key: "revisionCount", Compute: func(s world.State) world.Value {
				prev, _ := s.Get("revisionCount")
				return world.Number(prev.AsNumber() + 1)
			}},
		},
		Cost: 2,
	}

	s := world.New(map[string]world.Value{"revisionCount": world.Number(2)})
	patch := a.StaticPatch(s)

	if !patch["revised"].Equal(world.Bool(true)) {
		t.Errorf("patch[revised] = %v, want true", patch["revised"])
	}
	if !patch["revisionCount"].Equal(world.Number(3)) {
		t.Errorf("patch[revisionCount] = %v, want 3", patch["revisionCount"])
	}
}
