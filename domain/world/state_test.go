package world_test

import (
	"encoding/json"
	"testing"

	"github.com/inkwell-labs/storyplan/domain/world"
)

func TestState_Apply(t *testing.T) {
	t.Parallel()

	t.Run("does not mutate the receiver", func(t *testing.T) {
		t.Parallel()

		s := world.New(map[string]world.Value{
			"hasOutline": world.Bool(true),
		})

		next := s.Apply(world.Patch{"chapterDrafted": world.Bool(true)})

		if _, ok := s.Get("chapterDrafted"); ok {
			t.Error("original state should not contain the patched fact")
		}
		if !next.Holds("chapterDrafted", world.Bool(true)) {
			t.Error("derived state should contain the patched fact")
		}
		if !next.Holds("hasOutline", world.Bool(true)) {
			t.Error("derived state should keep existing facts")
		}
	})

	t.Run("advances the version", func(t *testing.T) {
		t.Parallel()

		s := world.Empty()
		if s.Version() != 1 {
			t.Fatalf("Version() = %d, want 1", s.Version())
		}

		next := s.Apply(world.Patch{"x": world.Number(3)})
		if next.Version() != 2 {
			t.Errorf("Version() = %d, want 2", next.Version())
		}
		if s.Version() != 1 {
			t.Errorf("original Version() = %d, want 1", s.Version())
		}
	})

	t.Run("overwrites conflicting keys", func(t *testing.T) {
		t.Parallel()

		s := world.New(map[string]world.Value{"draftWordCount": world.Number(100)})
		next := s.Apply(world.Patch{"draftWordCount": world.Number(2500)})

		if !next.Holds("draftWordCount", world.Number(2500)) {
			t.Error("patch should overwrite the existing value")
		}
	})
}

func TestState_Holds(t *testing.T) {
	t.Parallel()

	s := world.New(map[string]world.Value{
		"genre":          world.String("mystery"),
		"draftWordCount": world.Number(1200),
		"hasOutline":     world.Bool(true),
	})

	tests := []struct {
		name string
		key  string
		want world.Value
		ok   bool
	}{
		{"matching string", "genre", world.String("mystery"), true},
		{"matching number", "draftWordCount", world.Number(1200), true},
		{"matching bool", "hasOutline", world.Bool(true), true},
		{"wrong value", "genre", world.String("romance"), false},
		{"wrong type", "hasOutline", world.String("true"), false},
		{"missing key", "consistencyChecked", world.Bool(true), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := s.Holds(tt.key, tt.want); got != tt.ok {
				t.Errorf("Holds(%q, %v) = %v, want %v", tt.key, tt.want, got, tt.ok)
			}
		})
	}
}

func TestValue_JSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value world.Value
		want  string
	}{
		{"bool", world.Bool(true), "true"},
		{"number", world.Number(42), "42"},
		{"string", world.String("draft"), `"draft"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal() = %s, want %s", data, tt.want)
			}

			var back world.Value
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !back.Equal(tt.value) {
				t.Errorf("round trip = %v, want %v", back, tt.value)
			}
		})
	}
}

func TestGoal_Unsatisfied(t *testing.T) {
	t.Parallel()

	goal := world.NewGoal(map[string]world.Value{
		"chapterDrafted":     world.Bool(true),
		"consistencyChecked": world.Bool(true),
	})

	s := world.New(map[string]world.Value{
		"chapterDrafted": world.Bool(true),
	})

	missing := goal.Unsatisfied(s)
	if len(missing) != 1 {
		t.Fatalf("Unsatisfied() returned %d facts, want 1", len(missing))
	}
	if missing[0].Key != "consistencyChecked" {
		t.Errorf("Unsatisfied()[0].Key = %s, want consistencyChecked", missing[0].Key)
	}
	if goal.SatisfiedBy(s) {
		t.Error("SatisfiedBy() = true with an unmet fact")
	}

	done := s.Apply(world.Patch{"consistencyChecked": world.Bool(true)})
	if !goal.SatisfiedBy(done) {
		t.Error("SatisfiedBy() = false after all facts hold")
	}
}
