package trace_test

import (
	"sync"
	"testing"
	"time"

	"github.com/inkwell-labs/storyplan/domain/trace"
	"github.com/inkwell-labs/storyplan/domain/world"
)

func TestRecorder_Append(t *testing.T) {
	t.Parallel()

	t.Run("assigns run ID and sequence", func(t *testing.T) {
		t.Parallel()

		r := trace.NewRecorder("run-1")
		r.Append(trace.NewEntry(trace.EntryRunStarted, "", nil))
		r.Append(trace.NewEntry(trace.EntryPlanCreated, "", nil))

		entries := r.Entries()
		if len(entries) != 2 {
			t.Fatalf("Entries() len = %d, want 2", len(entries))
		}
		if entries[0].RunID != "run-1" {
			t.Errorf("RunID = %s, want run-1", entries[0].RunID)
		}
		if entries[0].Sequence != 1 || entries[1].Sequence != 2 {
			t.Errorf("sequences = %d, %d, want 1, 2", entries[0].Sequence, entries[1].Sequence)
		}
		if entries[0].ID == "" {
			t.Error("entry should have an ID assigned")
		}
	})

	t.Run("safe under concurrent writers", func(t *testing.T) {
		t.Parallel()

		r := trace.NewRecorder("run-2")

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 25; j++ {
					r.RecordDispatch("draft", "writer-1", "parallel", false)
				}
			}()
		}
		wg.Wait()

		if r.Count() != 200 {
			t.Fatalf("Count() = %d, want 200", r.Count())
		}

		seen := make(map[uint64]bool)
		for _, e := range r.Entries() {
			if seen[e.Sequence] {
				t.Fatalf("duplicate sequence %d", e.Sequence)
			}
			seen[e.Sequence] = true
		}
	})
}

func TestRecorder_Details(t *testing.T) {
	t.Parallel()

	r := trace.NewRecorder("run-3")
	r.RecordRunStarted([]world.Fact{{Key: "chapterDrafted", Value: world.Bool(true)}}, "single")
	r.RecordRejection("draft_alt", "chapterDrafted", trace.RejectCycle, "fact already being resolved")
	r.RecordActionStep(trace.ActionStepDetails{
		ActionID: "draft",
		Agent:    "writer-1",
		Duration: 120 * time.Millisecond,
		Retries:  2,
		Degraded: true,
		Delta:    world.Patch{"chapterDrafted": world.Bool(true)},
	})

	rejected := r.EntriesByType(trace.EntryRejectedAction)
	if len(rejected) != 1 {
		t.Fatalf("rejected entries = %d, want 1", len(rejected))
	}

	var details trace.RejectedActionDetails
	if err := rejected[0].DecodeDetails(&details); err != nil {
		t.Fatalf("DecodeDetails() error = %v", err)
	}
	if details.Reason != trace.RejectCycle {
		t.Errorf("Reason = %s, want cycle_detected", details.Reason)
	}

	steps := r.EntriesByType(trace.EntryActionStep)
	var step trace.ActionStepDetails
	if err := steps[0].DecodeDetails(&step); err != nil {
		t.Fatalf("DecodeDetails() error = %v", err)
	}
	if !step.Degraded || step.Retries != 2 {
		t.Errorf("step = %+v, want degraded with 2 retries", step)
	}
	if !step.Delta["chapterDrafted"].Equal(world.Bool(true)) {
		t.Errorf("Delta = %v, want chapterDrafted=true", step.Delta)
	}
}
