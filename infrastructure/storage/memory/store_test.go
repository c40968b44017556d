package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/inkwell-labs/storyplan/domain/run"
	"github.com/inkwell-labs/storyplan/domain/trace"
	"github.com/inkwell-labs/storyplan/infrastructure/storage/memory"
)

func TestTraceStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := memory.NewTraceStore()
	ctx := context.Background()

	rec := trace.NewRecorder("run-x")
	rec.RecordRunStarted(nil, "single")
	rec.RecordRunCompleted([]string{"novel_done"}, nil, false)

	if err := store.Append(ctx, rec.Entries()...); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := store.Get(ctx, "run-x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Get returned %d entries, want 2", len(got))
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, trace.ErrRunNotFound) {
		t.Errorf("Get(missing) err = %v, want ErrRunNotFound", err)
	}

	runs, err := store.Runs(ctx)
	if err != nil || len(runs) != 1 || runs[0] != "run-x" {
		t.Errorf("Runs = %v, %v", runs, err)
	}
}

func TestTraceStoreConcurrentAppends(t *testing.T) {
	t.Parallel()

	store := memory.NewTraceStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_ = store.Append(ctx, trace.Entry{RunID: "run-c", Type: trace.EntryActionStep})
			}
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "run-c")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 200 {
		t.Errorf("stored %d entries, want 200", len(got))
	}
}

func TestRunStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := memory.NewRunStore()
	ctx := context.Background()

	r := run.New("run-1", nil, run.ModeHybrid)
	if err := store.Save(ctx, r); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Later mutations of the original must not leak into the store.
	_ = r.TransitionTo(run.PhasePlanning)

	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Phase != run.PhasePending {
		t.Errorf("stored phase = %q, want pending", got.Phase)
	}

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, run.ErrRunNotFound) {
		t.Errorf("Get(nope) err = %v, want ErrRunNotFound", err)
	}

	ids, err := store.List(ctx)
	if err != nil || len(ids) != 1 {
		t.Errorf("List = %v, %v", ids, err)
	}
}
