package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/inkwell-labs/storyplan/domain/trace"
	"github.com/inkwell-labs/storyplan/domain/world"
)

func newTestStore(t *testing.T) *TraceStore {
	t.Helper()

	store, err := NewTraceStore(Config{InMemory: true})
	if err != nil {
		t.Fatalf("NewTraceStore: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func recordedEntries(runID string, n int) []trace.Entry {
	rec := trace.NewRecorder(runID)
	rec.RecordRunStarted([]world.Fact{{Key: "novel_done", Value: world.Bool(true)}}, "hybrid")
	for i := 1; i < n; i++ {
		rec.RecordDispatch("draft_chapter_1", "writer-0", "hybrid", false)
	}
	return rec.Entries()
}

func TestTraceStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := recordedEntries("run-a", 5)
	if err := store.Append(ctx, entries...); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := store.Get(ctx, "run-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("Get returned %d entries, want 5", len(got))
	}
	for i, e := range got {
		if e.Sequence != uint64(i+1) {
			t.Errorf("entry %d sequence = %d, want %d", i, e.Sequence, i+1)
		}
	}
	if got[0].Type != trace.EntryRunStarted {
		t.Errorf("first entry type = %q, want run_started", got[0].Type)
	}
}

func TestTraceStoreOrderSurvivesBatches(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := recordedEntries("run-b", 10)
	// Append in two batches, second half first key-wise irrelevant since
	// keys encode the sequence.
	if err := store.Append(ctx, entries[5:]...); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(ctx, entries[:5]...); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "run-b")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Sequence <= got[i-1].Sequence {
			t.Fatalf("entries out of order at %d: %d then %d", i, got[i-1].Sequence, got[i].Sequence)
		}
	}
}

func TestTraceStoreUnknownRun(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, trace.ErrRunNotFound) {
		t.Fatalf("err = %v, want ErrRunNotFound", err)
	}
}

func TestTraceStoreRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, recordedEntries("run-1", 2)...); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(ctx, recordedEntries("run-2", 2)...); err != nil {
		t.Fatal(err)
	}

	runs, err := store.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Runs = %v, want 2 runs", runs)
	}
}

func TestTraceStoreDeleteRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, recordedEntries("run-del", 3)...); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteRun(ctx, "run-del"); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if _, err := store.Get(ctx, "run-del"); !errors.Is(err, trace.ErrRunNotFound) {
		t.Fatalf("Get after delete err = %v, want ErrRunNotFound", err)
	}
}

func TestTraceStoreRejectsEmptyRunID(t *testing.T) {
	store := newTestStore(t)

	err := store.Append(context.Background(), trace.Entry{Sequence: 1})
	if !errors.Is(err, trace.ErrInvalidRunID) {
		t.Fatalf("err = %v, want ErrInvalidRunID", err)
	}
}
