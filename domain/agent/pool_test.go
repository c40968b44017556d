package agent_test

import (
	"context"
	"testing"
	"time"

	"github.com/inkwell-labs/storyplan/domain/agent"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("valid role", func(t *testing.T) {
		t.Parallel()

		a, err := agent.New(agent.RoleWriter, 2)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if a.Name != "writer-2" {
			t.Errorf("Name = %s, want writer-2", a.Name)
		}
		if !a.CanRun(agent.RoleWriter) {
			t.Error("CanRun(writer) = false for a writer agent")
		}
		if a.CanRun(agent.RoleEditor) {
			t.Error("CanRun(editor) = true for a writer agent")
		}
	})

	t.Run("invalid role", func(t *testing.T) {
		t.Parallel()

		if _, err := agent.New(agent.Role("janitor"), 1); err == nil {
			t.Error("New() should reject unknown roles")
		}
	})
}

func TestPool_Acquire(t *testing.T) {
	t.Parallel()

	t.Run("bounds concurrency per role", func(t *testing.T) {
		t.Parallel()

		pool, err := agent.NewPool(1)
		if err != nil {
			t.Fatalf("NewPool() error = %v", err)
		}

		a, err := pool.Acquire(context.Background(), agent.RoleWriter)
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}

		if _, ok := pool.TryAcquire(agent.RoleWriter); ok {
			t.Error("TryAcquire() should fail while the only writer is busy")
		}

		// A different role is unaffected.
		if _, ok := pool.TryAcquire(agent.RoleEditor); !ok {
			t.Error("TryAcquire(editor) should succeed")
		}

		pool.Release(a)
		if _, ok := pool.TryAcquire(agent.RoleWriter); !ok {
			t.Error("TryAcquire() should succeed after release")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		pool, err := agent.NewPool(1)
		if err != nil {
			t.Fatalf("NewPool() error = %v", err)
		}
		if _, err := pool.Acquire(context.Background(), agent.RoleDoctor); err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		if _, err := pool.Acquire(ctx, agent.RoleDoctor); err == nil {
			t.Error("Acquire() should fail once the context expires")
		}
	})

	t.Run("rejects non-positive size", func(t *testing.T) {
		t.Parallel()

		if _, err := agent.NewPool(0); err == nil {
			t.Error("NewPool(0) should fail")
		}
	})
}
