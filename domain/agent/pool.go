package agent

import (
	"context"
	"fmt"
)

// Pool holds a fixed set of agents per role. Acquire blocks until an agent
// of the requested role is free, which is what bounds dispatch breadth in
// the concurrent execution modes.
type Pool struct {
	avail map[Role]chan Agent
	size  int
}

// NewPool creates a pool with the given number of workers per role.
func NewPool(perRole int) (*Pool, error) {
	if perRole < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPoolSize, perRole)
	}

	avail := make(map[Role]chan Agent, len(Roles()))
	for _, role := range Roles() {
		ch := make(chan Agent, perRole)
		for i := 1; i <= perRole; i++ {
			a, err := New(role, i)
			if err != nil {
				return nil, err
			}
			ch <- a
		}
		avail[role] = ch
	}

	return &Pool{avail: avail, size: perRole}, nil
}

// Size returns the number of workers per role.
func (p *Pool) Size() int {
	return p.size
}

// Acquire returns a free agent of the role, blocking until one is available
// or the context is cancelled.
func (p *Pool) Acquire(ctx context.Context, role Role) (Agent, error) {
	ch, ok := p.avail[role]
	if !ok {
		return Agent{}, fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	select {
	case a := <-ch:
		return a, nil
	case <-ctx.Done():
		return Agent{}, ctx.Err()
	}
}

// TryAcquire returns a free agent of the role without blocking. The second
// return value reports whether an agent was available.
func (p *Pool) TryAcquire(role Role) (Agent, bool) {
	ch, ok := p.avail[role]
	if !ok {
		return Agent{}, false
	}
	select {
	case a := <-ch:
		return a, true
	default:
		return Agent{}, false
	}
}

// Release returns an agent to the pool.
func (p *Pool) Release(a Agent) {
	ch, ok := p.avail[a.Role]
	if !ok {
		return
	}
	select {
	case ch <- a:
	default:
		// Releasing an agent that was never acquired; drop it.
	}
}
