package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/inkwell-labs/storyplan/domain/agent"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for the planning and execution pipeline.

// RunID adds a run ID field.
func RunID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("run_id", id)
	}
}

// ActionID adds an action ID field.
func ActionID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("action", id)
	}
}

// AgentName adds the executing agent's name.
func AgentName(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("agent", name)
	}
}

// Role adds an agent role field.
func Role(r agent.Role) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("role", string(r))
	}
}

// Mode adds the dispatch mode field.
func Mode(mode string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("mode", mode)
	}
}

// Fact adds a fact key field.
func Fact(key string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("fact", key)
	}
}

// Attempt adds a retry attempt field.
func Attempt(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("attempt", n)
	}
}

// ErrorKind adds the classified error kind.
func ErrorKind(kind string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("error_kind", kind)
	}
}

// Model adds the selected model tier.
func Model(tier string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("model", tier)
	}
}

// Degraded adds a degraded-result marker.
func Degraded(degraded bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("degraded", degraded)
	}
}

// Nodes adds the planner nodes-expanded count.
func Nodes(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("nodes", n)
	}
}

// Cost adds a plan cost field.
func Cost(c float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Float64("cost", c)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Int adds a generic integer field.
func Int(key string, v int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, v)
	}
}

// Str adds a generic string field.
func Str(key, v string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, v)
	}
}
