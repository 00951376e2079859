package agent

import (
	"fmt"

	"living-economy-arena/econsim/internal/events"
)

// Registry is the Kernel-owned capacity-limited agent directory (spec §6:
// "maxAgents: u32 — registry capacity; excess register_agent calls fail
// with capacity_exceeded").
type Registry struct {
	maxAgents uint32
	agents    map[string]*Agent
	order     []string // insertion order, for deterministic iteration
}

// NewRegistry constructs a Registry capped at maxAgents entries.
func NewRegistry(maxAgents uint32) *Registry {
	return &Registry{
		maxAgents: maxAgents,
		agents:    make(map[string]*Agent),
	}
}

// Register adds a new agent, returning a CapacityError if the registry is
// full or a ValidationError if the id is already taken.
func (r *Registry) Register(a *Agent) error {
	if uint32(len(r.agents)) >= r.maxAgents {
		return &events.CapacityError{Resource: "agent_registry", Limit: int(r.maxAgents)}
	}
	if _, exists := r.agents[a.ID]; exists {
		return &events.ValidationError{Reason: fmt.Sprintf("agent %q already registered", a.ID)}
	}
	r.agents[a.ID] = a
	r.order = append(r.order, a.ID)
	return nil
}

// Unregister removes an agent, discarding its pending actions (spec §3).
// Cancelling its open orders is the caller's (Kernel's) responsibility,
// since only the Kernel knows which markets hold resting orders tagged
// with this agent's id.
func (r *Registry) Unregister(id string) bool {
	a, ok := r.agents[id]
	if !ok {
		return false
	}
	a.DiscardPending()
	delete(r.agents, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns an agent by id.
func (r *Registry) Get(id string) (*Agent, bool) {
	a, ok := r.agents[id]
	return a, ok
}

// Count returns the number of registered agents.
func (r *Registry) Count() int {
	return len(r.agents)
}

// Active returns every active agent in registration order.
func (r *Registry) Active() []*Agent {
	out := make([]*Agent, 0, len(r.agents))
	for _, id := range r.order {
		a := r.agents[id]
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out
}

// All returns every registered agent (active or not) in registration order.
func (r *Registry) All() []*Agent {
	out := make([]*Agent, 0, len(r.agents))
	for _, id := range r.order {
		out = append(out, r.agents[id])
	}
	return out
}
