package runner

import "sync"

// Group is an ordered collection of handles, used by management tooling to
// address related processes together. A handle joins at most one group, at
// construction time.
type Group struct {
	name string

	mu    sync.RWMutex
	items []*Handle
}

// NewGroup creates an empty group.
func NewGroup(name string) *Group {
	return &Group{name: name}
}

func (g *Group) Name() string {
	return g.name
}

func (g *Group) add(h *Handle) {
	g.mu.Lock()
	g.items = append(g.items, h)
	g.mu.Unlock()
}

// Items returns the handles in the order they joined.
func (g *Group) Items() []*Handle {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*Handle(nil), g.items...)
}

// Find returns the handle with the given id, or nil.
func (g *Group) Find(id string) *Handle {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, h := range g.items {
		if h.id == id {
			return h
		}
	}
	return nil
}

func (g *Group) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.items)
}
