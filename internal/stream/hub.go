package stream

import "sync"

// Hub tracks which connections are attached to which analysis group.
type Hub struct {
	mu     sync.Mutex
	groups map[string]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{groups: make(map[string]map[string]struct{})}
}

// GroupName is the group a connection for pgnID joins.
func GroupName(pgnID string) string { return "analysis_" + pgnID }

func (h *Hub) Join(group, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]struct{})
		h.groups[group] = members
	}
	members[connID] = struct{}{}
}

func (h *Hub) Leave(group, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

func (h *Hub) Members(group string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[group])
}

// Total counts connections across all groups.
func (h *Hub) Total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.groups {
		n += len(m)
	}
	return n
}
