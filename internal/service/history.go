package service

import (
	"container/list"
	"sync"

	"github.com/conclave-ai/conclave/internal/domain/response"
)

// responseHistory keeps the most recent responses keyed by id so feedback
// and transparency lookups can correlate them later. Eviction is LRU with a
// fixed capacity; responses are never mutated after insertion.
type responseHistory struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*list.Element
	order   *list.List // front = most recently used
}

type historyEntry struct {
	id   string
	resp *response.OrchestratedResponse
}

func newResponseHistory(maxSize int) *responseHistory {
	if maxSize < 1 {
		maxSize = 1
	}
	return &responseHistory{
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Add inserts the response, evicting the least recently used entry when full.
func (h *responseHistory) Add(resp *response.OrchestratedResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if el, ok := h.entries[resp.ID]; ok {
		h.order.MoveToFront(el)
		el.Value = historyEntry{id: resp.ID, resp: resp}
		return
	}

	el := h.order.PushFront(historyEntry{id: resp.ID, resp: resp})
	h.entries[resp.ID] = el

	for h.order.Len() > h.maxSize {
		oldest := h.order.Back()
		h.order.Remove(oldest)
		delete(h.entries, oldest.Value.(historyEntry).id)
	}
}

// Get returns the stored response and marks it recently used.
func (h *responseHistory) Get(id string) (*response.OrchestratedResponse, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	el, ok := h.entries[id]
	if !ok {
		return nil, false
	}
	h.order.MoveToFront(el)
	return el.Value.(historyEntry).resp, true
}

// Len returns the number of retained responses.
func (h *responseHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.order.Len()
}
