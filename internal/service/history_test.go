package service

import (
	"fmt"
	"testing"

	"github.com/conclave-ai/conclave/internal/domain/response"
)

func historyResponse(id string) *response.OrchestratedResponse {
	return &response.OrchestratedResponse{ID: id}
}

func TestHistoryEvictsLeastRecentlyUsed(t *testing.T) {
	h := newResponseHistory(3)
	for i := 1; i <= 3; i++ {
		h.Add(historyResponse(fmt.Sprintf("r%d", i)))
	}

	// Touch r1 so r2 becomes the eviction candidate.
	if _, ok := h.Get("r1"); !ok {
		t.Fatal("r1 missing")
	}
	h.Add(historyResponse("r4"))

	if _, ok := h.Get("r2"); ok {
		t.Error("r2 should have been evicted")
	}
	for _, id := range []string{"r1", "r3", "r4"} {
		if _, ok := h.Get(id); !ok {
			t.Errorf("%s should still be present", id)
		}
	}
	if h.Len() != 3 {
		t.Errorf("Len = %d, want 3", h.Len())
	}
}

func TestHistoryReAddMovesToFront(t *testing.T) {
	h := newResponseHistory(2)
	h.Add(historyResponse("a"))
	h.Add(historyResponse("b"))
	h.Add(historyResponse("a")) // refresh, not duplicate
	h.Add(historyResponse("c"))

	if _, ok := h.Get("b"); ok {
		t.Error("b should have been evicted after a was refreshed")
	}
	if h.Len() != 2 {
		t.Errorf("Len = %d, want 2", h.Len())
	}
}

func TestHistoryUnknownID(t *testing.T) {
	h := newResponseHistory(2)
	if _, ok := h.Get("nope"); ok {
		t.Error("unknown id should miss")
	}
}
