package http

import (
	"net/http"
	"time"

	"github.com/conclave-ai/conclave/internal/adapter/ws"
	"github.com/conclave-ai/conclave/internal/domain/analysis"
	"github.com/conclave-ai/conclave/internal/domain/response"
	"github.com/conclave-ai/conclave/internal/service"
)

// Handlers bundles the orchestrator and the WebSocket hub for route wiring.
type Handlers struct {
	Orchestrator *service.Orchestrator
	Hub          *ws.Hub
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(orch *service.Orchestrator, hub *ws.Hub) *Handlers {
	return &Handlers{Orchestrator: orch, Hub: hub}
}

// orchestrateRequest is the POST /orchestrate body.
type orchestrateRequest struct {
	Prompt  string           `json:"prompt"`
	Context analysis.Context `json:"context"`
}

// Orchestrate fans the prompt out to all registered agents and returns the
// consolidated response. Degraded outcomes still return 200: the response
// body says what went wrong.
func (h *Handlers) Orchestrate(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[orchestrateRequest](w, r)
	if !ok {
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if req.Context.Timestamp.IsZero() {
		req.Context.Timestamp = time.Now()
	}

	resp := h.Orchestrator.Process(r.Context(), analysis.Request{
		Prompt:  req.Prompt,
		Context: req.Context,
	})
	writeJSON(w, http.StatusOK, resp)
}

// Feedback records a caller's rating of a past response.
func (h *Handlers) Feedback(w http.ResponseWriter, r *http.Request) {
	fb, ok := readJSON[response.Feedback](w, r)
	if !ok {
		return
	}
	if err := h.Orchestrator.RecordFeedback(r.Context(), fb); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

// Metrics returns the process-wide orchestration counters.
func (h *Handlers) Metrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Orchestrator.Metrics())
}

// Performance returns the monitor's latency snapshot.
func (h *Handlers) Performance(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Orchestrator.PerformanceSummary())
}

// Transparency returns the decision transparency for one response id.
func (h *Handlers) Transparency(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	tr, err := h.Orchestrator.TransparencyInfo(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// Agents lists the registered agents.
func (h *Handlers) Agents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Orchestrator.Agents())
}

// Breakers returns the circuit breaker state per agent.
func (h *Handlers) Breakers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Orchestrator.BreakerStates())
}

// Caches returns hit/miss counters for the performance caches.
func (h *Handlers) Caches(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Orchestrator.CacheStats())
}

// Health reports liveness plus basic runtime numbers.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status": "ok",
		"agents": len(h.Orchestrator.Agents()),
	}
	if h.Hub != nil {
		body["ws_connections"] = h.Hub.ConnectionCount()
	}
	writeJSON(w, http.StatusOK, body)
}
