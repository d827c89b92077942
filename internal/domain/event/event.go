// Package event defines the real-time event types broadcast to connected clients.
package event

// Event type identifiers carried in the WebSocket message envelope.
const (
	TypeRequestCompleted = "request.completed"
	TypeBreakerState     = "breaker.state"
	TypeFeedback         = "feedback.recorded"
	TypeAgentStatus      = "agent.status"
)

// RequestCompleted is broadcast after every orchestrated request,
// successful or degraded.
type RequestCompleted struct {
	ResponseID       string  `json:"response_id"`
	Confidence       float64 `json:"confidence"`
	ResolutionMethod string  `json:"resolution_method"`
	ProcessingMs     int64   `json:"processing_ms"`
	Agents           int     `json:"agents"`
}

// BreakerState is broadcast when an agent's circuit breaker opens or closes.
type BreakerState struct {
	AgentID string `json:"agent_id"`
	Open    bool   `json:"open"`
}

// Feedback is broadcast when user feedback is recorded.
type Feedback struct {
	ResponseID string `json:"response_id"`
	Rating     int    `json:"rating"`
	Accepted   bool   `json:"accepted"`
}

// AgentStatus is broadcast when an agent is registered or unregistered.
type AgentStatus struct {
	AgentID string `json:"agent_id"`
	Status  string `json:"status"` // "registered" or "unregistered"
}
