// Package response defines the externally visible orchestration output:
// the per-request OrchestratedResponse with its transparency data, the
// feedback record, and the process-wide orchestration metrics.
package response

import (
	"errors"
	"time"

	"github.com/conclave-ai/conclave/internal/domain/analysis"
	"github.com/conclave-ai/conclave/internal/domain/consensus"
)

// AgentContribution records how one agent participated in a decision.
type AgentContribution struct {
	AgentID         string        `json:"agent_id"`
	Weight          float64       `json:"weight"`
	Confidence      float64       `json:"confidence"`
	SuggestionCount int           `json:"suggestion_count"`
	Used            bool          `json:"used"`
	FromCache       bool          `json:"from_cache"`
	FailureReason   string        `json:"failure_reason,omitempty"`
	ProcessingTime  time.Duration `json:"processing_time"`
}

// Transparency makes every decision auditable: the fixed decision log,
// per-agent contributions, and why alternatives lost.
type Transparency struct {
	DecisionProcess     []string            `json:"decision_process"`
	AgentContributions  []AgentContribution `json:"agent_contributions"`
	ConfidenceBreakdown map[string]float64  `json:"confidence_breakdown"`
	AlternativeReasons  map[string]string   `json:"alternative_reasons,omitempty"`
}

// ProcessingMetrics reports where the request spent its time.
type ProcessingMetrics struct {
	TotalTime          time.Duration            `json:"total_time"`
	PerAgentTime       map[string]time.Duration `json:"per_agent_time"`
	ConsensusTime      time.Duration            `json:"consensus_time"`
	ParallelEfficiency float64                  `json:"parallel_efficiency"`
}

// OrchestratedResponse is the single answer assembled from all agent
// analyses. It is created once per request and never mutated afterwards.
type OrchestratedResponse struct {
	ID           string                `json:"id"`
	Timestamp    time.Time             `json:"timestamp"`
	Primary      analysis.Suggestion   `json:"primary_suggestion"`
	Alternatives []analysis.Suggestion `json:"alternatives"`
	Confidence   float64               `json:"confidence"`
	Method       consensus.Method      `json:"resolution_method"`
	Reasoning    string                `json:"reasoning"`
	Insights     []analysis.Insight    `json:"insights,omitempty"`
	Consensus    consensus.Metrics     `json:"consensus_metrics"`
	Processing   ProcessingMetrics     `json:"processing_metrics"`
	Transparency Transparency          `json:"transparency"`
}

// Feedback is a caller's rating of a previously returned response.
type Feedback struct {
	ResponseID string `json:"response_id"`
	Rating     int    `json:"rating"` // 1..5
	Accepted   bool   `json:"accepted"`
	Helpful    bool   `json:"helpful"`
}

// Validate checks the feedback fields.
func (f Feedback) Validate() error {
	if f.ResponseID == "" {
		return errors.New("response_id is required")
	}
	if f.Rating < 1 || f.Rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}
	return nil
}

// AgentMetrics aggregates one agent's behavior across requests.
type AgentMetrics struct {
	TotalAnalyses         int64         `json:"total_analyses"`
	AverageConfidence     float64       `json:"average_confidence"`
	AcceptanceRate        float64       `json:"acceptance_rate"`
	AverageProcessingTime time.Duration `json:"average_processing_time"`
	ErrorRate             float64       `json:"error_rate"`
	Failures              int64         `json:"failures"`
	FeedbackCount         int64         `json:"feedback_count"`
	AcceptedCount         int64         `json:"accepted_count"`
}

// OrchestrationMetrics is the process-wide counter snapshot returned by the
// orchestrator's Metrics operation.
type OrchestrationMetrics struct {
	TotalRequests          int64                   `json:"total_requests"`
	AverageProcessingTime  time.Duration           `json:"average_processing_time"`
	ConsensusSuccessRate   float64                 `json:"consensus_success_rate"`
	ConflictResolutionRate float64                 `json:"conflict_resolution_rate"`
	UserSatisfactionScore  float64                 `json:"user_satisfaction_score"`
	FeedbackCount          int64                   `json:"feedback_count"`
	Agents                 map[string]AgentMetrics `json:"agents"`
}
