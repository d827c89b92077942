// Package consensus defines the domain model for cross-agent agreement:
// the pairwise consensus result and the resolved answer with alternatives.
package consensus

import (
	"github.com/conclave-ai/conclave/internal/domain/analysis"
)

// Strategy selects how conflicting suggestions are resolved.
type Strategy string

const (
	StrategyHighestConfidence Strategy = "highest_confidence"
	StrategyMajorityVote      Strategy = "majority_vote"
	StrategyHybrid            Strategy = "hybrid_approach"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyHighestConfidence, StrategyMajorityVote, StrategyHybrid:
		return true
	}
	return false
}

// Method records which path produced a Resolution. Besides the three
// strategies it covers the degraded paths the orchestrator can take.
type Method string

const (
	MethodHighestConfidence Method = "highest_confidence"
	MethodMajorityVote      Method = "majority_vote"
	MethodHybrid            Method = "hybrid_approach"
	MethodFallback          Method = "fallback_no_analyses"
	MethodNoAgents          Method = "no_agents_registered"
	MethodCapacityExceeded  Method = "capacity_exceeded"
	MethodOrchestratorError Method = "orchestrator_error"
)

// Agreement is a cluster of agents whose top suggestions match under the
// engine's similarity rule.
type Agreement struct {
	Type               analysis.SuggestionType `json:"type"`
	Content            string                  `json:"content"`
	Agents             []string                `json:"agents"`
	CombinedConfidence float64                 `json:"combined_confidence"`
}

// Disagreement is one pair of agents whose top suggestions did not match.
type Disagreement struct {
	AgentA      string              `json:"agent_a"`
	AgentB      string              `json:"agent_b"`
	SuggestionA analysis.Suggestion `json:"suggestion_a"`
	SuggestionB analysis.Suggestion `json:"suggestion_b"`
}

// Result is the outcome of comparing all participating analyses pairwise.
type Result struct {
	Agreements          []Agreement    `json:"agreements"`
	Disagreements       []Disagreement `json:"disagreements"`
	Strength            float64        `json:"consensus_strength"`
	ParticipatingAgents int            `json:"participating_agents"`
}

// Metrics is the summary of a consensus round embedded into resolutions
// and responses.
type Metrics struct {
	Strength            float64 `json:"consensus_strength"`
	Agreements          int     `json:"agreements"`
	Disagreements       int     `json:"disagreements"`
	ParticipatingAgents int     `json:"participating_agents"`
	ResolutionSuccess   bool    `json:"resolution_success"`
}

// Resolution is the consensus engine's final answer: one primary suggestion
// plus up to five ranked alternatives.
type Resolution struct {
	Best               analysis.Suggestion   `json:"best"`
	Alternatives       []analysis.Suggestion `json:"alternatives"`
	Confidence         float64               `json:"confidence"`
	Reasoning          string                `json:"reasoning"`
	Method             Method                `json:"resolution_method"`
	Metrics            Metrics               `json:"consensus_metrics"`
	AlternativeReasons map[string]string     `json:"alternative_reasons,omitempty"`
}

// PlaceholderSuggestion is the fixed suggestion returned when no usable
// analysis exists (zero agents, all agents failed, or capacity rejection).
func PlaceholderSuggestion(reason string) analysis.Suggestion {
	return analysis.Suggestion{
		ID:         "consensus:placeholder",
		Type:       analysis.SuggestionFallback,
		Content:    "No suggestion available",
		Confidence: 0,
		Priority:   analysis.PriorityLow,
		Source:     "consensus",
		Reasoning:  reason,
	}
}
