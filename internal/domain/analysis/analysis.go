// Package analysis defines the data model shared between agents and the
// orchestrator: the request handed to every agent and the structured
// AgentAnalysis each agent returns.
package analysis

import (
	"strings"
	"time"
)

// Priority classifies how urgent a suggestion is.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank returns a sortable weight for the priority. Higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// SuggestionType is the semantic category of a suggestion.
type SuggestionType string

const (
	SuggestionNextAction SuggestionType = "next_action"
	SuggestionWorkflow   SuggestionType = "workflow"
	SuggestionResource   SuggestionType = "resource"
	SuggestionWarning    SuggestionType = "warning"
	SuggestionFallback   SuggestionType = "fallback"
)

// Suggestion is a single proposed next action.
type Suggestion struct {
	ID         string         `json:"id"`
	Type       SuggestionType `json:"type"`
	Content    string         `json:"content"`
	Confidence float64        `json:"confidence"`
	Priority   Priority       `json:"priority"`
	Source     string         `json:"source"`
	Reasoning  string         `json:"reasoning,omitempty"`
}

// Insight is a secondary observation an agent wants to surface alongside
// its suggestions.
type Insight struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Source      string  `json:"source"`
}

// Metadata documents how an agent reached its conclusion.
type Metadata struct {
	DataSources       []string `json:"data_sources,omitempty"`
	ConfidenceFactors []string `json:"confidence_factors,omitempty"`
	Limitations       []string `json:"limitations,omitempty"`
}

// AgentAnalysis is the structured output of one agent for one request.
// It is never nil at the orchestration layer: an agent failure is substituted
// by a degraded analysis (confidence 0) rather than an absent one.
type AgentAnalysis struct {
	AgentID        string        `json:"agent_id"`
	Confidence     float64       `json:"confidence"`
	Suggestions    []Suggestion  `json:"suggestions"`
	Insights       []Insight     `json:"insights,omitempty"`
	Reasoning      string        `json:"reasoning"`
	ProcessingTime time.Duration `json:"processing_time"`
	Metadata       Metadata      `json:"metadata"`
}

// TopSuggestion returns the agent's strongest suggestion, preferring higher
// confidence and breaking ties by priority. Returns nil when the analysis
// carries no suggestions.
func (a *AgentAnalysis) TopSuggestion() *Suggestion {
	var top *Suggestion
	for i := range a.Suggestions {
		s := &a.Suggestions[i]
		if top == nil || s.Confidence > top.Confidence ||
			(s.Confidence == top.Confidence && s.Priority.Rank() > top.Priority.Rank()) {
			top = s
		}
	}
	return top
}

// Degraded builds the confidence-0 analysis substituted when an agent could
// not produce a real one (fault, timeout, or open circuit breaker).
func Degraded(agentID, reason string) *AgentAnalysis {
	return &AgentAnalysis{
		AgentID:    agentID,
		Confidence: 0,
		Suggestions: []Suggestion{{
			ID:         agentID + ":degraded",
			Type:       SuggestionFallback,
			Content:    "Analysis unavailable: " + reason,
			Confidence: 0,
			Priority:   PriorityLow,
			Source:     agentID,
			Reasoning:  reason,
		}},
		Reasoning: reason,
		Metadata:  Metadata{Limitations: []string{reason}},
	}
}

// Capability describes one thing an agent knows how to analyze.
type Capability struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Context carries request metadata agents may use to refine their analysis.
type Context struct {
	Platform  string            `json:"platform,omitempty"`
	URL       string            `json:"url,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Timestamp time.Time         `json:"timestamp,omitzero"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Request is the user input fanned out to every registered agent.
type Request struct {
	Prompt  string  `json:"prompt"`
	Context Context `json:"context"`
}

// Normalized returns a canonical form of the request used for cache keys:
// lower-cased, whitespace-collapsed prompt plus the platform.
func (r Request) Normalized() string {
	fields := strings.Fields(strings.ToLower(r.Prompt))
	return strings.Join(fields, " ") + "|" + strings.ToLower(r.Context.Platform)
}
