package heuristic

import (
	"context"
	"sync"
	"time"

	"github.com/conclave-ai/conclave/internal/domain/analysis"
)

// RecencyAgent tracks when each session was last seen and suggests picking
// work back up after a gap. State is in-memory only; sessions are never
// expired, which is fine for the handful the built-in agents see.
type RecencyAgent struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time
	now      func() time.Time
}

// NewRecencyAgent creates the recency agent.
func NewRecencyAgent() *RecencyAgent {
	return &RecencyAgent{
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (a *RecencyAgent) ID() string { return "recency" }

func (a *RecencyAgent) Capabilities() []analysis.Capability {
	return []analysis.Capability{
		{Name: "session-recency", Description: "suggests re-orientation after long gaps between requests"},
	}
}

// gapThreshold is the idle time after which re-orientation advice is given.
const gapThreshold = 30 * time.Minute

func (a *RecencyAgent) Analyze(ctx context.Context, req analysis.Request) (*analysis.AgentAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session := req.Context.SessionID
	if session == "" {
		return &analysis.AgentAnalysis{
			AgentID:    a.ID(),
			Confidence: 0.1,
			Suggestions: []analysis.Suggestion{{
				ID: "recency:nosession", Type: analysis.SuggestionResource,
				Content:    "Start a named session to get continuity-aware suggestions",
				Confidence: 0.1, Priority: analysis.PriorityLow, Source: a.ID(),
				Reasoning: "request carries no session id",
			}},
			Reasoning: "no session id, no recency signal",
			Metadata:  analysis.Metadata{Limitations: []string{"session id missing"}},
		}, nil
	}

	now := a.now()
	a.mu.Lock()
	last, seen := a.lastSeen[session]
	a.lastSeen[session] = now
	a.mu.Unlock()

	if !seen || now.Sub(last) < gapThreshold {
		return &analysis.AgentAnalysis{
			AgentID:    a.ID(),
			Confidence: 0.4,
			Suggestions: []analysis.Suggestion{{
				ID: "recency:continue", Type: analysis.SuggestionNextAction,
				Content:    "Continue with the current task, context is still fresh",
				Confidence: 0.4, Priority: analysis.PriorityLow, Source: a.ID(),
				Reasoning: "session active recently",
			}},
			Reasoning: "session seen recently, momentum is intact",
			Metadata:  analysis.Metadata{DataSources: []string{"session history"}},
		}, nil
	}

	return &analysis.AgentAnalysis{
		AgentID:    a.ID(),
		Confidence: 0.65,
		Suggestions: []analysis.Suggestion{{
			ID: "recency:reorient", Type: analysis.SuggestionWorkflow,
			Content:    "Review recent changes and notes before resuming, the session was idle",
			Confidence: 0.65, Priority: analysis.PriorityMedium, Source: a.ID(),
			Reasoning: "session idle for " + now.Sub(last).Round(time.Minute).String(),
		}},
		Insights: []analysis.Insight{{
			Type: "recency", Description: "session resumed after an idle gap",
			Confidence: 0.65, Source: a.ID(),
		}},
		Reasoning: "long gap since the last request in this session",
		Metadata:  analysis.Metadata{DataSources: []string{"session history"}},
	}, nil
}
