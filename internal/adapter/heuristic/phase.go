package heuristic

import (
	"context"
	"fmt"
	"strings"

	"github.com/conclave-ai/conclave/internal/domain/analysis"
)

// phaseHints maps work-phase markers in the prompt to the inferred phase.
var phaseHints = map[string]string{
	"design": "planning", "plan": "planning", "spec": "planning", "architecture": "planning",
	"implement": "implementation", "write": "implementation", "build": "implementation", "code": "implementation",
	"review": "review", "merge": "review", "approve": "review", "pr": "review",
	"deploy": "delivery", "release": "delivery", "monitor": "delivery",
}

// phaseAdvice is the workflow suggestion per inferred phase.
var phaseAdvice = map[string]analysis.Suggestion{
	"planning": {
		Type: analysis.SuggestionWorkflow, Content: "Write down acceptance criteria before starting implementation",
		Priority: analysis.PriorityHigh,
	},
	"implementation": {
		Type: analysis.SuggestionWorkflow, Content: "Commit in small increments and keep the tests green",
		Priority: analysis.PriorityMedium,
	},
	"review": {
		Type: analysis.SuggestionWorkflow, Content: "Request review early and address feedback in follow-up commits",
		Priority: analysis.PriorityMedium,
	},
	"delivery": {
		Type: analysis.SuggestionWorkflow, Content: "Roll out gradually and watch the error rate after each step",
		Priority: analysis.PriorityHigh,
	},
}

// PhaseAgent infers the current phase of work and suggests the matching
// workflow step. An explicit "phase" entry in the request context wins over
// prompt inference.
type PhaseAgent struct{}

// NewPhaseAgent creates the phase agent.
func NewPhaseAgent() *PhaseAgent { return &PhaseAgent{} }

func (a *PhaseAgent) ID() string { return "phase" }

func (a *PhaseAgent) Capabilities() []analysis.Capability {
	return []analysis.Capability{
		{Name: "phase-inference", Description: "infers the work phase and suggests workflow steps"},
	}
}

func (a *PhaseAgent) Analyze(ctx context.Context, req analysis.Request) (*analysis.AgentAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	phase, source := a.inferPhase(req)
	if phase == "" {
		return &analysis.AgentAnalysis{
			AgentID:    a.ID(),
			Confidence: 0.15,
			Suggestions: []analysis.Suggestion{{
				ID: "phase:unknown", Type: analysis.SuggestionWorkflow,
				Content:    "Clarify which stage the work is in before picking the next step",
				Confidence: 0.15, Priority: analysis.PriorityLow, Source: a.ID(),
				Reasoning: "no phase marker found",
			}},
			Reasoning: "could not infer a work phase",
			Metadata:  analysis.Metadata{Limitations: []string{"no phase markers in prompt or context"}},
		}, nil
	}

	conf := 0.6
	if source == "context" {
		conf = 0.85
	}
	s := phaseAdvice[phase]
	s.ID = "phase:" + phase
	s.Source = a.ID()
	s.Confidence = conf
	s.Reasoning = fmt.Sprintf("phase %q inferred from %s", phase, source)

	return &analysis.AgentAnalysis{
		AgentID:     a.ID(),
		Confidence:  conf,
		Suggestions: []analysis.Suggestion{s},
		Insights: []analysis.Insight{{
			Type: "phase", Description: "work appears to be in the " + phase + " phase",
			Confidence: conf, Source: a.ID(),
		}},
		Reasoning: s.Reasoning,
		Metadata:  analysis.Metadata{DataSources: []string{source}},
	}, nil
}

func (a *PhaseAgent) inferPhase(req analysis.Request) (phase, source string) {
	if p, ok := req.Context.Extra["phase"]; ok {
		if _, known := phaseAdvice[p]; known {
			return p, "context"
		}
	}
	for _, tok := range strings.Fields(strings.ToLower(req.Prompt)) {
		if p, ok := phaseHints[strings.Trim(tok, ".,!?;:")]; ok {
			return p, "prompt"
		}
	}
	return "", ""
}
