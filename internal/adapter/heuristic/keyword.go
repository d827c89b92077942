// Package heuristic provides built-in rule-based agents. They stand in for
// remote analyzers in local development and double as reference
// implementations of the agent port.
package heuristic

import (
	"context"
	"fmt"
	"strings"

	"github.com/conclave-ai/conclave/internal/domain/analysis"
)

// keywordRule maps a set of trigger words to one suggestion template.
type keywordRule struct {
	triggers   []string
	suggestion analysis.Suggestion
}

var keywordRules = []keywordRule{
	{
		triggers: []string{"test", "tests", "testing", "coverage"},
		suggestion: analysis.Suggestion{
			Type: analysis.SuggestionNextAction, Content: "Run the test suite and review failures before continuing",
			Priority: analysis.PriorityHigh,
		},
	},
	{
		triggers: []string{"bug", "error", "crash", "broken", "fail"},
		suggestion: analysis.Suggestion{
			Type: analysis.SuggestionWarning, Content: "Reproduce the failure with a minimal case before changing code",
			Priority: analysis.PriorityCritical,
		},
	},
	{
		triggers: []string{"deploy", "release", "ship", "publish"},
		suggestion: analysis.Suggestion{
			Type: analysis.SuggestionWorkflow, Content: "Verify the changelog and tag the release candidate",
			Priority: analysis.PriorityHigh,
		},
	},
	{
		triggers: []string{"doc", "docs", "documentation", "readme"},
		suggestion: analysis.Suggestion{
			Type: analysis.SuggestionResource, Content: "Update the README and API documentation for the changed surface",
			Priority: analysis.PriorityMedium,
		},
	},
	{
		triggers: []string{"refactor", "cleanup", "debt"},
		suggestion: analysis.Suggestion{
			Type: analysis.SuggestionNextAction, Content: "Split the refactor into reviewable steps with tests per step",
			Priority: analysis.PriorityMedium,
		},
	},
}

// KeywordAgent suggests next actions by matching trigger words in the prompt.
type KeywordAgent struct{}

// NewKeywordAgent creates the keyword agent.
func NewKeywordAgent() *KeywordAgent { return &KeywordAgent{} }

func (a *KeywordAgent) ID() string { return "keyword" }

func (a *KeywordAgent) Capabilities() []analysis.Capability {
	return []analysis.Capability{
		{Name: "keyword-matching", Description: "matches task keywords to next-action suggestions"},
	}
}

func (a *KeywordAgent) Analyze(ctx context.Context, req analysis.Request) (*analysis.AgentAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(req.Prompt)) {
		tokens[strings.Trim(tok, ".,!?;:")] = struct{}{}
	}

	var suggestions []analysis.Suggestion
	var matched []string
	for _, rule := range keywordRules {
		for _, trigger := range rule.triggers {
			if _, ok := tokens[trigger]; !ok {
				continue
			}
			s := rule.suggestion
			s.ID = fmt.Sprintf("keyword:%s", trigger)
			s.Source = a.ID()
			s.Confidence = 0.6
			s.Reasoning = fmt.Sprintf("prompt mentions %q", trigger)
			suggestions = append(suggestions, s)
			matched = append(matched, trigger)
			break
		}
	}

	if len(suggestions) == 0 {
		return &analysis.AgentAnalysis{
			AgentID:    a.ID(),
			Confidence: 0.1,
			Suggestions: []analysis.Suggestion{{
				ID: "keyword:none", Type: analysis.SuggestionNextAction,
				Content:    "Break the task into smaller concrete steps",
				Confidence: 0.1, Priority: analysis.PriorityLow, Source: a.ID(),
				Reasoning: "no trigger words matched",
			}},
			Reasoning: "no trigger words matched, generic advice only",
			Metadata:  analysis.Metadata{Limitations: []string{"keyword matching found no signal"}},
		}, nil
	}

	// More distinct matches mean more signal.
	conf := 0.5 + 0.1*float64(len(matched))
	if conf > 0.9 {
		conf = 0.9
	}
	return &analysis.AgentAnalysis{
		AgentID:     a.ID(),
		Confidence:  conf,
		Suggestions: suggestions,
		Reasoning:   fmt.Sprintf("matched trigger words: %s", strings.Join(matched, ", ")),
		Metadata: analysis.Metadata{
			DataSources:       []string{"prompt"},
			ConfidenceFactors: matched,
		},
	}, nil
}
