package heuristic

import (
	"context"
	"testing"
	"time"

	"github.com/conclave-ai/conclave/internal/domain/analysis"
)

func request(prompt string) analysis.Request {
	return analysis.Request{Prompt: prompt}
}

func TestKeywordAgentMatchesTriggers(t *testing.T) {
	a := NewKeywordAgent()

	got, err := a.Analyze(context.Background(), request("I found a bug while running the tests"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Suggestions) != 2 {
		t.Fatalf("suggestions = %d, want tests + bug matches", len(got.Suggestions))
	}
	types := map[analysis.SuggestionType]bool{}
	for _, s := range got.Suggestions {
		types[s.Type] = true
		if s.Source != "keyword" {
			t.Errorf("Source = %q", s.Source)
		}
	}
	if !types[analysis.SuggestionWarning] || !types[analysis.SuggestionNextAction] {
		t.Errorf("types = %v", types)
	}
	if got.Confidence <= 0.5 {
		t.Errorf("Confidence = %v, want above the single-match floor", got.Confidence)
	}
}

func TestKeywordAgentNoMatchIsLowConfidence(t *testing.T) {
	a := NewKeywordAgent()

	got, err := a.Analyze(context.Background(), request("zzz qqq unrelated"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Confidence != 0.1 {
		t.Errorf("Confidence = %v, want 0.1", got.Confidence)
	}
	if len(got.Suggestions) != 1 {
		t.Errorf("suggestions = %d, want the generic fallback", len(got.Suggestions))
	}
}

func TestPhaseAgentPrefersContextOverPrompt(t *testing.T) {
	a := NewPhaseAgent()

	req := analysis.Request{
		Prompt:  "implement the parser",
		Context: analysis.Context{Extra: map[string]string{"phase": "review"}},
	}
	got, err := a.Analyze(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if got.Suggestions[0].ID != "phase:review" {
		t.Errorf("suggestion = %q, context phase should win", got.Suggestions[0].ID)
	}
	if got.Confidence != 0.85 {
		t.Errorf("Confidence = %v, want 0.85 for explicit context", got.Confidence)
	}
}

func TestPhaseAgentInfersFromPrompt(t *testing.T) {
	a := NewPhaseAgent()

	got, err := a.Analyze(context.Background(), request("time to deploy the service"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Suggestions[0].ID != "phase:delivery" {
		t.Errorf("suggestion = %q, want phase:delivery", got.Suggestions[0].ID)
	}
}

func TestRecencyAgentFlagsIdleSessions(t *testing.T) {
	a := NewRecencyAgent()
	current := time.Now()
	a.now = func() time.Time { return current }

	req := analysis.Request{Prompt: "next?", Context: analysis.Context{SessionID: "s1"}}

	first, err := a.Analyze(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if first.Suggestions[0].ID != "recency:continue" {
		t.Errorf("first sight = %q, want continue", first.Suggestions[0].ID)
	}

	current = current.Add(time.Hour)
	second, err := a.Analyze(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if second.Suggestions[0].ID != "recency:reorient" {
		t.Errorf("after idle gap = %q, want reorient", second.Suggestions[0].ID)
	}
	if second.Confidence <= first.Confidence {
		t.Errorf("idle confidence %v should exceed fresh confidence %v", second.Confidence, first.Confidence)
	}
}

func TestAgentsHonorCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, ag := range []interface {
		Analyze(context.Context, analysis.Request) (*analysis.AgentAnalysis, error)
	}{NewKeywordAgent(), NewPhaseAgent(), NewRecencyAgent()} {
		if _, err := ag.Analyze(ctx, request("anything")); err == nil {
			t.Errorf("%T ignored cancelled context", ag)
		}
	}
}
