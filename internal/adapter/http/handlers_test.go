package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	httpadapter "github.com/conclave-ai/conclave/internal/adapter/http"
	"github.com/conclave-ai/conclave/internal/config"
	"github.com/conclave-ai/conclave/internal/domain/analysis"
	"github.com/conclave-ai/conclave/internal/domain/response"
	"github.com/conclave-ai/conclave/internal/service"
)

type stubAgent struct{ id string }

func (s *stubAgent) ID() string { return s.id }

func (s *stubAgent) Analyze(_ context.Context, _ analysis.Request) (*analysis.AgentAnalysis, error) {
	return &analysis.AgentAnalysis{
		AgentID:    s.id,
		Confidence: 0.8,
		Suggestions: []analysis.Suggestion{{
			ID: s.id + ":1", Type: analysis.SuggestionNextAction,
			Content: "review the open pull requests", Confidence: 0.8,
			Priority: analysis.PriorityMedium, Source: s.id,
		}},
	}, nil
}

func (s *stubAgent) Capabilities() []analysis.Capability {
	return []analysis.Capability{{Name: "stub"}}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Defaults()
	orch := service.NewOrchestrator(&cfg, nil, nil, nil, nil)
	if err := orch.RegisterAgent(&stubAgent{id: "stub"}); err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	httpadapter.MountRoutes(r, httpadapter.NewHandlers(orch, nil))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestOrchestrateEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/orchestrate", map[string]any{
		"prompt":  "what should I work on next?",
		"context": map[string]any{"platform": "web"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decode[response.OrchestratedResponse](t, resp)
	if body.ID == "" {
		t.Error("response id is empty")
	}
	if body.Primary.Content != "review the open pull requests" {
		t.Errorf("Primary.Content = %q", body.Primary.Content)
	}
	if len(body.Transparency.AgentContributions) != 1 {
		t.Errorf("contributions = %d, want 1", len(body.Transparency.AgentContributions))
	}
}

func TestOrchestrateRequiresPrompt(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/orchestrate", map[string]any{"prompt": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestFeedbackRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	orchResp := decode[response.OrchestratedResponse](t, postJSON(t, srv.URL+"/api/v1/orchestrate", map[string]any{
		"prompt": "anything",
	}))

	resp := postJSON(t, srv.URL+"/api/v1/feedback", map[string]any{
		"response_id": orchResp.ID,
		"rating":      4,
		"accepted":    true,
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	resp.Body.Close()

	metrics := decode[response.OrchestrationMetrics](t, getURL(t, srv.URL+"/api/v1/metrics"))
	if metrics.FeedbackCount != 1 {
		t.Errorf("FeedbackCount = %d, want 1", metrics.FeedbackCount)
	}
}

func TestFeedbackRejectsBadRating(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/feedback", map[string]any{
		"response_id": "any",
		"rating":      11,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func getURL(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestTransparencyEndpoint(t *testing.T) {
	srv := newTestServer(t)

	orchResp := decode[response.OrchestratedResponse](t, postJSON(t, srv.URL+"/api/v1/orchestrate", map[string]any{
		"prompt": "anything",
	}))

	resp := getURL(t, srv.URL+"/api/v1/responses/"+orchResp.ID+"/transparency")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	tr := decode[response.Transparency](t, resp)
	if len(tr.DecisionProcess) == 0 {
		t.Error("DecisionProcess empty")
	}

	notFound := getURL(t, srv.URL+"/api/v1/responses/ghost/transparency")
	if notFound.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", notFound.StatusCode)
	}
	notFound.Body.Close()
}

func TestListEndpoints(t *testing.T) {
	srv := newTestServer(t)

	agents := decode[[]service.AgentInfo](t, getURL(t, srv.URL+"/api/v1/agents"))
	if len(agents) != 1 || agents[0].ID != "stub" {
		t.Errorf("agents = %+v", agents)
	}

	health := decode[map[string]any](t, getURL(t, srv.URL+"/health"))
	if health["status"] != "ok" {
		t.Errorf("health = %+v", health)
	}
}
