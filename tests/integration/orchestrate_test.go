//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/conclave-ai/conclave/internal/domain/response"
)

func postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(testServer.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestHealthLiveness(t *testing.T) {
	resp, err := http.Get(testServer.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != "ok" {
		t.Errorf("health body = %+v", body)
	}
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	return body
}

func TestOrchestrateEndToEnd(t *testing.T) {
	resp := postJSON(t, "/api/v1/orchestrate", map[string]any{
		"prompt":  "I need to fix a bug in the deploy script and add tests",
		"context": map[string]any{"platform": "cli", "session_id": "it-session"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decode[response.OrchestratedResponse](t, resp)
	if body.ID == "" {
		t.Fatal("missing response id")
	}
	if body.Primary.Content == "" {
		t.Error("empty primary suggestion")
	}
	if len(body.Transparency.AgentContributions) != 3 {
		t.Errorf("contributions = %d, want all three built-in agents", len(body.Transparency.AgentContributions))
	}
	if body.Confidence < 0 || body.Confidence > 1 {
		t.Errorf("confidence out of range: %v", body.Confidence)
	}

	// Feedback loop against the response we just got.
	fbResp := postJSON(t, "/api/v1/feedback", map[string]any{
		"response_id": body.ID,
		"rating":      4,
		"accepted":    true,
		"helpful":     true,
	})
	if fbResp.StatusCode != http.StatusAccepted {
		t.Fatalf("feedback status = %d, want 202", fbResp.StatusCode)
	}
	_ = fbResp.Body.Close()

	metricsResp, err := http.Get(testServer.URL + "/api/v1/metrics")
	if err != nil {
		t.Fatal(err)
	}
	metrics := decode[response.OrchestrationMetrics](t, metricsResp)
	if metrics.TotalRequests == 0 {
		t.Error("TotalRequests = 0 after an orchestration")
	}
	if metrics.FeedbackCount == 0 {
		t.Error("FeedbackCount = 0 after feedback")
	}
}

func TestRepeatRequestHitsCache(t *testing.T) {
	body := map[string]any{
		"prompt":  "review the documentation updates",
		"context": map[string]any{"platform": "web"},
	}

	first := decode[response.OrchestratedResponse](t, postJSON(t, "/api/v1/orchestrate", body))
	second := decode[response.OrchestratedResponse](t, postJSON(t, "/api/v1/orchestrate", body))

	if first.Primary.Content != second.Primary.Content {
		t.Errorf("cached run differs: %q vs %q", first.Primary.Content, second.Primary.Content)
	}

	statsResp, err := http.Get(testServer.URL + "/api/v1/caches")
	if err != nil {
		t.Fatal(err)
	}
	stats := decodeBody(t, statsResp)
	_ = statsResp.Body.Close()
	analysisStats, _ := stats["analysis"].(map[string]any)
	if hits, _ := analysisStats["hits"].(float64); hits == 0 {
		t.Errorf("analysis cache hits = %v, want > 0", analysisStats)
	}
}

func TestPerformanceEndpointListsOperations(t *testing.T) {
	// Ensure at least one request was recorded.
	_ = decode[response.OrchestratedResponse](t, postJSON(t, "/api/v1/orchestrate", map[string]any{
		"prompt": "anything at all",
	}))

	resp, err := http.Get(testServer.URL + "/api/v1/performance")
	if err != nil {
		t.Fatal(err)
	}
	summary := decodeBody(t, resp)
	_ = resp.Body.Close()

	ops, _ := summary["operations"].(map[string]any)
	if _, ok := ops["orchestrator:process"]; !ok {
		t.Errorf("operations = %v, want orchestrator:process", ops)
	}
}
