package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/conclave-ai/conclave/internal/domain/analysis"
	"github.com/conclave-ai/conclave/internal/domain/consensus"
	"github.com/conclave-ai/conclave/internal/port/cache"
)

// CacheStats reports hit/miss counts for one performance cache.
type CacheStats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// AnalysisCache memoizes per-agent analyses keyed by agent id and the
// normalized request. A corrupt entry is treated as a miss: it is logged,
// dropped, and the request proceeds to the agent.
type AnalysisCache struct {
	backend cache.Cache
	ttl     time.Duration
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// NewAnalysisCache wraps the backend with the agent-response TTL.
func NewAnalysisCache(backend cache.Cache, ttl time.Duration) *AnalysisCache {
	return &AnalysisCache{backend: backend, ttl: ttl}
}

func analysisKey(agentID string, req analysis.Request) string {
	return fmt.Sprintf("agent:%s:%x", agentID, xxhash.Sum64String(req.Normalized()))
}

// Get returns a cached analysis for the agent and request, if fresh.
func (c *AnalysisCache) Get(ctx context.Context, agentID string, req analysis.Request) (*analysis.AgentAnalysis, bool) {
	key := analysisKey(agentID, req)
	data, found, err := c.backend.Get(ctx, key)
	if err != nil || !found {
		c.misses.Add(1)
		return nil, false
	}

	var a analysis.AgentAnalysis
	if err := json.Unmarshal(data, &a); err != nil {
		slog.Warn("corrupt agent cache entry, treating as miss", "agent_id", agentID, "error", err)
		_ = c.backend.Delete(ctx, key)
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return &a, true
}

// Put stores an analysis under the agent/request key.
func (c *AnalysisCache) Put(ctx context.Context, agentID string, req analysis.Request, a *analysis.AgentAnalysis) {
	data, err := json.Marshal(a)
	if err != nil {
		slog.Warn("marshal analysis for cache", "agent_id", agentID, "error", err)
		return
	}
	if err := c.backend.Set(ctx, analysisKey(agentID, req), data, c.ttl); err != nil {
		slog.Warn("store analysis in cache", "agent_id", agentID, "error", err)
	}
}

// Clear drops every cached analysis.
func (c *AnalysisCache) Clear(ctx context.Context) {
	_ = c.backend.Clear(ctx)
}

// Stats returns hit/miss counts.
func (c *AnalysisCache) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// ConsensusCache memoizes resolved consensus rounds keyed by an
// order-independent fingerprint of the contributing analysis set.
type ConsensusCache struct {
	backend cache.Cache
	ttl     time.Duration
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// NewConsensusCache wraps the backend with the consensus TTL.
func NewConsensusCache(backend cache.Cache, ttl time.Duration) *ConsensusCache {
	return &ConsensusCache{backend: backend, ttl: ttl}
}

// cachedConsensus is the stored pair of consensus result and resolution.
type cachedConsensus struct {
	Result     consensus.Result     `json:"result"`
	Resolution consensus.Resolution `json:"resolution"`
}

// Fingerprint derives a key from the analysis set that does not depend on
// collection order: per-analysis digests are sorted before hashing.
func Fingerprint(analyses []*analysis.AgentAnalysis) string {
	parts := make([]string, 0, len(analyses))
	for _, a := range analyses {
		if a == nil {
			continue
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s|%.4f", a.AgentID, a.Confidence)
		for _, s := range a.Suggestions {
			fmt.Fprintf(&sb, "|%s:%s:%.4f", s.Type, s.Content, s.Confidence)
		}
		parts = append(parts, sb.String())
	}
	sort.Strings(parts)
	return fmt.Sprintf("consensus:%x", xxhash.Sum64String(strings.Join(parts, "\n")))
}

// Get returns the cached result/resolution pair for the analysis set.
func (c *ConsensusCache) Get(ctx context.Context, analyses []*analysis.AgentAnalysis) (consensus.Result, consensus.Resolution, bool) {
	key := Fingerprint(analyses)
	data, found, err := c.backend.Get(ctx, key)
	if err != nil || !found {
		c.misses.Add(1)
		return consensus.Result{}, consensus.Resolution{}, false
	}

	var entry cachedConsensus
	if err := json.Unmarshal(data, &entry); err != nil {
		slog.Warn("corrupt consensus cache entry, treating as miss", "error", err)
		_ = c.backend.Delete(ctx, key)
		c.misses.Add(1)
		return consensus.Result{}, consensus.Resolution{}, false
	}

	c.hits.Add(1)
	return entry.Result, entry.Resolution, true
}

// Put stores the result/resolution pair for the analysis set.
func (c *ConsensusCache) Put(ctx context.Context, analyses []*analysis.AgentAnalysis, res consensus.Result, resolution consensus.Resolution) {
	data, err := json.Marshal(cachedConsensus{Result: res, Resolution: resolution})
	if err != nil {
		slog.Warn("marshal consensus for cache", "error", err)
		return
	}
	if err := c.backend.Set(ctx, Fingerprint(analyses), data, c.ttl); err != nil {
		slog.Warn("store consensus in cache", "error", err)
	}
}

// Clear drops every cached consensus round.
func (c *ConsensusCache) Clear(ctx context.Context) {
	_ = c.backend.Clear(ctx)
}

// Stats returns hit/miss counts.
func (c *ConsensusCache) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}
