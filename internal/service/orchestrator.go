// Package service implements the orchestration core: fan-out to registered
// agents, consensus building, conflict resolution, caching, and the
// performance monitor.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/conclave-ai/conclave/internal/adapter/otel"
	"github.com/conclave-ai/conclave/internal/config"
	"github.com/conclave-ai/conclave/internal/domain/analysis"
	"github.com/conclave-ai/conclave/internal/domain/consensus"
	"github.com/conclave-ai/conclave/internal/domain/event"
	"github.com/conclave-ai/conclave/internal/domain/response"
	"github.com/conclave-ai/conclave/internal/port/agent"
	"github.com/conclave-ai/conclave/internal/port/broadcast"
	"github.com/conclave-ai/conclave/internal/resilience"
)

var (
	// ErrAgentNil is returned when a nil agent is registered.
	ErrAgentNil = errors.New("agent is nil")
	// ErrAgentIDEmpty is returned when an agent reports an empty id.
	ErrAgentIDEmpty = errors.New("agent id is empty")
	// ErrAgentExists is returned when an agent id is already registered.
	ErrAgentExists = errors.New("agent already registered")
	// ErrAgentNotFound is returned for operations on unknown agent ids.
	ErrAgentNotFound = errors.New("agent not registered")
	// ErrResponseNotFound is returned by transparency lookups on unknown ids.
	ErrResponseNotFound = errors.New("response not found")
)

// agentStats accumulates per-agent counters across requests.
type agentStats struct {
	totalAnalyses     int64
	failures          int64
	sumConfidence     float64
	sumProcessingTime time.Duration
	feedbackCount     int64
	acceptedCount     int64
}

// orchestratorStats accumulates process-wide counters.
type orchestratorStats struct {
	totalRequests      int64
	sumProcessingTime  time.Duration
	consensusSuccesses int64
	conflictRounds     int64
	conflictsResolved  int64
	feedbackCount      int64
	satisfactionSum    float64
}

// Orchestrator fans a request out to every registered agent, builds
// consensus over their analyses, and assembles one transparent response.
// Process never returns an error: every failure path degrades into a
// response that says what went wrong.
type Orchestrator struct {
	cfg     config.Orchestrator
	engine  *ConsensusEngine
	monitor *Monitor

	breakers       *resilience.Registry
	analysisCache  *AnalysisCache
	consensusCache *ConsensusCache
	hub            broadcast.Broadcaster
	telemetry      *otel.Metrics // nil when export is disabled

	// sem bounds concurrent Process calls; waiters are served in FIFO order.
	sem *semaphore.Weighted

	regMu    sync.RWMutex
	agents   []agent.Agent
	order    map[string]int // agent id -> registration rank
	nextRank int

	history *responseHistory

	statsMu sync.Mutex
	stats   orchestratorStats
	byAgent map[string]*agentStats

	now func() time.Time // for testing
}

// NewOrchestrator wires the orchestrator from configuration. hub may be nil
// when no real-time streaming is wanted; telemetry may be nil.
func NewOrchestrator(cfg *config.Config, analysisCache *AnalysisCache, consensusCache *ConsensusCache, hub broadcast.Broadcaster, telemetry *otel.Metrics) *Orchestrator {
	maxConcurrent := cfg.Orchestrator.MaxConcurrentRequests
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	o := &Orchestrator{
		cfg:            cfg.Orchestrator,
		monitor:        NewMonitor(cfg.Monitor),
		breakers:       resilience.NewRegistry(cfg.Breaker.MaxFailures, cfg.Breaker.Cooldown),
		analysisCache:  analysisCache,
		consensusCache: consensusCache,
		hub:            hub,
		telemetry:      telemetry,
		sem:            semaphore.NewWeighted(int64(maxConcurrent)),
		order:          make(map[string]int),
		history:        newResponseHistory(cfg.Orchestrator.MaxResponseHistory),
		byAgent:        make(map[string]*agentStats),
		now:            time.Now,
	}
	o.engine = NewConsensusEngine(cfg.Consensus, o.Rank)
	return o
}

// Rank returns the registration position of an agent id; unknown ids sort
// after every registered agent. It is the tie-break the consensus engine uses.
func (o *Orchestrator) Rank(agentID string) int {
	o.regMu.RLock()
	defer o.regMu.RUnlock()
	if r, ok := o.order[agentID]; ok {
		return r
	}
	return int(^uint(0) >> 1)
}

// RegisterAgent adds an agent to the fan-out set. Registration order is
// stable and doubles as the deterministic tie-break rank.
func (o *Orchestrator) RegisterAgent(ag agent.Agent) error {
	if ag == nil {
		return ErrAgentNil
	}
	id := ag.ID()
	if id == "" {
		return ErrAgentIDEmpty
	}

	o.regMu.Lock()
	if _, ok := o.order[id]; ok {
		o.regMu.Unlock()
		return fmt.Errorf("%w: %s", ErrAgentExists, id)
	}
	o.agents = append(o.agents, ag)
	o.order[id] = o.nextRank
	o.nextRank++
	o.regMu.Unlock()

	slog.Info("registered agent", "agent_id", id, "capabilities", len(ag.Capabilities()))
	o.broadcast(event.TypeAgentStatus, event.AgentStatus{AgentID: id, Status: "registered"})
	return nil
}

// UnregisterAgent removes an agent and its breaker and accumulated stats.
func (o *Orchestrator) UnregisterAgent(id string) error {
	o.regMu.Lock()
	if _, ok := o.order[id]; !ok {
		o.regMu.Unlock()
		return fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	delete(o.order, id)
	for i, ag := range o.agents {
		if ag.ID() == id {
			o.agents = append(o.agents[:i], o.agents[i+1:]...)
			break
		}
	}
	o.regMu.Unlock()

	o.breakers.Remove(id)
	o.statsMu.Lock()
	delete(o.byAgent, id)
	o.statsMu.Unlock()

	slog.Info("unregistered agent", "agent_id", id)
	o.broadcast(event.TypeAgentStatus, event.AgentStatus{AgentID: id, Status: "unregistered"})
	return nil
}

// AgentInfo describes one registered agent for listing endpoints.
type AgentInfo struct {
	ID           string                `json:"id"`
	Capabilities []analysis.Capability `json:"capabilities"`
	Weight       float64               `json:"weight"`
}

// Agents lists the registered agents in registration order.
func (o *Orchestrator) Agents() []AgentInfo {
	o.regMu.RLock()
	defer o.regMu.RUnlock()

	out := make([]AgentInfo, 0, len(o.agents))
	for _, ag := range o.agents {
		out = append(out, AgentInfo{
			ID:           ag.ID(),
			Capabilities: ag.Capabilities(),
			Weight:       o.engine.Weight(ag.ID()),
		})
	}
	return out
}

// outcome is the per-agent result of one fan-out round.
type outcome struct {
	analysis  *analysis.AgentAnalysis
	fromCache bool
	failure   string // empty on success
	elapsed   time.Duration
}

// Process runs the full orchestration pipeline for one request. It always
// returns a response: failures inside agents, the consensus engine, or the
// orchestrator itself produce a degraded response, never an error or a panic.
func (o *Orchestrator) Process(ctx context.Context, req analysis.Request) (resp *response.OrchestratedResponse) {
	start := o.now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("orchestrator panic recovered", "panic", r)
			resp = o.degradedResponse(start, consensus.MethodOrchestratorError,
				fmt.Sprintf("internal orchestration fault: %v", r), nil)
		}
	}()

	if o.telemetry != nil {
		o.telemetry.RequestsStarted.Add(ctx, 1)
	}

	o.regMu.RLock()
	agents := make([]agent.Agent, len(o.agents))
	copy(agents, o.agents)
	o.regMu.RUnlock()

	if len(agents) == 0 {
		return o.degradedResponse(start, consensus.MethodNoAgents, "no agents registered", nil)
	}

	if err := o.acquireSlot(ctx); err != nil {
		if o.telemetry != nil {
			o.telemetry.RequestsRejected.Add(ctx, 1)
		}
		reason := fmt.Sprintf("request queue full: waited %s for a slot", o.cfg.QueueTimeout)
		if ctxErr := ctx.Err(); ctxErr != nil {
			reason = fmt.Sprintf("request abandoned while queued: %v", ctxErr)
		}
		return o.degradedResponse(start, consensus.MethodCapacityExceeded, reason, nil)
	}
	defer o.sem.Release(1)

	ctx, span := otel.StartOrchestrationSpan(ctx, req.Context.Platform, len(agents))
	defer span.End()

	outcomes := o.fanOut(ctx, agents, req)

	analyses := make([]*analysis.AgentAnalysis, len(outcomes))
	for i, oc := range outcomes {
		analyses[i] = oc.analysis
	}

	consensusStart := o.now()
	res, resolution := o.resolve(ctx, analyses)
	consensusTime := o.now().Sub(consensusStart)
	o.monitor.Record("consensus:resolve", consensusTime, resolution.Method != consensus.MethodOrchestratorError, map[string]string{
		"method": string(resolution.Method),
	})
	if o.telemetry != nil {
		o.telemetry.ConsensusDuration.Record(ctx, consensusTime.Seconds())
	}

	resp = o.assemble(start, agents, outcomes, res, resolution, consensusTime)

	o.history.Add(resp)
	o.recordRequestStats(resp, outcomes)
	o.monitor.Record("orchestrator:process", resp.Processing.TotalTime, resolution.Metrics.ResolutionSuccess, nil)

	if o.telemetry != nil {
		o.telemetry.RequestsCompleted.Add(ctx, 1)
		o.telemetry.RequestDuration.Record(ctx, resp.Processing.TotalTime.Seconds())
	}
	o.broadcast(event.TypeRequestCompleted, event.RequestCompleted{
		ResponseID:       resp.ID,
		Confidence:       resp.Confidence,
		ResolutionMethod: string(resolution.Method),
		ProcessingMs:     resp.Processing.TotalTime.Milliseconds(),
		Agents:           len(agents),
	})
	return resp
}

// acquireSlot waits FIFO for a concurrency slot, up to the queue timeout.
// A non-nil error means either the queue-timeout context expired or the
// caller's own context ended while waiting.
func (o *Orchestrator) acquireSlot(ctx context.Context) error {
	waitCtx := ctx
	if o.cfg.QueueTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, o.cfg.QueueTimeout)
		defer cancel()
	}
	return o.sem.Acquire(waitCtx, 1)
}

// fanOut invokes every agent under a shared deadline and returns one outcome
// per agent, in registration order. With parallel processing disabled the
// agents run sequentially under the same shared deadline.
func (o *Orchestrator) fanOut(ctx context.Context, agents []agent.Agent, req analysis.Request) []outcome {
	deadline := o.cfg.MaxProcessingTime
	if deadline <= 0 {
		deadline = 5 * time.Second
	}
	fanCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	outcomes := make([]outcome, len(agents))
	if !o.cfg.EnableParallelProcessing {
		for i, ag := range agents {
			outcomes[i] = o.analyzeOne(fanCtx, ag, req)
		}
		return outcomes
	}

	var wg sync.WaitGroup
	for i, ag := range agents {
		wg.Add(1)
		go func(i int, ag agent.Agent) {
			defer wg.Done()
			outcomes[i] = o.analyzeOne(fanCtx, ag, req)
		}(i, ag)
	}
	wg.Wait()
	return outcomes
}

// analyzeOne runs a single agent: cache lookup, breaker gate, guarded
// invocation with deadline abandonment, then breaker and monitor updates.
// The cache is consulted before the breaker: a cached analysis needs no
// breaker decision and must not use up the single half-open admission.
// It never returns a nil analysis.
func (o *Orchestrator) analyzeOne(ctx context.Context, ag agent.Agent, req analysis.Request) outcome {
	id := ag.ID()
	start := o.now()

	if o.cfg.EnableCaching && o.analysisCache != nil {
		cacheStart := o.now()
		cached, hit := o.analysisCache.Get(ctx, id, req)
		o.monitor.Record("cache:analysis_get", o.now().Sub(cacheStart), true, nil)
		if hit {
			if o.telemetry != nil {
				o.telemetry.CacheHits.Add(ctx, 1)
			}
			return outcome{analysis: cached, fromCache: true, elapsed: o.now().Sub(start)}
		}
	}

	if o.cfg.EnableCircuitBreaker && !o.breakers.Allow(id) {
		slog.Debug("skipping agent, circuit open", "agent_id", id)
		return outcome{
			analysis: analysis.Degraded(id, "circuit breaker open"),
			failure:  "circuit breaker open",
			elapsed:  o.now().Sub(start),
		}
	}

	if o.telemetry != nil {
		o.telemetry.AgentCalls.Add(ctx, 1)
	}

	callCtx, span := otel.StartAgentSpan(ctx, id)
	a, err := o.invoke(callCtx, ag, req)
	span.End()
	elapsed := o.now().Sub(start)

	if err != nil {
		o.recordAgentFailure(ctx, id, err)
		o.monitor.Record("agent:"+id, elapsed, false, map[string]string{"error": err.Error()})
		return outcome{
			analysis: analysis.Degraded(id, err.Error()),
			failure:  err.Error(),
			elapsed:  elapsed,
		}
	}

	sanitize(a, id, elapsed)

	if o.cfg.EnableCircuitBreaker {
		if o.breakers.RecordSuccess(id) {
			o.broadcast(event.TypeBreakerState, event.BreakerState{AgentID: id, Open: false})
		}
	}
	o.monitor.Record("agent:"+id, elapsed, true, nil)

	if o.cfg.EnableCaching && o.analysisCache != nil {
		o.analysisCache.Put(ctx, id, req, a)
	}
	return outcome{analysis: a, elapsed: elapsed}
}

// invoke calls the agent in its own goroutine so the orchestrator can abandon
// calls that outlive the shared deadline. A panic inside the agent is
// converted into an error.
func (o *Orchestrator) invoke(ctx context.Context, ag agent.Agent, req analysis.Request) (*analysis.AgentAnalysis, error) {
	type callResult struct {
		a   *analysis.AgentAnalysis
		err error
	}
	// Buffered so an abandoned call can still complete and exit.
	ch := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- callResult{err: fmt.Errorf("agent panic: %v", r)}
			}
		}()
		a, err := ag.Analyze(ctx, req)
		ch <- callResult{a: a, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		if r.a == nil {
			return nil, errors.New("agent returned no analysis")
		}
		return r.a, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("analysis abandoned: %w", ctx.Err())
	}
}

func (o *Orchestrator) recordAgentFailure(ctx context.Context, id string, err error) {
	slog.Warn("agent analysis failed", "agent_id", id, "error", err)
	if o.telemetry != nil {
		o.telemetry.AgentFailures.Add(ctx, 1)
	}
	if !o.cfg.EnableCircuitBreaker {
		return
	}
	if o.breakers.RecordFailure(id) {
		slog.Warn("circuit breaker opened", "agent_id", id)
		if o.telemetry != nil {
			o.telemetry.BreakerOpens.Add(ctx, 1)
		}
		o.broadcast(event.TypeBreakerState, event.BreakerState{AgentID: id, Open: true})
	}
}

// sanitize enforces the analysis invariants before it enters consensus:
// the agent id matches, confidences are clamped to [0,1], and the
// processing time reflects what the orchestrator measured.
func sanitize(a *analysis.AgentAnalysis, id string, elapsed time.Duration) {
	a.AgentID = id
	a.Confidence = clamp01(a.Confidence)
	a.ProcessingTime = elapsed
	for i := range a.Suggestions {
		a.Suggestions[i].Confidence = clamp01(a.Suggestions[i].Confidence)
		if a.Suggestions[i].Source == "" {
			a.Suggestions[i].Source = id
		}
	}
}

// resolve builds consensus and resolves conflicts, consulting the consensus
// cache first. A panic inside the engine degrades into an error resolution.
func (o *Orchestrator) resolve(ctx context.Context, analyses []*analysis.AgentAnalysis) (res consensus.Result, resolution consensus.Resolution) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("consensus engine panic recovered", "panic", r)
			reason := fmt.Sprintf("consensus fault: %v", r)
			res = consensus.Result{}
			resolution = consensus.Resolution{
				Best:      consensus.PlaceholderSuggestion(reason),
				Method:    consensus.MethodOrchestratorError,
				Reasoning: reason,
			}
		}
	}()

	if o.cfg.EnableCaching && o.consensusCache != nil {
		if res, resolution, ok := o.consensusCache.Get(ctx, analyses); ok {
			return res, resolution
		}
	}

	_, span := otel.StartConsensusSpan(ctx, string(o.engine.strategy), len(analyses))
	res = o.engine.BuildConsensus(analyses)
	resolution = o.engine.Resolve(res, analyses)
	span.End()

	if o.cfg.EnableCaching && o.consensusCache != nil {
		o.consensusCache.Put(ctx, analyses, res, resolution)
	}
	return res, resolution
}

// assemble builds the final response with full transparency data.
func (o *Orchestrator) assemble(start time.Time, agents []agent.Agent, outcomes []outcome, res consensus.Result, resolution consensus.Resolution, consensusTime time.Duration) *response.OrchestratedResponse {
	total := o.now().Sub(start)

	usedSources := map[string]bool{resolution.Best.Source: true}
	for _, alt := range resolution.Alternatives {
		usedSources[alt.Source] = true
	}

	degraded := 0
	perAgent := make(map[string]time.Duration, len(outcomes))
	contributions := make([]response.AgentContribution, 0, len(outcomes))
	breakdown := make(map[string]float64, len(outcomes))
	var insights []analysis.Insight
	var sumAgentTime time.Duration

	for i, oc := range outcomes {
		id := agents[i].ID()
		a := oc.analysis
		if oc.failure != "" {
			degraded++
		}
		perAgent[id] = oc.elapsed
		sumAgentTime += oc.elapsed
		contributions = append(contributions, response.AgentContribution{
			AgentID:         id,
			Weight:          o.engine.Weight(id),
			Confidence:      a.Confidence,
			SuggestionCount: len(a.Suggestions),
			Used:            usedSources[id] && oc.failure == "",
			FromCache:       oc.fromCache,
			FailureReason:   oc.failure,
			ProcessingTime:  oc.elapsed,
		})
		breakdown[id] = o.engine.Weight(id) * a.Confidence
		insights = append(insights, a.Insights...)
	}

	// Parallel efficiency compares the summed agent time against the wall
	// time the fan-out could have used; 1.0 means perfectly overlapped.
	efficiency := 0.0
	if total > 0 && len(outcomes) > 0 {
		efficiency = clamp01(float64(sumAgentTime) / (float64(total) * float64(len(outcomes))))
	}

	process := []string{
		fmt.Sprintf("collected %d agent analyses (%d degraded)", len(outcomes), degraded),
		fmt.Sprintf("built consensus: strength %.2f across %d participating agents, %d agreements, %d disagreements",
			res.Strength, res.ParticipatingAgents, len(res.Agreements), len(res.Disagreements)),
		fmt.Sprintf("resolved via %s: %s", resolution.Method, resolution.Reasoning),
	}

	return &response.OrchestratedResponse{
		ID:           uuid.NewString(),
		Timestamp:    start,
		Primary:      resolution.Best,
		Alternatives: resolution.Alternatives,
		Confidence:   resolution.Confidence,
		Method:       resolution.Method,
		Reasoning:    resolution.Reasoning,
		Insights:     insights,
		Consensus:    resolution.Metrics,
		Processing: response.ProcessingMetrics{
			TotalTime:          total,
			PerAgentTime:       perAgent,
			ConsensusTime:      consensusTime,
			ParallelEfficiency: efficiency,
		},
		Transparency: response.Transparency{
			DecisionProcess:     process,
			AgentContributions:  contributions,
			ConfidenceBreakdown: breakdown,
			AlternativeReasons:  resolution.AlternativeReasons,
		},
	}
}

// degradedResponse is the answer for requests that never reached the agents:
// zero registered agents, capacity rejection, or an internal fault.
func (o *Orchestrator) degradedResponse(start time.Time, method consensus.Method, reason string, contributions []response.AgentContribution) *response.OrchestratedResponse {
	total := o.now().Sub(start)
	resp := &response.OrchestratedResponse{
		ID:         uuid.NewString(),
		Timestamp:  start,
		Primary:    consensus.PlaceholderSuggestion(reason),
		Confidence: 0,
		Method:     method,
		Reasoning:  reason,
		Consensus: consensus.Metrics{
			ParticipatingAgents: 0,
			ResolutionSuccess:   false,
		},
		Processing: response.ProcessingMetrics{
			TotalTime:    total,
			PerAgentTime: map[string]time.Duration{},
		},
		Transparency: response.Transparency{
			DecisionProcess: []string{
				"collected 0 agent analyses (0 degraded)",
				fmt.Sprintf("skipped consensus: %s", reason),
				fmt.Sprintf("resolved via %s: %s", method, reason),
			},
			AgentContributions:  contributions,
			ConfidenceBreakdown: map[string]float64{},
		},
	}

	o.history.Add(resp)
	o.statsMu.Lock()
	o.stats.totalRequests++
	o.stats.sumProcessingTime += total
	o.statsMu.Unlock()
	o.monitor.Record("orchestrator:process", total, false, map[string]string{"method": string(method)})
	o.broadcast(event.TypeRequestCompleted, event.RequestCompleted{
		ResponseID:       resp.ID,
		ResolutionMethod: string(method),
		ProcessingMs:     total.Milliseconds(),
	})
	return resp
}

// recordRequestStats folds one completed request into the running counters.
func (o *Orchestrator) recordRequestStats(resp *response.OrchestratedResponse, outcomes []outcome) {
	o.statsMu.Lock()
	defer o.statsMu.Unlock()

	o.stats.totalRequests++
	o.stats.sumProcessingTime += resp.Processing.TotalTime
	if resp.Consensus.ResolutionSuccess {
		o.stats.consensusSuccesses++
	}
	if resp.Consensus.Disagreements > 0 {
		o.stats.conflictRounds++
		if resp.Consensus.ResolutionSuccess {
			o.stats.conflictsResolved++
		}
	}

	for _, oc := range outcomes {
		st := o.agentStatsLocked(oc.analysis.AgentID)
		st.totalAnalyses++
		st.sumConfidence += oc.analysis.Confidence
		st.sumProcessingTime += oc.elapsed
		if oc.failure != "" {
			st.failures++
		}
	}
}

func (o *Orchestrator) agentStatsLocked(id string) *agentStats {
	st, ok := o.byAgent[id]
	if !ok {
		st = &agentStats{}
		o.byAgent[id] = st
	}
	return st
}

// RecordFeedback correlates user feedback with a past response and folds it
// into satisfaction and per-agent acceptance metrics. Feedback for an
// unknown response id is logged and dropped without error.
func (o *Orchestrator) RecordFeedback(ctx context.Context, fb response.Feedback) error {
	if err := fb.Validate(); err != nil {
		return fmt.Errorf("validate feedback: %w", err)
	}

	resp, ok := o.history.Get(fb.ResponseID)
	if !ok {
		slog.Warn("feedback for unknown response", "response_id", fb.ResponseID)
		return nil
	}

	o.statsMu.Lock()
	o.stats.feedbackCount++
	o.stats.satisfactionSum += float64(fb.Rating) / 5.0
	for _, c := range resp.Transparency.AgentContributions {
		if !c.Used {
			continue
		}
		st := o.agentStatsLocked(c.AgentID)
		st.feedbackCount++
		if fb.Accepted {
			st.acceptedCount++
		}
	}
	o.statsMu.Unlock()

	slog.Info("recorded feedback", "response_id", fb.ResponseID, "rating", fb.Rating, "accepted", fb.Accepted)
	o.broadcast(event.TypeFeedback, event.Feedback{
		ResponseID: fb.ResponseID,
		Rating:     fb.Rating,
		Accepted:   fb.Accepted,
	})
	return nil
}

// Metrics returns a snapshot of the process-wide orchestration counters.
func (o *Orchestrator) Metrics() response.OrchestrationMetrics {
	o.statsMu.Lock()
	defer o.statsMu.Unlock()

	m := response.OrchestrationMetrics{
		TotalRequests: o.stats.totalRequests,
		FeedbackCount: o.stats.feedbackCount,
		Agents:        make(map[string]response.AgentMetrics, len(o.byAgent)),
	}
	if o.stats.totalRequests > 0 {
		m.AverageProcessingTime = o.stats.sumProcessingTime / time.Duration(o.stats.totalRequests)
		m.ConsensusSuccessRate = float64(o.stats.consensusSuccesses) / float64(o.stats.totalRequests)
	}
	if o.stats.conflictRounds > 0 {
		m.ConflictResolutionRate = float64(o.stats.conflictsResolved) / float64(o.stats.conflictRounds)
	}
	if o.stats.feedbackCount > 0 {
		m.UserSatisfactionScore = o.stats.satisfactionSum / float64(o.stats.feedbackCount)
	}

	for id, st := range o.byAgent {
		am := response.AgentMetrics{
			TotalAnalyses: st.totalAnalyses,
			Failures:      st.failures,
			FeedbackCount: st.feedbackCount,
			AcceptedCount: st.acceptedCount,
		}
		if st.totalAnalyses > 0 {
			am.AverageConfidence = st.sumConfidence / float64(st.totalAnalyses)
			am.AverageProcessingTime = st.sumProcessingTime / time.Duration(st.totalAnalyses)
			am.ErrorRate = float64(st.failures) / float64(st.totalAnalyses)
		}
		if st.feedbackCount > 0 {
			am.AcceptanceRate = float64(st.acceptedCount) / float64(st.feedbackCount)
		}
		m.Agents[id] = am
	}
	return m
}

// TransparencyInfo returns the decision transparency for a past response.
func (o *Orchestrator) TransparencyInfo(responseID string) (*response.Transparency, error) {
	resp, ok := o.history.Get(responseID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResponseNotFound, responseID)
	}
	t := resp.Transparency
	return &t, nil
}

// PerformanceSummary returns the monitor's current latency snapshot.
func (o *Orchestrator) PerformanceSummary() PerformanceSummary {
	return o.monitor.Summary()
}

// BreakerStates returns the circuit breaker state per agent id.
func (o *Orchestrator) BreakerStates() map[string]resilience.State {
	return o.breakers.Snapshot()
}

// CachePerformance reports hit/miss counts for both performance caches.
type CachePerformance struct {
	Analysis  CacheStats `json:"analysis"`
	Consensus CacheStats `json:"consensus"`
}

// CacheStats returns hit/miss counters for the analysis and consensus caches.
func (o *Orchestrator) CacheStats() CachePerformance {
	var cp CachePerformance
	if o.analysisCache != nil {
		cp.Analysis = o.analysisCache.Stats()
	}
	if o.consensusCache != nil {
		cp.Consensus = o.consensusCache.Stats()
	}
	return cp
}

// SetClock overrides the time source for the orchestrator and its breakers.
// Test helper.
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
	o.breakers.SetClock(now)
	o.monitor.now = now
}

func (o *Orchestrator) broadcast(eventType string, payload any) {
	if o.hub == nil {
		return
	}
	o.hub.BroadcastEvent(context.Background(), eventType, payload)
}
