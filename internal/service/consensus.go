package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/conclave-ai/conclave/internal/config"
	"github.com/conclave-ai/conclave/internal/domain/analysis"
	"github.com/conclave-ai/conclave/internal/domain/consensus"
)

// ScoreTable collects every numeric rule the consensus engine applies so the
// scoring behavior is auditable in one place. No other component reads it.
type ScoreTable struct {
	// DefaultWeight is applied to agents without an explicit weight entry.
	DefaultWeight float64
	// SimilarityThreshold is the minimum token-overlap ratio (Jaccard over
	// whitespace tokens) for two same-type suggestions to count as agreeing.
	SimilarityThreshold float64
	// MinSupporters is the minimum cluster size the hybrid strategy accepts
	// before falling back to highest_confidence.
	MinSupporters int
}

// ConsensusEngine merges a set of agent analyses into agreements and
// disagreements and resolves them into one ranked answer.
//
// rank maps an agent id to its registration position (lower = registered
// earlier); it is the deterministic tie-break for equal scores.
type ConsensusEngine struct {
	strategy  consensus.Strategy
	threshold float64
	weights   map[string]float64
	table     ScoreTable
	rank      func(agentID string) int
}

// maxAlternatives caps the ranked alternatives attached to a resolution.
const maxAlternatives = 5

// NewConsensusEngine builds an engine from configuration. rank must return a
// stable registration index per agent id; unknown agents sort last.
func NewConsensusEngine(cfg config.Consensus, rank func(agentID string) int) *ConsensusEngine {
	weights := make(map[string]float64, len(cfg.AgentWeights))
	for id, w := range cfg.AgentWeights {
		weights[id] = w
	}
	return &ConsensusEngine{
		strategy:  consensus.Strategy(cfg.Strategy),
		threshold: cfg.Threshold,
		weights:   weights,
		table: ScoreTable{
			DefaultWeight:       cfg.DefaultWeight,
			SimilarityThreshold: cfg.SimilarityThreshold,
			MinSupporters:       cfg.MinSupporters,
		},
		rank: rank,
	}
}

// Weight returns the configured weight for an agent, or the default.
func (e *ConsensusEngine) Weight(agentID string) float64 {
	if w, ok := e.weights[agentID]; ok {
		return w
	}
	return e.table.DefaultWeight
}

// candidate pairs a suggestion with the agent that produced it.
type candidate struct {
	agent string
	sugg  analysis.Suggestion
}

// participating filters the analyses the engine considers: degraded
// (confidence 0) analyses carry no signal, and an analysis without
// suggestions has nothing to compare.
func participating(analyses []*analysis.AgentAnalysis) []*analysis.AgentAnalysis {
	var out []*analysis.AgentAnalysis
	for _, a := range analyses {
		if a != nil && a.Confidence > 0 && len(a.Suggestions) > 0 {
			out = append(out, a)
		}
	}
	return out
}

// BuildConsensus compares the top suggestion of every participating analysis
// pairwise and reports agreements, disagreements, and the overall strength.
func (e *ConsensusEngine) BuildConsensus(analyses []*analysis.AgentAnalysis) consensus.Result {
	parts := participating(analyses)

	res := consensus.Result{ParticipatingAgents: len(parts)}
	if len(parts) < 2 {
		// 0 or 1 contributing agent: strength is defined as 0.
		return res
	}

	tops := make([]candidate, 0, len(parts))
	for _, a := range parts {
		top := a.TopSuggestion()
		tops = append(tops, candidate{agent: a.AgentID, sugg: *top})
	}

	agreementPairs, disagreementPairs := 0, 0
	for i := 0; i < len(tops); i++ {
		for j := i + 1; j < len(tops); j++ {
			if e.agrees(tops[i].sugg, tops[j].sugg) {
				agreementPairs++
			} else {
				disagreementPairs++
				res.Disagreements = append(res.Disagreements, consensus.Disagreement{
					AgentA:      tops[i].agent,
					AgentB:      tops[j].agent,
					SuggestionA: tops[i].sugg,
					SuggestionB: tops[j].sugg,
				})
			}
		}
	}

	for _, cl := range e.cluster(tops) {
		if len(cl) < 2 {
			continue
		}
		agr := consensus.Agreement{
			Type:    cl[0].sugg.Type,
			Content: cl[0].sugg.Content,
		}
		for _, c := range cl {
			agr.Agents = append(agr.Agents, c.agent)
			agr.CombinedConfidence += c.sugg.Confidence
		}
		res.Agreements = append(res.Agreements, agr)
	}

	if total := agreementPairs + disagreementPairs; total > 0 {
		res.Strength = float64(agreementPairs) / float64(total)
	}
	return res
}

// agrees is the fixed similarity rule: same suggestion type and a normalized
// content overlap of at least SimilarityThreshold.
func (e *ConsensusEngine) agrees(a, b analysis.Suggestion) bool {
	if a.Type != b.Type {
		return false
	}
	return tokenOverlap(a.Content, b.Content) >= e.table.SimilarityThreshold
}

// cluster greedily groups candidates whose suggestions agree with a cluster's
// exemplar (its first member). Input order is preserved, keeping the grouping
// deterministic for a given analysis order.
func (e *ConsensusEngine) cluster(cands []candidate) [][]candidate {
	var clusters [][]candidate
next:
	for _, c := range cands {
		for i, cl := range clusters {
			if e.agrees(cl[0].sugg, c.sugg) {
				clusters[i] = append(cl, c)
				continue next
			}
		}
		clusters = append(clusters, []candidate{c})
	}
	return clusters
}

// Resolve turns a consensus result plus the full analysis set into a single
// primary suggestion with ranked alternatives, using the configured strategy.
func (e *ConsensusEngine) Resolve(res consensus.Result, analyses []*analysis.AgentAnalysis) consensus.Resolution {
	parts := participating(analyses)
	metrics := consensus.Metrics{
		Strength:            res.Strength,
		Agreements:          len(res.Agreements),
		Disagreements:       len(res.Disagreements),
		ParticipatingAgents: res.ParticipatingAgents,
	}

	if len(parts) == 0 {
		reason := "no agent produced a usable analysis"
		return consensus.Resolution{
			Best:      consensus.PlaceholderSuggestion(reason),
			Method:    consensus.MethodFallback,
			Reasoning: reason,
			Metrics:   metrics,
		}
	}

	var cands []candidate
	for _, a := range parts {
		for _, s := range a.Suggestions {
			if s.Source == "" {
				s.Source = a.AgentID
			}
			cands = append(cands, candidate{agent: a.AgentID, sugg: s})
		}
	}

	var winner candidate
	var method consensus.Method
	switch e.strategy {
	case consensus.StrategyMajorityVote:
		winner = e.resolveMajority(cands, 1)
		method = consensus.MethodMajorityVote
	case consensus.StrategyHybrid:
		if w, ok := e.tryMajority(cands, e.table.MinSupporters); ok {
			winner = w
		} else {
			winner = e.resolveHighestConfidence(cands)
		}
		method = consensus.MethodHybrid
	default:
		winner = e.resolveHighestConfidence(cands)
		method = consensus.MethodHighestConfidence
	}

	score := e.score(winner.sugg)
	metrics.ResolutionSuccess = score >= e.threshold

	resolution := consensus.Resolution{
		Best:       winner.sugg,
		Confidence: clamp01(score),
		Method:     method,
		Metrics:    metrics,
		Reasoning: fmt.Sprintf("%s: selected %q from agent %s (weighted score %.2f, %d participating, consensus strength %.2f)",
			method, winner.sugg.Content, winner.agent, score, res.ParticipatingAgents, res.Strength),
	}
	if !metrics.ResolutionSuccess {
		resolution.Reasoning += fmt.Sprintf("; weighted score below consensus threshold %.2f, result is degraded", e.threshold)
	}

	resolution.Alternatives, resolution.AlternativeReasons = e.rankAlternatives(cands, winner, score)
	return resolution
}

// score is the weighted confidence of a suggestion.
func (e *ConsensusEngine) score(s analysis.Suggestion) float64 {
	return e.Weight(s.Source) * s.Confidence
}

// less orders candidates for selection: higher weighted score first, then
// earlier-registered agent, then suggestion id. The registration-order rule
// makes equal-score picks reproducible across runs.
func (e *ConsensusEngine) less(a, b candidate) bool {
	sa, sb := e.score(a.sugg), e.score(b.sugg)
	if sa != sb {
		return sa > sb
	}
	ra, rb := e.rank(a.agent), e.rank(b.agent)
	if ra != rb {
		return ra < rb
	}
	return a.sugg.ID < b.sugg.ID
}

func (e *ConsensusEngine) resolveHighestConfidence(cands []candidate) candidate {
	best := cands[0]
	for _, c := range cands[1:] {
		if e.less(c, best) {
			best = c
		}
	}
	return best
}

// tryMajority picks the representative of the largest suggestion cluster with
// at least minSupporters distinct agents. Cluster ties break by summed
// confidence, then by the earliest-registered representative.
func (e *ConsensusEngine) tryMajority(cands []candidate, minSupporters int) (candidate, bool) {
	type scored struct {
		rep        candidate
		supporters int
		sumConf    float64
	}
	var best *scored
	for _, cl := range e.cluster(cands) {
		agents := make(map[string]struct{})
		sum := 0.0
		rep := cl[0]
		for _, c := range cl {
			agents[c.agent] = struct{}{}
			sum += c.sugg.Confidence
			if e.less(c, rep) {
				rep = c
			}
		}
		if len(agents) < minSupporters {
			continue
		}
		s := scored{rep: rep, supporters: len(agents), sumConf: sum}
		switch {
		case best == nil:
			best = &s
		case s.supporters > best.supporters:
			best = &s
		case s.supporters == best.supporters && s.sumConf > best.sumConf:
			best = &s
		case s.supporters == best.supporters && s.sumConf == best.sumConf && e.less(s.rep, best.rep):
			best = &s
		}
	}
	if best == nil {
		return candidate{}, false
	}
	return best.rep, true
}

func (e *ConsensusEngine) resolveMajority(cands []candidate, minSupporters int) candidate {
	w, _ := e.tryMajority(cands, minSupporters)
	return w
}

// rankAlternatives orders the losing suggestions by (priority, confidence)
// descending, caps them, and explains why each lost to the primary.
func (e *ConsensusEngine) rankAlternatives(cands []candidate, winner candidate, winnerScore float64) ([]analysis.Suggestion, map[string]string) {
	var rest []candidate
	for _, c := range cands {
		if c.sugg.ID == winner.sugg.ID && c.agent == winner.agent {
			continue
		}
		rest = append(rest, c)
	}

	sort.SliceStable(rest, func(i, j int) bool {
		pi, pj := rest[i].sugg.Priority.Rank(), rest[j].sugg.Priority.Rank()
		if pi != pj {
			return pi > pj
		}
		if rest[i].sugg.Confidence != rest[j].sugg.Confidence {
			return rest[i].sugg.Confidence > rest[j].sugg.Confidence
		}
		return e.rank(rest[i].agent) < e.rank(rest[j].agent)
	})

	if len(rest) > maxAlternatives {
		rest = rest[:maxAlternatives]
	}

	alts := make([]analysis.Suggestion, 0, len(rest))
	reasons := make(map[string]string, len(rest))
	for _, c := range rest {
		alts = append(alts, c.sugg)
		reasons[c.sugg.ID] = fmt.Sprintf("weighted score %.2f did not beat primary %.2f", e.score(c.sugg), winnerScore)
	}
	return alts, reasons
}

// tokenOverlap is the Jaccard similarity of the lower-cased whitespace token
// sets of two strings.
func tokenOverlap(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = struct{}{}
	}
	return set
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
