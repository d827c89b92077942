// Package agent defines the port interface every pluggable analyzer must satisfy.
package agent

import (
	"context"

	"github.com/conclave-ai/conclave/internal/domain/analysis"
)

// Agent is the contract for an independent analyzer. Implementations must be
// safe for concurrent use: the orchestrator invokes all registered agents in
// parallel for every request.
//
// Analyze should convert internal faults into a degraded analysis
// (analysis.Degraded) rather than returning an error; the orchestrator still
// guards against returned errors and panics, substituting a degraded analysis
// so that per-agent failures never abort a request.
type Agent interface {
	// ID returns the stable identifier used for registration, weighting,
	// caching, and circuit breaking.
	ID() string

	// Analyze examines the request and proposes next-action suggestions.
	// It must honor ctx cancellation: the orchestrator abandons calls that
	// outlive the per-request deadline.
	Analyze(ctx context.Context, req analysis.Request) (*analysis.AgentAnalysis, error)

	// Capabilities is a pure, side-effect-free description of what the
	// agent analyzes.
	Capabilities() []analysis.Capability
}
