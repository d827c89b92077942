package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "conclave"

// StartOrchestrationSpan starts a span for a full orchestration request.
func StartOrchestrationSpan(ctx context.Context, platform string, agents int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "orchestrate",
		trace.WithAttributes(
			attribute.String("request.platform", platform),
			attribute.Int("request.agents", agents),
		),
	)
}

// StartAgentSpan starts a span for a single agent analysis.
func StartAgentSpan(ctx context.Context, agentID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "agent.analyze",
		trace.WithAttributes(
			attribute.String("agent.id", agentID),
		),
	)
}

// StartConsensusSpan starts a span for consensus resolution.
func StartConsensusSpan(ctx context.Context, strategy string, analyses int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "consensus",
		trace.WithAttributes(
			attribute.String("consensus.strategy", strategy),
			attribute.Int("consensus.analyses", analyses),
		),
	)
}
