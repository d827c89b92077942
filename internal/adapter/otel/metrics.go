package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "conclave"

// Metrics holds all Conclave metric instruments.
type Metrics struct {
	RequestsStarted   metric.Int64Counter
	RequestsCompleted metric.Int64Counter
	RequestsRejected  metric.Int64Counter
	AgentCalls        metric.Int64Counter
	AgentFailures     metric.Int64Counter
	BreakerOpens      metric.Int64Counter
	CacheHits         metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	ConsensusDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.RequestsStarted, err = meter.Int64Counter("conclave.requests.started",
		metric.WithDescription("Number of orchestration requests started"))
	if err != nil {
		return nil, err
	}

	m.RequestsCompleted, err = meter.Int64Counter("conclave.requests.completed",
		metric.WithDescription("Number of orchestration requests completed"))
	if err != nil {
		return nil, err
	}

	m.RequestsRejected, err = meter.Int64Counter("conclave.requests.rejected",
		metric.WithDescription("Number of requests rejected at admission"))
	if err != nil {
		return nil, err
	}

	m.AgentCalls, err = meter.Int64Counter("conclave.agent.calls",
		metric.WithDescription("Number of agent analyses attempted"))
	if err != nil {
		return nil, err
	}

	m.AgentFailures, err = meter.Int64Counter("conclave.agent.failures",
		metric.WithDescription("Number of agent analyses that failed or timed out"))
	if err != nil {
		return nil, err
	}

	m.BreakerOpens, err = meter.Int64Counter("conclave.breaker.opens",
		metric.WithDescription("Number of circuit breaker open transitions"))
	if err != nil {
		return nil, err
	}

	m.CacheHits, err = meter.Int64Counter("conclave.cache.hits",
		metric.WithDescription("Number of analysis cache hits"))
	if err != nil {
		return nil, err
	}

	m.RequestDuration, err = meter.Float64Histogram("conclave.request.duration_seconds",
		metric.WithDescription("End-to-end request duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.ConsensusDuration, err = meter.Float64Histogram("conclave.consensus.duration_seconds",
		metric.WithDescription("Consensus resolution duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
