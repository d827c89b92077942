// Package config provides hierarchical configuration loading for conclave.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the conclave service.
type Config struct {
	Server       Server       `yaml:"server"`
	Logging      Logging      `yaml:"logging"`
	Telemetry    Telemetry    `yaml:"telemetry"`
	Breaker      Breaker      `yaml:"breaker"`
	Cache        Cache        `yaml:"cache"`
	Monitor      Monitor      `yaml:"monitor"`
	Orchestrator Orchestrator `yaml:"orchestrator"`
	Consensus    Consensus    `yaml:"consensus"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
	Buffer  int    `yaml:"buffer"`  // async channel capacity
	Workers int    `yaml:"workers"` // async drain goroutines
}

// Telemetry holds OpenTelemetry export configuration.
type Telemetry struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"` // OTLP gRPC endpoint, host:port
	Insecure bool   `yaml:"insecure"`
}

// Breaker holds per-agent circuit breaker configuration.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Cooldown    time.Duration `yaml:"cooldown"`
}

// Cache holds performance cache configuration.
type Cache struct {
	MaxSizeBytes int64         `yaml:"max_size_bytes"` // per cache instance
	AgentTTL     time.Duration `yaml:"agent_ttl"`
	ConsensusTTL time.Duration `yaml:"consensus_ttl"`
}

// Monitor holds performance monitor configuration.
type Monitor struct {
	WindowSize int                      `yaml:"window_size"` // rolling event window per operation
	Thresholds map[string]time.Duration `yaml:"thresholds"`  // bottleneck threshold per category
}

// Orchestrator holds request fan-out and resource configuration.
type Orchestrator struct {
	EnableParallelProcessing bool          `yaml:"enable_parallel_processing"`
	EnableCaching            bool          `yaml:"enable_caching"`
	EnableCircuitBreaker     bool          `yaml:"enable_circuit_breaker"`
	MaxProcessingTime        time.Duration `yaml:"max_processing_time"` // shared per-request agent deadline
	MaxConcurrentRequests    int           `yaml:"max_concurrent_requests"`
	QueueTimeout             time.Duration `yaml:"queue_timeout"` // max FIFO wait for a concurrency slot
	MaxResponseHistory       int           `yaml:"max_response_history"`
}

// Consensus holds conflict resolution configuration.
// Strategy is one of highest_confidence, majority_vote, hybrid_approach;
// highest_confidence is the canonical default.
type Consensus struct {
	Strategy            string             `yaml:"strategy"`
	Threshold           float64            `yaml:"threshold"`    // min weighted score for resolution success
	AgentWeights        map[string]float64 `yaml:"agent_weights"` // per-agent weight, default_weight otherwise
	DefaultWeight       float64            `yaml:"default_weight"`
	SimilarityThreshold float64            `yaml:"similarity_threshold"` // token-overlap ratio for agreement
	MinSupporters       int                `yaml:"min_supporters"`       // majority clusters in hybrid mode
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		Logging: Logging{
			Level:   "info",
			Service: "conclave-core",
			Buffer:  1024,
			Workers: 1,
		},
		Telemetry: Telemetry{
			Enabled:  false,
			Endpoint: "localhost:4317",
			Insecure: true,
		},
		Breaker: Breaker{
			MaxFailures: 3,
			Cooldown:    30 * time.Second,
		},
		Cache: Cache{
			MaxSizeBytes: 32 << 20,
			AgentTTL:     5 * time.Minute,
			ConsensusTTL: time.Minute,
		},
		Monitor: Monitor{
			WindowSize: 1000,
			Thresholds: map[string]time.Duration{
				"agent":     2 * time.Second,
				"cache":     50 * time.Millisecond,
				"consensus": 500 * time.Millisecond,
			},
		},
		Orchestrator: Orchestrator{
			EnableParallelProcessing: true,
			EnableCaching:            true,
			EnableCircuitBreaker:     true,
			MaxProcessingTime:        5 * time.Second,
			MaxConcurrentRequests:    32,
			QueueTimeout:             10 * time.Second,
			MaxResponseHistory:       500,
		},
		Consensus: Consensus{
			Strategy:            "highest_confidence",
			Threshold:           0.5,
			DefaultWeight:       1.0,
			SimilarityThreshold: 0.5,
			MinSupporters:       2,
		},
	}
}
