package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "conclave.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "CONCLAVE_PORT")
	setString(&cfg.Server.CORSOrigin, "CONCLAVE_CORS_ORIGIN")
	setString(&cfg.Logging.Level, "CONCLAVE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "CONCLAVE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "CONCLAVE_LOG_ASYNC")
	setInt(&cfg.Logging.Buffer, "CONCLAVE_LOG_BUFFER")
	setInt(&cfg.Logging.Workers, "CONCLAVE_LOG_WORKERS")
	setBool(&cfg.Telemetry.Enabled, "CONCLAVE_OTEL_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "CONCLAVE_OTEL_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "CONCLAVE_OTEL_INSECURE")
	setInt(&cfg.Breaker.MaxFailures, "CONCLAVE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Cooldown, "CONCLAVE_BREAKER_COOLDOWN")
	setInt64(&cfg.Cache.MaxSizeBytes, "CONCLAVE_CACHE_MAX_SIZE_BYTES")
	setDuration(&cfg.Cache.AgentTTL, "CONCLAVE_CACHE_AGENT_TTL")
	setDuration(&cfg.Cache.ConsensusTTL, "CONCLAVE_CACHE_CONSENSUS_TTL")
	setInt(&cfg.Monitor.WindowSize, "CONCLAVE_MONITOR_WINDOW_SIZE")
	setBool(&cfg.Orchestrator.EnableParallelProcessing, "CONCLAVE_ORCH_PARALLEL")
	setBool(&cfg.Orchestrator.EnableCaching, "CONCLAVE_ORCH_CACHING")
	setBool(&cfg.Orchestrator.EnableCircuitBreaker, "CONCLAVE_ORCH_BREAKER")
	setDuration(&cfg.Orchestrator.MaxProcessingTime, "CONCLAVE_ORCH_MAX_PROCESSING_TIME")
	setInt(&cfg.Orchestrator.MaxConcurrentRequests, "CONCLAVE_ORCH_MAX_CONCURRENT")
	setDuration(&cfg.Orchestrator.QueueTimeout, "CONCLAVE_ORCH_QUEUE_TIMEOUT")
	setInt(&cfg.Orchestrator.MaxResponseHistory, "CONCLAVE_ORCH_MAX_HISTORY")
	setString(&cfg.Consensus.Strategy, "CONCLAVE_CONSENSUS_STRATEGY")
	setFloat64(&cfg.Consensus.Threshold, "CONCLAVE_CONSENSUS_THRESHOLD")
	setFloat64(&cfg.Consensus.DefaultWeight, "CONCLAVE_CONSENSUS_DEFAULT_WEIGHT")
	setFloat64(&cfg.Consensus.SimilarityThreshold, "CONCLAVE_CONSENSUS_SIMILARITY")
	setInt(&cfg.Consensus.MinSupporters, "CONCLAVE_CONSENSUS_MIN_SUPPORTERS")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Breaker.Cooldown <= 0 {
		return errors.New("breaker.cooldown must be positive")
	}
	if cfg.Orchestrator.MaxProcessingTime <= 0 {
		return errors.New("orchestrator.max_processing_time must be positive")
	}
	if cfg.Orchestrator.MaxConcurrentRequests < 0 {
		return errors.New("orchestrator.max_concurrent_requests must be >= 0")
	}
	if cfg.Orchestrator.MaxResponseHistory < 1 {
		return errors.New("orchestrator.max_response_history must be >= 1")
	}
	if cfg.Consensus.Threshold < 0 || cfg.Consensus.Threshold > 1 {
		return errors.New("consensus.threshold must be in [0,1]")
	}
	if cfg.Consensus.SimilarityThreshold < 0 || cfg.Consensus.SimilarityThreshold > 1 {
		return errors.New("consensus.similarity_threshold must be in [0,1]")
	}
	switch cfg.Consensus.Strategy {
	case "highest_confidence", "majority_vote", "hybrid_approach":
	default:
		return fmt.Errorf("consensus.strategy %q is not recognized", cfg.Consensus.Strategy)
	}
	for _, w := range cfg.Consensus.AgentWeights {
		if w < 0 {
			return errors.New("consensus.agent_weights must be >= 0")
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
