package main

import (
	"github.com/conclave-ai/conclave/internal/adapter/heuristic"
	"github.com/conclave-ai/conclave/internal/port/agent"
	"github.com/conclave-ai/conclave/internal/service"
)

// registerBuiltinAgents wires the rule-based built-in agents. Registration
// order is stable: it doubles as the tie-break order in consensus.
func registerBuiltinAgents(orch *service.Orchestrator) error {
	agents := []agent.Agent{
		heuristic.NewKeywordAgent(),
		heuristic.NewPhaseAgent(),
		heuristic.NewRecencyAgent(),
	}
	for _, ag := range agents {
		if err := orch.RegisterAgent(ag); err != nil {
			return err
		}
	}
	return nil
}
