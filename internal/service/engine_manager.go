package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// SessionEngine bundles the per-tenant pieces of the sync engine: the local
// cache behind its orchestrator and the agent-switch state machine on top.
type SessionEngine struct {
	Orchestrator *SessionOrchestrator
	Switcher     *AgentSwitcher
}

// EngineFactory builds a fresh engine for one institution.
type EngineFactory func(institutionID string) *SessionEngine

// EngineManager hands out one SessionEngine per institution, building and
// subscribing lazily on first use. Sessions from different institutions never
// share a cache or a feed subscription.
type EngineManager struct {
	mu      sync.Mutex
	engines map[string]*SessionEngine
	build   EngineFactory
	logger  *zap.Logger
}

// NewEngineManager constructs the manager around a factory.
func NewEngineManager(build EngineFactory, logger *zap.Logger) *EngineManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EngineManager{
		engines: make(map[string]*SessionEngine),
		build:   build,
		logger:  logger,
	}
}

// For returns the engine for the institution, creating it and opening its
// change-feed subscription on first use.
func (m *EngineManager) For(ctx context.Context, institutionID string) (*SessionEngine, error) {
	m.mu.Lock()
	engine, ok := m.engines[institutionID]
	if !ok {
		engine = m.build(institutionID)
		m.engines[institutionID] = engine
	}
	m.mu.Unlock()

	if !ok {
		if err := engine.Orchestrator.Subscribe(ctx, institutionID); err != nil {
			m.logger.Warn("change-feed subscription failed",
				zap.String("institution_id", institutionID),
				zap.Error(err))
		}
		engine.Orchestrator.FetchAll(ctx, institutionID)
	}
	return engine, nil
}

// Shutdown resets every engine, tearing down feed subscriptions.
func (m *EngineManager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, engine := range m.engines {
		engine.Orchestrator.Reset()
		delete(m.engines, id)
	}
}
