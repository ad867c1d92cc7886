// Package checkpoint provides CheckpointStore implementations for the
// Workflow Orchestrator (C5): an in-process map for tests and
// single-process runs, and a Postgres-backed store via bun for anything
// that needs to survive a process restart.
package checkpoint

import (
	"context"
	"sync"

	"github.com/quantpipeline/tradingagent/internal/domain"
)

// MemoryStore is a sync.RWMutex-guarded map keyed by workflow ID.
// Grounded on the teacher's storage.MemoryStore (internal/infrastructure/storage/memory.go):
// the same lock-map-per-resource shape, narrowed to the single
// WorkflowCheckpoint resource this domain persists.
type MemoryStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*domain.WorkflowCheckpoint
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{checkpoints: make(map[string]*domain.WorkflowCheckpoint)}
}

func (s *MemoryStore) Save(ctx context.Context, cp *domain.WorkflowCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *cp
	s.checkpoints[cp.WorkflowID] = &clone
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, workflowID string) (*domain.WorkflowCheckpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.checkpoints[workflowID]
	if !ok {
		return nil, nil
	}
	clone := *cp
	return &clone, nil
}

func (s *MemoryStore) Clear(ctx context.Context, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, workflowID)
	return nil
}
