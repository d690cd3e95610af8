package memory

import (
	"context"
	"sync"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
)

type MemoryAuditRepository struct {
	actions map[domain.StreamID][]*domain.AgentAction
	mu      sync.Mutex
}

func NewMemoryAuditRepository() ports.AuditRepository {
	return &MemoryAuditRepository{
		actions: make(map[domain.StreamID][]*domain.AgentAction),
	}
}

func (r *MemoryAuditRepository) Append(ctx context.Context, action *domain.AgentAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := *action
	entry.Seq = int64(len(r.actions[action.StreamID])) + 1
	action.Seq = entry.Seq
	r.actions[action.StreamID] = append(r.actions[action.StreamID], &entry)
	return nil
}

func (r *MemoryAuditRepository) ListByStream(ctx context.Context, streamID domain.StreamID, limit int) ([]*domain.AgentAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.actions[streamID]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	out := make([]*domain.AgentAction, 0, len(entries))
	for _, entry := range entries {
		copied := *entry
		out = append(out, &copied)
	}
	return out, nil
}
