package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
)

const (
	auditLogKeyPrefix = "stagecast:audit:"
	auditSeqKeyPrefix = "stagecast:audit:seq:"
)

type RedisAuditRepository struct {
	client *redis.Client
}

func NewRedisAuditRepository(client *redis.Client) ports.AuditRepository {
	return &RedisAuditRepository{client: client}
}

func (r *RedisAuditRepository) Append(ctx context.Context, action *domain.AgentAction) error {
	seq, err := r.client.Incr(ctx, auditSeqKeyPrefix+string(action.StreamID)).Result()
	if err != nil {
		return fmt.Errorf("failed to assign audit seq: %w", err)
	}
	action.Seq = seq

	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to marshal audit action: %w", err)
	}

	if err := r.client.RPush(ctx, auditLogKeyPrefix+string(action.StreamID), data).Err(); err != nil {
		return fmt.Errorf("failed to append audit action: %w", err)
	}

	return nil
}

func (r *RedisAuditRepository) ListByStream(ctx context.Context, streamID domain.StreamID, limit int) ([]*domain.AgentAction, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	entries, err := r.client.LRange(ctx, auditLogKeyPrefix+string(streamID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list audit actions: %w", err)
	}

	actions := make([]*domain.AgentAction, 0, len(entries))
	for _, entry := range entries {
		var action domain.AgentAction
		if err := json.Unmarshal([]byte(entry), &action); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit action: %w", err)
		}
		actions = append(actions, &action)
	}

	return actions, nil
}
