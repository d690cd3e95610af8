package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/pkg/retry"
)

const (
	roomKeyPrefix = "stagecast:room:"
	liveSetKey    = "stagecast:rooms:live"
)

type RedisStreamRepository struct {
	client *redis.Client
	retry  retry.Config
}

func NewRedisStreamRepository(client *redis.Client) ports.StreamRepository {
	cfg := retry.DefaultConfig()
	cfg.RetryableErrors = []error{redis.TxFailedErr}
	return &RedisStreamRepository{client: client, retry: cfg}
}

func roomKey(id domain.StreamID) string {
	return roomKeyPrefix + string(id)
}

func (r *RedisStreamRepository) Create(ctx context.Context, room *domain.StreamRoom) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	ok, err := r.client.SetNX(ctx, roomKey(room.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to store room: %w", err)
	}
	if !ok {
		return fmt.Errorf("room already exists: %s", room.ID)
	}

	return nil
}

func (r *RedisStreamRepository) GetByID(ctx context.Context, id domain.StreamID) (*domain.StreamRoom, error) {
	data, err := r.client.Get(ctx, roomKey(id)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	var room domain.StreamRoom
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &room, nil
}

// Mutate serializes read-modify-write cycles via an optimistic WATCH
// transaction. A concurrent write to the same key aborts the EXEC and the
// whole cycle is retried.
func (r *RedisStreamRepository) Mutate(ctx context.Context, id domain.StreamID, fn func(room *domain.StreamRoom) error) (*domain.StreamRoom, error) {
	key := roomKey(id)
	var result *domain.StreamRoom

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return domain.ErrRoomNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get room: %w", err)
		}

		var room domain.StreamRoom
		if err := json.Unmarshal(data, &room); err != nil {
			return fmt.Errorf("failed to unmarshal room: %w", err)
		}

		if err := fn(&room); err != nil {
			return err
		}

		updated, err := json.Marshal(&room)
		if err != nil {
			return fmt.Errorf("failed to marshal room: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			if room.IsLive {
				pipe.SAdd(ctx, liveSetKey, string(room.ID))
			} else {
				pipe.SRem(ctx, liveSetKey, string(room.ID))
			}
			return nil
		})
		if err != nil {
			return err
		}

		result = &room
		return nil
	}

	err := retry.Do(ctx, r.retry, func() error {
		return r.client.Watch(ctx, txn, key)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *RedisStreamRepository) Delete(ctx context.Context, id domain.StreamID) error {
	deleted, err := r.client.Del(ctx, roomKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	if deleted == 0 {
		return domain.ErrRoomNotFound
	}

	r.client.SRem(ctx, liveSetKey, string(id))
	return nil
}

func (r *RedisStreamRepository) ListLive(ctx context.Context) ([]*domain.StreamRoom, error) {
	ids, err := r.client.SMembers(ctx, liveSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list live rooms: %w", err)
	}

	var live []*domain.StreamRoom
	for _, id := range ids {
		room, err := r.GetByID(ctx, domain.StreamID(id))
		if err == domain.ErrRoomNotFound {
			// Stale set member; drop it.
			r.client.SRem(ctx, liveSetKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if room.IsLive {
			live = append(live, room)
		}
	}

	return live, nil
}
