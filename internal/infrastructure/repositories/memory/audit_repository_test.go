package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagecast/internal/core/domain"
)

func TestAuditAppendAssignsSeq(t *testing.T) {
	repo := NewMemoryAuditRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		action := &domain.AgentAction{ID: "a", StreamID: "s1", AgentID: domain.AgentDirector}
		require.NoError(t, repo.Append(ctx, action))
		assert.Equal(t, int64(i)+1, action.Seq)
	}

	// Sequences are per stream.
	other := &domain.AgentAction{ID: "b", StreamID: "s2", AgentID: domain.AgentModerator}
	require.NoError(t, repo.Append(ctx, other))
	assert.Equal(t, int64(1), other.Seq)
}

func TestAuditListByStream(t *testing.T) {
	repo := NewMemoryAuditRepository()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, repo.Append(ctx, &domain.AgentAction{StreamID: "s1"}))
	}
	require.NoError(t, repo.Append(ctx, &domain.AgentAction{StreamID: "s2"}))

	t.Run("returns only the stream's records in order", func(t *testing.T) {
		actions, err := repo.ListByStream(ctx, "s1", 0)
		require.NoError(t, err)
		require.Len(t, actions, 10)
		for i, action := range actions {
			assert.Equal(t, int64(i)+1, action.Seq)
		}
	})

	t.Run("limit keeps the newest records", func(t *testing.T) {
		actions, err := repo.ListByStream(ctx, "s1", 3)
		require.NoError(t, err)
		require.Len(t, actions, 3)
		assert.Equal(t, int64(8), actions[0].Seq)
		assert.Equal(t, int64(10), actions[2].Seq)
	})

	t.Run("unknown stream is empty", func(t *testing.T) {
		actions, err := repo.ListByStream(ctx, "nope", 0)
		require.NoError(t, err)
		assert.Empty(t, actions)
	})
}

func TestAuditConcurrentAppends(t *testing.T) {
	repo := NewMemoryAuditRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.Append(ctx, &domain.AgentAction{StreamID: "s1"}))
		}()
	}
	wg.Wait()

	actions, err := repo.ListByStream(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, actions, 50)

	// Seq is dense and monotonic even under contention.
	for i, action := range actions {
		assert.Equal(t, int64(i)+1, action.Seq)
	}
}
