package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagecast/internal/core/domain"
)

func newRoom(id domain.StreamID, live bool) *domain.StreamRoom {
	return &domain.StreamRoom{
		ID:      id,
		Title:   "test",
		OwnerID: "owner-1",
		IsLive:  live,
		Scene:   domain.SceneGrid,
		Guests:  make(map[domain.GuestID]*domain.Guest),
	}
}

func TestStreamRepositoryCRUD(t *testing.T) {
	repo := NewMemoryStreamRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRoom("s1", false)))
	assert.Error(t, repo.Create(ctx, newRoom("s1", false)), "duplicate ids are rejected")

	room, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StreamID("s1"), room.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	require.NoError(t, repo.Delete(ctx, "s1"))
	assert.ErrorIs(t, repo.Delete(ctx, "s1"), domain.ErrRoomNotFound)
}

func TestStreamRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryStreamRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRoom("s1", false)))

	room, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)

	// Mutating the returned value must not leak into the store.
	room.Title = "hijacked"
	room.Guests["g1"] = &domain.Guest{ID: "g1"}

	fresh, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "test", fresh.Title)
	assert.Empty(t, fresh.Guests)
}

func TestStreamRepositoryMutate(t *testing.T) {
	repo := NewMemoryStreamRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRoom("s1", false)))

	t.Run("applies changes", func(t *testing.T) {
		updated, err := repo.Mutate(ctx, "s1", func(room *domain.StreamRoom) error {
			room.IsLive = true
			return nil
		})
		require.NoError(t, err)
		assert.True(t, updated.IsLive)
	})

	t.Run("an error discards changes", func(t *testing.T) {
		_, err := repo.Mutate(ctx, "s1", func(room *domain.StreamRoom) error {
			room.Title = "should not stick"
			return errors.New("rejected")
		})
		require.Error(t, err)

		room, err := repo.GetByID(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "test", room.Title)
	})

	t.Run("unknown room", func(t *testing.T) {
		_, err := repo.Mutate(ctx, "missing", func(room *domain.StreamRoom) error { return nil })
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	})
}

func TestStreamRepositoryMutateSerializes(t *testing.T) {
	repo := NewMemoryStreamRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRoom("s1", true)))

	// Concurrent read-modify-write cycles must not lose updates.
	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Mutate(ctx, "s1", func(room *domain.StreamRoom) error {
				id := domain.GuestID(fmt.Sprintf("g%d", i))
				room.Guests[id] = &domain.Guest{ID: id}
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	room, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, room.Guests, n)
}

func TestStreamRepositoryListLive(t *testing.T) {
	repo := NewMemoryStreamRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRoom("s1", true)))
	require.NoError(t, repo.Create(ctx, newRoom("s2", false)))
	require.NoError(t, repo.Create(ctx, newRoom("s3", true)))

	live, err := repo.ListLive(ctx)
	require.NoError(t, err)
	assert.Len(t, live, 2)
	for _, room := range live {
		assert.True(t, room.IsLive)
	}
}
