package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
)

type fakeScheduler struct {
	mu     sync.Mutex
	active map[domain.StreamID]bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{active: make(map[domain.StreamID]bool)}
}

func (s *fakeScheduler) Activate(streamID domain.StreamID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[streamID] = true
}

func (s *fakeScheduler) Deactivate(streamID domain.StreamID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, streamID)
}

func (s *fakeScheduler) IsActive(streamID domain.StreamID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[streamID]
}

func (s *fakeScheduler) Shutdown() {}

func newRoomServiceUnderTest() (ports.RoomService, *fakeStreamRepo, *fakeScheduler) {
	repo := newFakeStreamRepo()
	scheduler := newFakeScheduler()
	svc := NewRoomService(repo, scheduler, NewMetricsService(nil), testLogger())
	return svc, repo, scheduler
}

func TestCreateRoom(t *testing.T) {
	t.Run("creates an offline room with defaults", func(t *testing.T) {
		svc, _, _ := newRoomServiceUnderTest()

		room, err := svc.CreateRoom(context.Background(), "owner-1", "my stream", false, "")
		require.NoError(t, err)
		assert.NotEmpty(t, room.ID)
		assert.False(t, room.IsLive)
		assert.Equal(t, domain.SceneGrid, room.Scene)
		assert.Empty(t, room.Guests)
	})

	t.Run("private room requires an access code", func(t *testing.T) {
		svc, _, _ := newRoomServiceUnderTest()

		_, err := svc.CreateRoom(context.Background(), "owner-1", "private stream", true, "")
		require.Error(t, err)

		room, err := svc.CreateRoom(context.Background(), "owner-1", "private stream", true, "s3cret")
		require.NoError(t, err)
		assert.True(t, room.IsPrivate)
	})
}

func TestGoLiveAndStop(t *testing.T) {
	svc, repo, scheduler := newRoomServiceUnderTest()

	room, err := svc.CreateRoom(context.Background(), "owner-1", "my stream", false, "")
	require.NoError(t, err)

	t.Run("only the owner can go live", func(t *testing.T) {
		err := svc.GoLive(context.Background(), room.ID, "someone-else")
		require.ErrorIs(t, err, domain.ErrAccessDenied)
		assert.False(t, scheduler.IsActive(room.ID))
	})

	t.Run("going live activates the agents", func(t *testing.T) {
		require.NoError(t, svc.GoLive(context.Background(), room.ID, "owner-1"))

		stored, _ := repo.GetByID(context.Background(), room.ID)
		assert.True(t, stored.IsLive)
		assert.True(t, scheduler.IsActive(room.ID))

		live, err := svc.ListLive(context.Background())
		require.NoError(t, err)
		assert.Len(t, live, 1)
	})

	t.Run("stopping clears session state and deactivates agents", func(t *testing.T) {
		_, err := svc.AddGuest(context.Background(), room.ID, "alice")
		require.NoError(t, err)
		_, err = repo.Mutate(context.Background(), room.ID, func(r *domain.StreamRoom) error {
			r.Scene = domain.SceneSolo
			return nil
		})
		require.NoError(t, err)

		require.NoError(t, svc.StopStream(context.Background(), room.ID, "owner-1"))

		stored, _ := repo.GetByID(context.Background(), room.ID)
		assert.False(t, stored.IsLive)
		assert.Empty(t, stored.Guests)
		assert.Equal(t, domain.SceneGrid, stored.Scene)
		assert.False(t, scheduler.IsActive(room.ID))
	})

	t.Run("unknown room", func(t *testing.T) {
		err := svc.GoLive(context.Background(), "missing", "owner-1")
		require.ErrorIs(t, err, domain.ErrRoomNotFound)
	})
}

func TestValidateAccess(t *testing.T) {
	svc, _, _ := newRoomServiceUnderTest()

	public, err := svc.CreateRoom(context.Background(), "owner-1", "public", false, "")
	require.NoError(t, err)
	private, err := svc.CreateRoom(context.Background(), "owner-1", "private", true, "s3cret")
	require.NoError(t, err)

	assert.NoError(t, svc.ValidateAccess(context.Background(), public.ID, ""))
	assert.NoError(t, svc.ValidateAccess(context.Background(), public.ID, "anything"))
	assert.NoError(t, svc.ValidateAccess(context.Background(), private.ID, "s3cret"))
	assert.ErrorIs(t, svc.ValidateAccess(context.Background(), private.ID, "wrong"), domain.ErrAccessDenied)
	assert.ErrorIs(t, svc.ValidateAccess(context.Background(), private.ID, ""), domain.ErrAccessDenied)
	assert.ErrorIs(t, svc.ValidateAccess(context.Background(), "missing", ""), domain.ErrRoomNotFound)
}

func TestAddGuest(t *testing.T) {
	svc, repo, _ := newRoomServiceUnderTest()

	room, err := svc.CreateRoom(context.Background(), "owner-1", "my stream", false, "")
	require.NoError(t, err)

	t.Run("requires a live stream", func(t *testing.T) {
		_, err := svc.AddGuest(context.Background(), room.ID, "alice")
		require.ErrorIs(t, err, domain.ErrRoomNotLive)
	})

	t.Run("adds a guest slot", func(t *testing.T) {
		require.NoError(t, svc.GoLive(context.Background(), room.ID, "owner-1"))

		guest, err := svc.AddGuest(context.Background(), room.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", guest.DisplayName)
		assert.False(t, guest.IsMuted)

		stored, _ := repo.GetByID(context.Background(), room.ID)
		assert.Contains(t, stored.Guests, guest.ID)
	})
}
