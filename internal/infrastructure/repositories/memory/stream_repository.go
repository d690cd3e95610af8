package memory

import (
	"context"
	"fmt"
	"sync"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
)

type MemoryStreamRepository struct {
	rooms map[domain.StreamID]*domain.StreamRoom
	mu    sync.RWMutex
}

func NewMemoryStreamRepository() ports.StreamRepository {
	return &MemoryStreamRepository{
		rooms: make(map[domain.StreamID]*domain.StreamRoom),
	}
}

func (r *MemoryStreamRepository) Create(ctx context.Context, room *domain.StreamRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[room.ID]; exists {
		return fmt.Errorf("room already exists: %s", room.ID)
	}

	r.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (r *MemoryStreamRepository) GetByID(ctx context.Context, id domain.StreamID) (*domain.StreamRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[id]
	if !exists {
		return nil, domain.ErrRoomNotFound
	}

	return cloneRoom(room), nil
}

// Mutate runs fn under the repository lock so concurrent read-modify-write
// cycles on the same room never interleave. fn receives the stored room; an
// error from fn discards the changes.
func (r *MemoryStreamRepository) Mutate(ctx context.Context, id domain.StreamID, fn func(room *domain.StreamRoom) error) (*domain.StreamRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[id]
	if !exists {
		return nil, domain.ErrRoomNotFound
	}

	scratch := cloneRoom(room)
	if err := fn(scratch); err != nil {
		return nil, err
	}

	r.rooms[id] = scratch
	return cloneRoom(scratch), nil
}

func (r *MemoryStreamRepository) Delete(ctx context.Context, id domain.StreamID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[id]; !exists {
		return domain.ErrRoomNotFound
	}

	delete(r.rooms, id)
	return nil
}

func (r *MemoryStreamRepository) ListLive(ctx context.Context) ([]*domain.StreamRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var live []*domain.StreamRoom
	for _, room := range r.rooms {
		if room.IsLive {
			live = append(live, cloneRoom(room))
		}
	}

	return live, nil
}

func cloneRoom(room *domain.StreamRoom) *domain.StreamRoom {
	copied := *room
	copied.Guests = make(map[domain.GuestID]*domain.Guest, len(room.Guests))
	for id, guest := range room.Guests {
		g := *guest
		copied.Guests[id] = &g
	}
	return &copied
}
