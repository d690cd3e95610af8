package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"stagecast/internal/core/domain"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// fakeStreamRepo is an in-test StreamRepository with the same serialization
// contract as the real ones.
type fakeStreamRepo struct {
	mu    sync.Mutex
	rooms map[domain.StreamID]*domain.StreamRoom
}

func newFakeStreamRepo() *fakeStreamRepo {
	return &fakeStreamRepo{rooms: make(map[domain.StreamID]*domain.StreamRoom)}
}

func (r *fakeStreamRepo) Create(ctx context.Context, room *domain.StreamRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.ID] = room
	return nil
}

func (r *fakeStreamRepo) GetByID(ctx context.Context, id domain.StreamID) (*domain.StreamRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

func (r *fakeStreamRepo) Mutate(ctx context.Context, id domain.StreamID, fn func(room *domain.StreamRoom) error) (*domain.StreamRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	if err := fn(room); err != nil {
		return nil, err
	}
	return room, nil
}

func (r *fakeStreamRepo) Delete(ctx context.Context, id domain.StreamID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, id)
	return nil
}

func (r *fakeStreamRepo) ListLive(ctx context.Context) ([]*domain.StreamRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var live []*domain.StreamRoom
	for _, room := range r.rooms {
		if room.IsLive {
			live = append(live, room)
		}
	}
	return live, nil
}

type broadcastEvent struct {
	StreamID domain.StreamID
	Event    string
	Payload  interface{}
}

// recordingBroadcaster captures broadcasts and optionally signals each one on
// a channel for tests that wait on fan-out.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
	notify chan broadcastEvent
}

func newRecordingBroadcaster(buffered int) *recordingBroadcaster {
	b := &recordingBroadcaster{}
	if buffered > 0 {
		b.notify = make(chan broadcastEvent, buffered)
	}
	return b
}

func (b *recordingBroadcaster) Broadcast(streamID domain.StreamID, event string, payload interface{}) {
	ev := broadcastEvent{StreamID: streamID, Event: event, Payload: payload}
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()

	if b.notify != nil {
		select {
		case b.notify <- ev:
		default:
		}
	}
}

func (b *recordingBroadcaster) Events() []broadcastEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]broadcastEvent, len(b.events))
	copy(out, b.events)
	return out
}

// fakeAuditRepo records appended actions and can inject failures.
type fakeAuditRepo struct {
	mu      sync.Mutex
	actions []*domain.AgentAction
	fail    error
}

func (r *fakeAuditRepo) Append(ctx context.Context, action *domain.AgentAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	action.Seq = int64(len(r.actions)) + 1
	r.actions = append(r.actions, action)
	return nil
}

func (r *fakeAuditRepo) ListByStream(ctx context.Context, streamID domain.StreamID, limit int) ([]*domain.AgentAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AgentAction
	for _, a := range r.actions {
		if a.StreamID == streamID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actions)
}

// stubSource lets each test decide what the suggestion source returns.
type stubSource struct {
	fn func(ctx context.Context, streamID domain.StreamID) (*domain.Suggestion, error)
}

func (s *stubSource) Next(ctx context.Context, streamID domain.StreamID) (*domain.Suggestion, error) {
	return s.fn(ctx, streamID)
}
