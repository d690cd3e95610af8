package services

import (
	"context"
	"fmt"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"

	"go.uber.org/zap"
)

// Broadcast event names for director control actions.
const (
	EventGuestMuted   = "guest_muted"
	EventGuestRemoved = "guest_removed"
	EventSceneChanged = "scene_changed"
)

type directorService struct {
	streamRepo  ports.StreamRepository
	broadcaster ports.Broadcaster
	logger      *zap.SugaredLogger
}

func NewDirectorService(
	streamRepo ports.StreamRepository,
	broadcaster ports.Broadcaster,
	logger *zap.SugaredLogger,
) ports.DirectorService {
	return &directorService{
		streamRepo:  streamRepo,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// mutateLive applies fn to the room after verifying the room is live and the
// actor is the stream's owner. Control events are only accepted from the
// director of a live stream.
func (s *directorService) mutateLive(ctx context.Context, actor domain.UserID, streamID domain.StreamID, fn func(room *domain.StreamRoom) error) error {
	_, err := s.streamRepo.Mutate(ctx, streamID, func(room *domain.StreamRoom) error {
		if room.OwnerID != actor {
			return domain.ErrAccessDenied
		}
		if !room.IsLive {
			return domain.ErrRoomNotLive
		}
		return fn(room)
	})
	return err
}

func (s *directorService) MuteGuest(ctx context.Context, actor domain.UserID, streamID domain.StreamID, guestID domain.GuestID) error {
	var muted bool
	err := s.mutateLive(ctx, actor, streamID, func(room *domain.StreamRoom) error {
		guest, ok := room.Guests[guestID]
		if !ok {
			return domain.ErrGuestNotFound
		}
		guest.IsMuted = !guest.IsMuted
		muted = guest.IsMuted
		return nil
	})
	if err != nil {
		return fmt.Errorf("mute guest: %w", err)
	}

	s.broadcaster.Broadcast(streamID, EventGuestMuted, map[string]interface{}{
		"guest_id": guestID,
		"is_muted": muted,
	})
	return nil
}

func (s *directorService) RemoveGuest(ctx context.Context, actor domain.UserID, streamID domain.StreamID, guestID domain.GuestID) error {
	err := s.mutateLive(ctx, actor, streamID, func(room *domain.StreamRoom) error {
		if _, ok := room.Guests[guestID]; !ok {
			return domain.ErrGuestNotFound
		}
		// Removal is terminal: the slot is gone and the guest must rejoin
		// to get a new one.
		delete(room.Guests, guestID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove guest: %w", err)
	}

	s.broadcaster.Broadcast(streamID, EventGuestRemoved, map[string]interface{}{
		"guest_id": guestID,
	})
	return nil
}

func (s *directorService) SwitchScene(ctx context.Context, actor domain.UserID, streamID domain.StreamID, layout domain.SceneLayout) error {
	if !domain.ValidSceneLayout(layout) {
		return fmt.Errorf("switch scene: unknown layout %q", layout)
	}

	err := s.mutateLive(ctx, actor, streamID, func(room *domain.StreamRoom) error {
		room.Scene = layout
		return nil
	})
	if err != nil {
		return fmt.Errorf("switch scene: %w", err)
	}

	s.broadcaster.Broadcast(streamID, EventSceneChanged, map[string]interface{}{
		"layout": layout,
	})
	return nil
}
