package services

import (
	"context"
	"fmt"
	"time"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type roomService struct {
	streamRepo ports.StreamRepository
	scheduler  ports.AgentScheduler
	metrics    *MetricsService
	logger     *zap.SugaredLogger
}

func NewRoomService(
	streamRepo ports.StreamRepository,
	scheduler ports.AgentScheduler,
	metrics *MetricsService,
	logger *zap.SugaredLogger,
) ports.RoomService {
	return &roomService{
		streamRepo: streamRepo,
		scheduler:  scheduler,
		metrics:    metrics,
		logger:     logger,
	}
}

func (s *roomService) CreateRoom(ctx context.Context, ownerID domain.UserID, title string, isPrivate bool, accessCode string) (*domain.StreamRoom, error) {
	if isPrivate && accessCode == "" {
		return nil, fmt.Errorf("access code is required for private streams")
	}

	room := &domain.StreamRoom{
		ID:         domain.StreamID(uuid.NewString()),
		Title:      title,
		OwnerID:    ownerID,
		IsLive:     false,
		IsPrivate:  isPrivate,
		AccessCode: accessCode,
		Scene:      domain.SceneGrid,
		Guests:     make(map[domain.GuestID]*domain.Guest),
		CreatedAt:  time.Now(),
	}

	if err := s.streamRepo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	s.logger.Infow("room created", "stream_id", room.ID, "owner_id", ownerID, "private", isPrivate)
	return room, nil
}

func (s *roomService) GetRoom(ctx context.Context, id domain.StreamID) (*domain.StreamRoom, error) {
	return s.streamRepo.GetByID(ctx, id)
}

func (s *roomService) ListLive(ctx context.Context) ([]*domain.StreamRoom, error) {
	return s.streamRepo.ListLive(ctx)
}

func (s *roomService) GoLive(ctx context.Context, id domain.StreamID, actor domain.UserID) error {
	room, err := s.streamRepo.Mutate(ctx, id, func(room *domain.StreamRoom) error {
		if room.OwnerID != actor {
			return domain.ErrAccessDenied
		}
		room.IsLive = true
		return nil
	})
	if err != nil {
		return err
	}

	s.scheduler.Activate(room.ID)
	s.metrics.RecordStreamLive(room.ID)
	s.logger.Infow("stream went live", "stream_id", id)
	return nil
}

func (s *roomService) StopStream(ctx context.Context, id domain.StreamID, actor domain.UserID) error {
	_, err := s.streamRepo.Mutate(ctx, id, func(room *domain.StreamRoom) error {
		if room.OwnerID != actor {
			return domain.ErrAccessDenied
		}
		room.IsLive = false
		// Guest slots and scene state only exist for the duration of a live
		// session.
		room.Guests = make(map[domain.GuestID]*domain.Guest)
		room.Scene = domain.SceneGrid
		return nil
	})
	if err != nil {
		return err
	}

	s.scheduler.Deactivate(id)
	s.metrics.RecordStreamStopped(id)
	s.logger.Infow("stream stopped", "stream_id", id)
	return nil
}

func (s *roomService) ValidateAccess(ctx context.Context, id domain.StreamID, accessCode string) error {
	room, err := s.streamRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !room.IsPrivate {
		return nil
	}
	if room.AccessCode != accessCode {
		return domain.ErrAccessDenied
	}
	return nil
}

func (s *roomService) AddGuest(ctx context.Context, id domain.StreamID, displayName string) (*domain.Guest, error) {
	guest := &domain.Guest{
		ID:          domain.GuestID(uuid.NewString()),
		DisplayName: displayName,
	}

	_, err := s.streamRepo.Mutate(ctx, id, func(room *domain.StreamRoom) error {
		if !room.IsLive {
			return domain.ErrRoomNotLive
		}
		room.Guests[guest.ID] = guest
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("guest joined", "stream_id", id, "guest_id", guest.ID)
	return guest, nil
}
