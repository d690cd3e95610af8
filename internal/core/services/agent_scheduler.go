package services

import (
	"context"
	"sync"
	"time"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/pkg/tracing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventDirectorAction is the broadcast event carrying agent suggestions.
const EventDirectorAction = "ai_director_action"

// SchedulerConfig configures the per-stream agent loops.
type SchedulerConfig struct {
	Agents            []ports.AgentProfile
	SuggestionTimeout time.Duration
}

type agentScheduler struct {
	cfg         SchedulerConfig
	source      ports.SuggestionSource
	audit       ports.AuditRepository
	broadcaster ports.Broadcaster
	metrics     *MetricsService
	logger      *zap.SugaredLogger

	mu      sync.Mutex
	cancels map[domain.StreamID]context.CancelFunc
	wg      sync.WaitGroup
}

func NewAgentScheduler(
	cfg SchedulerConfig,
	source ports.SuggestionSource,
	audit ports.AuditRepository,
	broadcaster ports.Broadcaster,
	metrics *MetricsService,
	logger *zap.SugaredLogger,
) ports.AgentScheduler {
	return &agentScheduler{
		cfg:         cfg,
		source:      source,
		audit:       audit,
		broadcaster: broadcaster,
		metrics:     metrics,
		logger:      logger,
		cancels:     make(map[domain.StreamID]context.CancelFunc),
	}
}

// Activate starts one ticker goroutine per configured agent for the stream.
// Idempotent: a stream that is already active keeps its existing loops.
func (s *agentScheduler) Activate(streamID domain.StreamID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cancels[streamID]; exists {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancels[streamID] = cancel

	for _, agent := range s.cfg.Agents {
		s.wg.Add(1)
		go s.runAgent(ctx, streamID, agent)
	}

	s.logger.Infow("agent swarm activated", "stream_id", streamID, "agents", len(s.cfg.Agents))
}

// Deactivate cancels the stream's agent loops. An in-flight tick may still
// complete, but no further ticks fire after it.
func (s *agentScheduler) Deactivate(streamID domain.StreamID) {
	s.mu.Lock()
	cancel, exists := s.cancels[streamID]
	if exists {
		delete(s.cancels, streamID)
	}
	s.mu.Unlock()

	if exists {
		cancel()
		s.logger.Infow("agent swarm deactivated", "stream_id", streamID)
	}
}

func (s *agentScheduler) IsActive(streamID domain.StreamID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.cancels[streamID]
	return exists
}

// Shutdown cancels every stream's loops and waits for them to exit.
func (s *agentScheduler) Shutdown() {
	s.mu.Lock()
	for streamID, cancel := range s.cancels {
		cancel()
		delete(s.cancels, streamID)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *agentScheduler) runAgent(ctx context.Context, streamID domain.StreamID, agent ports.AgentProfile) {
	defer s.wg.Done()

	ticker := time.NewTicker(agent.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// The flag may have flipped between the timer firing and this
			// goroutine being scheduled.
			if ctx.Err() != nil {
				return
			}
			s.tick(ctx, streamID, agent)
		}
	}
}

func (s *agentScheduler) tick(ctx context.Context, streamID domain.StreamID, agent ports.AgentProfile) {
	ctx, span := tracing.TraceAgentTick(ctx, string(agent.ID), string(streamID))
	defer span.End()

	tickCtx, cancel := context.WithTimeout(ctx, s.cfg.SuggestionTimeout)
	defer cancel()

	suggestion, err := s.source.Next(tickCtx, streamID)
	if err != nil {
		// A failed suggestion skips this tick; the loop and other streams'
		// loops keep running.
		s.logger.Warnw("suggestion source failed, skipping tick",
			"stream_id", streamID, "agent_id", agent.ID, "error", err)
		tracing.RecordError(ctx, err)
		return
	}

	// Audit write and broadcast are independent best-effort steps: an audit
	// failure must not suppress the broadcast.
	action := &domain.AgentAction{
		ID:         uuid.NewString(),
		StreamID:   streamID,
		AgentID:    suggestion.AgentID,
		ActionType: suggestion.ActionType,
		Payload:    suggestion.Payload,
		Confidence: suggestion.Confidence,
		CreatedAt:  time.Now(),
	}
	if err := s.audit.Append(tickCtx, action); err != nil {
		s.logger.Errorw("failed to append audit record",
			"stream_id", streamID, "agent_id", agent.ID, "error", err)
		tracing.RecordError(ctx, err)
	}

	s.broadcaster.Broadcast(streamID, EventDirectorAction, suggestion)
	s.metrics.RecordAgentTick(streamID, agent.ID)
}
