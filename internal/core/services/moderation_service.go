package services

import (
	"context"
	"strings"
	"time"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/pkg/tracing"

	"go.uber.org/zap"
)

// ModerationPolicy is the swappable predicate behind the moderation gate. It
// must be deterministic and must not mutate its input. Implementations may
// block on an external dependency; the gate bounds them with a deadline.
type ModerationPolicy interface {
	Allow(ctx context.Context, streamID domain.StreamID, senderID domain.UserID, text string) (bool, error)
}

// BannedTermsPolicy blocks messages containing any of the configured terms,
// case-insensitively.
type BannedTermsPolicy struct {
	terms []string
}

func NewBannedTermsPolicy(terms []string) *BannedTermsPolicy {
	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		lowered = append(lowered, strings.ToLower(t))
	}
	return &BannedTermsPolicy{terms: lowered}
}

func (p *BannedTermsPolicy) Allow(ctx context.Context, streamID domain.StreamID, senderID domain.UserID, text string) (bool, error) {
	lowered := strings.ToLower(text)
	for _, term := range p.terms {
		if strings.Contains(lowered, term) {
			return false, nil
		}
	}
	return true, nil
}

type moderationService struct {
	policy   ModerationPolicy
	timeout  time.Duration
	failOpen bool
	logger   *zap.SugaredLogger
}

// NewModerationService builds the moderation gate. failOpen decides what
// happens when the policy exceeds its deadline: allow the message (open) or
// withhold it (closed).
func NewModerationService(policy ModerationPolicy, timeout time.Duration, failOpen bool, logger *zap.SugaredLogger) ports.ModerationGate {
	return &moderationService{
		policy:   policy,
		timeout:  timeout,
		failOpen: failOpen,
		logger:   logger,
	}
}

func (s *moderationService) Check(ctx context.Context, streamID domain.StreamID, senderID domain.UserID, text string) (bool, error) {
	ctx, span := tracing.TraceModeration(ctx, string(streamID), string(senderID))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		allowed bool
		err     error
	}
	resultCh := make(chan result, 1)

	go func() {
		allowed, err := s.policy.Allow(ctx, streamID, senderID, text)
		resultCh <- result{allowed: allowed, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			s.logger.Warnw("moderation policy error, applying fail policy",
				"stream_id", streamID, "fail_open", s.failOpen, "error", res.err)
			tracing.RecordError(ctx, res.err)
			return s.failOpen, nil
		}
		return res.allowed, nil

	case <-ctx.Done():
		s.logger.Warnw("moderation check timed out, applying fail policy",
			"stream_id", streamID, "fail_open", s.failOpen)
		tracing.RecordError(ctx, domain.ErrUpstreamTimeout)
		return s.failOpen, nil
	}
}
