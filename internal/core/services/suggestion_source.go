package services

import (
	"context"
	"math/rand"
	"sync"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
)

// directorLines are the canned director suggestions the rule table cycles
// through. A real deployment swaps this source for a model-backed one.
var directorLines = []string{
	"Peak engagement detected, suggesting solo focus on host",
	"Switching attention to a reacting guest",
	"High energy moment, good clip candidate",
	"Chat activity rising, consider a viewer shout-out",
	"Scene has been static for a while, try the grid layout",
	"Audio levels uneven across guests",
}

var moderatorLines = []string{
	"Chat scan complete, no policy violations",
	"Elevated message rate, watching for spam bursts",
	"Link-heavy messages detected, review recommended",
}

// RuleTableSource is a deterministic-latency SuggestionSource backed by a
// static rule table. It satisfies the scheduler's bounded-latency contract
// trivially.
type RuleTableSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRuleTableSource(seed int64) ports.SuggestionSource {
	return &RuleTableSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *RuleTableSource) Next(ctx context.Context, streamID domain.StreamID) (*domain.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	pick := s.rng.Intn(len(directorLines) + len(moderatorLines))
	confidence := 0.85 + s.rng.Float64()*0.14
	s.mu.Unlock()

	if pick < len(directorLines) {
		return &domain.Suggestion{
			AgentID:    domain.AgentDirector,
			ActionType: domain.ActionSceneSwitch,
			Message:    directorLines[pick],
			Payload:    map[string]interface{}{"stream_id": string(streamID)},
			Confidence: confidence,
		}, nil
	}

	return &domain.Suggestion{
		AgentID:    domain.AgentModerator,
		ActionType: domain.ActionSafetyCheck,
		Message:    moderatorLines[pick-len(directorLines)],
		Payload:    map[string]interface{}{"stream_id": string(streamID)},
		Confidence: confidence,
	}, nil
}
