package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagecast/internal/core/domain"
)

func TestBannedTermsPolicy(t *testing.T) {
	policy := NewBannedTermsPolicy([]string{"spam", "abuse", "hack", "scam"})

	tests := []struct {
		name    string
		text    string
		allowed bool
	}{
		{"clean message", "hello everyone, great stream", true},
		{"exact banned term", "this is spam", false},
		{"uppercase banned term", "this is SPAM", false},
		{"mixed case", "don't Hack the stream", false},
		{"term inside a word", "hackathon announcement", false},
		{"empty message", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := policy.Allow(context.Background(), "s1", "u1", tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
		})
	}
}

type slowPolicy struct {
	delay time.Duration
}

func (p *slowPolicy) Allow(ctx context.Context, streamID domain.StreamID, senderID domain.UserID, text string) (bool, error) {
	select {
	case <-time.After(p.delay):
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

type failingPolicy struct{}

func (p *failingPolicy) Allow(ctx context.Context, streamID domain.StreamID, senderID domain.UserID, text string) (bool, error) {
	return false, errors.New("upstream unavailable")
}

func TestModerationGate(t *testing.T) {
	t.Run("passes the policy verdict through", func(t *testing.T) {
		gate := NewModerationService(NewBannedTermsPolicy([]string{"spam"}), time.Second, true, testLogger())

		allowed, err := gate.Check(context.Background(), "s1", "u1", "hello")
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = gate.Check(context.Background(), "s1", "u1", "buy my spam")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("fail open on timeout", func(t *testing.T) {
		gate := NewModerationService(&slowPolicy{delay: time.Second}, 20*time.Millisecond, true, testLogger())

		allowed, err := gate.Check(context.Background(), "s1", "u1", "hello")
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("fail closed on timeout", func(t *testing.T) {
		gate := NewModerationService(&slowPolicy{delay: time.Second}, 20*time.Millisecond, false, testLogger())

		allowed, err := gate.Check(context.Background(), "s1", "u1", "hello")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("policy error applies the fail policy", func(t *testing.T) {
		openGate := NewModerationService(&failingPolicy{}, time.Second, true, testLogger())
		allowed, err := openGate.Check(context.Background(), "s1", "u1", "hello")
		require.NoError(t, err)
		assert.True(t, allowed)

		closedGate := NewModerationService(&failingPolicy{}, time.Second, false, testLogger())
		allowed, err = closedGate.Check(context.Background(), "s1", "u1", "hello")
		require.NoError(t, err)
		assert.False(t, allowed)
	})
}
