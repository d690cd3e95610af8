package ports

import (
	"context"
	"time"

	"stagecast/internal/core/domain"
)

// Broadcaster fans one event out to every connection in a room. Delivery is
// best-effort snapshot: implementations must not fail or block on individual
// slow members, and broadcasting to an empty room is a no-op.
type Broadcaster interface {
	Broadcast(streamID domain.StreamID, event string, payload interface{})
}

type RoomService interface {
	CreateRoom(ctx context.Context, ownerID domain.UserID, title string, isPrivate bool, accessCode string) (*domain.StreamRoom, error)
	GetRoom(ctx context.Context, id domain.StreamID) (*domain.StreamRoom, error)
	ListLive(ctx context.Context) ([]*domain.StreamRoom, error)
	GoLive(ctx context.Context, id domain.StreamID, actor domain.UserID) error
	StopStream(ctx context.Context, id domain.StreamID, actor domain.UserID) error
	ValidateAccess(ctx context.Context, id domain.StreamID, accessCode string) error
	AddGuest(ctx context.Context, id domain.StreamID, displayName string) (*domain.Guest, error)
}

type DirectorService interface {
	MuteGuest(ctx context.Context, actor domain.UserID, streamID domain.StreamID, guestID domain.GuestID) error
	RemoveGuest(ctx context.Context, actor domain.UserID, streamID domain.StreamID, guestID domain.GuestID) error
	SwitchScene(ctx context.Context, actor domain.UserID, streamID domain.StreamID, layout domain.SceneLayout) error
}

// ModerationGate decides whether a chat message may be fanned out. The check
// is bounded by a deadline; on timeout the configured fail-open/fail-closed
// policy applies.
type ModerationGate interface {
	Check(ctx context.Context, streamID domain.StreamID, senderID domain.UserID, text string) (bool, error)
}

// SuggestionSource produces the next director suggestion for a stream. It may
// be a rule table or a remote model call; callers bound it with a deadline.
type SuggestionSource interface {
	Next(ctx context.Context, streamID domain.StreamID) (*domain.Suggestion, error)
}

type AgentScheduler interface {
	Activate(streamID domain.StreamID)
	Deactivate(streamID domain.StreamID)
	IsActive(streamID domain.StreamID) bool
	Shutdown()
}

type DonationRequest struct {
	StreamID   domain.StreamID
	SenderID   domain.UserID
	ReceiverID domain.UserID
	Amount     domain.Money
	Method     domain.PaymentMethod
}

type DonationReceipt struct {
	Donation    *domain.Donation `json:"donation"`
	CreatorNet  domain.Money     `json:"creator_net"`
	PlatformNet domain.Money     `json:"platform_net"`
}

type TransactionHistory struct {
	Sent     []*domain.Donation `json:"sent"`
	Received []*domain.Donation `json:"received"`
}

type Earnings struct {
	TotalRevenue    domain.Money       `json:"total_revenue"`
	RecentDonations []*domain.Donation `json:"recent_donations"`
}

type LedgerService interface {
	ProcessDonation(ctx context.Context, req DonationRequest) (*DonationReceipt, error)
	Withdraw(ctx context.Context, userID domain.UserID, amount domain.Money) (domain.Money, error)
	GetOrCreateWallet(ctx context.Context, userID domain.UserID) (*domain.Wallet, error)
	GetBalance(ctx context.Context, userID domain.UserID) (domain.Money, error)
	GetTransactionHistory(ctx context.Context, userID domain.UserID, limit int) (*TransactionHistory, error)
	GetEarnings(ctx context.Context, userID domain.UserID, limit int) (*Earnings, error)
}

// AgentProfile configures one recurring agent for live streams.
type AgentProfile struct {
	ID       domain.AgentID
	Interval time.Duration
}
