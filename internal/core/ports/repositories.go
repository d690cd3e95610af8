package ports

import (
	"context"

	"stagecast/internal/core/domain"
)

type StreamRepository interface {
	Create(ctx context.Context, room *domain.StreamRoom) error
	GetByID(ctx context.Context, id domain.StreamID) (*domain.StreamRoom, error)
	// Mutate applies fn to the room under the repository's serialization
	// point for that room; concurrent mutations of the same room never
	// interleave. Returning an error from fn aborts the write.
	Mutate(ctx context.Context, id domain.StreamID, fn func(room *domain.StreamRoom) error) (*domain.StreamRoom, error)
	Delete(ctx context.Context, id domain.StreamID) error
	ListLive(ctx context.Context) ([]*domain.StreamRoom, error)
}

type AuditRepository interface {
	// Append assigns the record's Seq (monotonic per stream) and persists it.
	Append(ctx context.Context, action *domain.AgentAction) error
	ListByStream(ctx context.Context, streamID domain.StreamID, limit int) ([]*domain.AgentAction, error)
}

// LedgerStore is the persistence contract for wallets and donations. It
// provides the single multi-write atomic primitive the ledger service builds
// on: CommitDonation either applies the donation record, the revenue counter
// and the wallet credit together, or none of them.
type LedgerStore interface {
	GetOrCreateWallet(ctx context.Context, userID domain.UserID) (*domain.Wallet, error)
	GetWallet(ctx context.Context, userID domain.UserID) (*domain.Wallet, error)
	CommitDonation(ctx context.Context, donation *domain.Donation) error
	// DebitWallet atomically decrements the balance and returns the new
	// balance. Returns domain.ErrInsufficientBalance without mutating when
	// the balance is too low.
	DebitWallet(ctx context.Context, userID domain.UserID, amount domain.Money) (domain.Money, error)
	ListDonations(ctx context.Context, userID domain.UserID, limit int) (sent, received []*domain.Donation, err error)
}
