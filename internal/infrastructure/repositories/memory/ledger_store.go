package memory

import (
	"context"
	"sync"
	"time"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
)

type walletEntry struct {
	mu     sync.Mutex
	wallet *domain.Wallet
}

// MemoryLedgerStore keeps wallets and donation records in process memory.
// The registry lock guards the maps; each wallet carries its own lock so
// balance updates on different users do not contend.
type MemoryLedgerStore struct {
	mu        sync.Mutex
	wallets   map[domain.UserID]*walletEntry
	donations []*domain.Donation
	currency  string
}

func NewMemoryLedgerStore(currency string) ports.LedgerStore {
	return &MemoryLedgerStore{
		wallets:  make(map[domain.UserID]*walletEntry),
		currency: currency,
	}
}

func (s *MemoryLedgerStore) entry(userID domain.UserID) *walletEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.wallets[userID]
	if !exists {
		e = &walletEntry{wallet: &domain.Wallet{
			UserID:    userID,
			Currency:  s.currency,
			CreatedAt: time.Now(),
		}}
		s.wallets[userID] = e
	}
	return e
}

func (s *MemoryLedgerStore) GetOrCreateWallet(ctx context.Context, userID domain.UserID) (*domain.Wallet, error) {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	w := *e.wallet
	return &w, nil
}

func (s *MemoryLedgerStore) GetWallet(ctx context.Context, userID domain.UserID) (*domain.Wallet, error) {
	s.mu.Lock()
	e, exists := s.wallets[userID]
	s.mu.Unlock()

	if !exists {
		return nil, domain.ErrWalletNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	w := *e.wallet
	return &w, nil
}

// CommitDonation applies the donation record, the creator wallet credit and
// the creator revenue increment as one unit under the receiver's wallet lock.
func (s *MemoryLedgerStore) CommitDonation(ctx context.Context, donation *domain.Donation) error {
	if donation.AmountGross <= 0 {
		return domain.ErrInvalidAmount
	}

	receiver := s.entry(donation.ReceiverID)
	receiver.mu.Lock()
	defer receiver.mu.Unlock()

	receiver.wallet.Balance += donation.CreatorNet
	receiver.wallet.Revenue += donation.CreatorNet

	record := *donation
	s.mu.Lock()
	s.donations = append(s.donations, &record)
	s.mu.Unlock()

	return nil
}

func (s *MemoryLedgerStore) DebitWallet(ctx context.Context, userID domain.UserID, amount domain.Money) (domain.Money, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}

	s.mu.Lock()
	e, exists := s.wallets[userID]
	s.mu.Unlock()

	if !exists {
		return 0, domain.ErrWalletNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.wallet.Balance < amount {
		return e.wallet.Balance, domain.ErrInsufficientBalance
	}

	e.wallet.Balance -= amount
	return e.wallet.Balance, nil
}

func (s *MemoryLedgerStore) ListDonations(ctx context.Context, userID domain.UserID, limit int) (sent, received []*domain.Donation, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Newest first.
	for i := len(s.donations) - 1; i >= 0; i-- {
		d := s.donations[i]
		if d.SenderID == userID && (limit <= 0 || len(sent) < limit) {
			copied := *d
			sent = append(sent, &copied)
		}
		if d.ReceiverID == userID && (limit <= 0 || len(received) < limit) {
			copied := *d
			received = append(received, &copied)
		}
	}

	return sent, received, nil
}
