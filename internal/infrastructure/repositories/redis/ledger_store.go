package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/pkg/retry"
)

const (
	walletKeyPrefix       = "stagecast:wallet:"
	donationKeyPrefix     = "stagecast:donation:"
	sentListKeyPrefix     = "stagecast:donations:sent:"
	receivedListKeyPrefix = "stagecast:donations:received:"
)

// RedisLedgerStore keeps wallets as JSON values and donation IDs in per-user
// lists. Multi-key writes go through WATCH transactions so a donation commit
// is all-or-nothing even with concurrent commits against the same wallet.
type RedisLedgerStore struct {
	client   *redis.Client
	currency string
	retry    retry.Config
}

func NewRedisLedgerStore(client *redis.Client, currency string) ports.LedgerStore {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = 5
	cfg.RetryableErrors = []error{redis.TxFailedErr}
	return &RedisLedgerStore{client: client, currency: currency, retry: cfg}
}

func walletKey(userID domain.UserID) string {
	return walletKeyPrefix + string(userID)
}

func (s *RedisLedgerStore) readWallet(ctx context.Context, cmdable redis.Cmdable, userID domain.UserID) (*domain.Wallet, error) {
	data, err := cmdable.Get(ctx, walletKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	var wallet domain.Wallet
	if err := json.Unmarshal(data, &wallet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}

	return &wallet, nil
}

func (s *RedisLedgerStore) GetOrCreateWallet(ctx context.Context, userID domain.UserID) (*domain.Wallet, error) {
	wallet, err := s.readWallet(ctx, s.client, userID)
	if err == nil {
		return wallet, nil
	}
	if err != domain.ErrWalletNotFound {
		return nil, err
	}

	fresh := &domain.Wallet{
		UserID:    userID,
		Currency:  s.currency,
		CreatedAt: time.Now(),
	}
	data, err := json.Marshal(fresh)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wallet: %w", err)
	}

	created, err := s.client.SetNX(ctx, walletKey(userID), data, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	if !created {
		// Lost the race; another caller created it first.
		return s.readWallet(ctx, s.client, userID)
	}

	return fresh, nil
}

func (s *RedisLedgerStore) GetWallet(ctx context.Context, userID domain.UserID) (*domain.Wallet, error) {
	return s.readWallet(ctx, s.client, userID)
}

func (s *RedisLedgerStore) CommitDonation(ctx context.Context, donation *domain.Donation) error {
	if donation.AmountGross <= 0 {
		return domain.ErrInvalidAmount
	}

	if _, err := s.GetOrCreateWallet(ctx, donation.ReceiverID); err != nil {
		return err
	}

	key := walletKey(donation.ReceiverID)
	txn := func(tx *redis.Tx) error {
		wallet, err := s.readWallet(ctx, tx, donation.ReceiverID)
		if err != nil {
			return err
		}

		wallet.Balance += donation.CreatorNet
		wallet.Revenue += donation.CreatorNet

		walletData, err := json.Marshal(wallet)
		if err != nil {
			return fmt.Errorf("failed to marshal wallet: %w", err)
		}
		donationData, err := json.Marshal(donation)
		if err != nil {
			return fmt.Errorf("failed to marshal donation: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, walletData, 0)
			pipe.Set(ctx, donationKeyPrefix+donation.ID, donationData, 0)
			pipe.LPush(ctx, sentListKeyPrefix+string(donation.SenderID), donation.ID)
			pipe.LPush(ctx, receivedListKeyPrefix+string(donation.ReceiverID), donation.ID)
			return nil
		})
		return err
	}

	err := retry.Do(ctx, s.retry, func() error {
		return s.client.Watch(ctx, txn, key)
	})
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return fmt.Errorf("%w: %v", domain.ErrLedgerConflict, err)
		}
		return err
	}

	return nil
}

func (s *RedisLedgerStore) DebitWallet(ctx context.Context, userID domain.UserID, amount domain.Money) (domain.Money, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}

	key := walletKey(userID)
	var balance domain.Money

	txn := func(tx *redis.Tx) error {
		wallet, err := s.readWallet(ctx, tx, userID)
		if err != nil {
			return err
		}

		if wallet.Balance < amount {
			balance = wallet.Balance
			return domain.ErrInsufficientBalance
		}

		wallet.Balance -= amount
		data, err := json.Marshal(wallet)
		if err != nil {
			return fmt.Errorf("failed to marshal wallet: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err != nil {
			return err
		}

		balance = wallet.Balance
		return nil
	}

	err := retry.Do(ctx, s.retry, func() error {
		return s.client.Watch(ctx, txn, key)
	})
	if err != nil {
		return balance, err
	}

	return balance, nil
}

func (s *RedisLedgerStore) ListDonations(ctx context.Context, userID domain.UserID, limit int) (sent, received []*domain.Donation, err error) {
	sent, err = s.readDonationList(ctx, sentListKeyPrefix+string(userID), limit)
	if err != nil {
		return nil, nil, err
	}

	received, err = s.readDonationList(ctx, receivedListKeyPrefix+string(userID), limit)
	if err != nil {
		return nil, nil, err
	}

	return sent, received, nil
}

func (s *RedisLedgerStore) readDonationList(ctx context.Context, listKey string, limit int) ([]*domain.Donation, error) {
	end := int64(-1)
	if limit > 0 {
		end = int64(limit) - 1
	}

	ids, err := s.client.LRange(ctx, listKey, 0, end).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}

	donations := make([]*domain.Donation, 0, len(ids))
	for _, id := range ids {
		data, err := s.client.Get(ctx, donationKeyPrefix+id).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get donation: %w", err)
		}

		var donation domain.Donation
		if err := json.Unmarshal(data, &donation); err != nil {
			return nil, fmt.Errorf("failed to unmarshal donation: %w", err)
		}
		donations = append(donations, &donation)
	}

	return donations, nil
}
