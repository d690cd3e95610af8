package services

import (
	"context"
	"time"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	apperrors "stagecast/pkg/errors"
	"stagecast/pkg/tracing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventDonationAlert is broadcast to a stream's room after a donation commits.
const EventDonationAlert = "donation_alert"

// LedgerConfig carries the monetization knobs. CreatorShareBps is the
// creator's cut of every donation in basis points; it is configuration, not
// business law.
type LedgerConfig struct {
	CreatorShareBps int
	Currency        string
}

type ledgerService struct {
	cfg         LedgerConfig
	store       ports.LedgerStore
	broadcaster ports.Broadcaster
	metrics     *MetricsService
	logger      *zap.SugaredLogger
}

func NewLedgerService(
	cfg LedgerConfig,
	store ports.LedgerStore,
	broadcaster ports.Broadcaster,
	metrics *MetricsService,
	logger *zap.SugaredLogger,
) ports.LedgerService {
	return &ledgerService{
		cfg:         cfg,
		store:       store,
		broadcaster: broadcaster,
		metrics:     metrics,
		logger:      logger,
	}
}

func (s *ledgerService) ProcessDonation(ctx context.Context, req ports.DonationRequest) (*ports.DonationReceipt, error) {
	ctx, span := tracing.TraceLedgerOperation(ctx, "donation", string(req.SenderID), int64(req.Amount))
	defer span.End()

	if req.Amount <= 0 {
		return nil, apperrors.NewInvalidInputError("donation amount must be positive")
	}
	if req.SenderID == "" || req.ReceiverID == "" {
		return nil, apperrors.NewInvalidInputError("sender and receiver are required")
	}
	if !domain.ValidPaymentMethod(req.Method) {
		return nil, apperrors.NewInvalidInputError("unknown payment method")
	}

	creatorNet, platformNet := domain.SplitRevenue(req.Amount, s.cfg.CreatorShareBps)

	donation := &domain.Donation{
		ID:          uuid.NewString(),
		StreamID:    req.StreamID,
		SenderID:    req.SenderID,
		ReceiverID:  req.ReceiverID,
		AmountGross: req.Amount,
		CreatorNet:  creatorNet,
		PlatformNet: platformNet,
		Method:      req.Method,
		Status:      domain.DonationCompleted,
		CreatedAt:   time.Now(),
	}

	// The store applies the donation record, the revenue counter and the
	// wallet credit as one unit; any failure leaves no partial state.
	if err := s.store.CommitDonation(ctx, donation); err != nil {
		s.logger.Errorw("donation transaction failed",
			"donation_id", donation.ID, "receiver_id", req.ReceiverID, "error", err)
		tracing.RecordError(ctx, err)
		return nil, apperrors.NewLedgerError(err)
	}

	s.metrics.RecordDonation(req.StreamID, req.Amount)
	s.logger.Infow("donation processed",
		"donation_id", donation.ID,
		"amount", donation.AmountGross.String(),
		"creator_net", creatorNet.String(),
		"platform_net", platformNet.String(),
		"method", donation.Method,
	)

	if req.StreamID != "" {
		s.broadcaster.Broadcast(req.StreamID, EventDonationAlert, map[string]interface{}{
			"donation_id": donation.ID,
			"sender_id":   donation.SenderID,
			"amount":      donation.AmountGross,
			"display":     donation.AmountGross.String(),
			"method":      donation.Method,
		})
	}

	return &ports.DonationReceipt{
		Donation:    donation,
		CreatorNet:  creatorNet,
		PlatformNet: platformNet,
	}, nil
}

func (s *ledgerService) Withdraw(ctx context.Context, userID domain.UserID, amount domain.Money) (domain.Money, error) {
	ctx, span := tracing.TraceLedgerOperation(ctx, "withdraw", string(userID), int64(amount))
	defer span.End()

	if amount <= 0 {
		return 0, apperrors.NewInvalidInputError("withdraw amount must be positive")
	}

	// Make sure the wallet exists so a first-time user gets a clean
	// insufficient-balance error instead of a missing-wallet one.
	if _, err := s.store.GetOrCreateWallet(ctx, userID); err != nil {
		tracing.RecordError(ctx, err)
		return 0, apperrors.NewLedgerError(err)
	}

	newBalance, err := s.store.DebitWallet(ctx, userID, amount)
	if err != nil {
		if err == domain.ErrInsufficientBalance {
			return 0, apperrors.NewInsufficientBalanceError()
		}
		tracing.RecordError(ctx, err)
		return 0, apperrors.NewLedgerError(err)
	}

	s.logger.Infow("withdraw completed",
		"user_id", userID, "amount", amount.String(), "new_balance", newBalance.String())
	return newBalance, nil
}

func (s *ledgerService) GetOrCreateWallet(ctx context.Context, userID domain.UserID) (*domain.Wallet, error) {
	return s.store.GetOrCreateWallet(ctx, userID)
}

func (s *ledgerService) GetBalance(ctx context.Context, userID domain.UserID) (domain.Money, error) {
	wallet, err := s.store.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

func (s *ledgerService) GetTransactionHistory(ctx context.Context, userID domain.UserID, limit int) (*ports.TransactionHistory, error) {
	sent, received, err := s.store.ListDonations(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return &ports.TransactionHistory{Sent: sent, Received: received}, nil
}

func (s *ledgerService) GetEarnings(ctx context.Context, userID domain.UserID, limit int) (*ports.Earnings, error) {
	wallet, err := s.store.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	_, received, err := s.store.ListDonations(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return &ports.Earnings{
		TotalRevenue:    wallet.Revenue,
		RecentDonations: received,
	}, nil
}
