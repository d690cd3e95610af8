package domain

import (
	"fmt"
	"time"
)

// Money is an amount in minor units (cents). All ledger arithmetic happens on
// this type; floating point never touches a balance.
type Money int64

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}

type PaymentMethod string

const (
	MethodCashApp PaymentMethod = "cashapp"
	MethodPayPal  PaymentMethod = "paypal"
	MethodVenmo   PaymentMethod = "venmo"
	MethodZelle   PaymentMethod = "zelle"
	MethodOther   PaymentMethod = "other"
)

// ValidPaymentMethod reports whether the given method is supported.
func ValidPaymentMethod(method PaymentMethod) bool {
	switch method {
	case MethodCashApp, MethodPayPal, MethodVenmo, MethodZelle, MethodOther:
		return true
	}
	return false
}

type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationCompleted DonationStatus = "completed"
	DonationFailed    DonationStatus = "failed"
)

// Donation is a single monetization transaction. The invariant
// CreatorNet + PlatformNet == AmountGross holds exactly for every record.
type Donation struct {
	ID          string         `json:"id"`
	StreamID    StreamID       `json:"stream_id,omitempty"`
	SenderID    UserID         `json:"sender_id"`
	ReceiverID  UserID         `json:"receiver_id"`
	AmountGross Money          `json:"amount_gross"`
	CreatorNet  Money          `json:"creator_net"`
	PlatformNet Money          `json:"platform_net"`
	Method      PaymentMethod  `json:"method"`
	Status      DonationStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Wallet holds a user's spendable balance and cumulative creator revenue.
// Balance is only mutated through the ledger store and never goes negative.
type Wallet struct {
	UserID    UserID    `json:"user_id"`
	Balance   Money     `json:"balance"`
	Revenue   Money     `json:"revenue"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// SplitRevenue divides gross into the creator and platform parts using a
// ratio in basis points (8500 = 85%). Rounding is half-up on the creator
// side and the platform part is the exact remainder, so the two always sum
// back to gross.
func SplitRevenue(gross Money, creatorShareBps int) (creatorNet, platformNet Money) {
	creatorNet = Money((int64(gross)*int64(creatorShareBps) + 5000) / 10000)
	platformNet = gross - creatorNet
	return creatorNet, platformNet
}
