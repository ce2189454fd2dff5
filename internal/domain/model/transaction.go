package model

import (
	"time"

	"edupay/internal/domain"
)

type TransactionStatus string

const (
	TransactionStatusCreated   TransactionStatus = "created"   // persisted before redirecting to the gateway
	TransactionStatusFulfilled TransactionStatus = "fulfilled" // callback verified and entitlements granted
	TransactionStatusFailed    TransactionStatus = "failed"    // declined, reaped, or explicitly failed
)

// PaymentTransaction records one checkout attempt. Its ID is the only
// reference embedded in the outbound order payload; the processor's own
// identifiers are never used as correlation keys.
type PaymentTransaction struct {
	ID           string // UUID, server-generated
	UserID       string
	PlanID       string
	Status       TransactionStatus
	Email        string
	StudentName  string  // optional, book personalization
	CouponID     *string // nil when no coupon was applied
	BookIncluded bool    // plan add-on booklet requested at checkout
	TotalPrice   int64   // minor currency units, computed at checkout
	SystemStep   string  // curriculum-stage classification, carried through untouched

	// PayerPersonalID is reported by the processor on the callback and doubles
	// as the generated document password. Set when the transaction fulfills.
	PayerPersonalID string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	FulfilledAt *time.Time

	// Resolved eagerly by TransactionRepository.FindByID so the orchestrator
	// can recompute the price without extra round trips.
	Plan   *Plan
	Coupon *Coupon
}

// NewPaymentTransaction validates and constructs a transaction in the
// "created" state.
func NewPaymentTransaction(id, userID, planID, email string, totalPrice int64) (*PaymentTransaction, error) {
	if id == "" || userID == "" || planID == "" || email == "" || totalPrice < 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &PaymentTransaction{
		ID:         id,
		UserID:     userID,
		PlanID:     planID,
		Status:     TransactionStatusCreated,
		Email:      email,
		TotalPrice: totalPrice,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
