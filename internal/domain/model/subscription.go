package model

import (
	"time"

	"edupay/internal/domain"
)

// Subscription is an entitlement granted by a fulfilled transaction.
// Uniqueness is enforced in the database on
// (user_id, product_id, payment_transaction_id) so retried callbacks cannot
// create duplicates.
type Subscription struct {
	ID                   string // UUID
	UserID               string
	ProductID            string
	PaymentTransactionID string
	ExpiresAt            time.Time
	CreatedAt            time.Time
}

// NewSubscription creates an entitlement expiring after the plan's duration.
func NewSubscription(id, userID, productID, transactionID string, expiresAt time.Time) (*Subscription, error) {
	if id == "" || userID == "" || productID == "" || transactionID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Subscription{
		ID:                   id,
		UserID:               userID,
		ProductID:            productID,
		PaymentTransactionID: transactionID,
		ExpiresAt:            expiresAt,
		CreatedAt:            time.Now(),
	}, nil
}
