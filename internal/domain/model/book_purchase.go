package model

import (
	"time"

	"edupay/internal/domain"
)

// BookPurchaseValidity is the fixed entitlement window for generated
// documents, independent of the plan's subscription duration.
const BookPurchaseValidity = 365 * 24 * time.Hour

// BookPurchase tracks one generated-document entitlement. The filename is
// deterministic per (user, product type) so repeated callbacks hit the same
// storage key; the row itself is uniquely keyed on (user_id, product_id) for
// duplicate-purchase detection at checkout time.
type BookPurchase struct {
	ID            string // UUID
	UserID        string
	ProductID     string
	TransactionID string
	FileName      string // deterministic storage key inside the bucket
	DownloadLink  string
	StudentName   string
	PersonalID    string // doubles as document password and receipt identifier
	Generated     bool   // flipped by the converter pipeline, not by this service
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

func NewBookPurchase(id, userID, productID, transactionID, fileName string) (*BookPurchase, error) {
	if id == "" || userID == "" || productID == "" || fileName == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &BookPurchase{
		ID:            id,
		UserID:        userID,
		ProductID:     productID,
		TransactionID: transactionID,
		FileName:      fileName,
		Generated:     false,
		ExpiresAt:     now.Add(BookPurchaseValidity),
		CreatedAt:     now,
	}, nil
}

// LegacyFulfillment marks an in-flight fulfillment for the pre-ledger
// callback shape, keyed by email. A second callback for the same email must
// be a no-op.
type LegacyFulfillment struct {
	Email       string
	PlanID      string
	Amount      int64
	StudentName string
	CreatedAt   time.Time
}
