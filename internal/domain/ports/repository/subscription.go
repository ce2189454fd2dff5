package repository

import (
	"context"

	"edupay/internal/domain/model"
)

type SubscriptionRepository interface {
	// SaveIdempotent inserts the subscription, silently succeeding when a row
	// with the same (user_id, product_id, payment_transaction_id) already
	// exists. Returns true when a row was actually inserted.
	SaveIdempotent(ctx context.Context, tx Tx, s *model.Subscription) (bool, error)

	CountByUserAndProduct(ctx context.Context, tx Tx, userID, productID string) (int, error)
}

type BookPurchaseRepository interface {
	// SaveIdempotent inserts the purchase, silently succeeding when the
	// (user_id, product_id) pair already owns one. Returns the stored row,
	// which is the existing one on conflict.
	SaveIdempotent(ctx context.Context, tx Tx, bp *model.BookPurchase) (*model.BookPurchase, error)

	FindByUserAndProduct(ctx context.Context, tx Tx, userID, productID string) (*model.BookPurchase, error)
}

type LegacyFulfillmentRepository interface {
	// TryBegin records a fulfillment marker for the email. Returns false when
	// a marker already exists (second delivery of the same legacy callback).
	TryBegin(ctx context.Context, tx Tx, lf *model.LegacyFulfillment) (bool, error)
}
