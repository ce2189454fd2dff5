package repository

import (
	"context"
	"time"

	"edupay/internal/domain/model"
)

// TransactionRepository owns the payment transaction lifecycle.
type TransactionRepository interface {
	Save(ctx context.Context, tx Tx, t *model.PaymentTransaction) error

	// FindByID eagerly resolves the referenced plan and coupon (if any) into
	// the returned transaction. A missing plan is domain.ErrPlanNotFound; a
	// coupon id present on the row but unresolvable is domain.ErrCouponNotFound.
	FindByID(ctx context.Context, tx Tx, id string) (*model.PaymentTransaction, error)

	// MarkFulfilledIfCreated atomically flips status created -> fulfilled and
	// records the payer's personal identifier. Returns false when the
	// transaction was not in the created state (replayed callback).
	MarkFulfilledIfCreated(ctx context.Context, tx Tx, id, payerPersonalID string) (bool, error)

	MarkFailed(ctx context.Context, tx Tx, id string) error

	// ListCreatedOlderThan feeds the checkout reaper.
	ListCreatedOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.PaymentTransaction, error)
}
