package repository

import (
	"context"

	"edupay/internal/domain/model"
)

type CouponRepository interface {
	// FindByID returns the coupon regardless of validity; callers decide
	// whether an unusable coupon is an error or a silent no-discount.
	FindByID(ctx context.Context, tx Tx, id string) (*model.Coupon, error)

	IncrementUsage(ctx context.Context, tx Tx, id string) error

	// ClearApplied removes any coupon the user has staged for checkout.
	ClearApplied(ctx context.Context, tx Tx, userID string) error
}
