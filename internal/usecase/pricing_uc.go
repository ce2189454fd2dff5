// File: internal/usecase/pricing_uc.go
package usecase

import (
	"context"
	"time"

	"edupay/internal/domain/model"
	"edupay/internal/domain/ports/repository"
	"edupay/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// PricingUseCase computes the final charge for a plan.
type PricingUseCase interface {
	// CalculateAmount resolves the coupon id (if any) and prices the plan.
	// An unresolvable or unusable coupon silently yields no discount; this
	// long-standing behavior masks data-integrity bugs but is kept for
	// compatibility, surfaced only through a warn log and a metric. The
	// returned coupon is the one actually applied, nil when the fallback
	// fired: callers must stamp only that, so the callback-side recompute
	// prices against the same coupon set.
	CalculateAmount(ctx context.Context, plan *model.Plan, couponID *string, bookIncluded bool) (int64, *model.Coupon, error)

	// AmountWith prices the plan against an already-resolved coupon. Used on
	// the callback path, where the coupon was eagerly loaded with the
	// transaction and a missing one is already a hard error.
	AmountWith(plan *model.Plan, coupon *model.Coupon, bookIncluded bool) int64
}

var _ PricingUseCase = (*pricingUC)(nil)

type pricingUC struct {
	coupons repository.CouponRepository
	log     *zerolog.Logger
}

func NewPricingUseCase(coupons repository.CouponRepository, logger *zerolog.Logger) *pricingUC {
	return &pricingUC{coupons: coupons, log: logger}
}

func (u *pricingUC) CalculateAmount(ctx context.Context, plan *model.Plan, couponID *string, bookIncluded bool) (int64, *model.Coupon, error) {
	var coupon *model.Coupon
	if couponID != nil && *couponID != "" {
		c, err := u.coupons.FindByID(ctx, repository.NoTX, *couponID)
		if err != nil || !c.Usable(time.Now()) {
			metrics.IncCouponFallback()
			u.log.Warn().Str("coupon_id", *couponID).Msg("coupon unresolvable at pricing time, charging full price")
		} else {
			coupon = c
		}
	}
	return u.AmountWith(plan, coupon, bookIncluded), coupon, nil
}

func (u *pricingUC) AmountWith(plan *model.Plan, coupon *model.Coupon, bookIncluded bool) int64 {
	price := plan.Price
	if bookIncluded {
		price += plan.AddonPrice
	}
	if coupon != nil {
		switch coupon.DiscountType {
		case model.DiscountTypePercentage:
			// round(price * value / 100), integer arithmetic
			price -= (price*coupon.Value + 50) / 100
		case model.DiscountTypeFixed:
			// full override, not a subtraction
			price = coupon.Value
		}
	}
	if price < 0 {
		price = 0
	}
	return price
}
