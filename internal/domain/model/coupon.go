package model

import "time"

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage" // subtract round(price*value/100)
	DiscountTypeFixed      DiscountType = "fixed"      // replace price with value outright
)

// Coupon is a discount rule resolved at checkout and re-resolved identically
// at callback time. Scoping (plan, organization-year) is enforced by the
// repository query, not here.
type Coupon struct {
	ID           string
	Code         string
	DiscountType DiscountType
	Value        int64
	ValidFrom    time.Time
	ValidTo      time.Time
	Active       bool
	UsageCap     int
	UsageCount   int
	PlanID       *string // nil = any plan
	OrgYear      *string // nil = any organization-year
	CreatedAt    time.Time
}

// Usable reports whether the coupon can still be applied at the given time.
func (c *Coupon) Usable(at time.Time) bool {
	if c == nil || !c.Active {
		return false
	}
	if at.Before(c.ValidFrom) || at.After(c.ValidTo) {
		return false
	}
	if c.UsageCap > 0 && c.UsageCount >= c.UsageCap {
		return false
	}
	return true
}
