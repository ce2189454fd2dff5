package model

import (
	"time"

	"edupay/internal/domain"
)

type PackageType string

const (
	PackageTypeSystem PackageType = "system" // time-bounded subscription access
	PackageTypeBook   PackageType = "book"   // generated, personalized document
)

// Plan is a purchasable package. Read-only from this subsystem's perspective;
// plans are maintained by the admin surface.
type Plan struct {
	ID           string
	Name         string
	Price        int64 // minor currency units
	DurationDays int
	PackageType  PackageType
	ProductIDs   []string // products granted on fulfillment
	SystemStep   string

	// Optional bundled add-on (a booklet sold alongside a system plan).
	AddonProductID *string
	AddonPrice     int64

	CreatedAt time.Time
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// NewPlan validates and constructs a plan.
func NewPlan(id, name string, price int64, durationDays int, pkg PackageType, productIDs []string) (*Plan, error) {
	if id == "" || name == "" || price <= 0 || len(productIDs) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	if pkg == PackageTypeSystem && durationDays <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Plan{
		ID:           id,
		Name:         name,
		Price:        price,
		DurationDays: durationDays,
		PackageType:  pkg,
		ProductIDs:   productIDs,
		CreatedAt:    time.Now(),
	}, nil
}
