// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"edupay/internal/config"
	"edupay/internal/domain"
	"edupay/internal/domain/model"
	"edupay/internal/domain/ports/adapter"
	"edupay/internal/domain/ports/repository"
	"edupay/internal/gateway"
	"edupay/internal/infra/metrics"
)

type CheckoutRequest struct {
	UserID       string
	PlanID       string
	Email        string
	StudentName  string
	Phone        string
	CouponID     *string
	BookIncluded bool
}

type CheckoutResult struct {
	// AlreadyPurchased short-circuits book-only repurchases: no new
	// transaction, the stored download link and password are returned.
	AlreadyPurchased bool
	DownloadLink     string
	Password         string

	TransactionID string
	Amount        int64
	RedirectURL   string
}

// CheckoutUseCase validates the purchase request, persists a created
// transaction, and builds the signed redirect URL to the processor.
type CheckoutUseCase interface {
	Initiate(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
}

var _ CheckoutUseCase = (*checkoutUC)(nil)

type checkoutUC struct {
	transactions repository.TransactionRepository
	plans        repository.PlanRepository
	books        repository.BookPurchaseRepository
	pricing      PricingUseCase
	analytics    adapter.AnalyticsClient
	gwCfg        config.GatewayConfig
	bg           Background
	log          *zerolog.Logger
}

func NewCheckoutUseCase(
	transactions repository.TransactionRepository,
	plans repository.PlanRepository,
	books repository.BookPurchaseRepository,
	pricing PricingUseCase,
	analytics adapter.AnalyticsClient,
	gwCfg config.GatewayConfig,
	bg Background,
	logger *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{
		transactions: transactions,
		plans:        plans,
		books:        books,
		pricing:      pricing,
		analytics:    analytics,
		gwCfg:        gwCfg,
		bg:           bg,
		log:          logger,
	}
}

func (u *checkoutUC) Initiate(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.UserID == "" || req.PlanID == "" || req.Email == "" {
		return nil, domain.ErrInvalidArgument
	}

	plan, err := u.plans.FindByID(ctx, repository.NoTX, req.PlanID)
	if err != nil {
		return nil, err
	}

	needsBook := plan.PackageType == model.PackageTypeBook || req.BookIncluded
	if needsBook && (req.StudentName == "" || req.Email == "") {
		return nil, fmt.Errorf("%w: student name and email required for book products", domain.ErrInvalidArgument)
	}

	// Book-only products are not repeatable: hand back the stored download
	// instead of charging twice.
	if plan.PackageType == model.PackageTypeBook {
		for _, productID := range plan.ProductIDs {
			bp, err := u.books.FindByUserAndProduct(ctx, repository.NoTX, req.UserID, productID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return nil, err
			}
			u.log.Info().Str("user_id", req.UserID).Str("product_id", productID).
				Msg("duplicate book checkout, returning stored download")
			return &CheckoutResult{
				AlreadyPurchased: true,
				DownloadLink:     bp.DownloadLink,
				Password:         bp.PersonalID,
			}, nil
		}
	}

	amount, applied, err := u.pricing.CalculateAmount(ctx, plan, req.CouponID, req.BookIncluded)
	if err != nil {
		return nil, err
	}

	t, err := model.NewPaymentTransaction(uuid.NewString(), req.UserID, req.PlanID, req.Email, amount)
	if err != nil {
		return nil, err
	}
	t.StudentName = req.StudentName
	// Stamp only a coupon that discounted the quote. The callback recomputes
	// the price from the stored coupon, so recording one the pricing fallback
	// skipped would reject the customer's legitimately paid full amount.
	if applied != nil {
		t.CouponID = &applied.ID
	}
	t.BookIncluded = req.BookIncluded
	t.SystemStep = plan.SystemStep

	if err := u.transactions.Save(ctx, repository.NoTX, t); err != nil {
		return nil, fmt.Errorf("persist transaction: %w", err)
	}
	metrics.IncTransaction(string(model.TransactionStatusCreated))

	orderHex, err := gateway.EncodeOrder(gateway.OrderPayload{TransactionID: t.ID, Amount: amount})
	if err != nil {
		return nil, err
	}
	redirectURL, err := gateway.BuildRedirectURL(u.gwCfg, orderHex, amount, plan.Name)
	if err != nil {
		return nil, err
	}

	// Fire-and-forget funnel events, off the request path: the client
	// swallows delivery failures and the pool absorbs its latency.
	txID, planID, pkg := t.ID, plan.ID, string(plan.PackageType)
	_ = u.bg.Submit(func(ctx context.Context) error {
		u.analytics.Emit(ctx, "checkout_initiated", map[string]string{
			"transaction_id": txID, "plan_id": planID, "package": pkg,
		})
		u.analytics.Emit(ctx, "checkout_redirected", map[string]string{
			"transaction_id": txID,
		})
		return nil
	})

	return &CheckoutResult{
		TransactionID: t.ID,
		Amount:        amount,
		RedirectURL:   redirectURL,
	}, nil
}
