// File: internal/usecase/fulfillment_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"edupay/internal/domain"
	"edupay/internal/domain/model"
	"edupay/internal/domain/ports/adapter"
	"edupay/internal/domain/ports/repository"
	"edupay/internal/gateway"
	"edupay/internal/infra/metrics"
)

type FulfilledItemKind string

const (
	ItemKindSubscription FulfilledItemKind = "subscription"
	ItemKindBook         FulfilledItemKind = "book"
)

// FulfilledItem is one granted entitlement, rendered on the success page.
type FulfilledItem struct {
	ProductID    string
	ProductName  string
	Kind         FulfilledItemKind
	ExpiresAt    time.Time
	DownloadLink string // books only
	Password     string // books only; the payer personal id, verbatim
}

type CallbackResult struct {
	Legacy            bool
	AlreadyProcessing bool // legacy shape delivered twice
	TransactionID     string
	Items             []FulfilledItem
}

// FulfillmentUseCase verifies the unauthenticated processor callback and,
// only when every gate passes, performs idempotent fulfillment.
type FulfillmentUseCase interface {
	HandleCallback(ctx context.Context, cb gateway.Callback) (*CallbackResult, error)
}

var _ FulfillmentUseCase = (*fulfillmentUC)(nil)

type fulfillmentUC struct {
	transactions repository.TransactionRepository
	products     repository.ProductRepository
	subs         repository.SubscriptionRepository
	coupons      repository.CouponRepository
	bookUC       BookFulfillmentUseCase
	pricing      PricingUseCase
	invoicing    adapter.InvoicingClient
	mailer       adapter.Mailer
	legacy       LegacyCallbackUseCase
	secret       string
	bg           Background
	log          *zerolog.Logger
}

func NewFulfillmentUseCase(
	transactions repository.TransactionRepository,
	products repository.ProductRepository,
	subs repository.SubscriptionRepository,
	coupons repository.CouponRepository,
	bookUC BookFulfillmentUseCase,
	pricing PricingUseCase,
	invoicing adapter.InvoicingClient,
	mailer adapter.Mailer,
	legacy LegacyCallbackUseCase,
	secret string,
	bg Background,
	logger *zerolog.Logger,
) *fulfillmentUC {
	return &fulfillmentUC{
		transactions: transactions,
		products:     products,
		subs:         subs,
		coupons:      coupons,
		bookUC:       bookUC,
		pricing:      pricing,
		invoicing:    invoicing,
		mailer:       mailer,
		legacy:       legacy,
		secret:       secret,
		bg:           bg,
		log:          logger,
	}
}

// HandleCallback walks the gates in order. Everything before the returned
// result is strict: any failure aborts with no side effects beyond what
// already happened. Side effects run afterwards, individually isolated, so a
// slow or failing downstream never blocks the payer-visible response.
func (u *fulfillmentUC) HandleCallback(ctx context.Context, cb gateway.Callback) (*CallbackResult, error) {
	// 1. Legacy dispatch.
	if cb.Type != "" {
		return u.legacy.Handle(ctx, cb)
	}

	// 2. Approval.
	if !cb.Approved() {
		return nil, fmt.Errorf("%w: code %s", domain.ErrPaymentDeclined, cb.CCode)
	}

	// 3. Signature over the fixed field subset.
	ok, err := cb.VerifySignature(u.secret)
	if err != nil {
		return nil, err
	}
	if !ok {
		u.log.Warn().Str("processor_id", cb.ID).Msg("callback signature mismatch")
		return nil, domain.ErrSignatureMismatch
	}

	// 4+5. Order payload decode and schema validation.
	payload, err := gateway.DecodeOrder(cb.Order)
	if err != nil {
		return nil, err
	}

	// 6. Transaction lookup with eager plan and coupon resolution.
	t, err := u.transactions.FindByID(ctx, repository.NoTX, payload.TransactionID)
	if err != nil {
		return nil, err
	}

	// 7. Price re-verification. The signature only proves the callback was
	// not forged; it cannot prove the original amount was not manipulated
	// client-side before the first redirect. Recomputing from our own plan
	// and coupon closes that hole.
	expected := u.pricing.AmountWith(t.Plan, t.Coupon, t.BookIncluded)
	if expected != payload.Amount {
		u.log.Warn().Str("tx_id", t.ID).Int64("expected", expected).Int64("got", payload.Amount).
			Msg("callback amount mismatch, possible tamper")
		return nil, domain.ErrPriceMismatch
	}

	// 8. Per-product fan-out.
	now := time.Now()
	var (
		items   []FulfilledItem
		pending []*model.Subscription
		mails   []adapter.DownloadMail
	)

	addBook := func(productID string) error {
		prod, err := u.products.FindByID(ctx, repository.NoTX, productID)
		if err != nil {
			return err
		}
		bp, err := u.bookUC.CreateBookPurchase(ctx, BookPurchaseInput{
			Product:       prod,
			StudentName:   t.StudentName,
			Email:         t.Email,
			TransactionID: t.ID,
			UserID:        t.UserID,
			Phone:         cb.Cell,
			PersonalID:    cb.UserID,
		})
		if err != nil {
			return err
		}
		items = append(items, FulfilledItem{
			ProductID:    prod.ID,
			ProductName:  prod.Name,
			Kind:         ItemKindBook,
			ExpiresAt:    bp.ExpiresAt,
			DownloadLink: bp.DownloadLink,
			Password:     cb.UserID,
		})
		sub, err := model.NewSubscription(uuid.NewString(), t.UserID, prod.ID, t.ID, bp.ExpiresAt)
		if err != nil {
			return err
		}
		pending = append(pending, sub)
		mails = append(mails, adapter.DownloadMail{
			To:           t.Email,
			StudentName:  t.StudentName,
			ProductName:  prod.Name,
			DownloadLink: bp.DownloadLink,
			Password:     cb.UserID,
		})
		return nil
	}

	for _, productID := range t.Plan.ProductIDs {
		if t.Plan.PackageType == model.PackageTypeBook {
			if err := addBook(productID); err != nil {
				return nil, err
			}
			continue
		}
		expiry := now.Add(time.Duration(t.Plan.DurationDays) * 24 * time.Hour)
		sub, err := model.NewSubscription(uuid.NewString(), t.UserID, productID, t.ID, expiry)
		if err != nil {
			return nil, err
		}
		pending = append(pending, sub)
		items = append(items, FulfilledItem{
			ProductID: productID,
			Kind:      ItemKindSubscription,
			ExpiresAt: expiry,
		})
	}

	// Bundled booklet on a system-package plan.
	if t.BookIncluded && t.Plan.AddonProductID != nil {
		if err := addBook(*t.Plan.AddonProductID); err != nil {
			return nil, err
		}
	}

	// 9. The result is complete here; everything below is best-effort and
	// must never surface into it.
	result := &CallbackResult{TransactionID: t.ID, Items: items}

	// 10. Best-effort side effects, each isolated.
	tx := t
	payerID := cb.UserID
	if err := u.bg.Submit(func(ctx context.Context) error {
		u.runSideEffects(ctx, tx, payerID, pending, mails)
		return nil
	}); err != nil {
		u.log.Error().Err(err).Str("tx_id", t.ID).Msg("fulfillment side effects not queued")
	}

	return result, nil
}

// runSideEffects executes the post-response phase. Subscription inserts are
// idempotent on their natural key and always re-run; the one-shot effects
// (receipt, email, coupon bookkeeping) are gated by the atomic status flip so
// a replayed callback cannot repeat them.
func (u *fulfillmentUC) runSideEffects(ctx context.Context, t *model.PaymentTransaction, payerID string, pending []*model.Subscription, mails []adapter.DownloadMail) {
	for _, sub := range pending {
		inserted, err := u.subs.SaveIdempotent(ctx, repository.NoTX, sub)
		if err != nil {
			metrics.IncSideEffectFailure("subscription")
			u.log.Error().Err(err).Str("tx_id", t.ID).Str("product_id", sub.ProductID).
				Msg("subscription insert failed")
			continue
		}
		if inserted {
			metrics.IncFulfillmentItem(string(ItemKindSubscription))
		}
	}

	flipped, err := u.transactions.MarkFulfilledIfCreated(ctx, repository.NoTX, t.ID, payerID)
	if err != nil {
		metrics.IncSideEffectFailure("mark_fulfilled")
		u.log.Error().Err(err).Str("tx_id", t.ID).Msg("mark fulfilled failed")
		return
	}
	if !flipped {
		u.log.Info().Str("tx_id", t.ID).Msg("callback replay, one-shot side effects skipped")
		return
	}
	metrics.IncTransaction(string(model.TransactionStatusFulfilled))
	metrics.AddRevenue(string(t.Plan.PackageType), t.TotalPrice)

	if t.Plan.PackageType == model.PackageTypeBook {
		if err := u.invoicing.IssueReceipt(ctx, adapter.Receipt{
			TransactionID: t.ID,
			Email:         t.Email,
			CustomerName:  t.StudentName,
			PersonalID:    payerID,
			Amount:        t.TotalPrice,
			Description:   t.Plan.Name,
		}); err != nil {
			metrics.IncSideEffectFailure("receipt")
			u.log.Error().Err(err).Str("tx_id", t.ID).Msg("receipt issuance failed")
		}
	}

	for _, m := range mails {
		if err := u.mailer.SendDownloadReady(ctx, m); err != nil {
			metrics.IncSideEffectFailure("email")
			u.log.Error().Err(err).Str("tx_id", t.ID).Str("to", m.To).
				Msg("download email failed")
		}
	}

	if t.CouponID != nil {
		if err := u.coupons.IncrementUsage(ctx, repository.NoTX, *t.CouponID); err != nil {
			metrics.IncSideEffectFailure("coupon_clear")
			u.log.Error().Err(err).Str("tx_id", t.ID).Msg("coupon usage increment failed")
		}
	}
	if err := u.coupons.ClearApplied(ctx, repository.NoTX, t.UserID); err != nil {
		metrics.IncSideEffectFailure("coupon_clear")
		u.log.Error().Err(err).Str("tx_id", t.ID).Msg("applied coupon clear failed")
	}
}
