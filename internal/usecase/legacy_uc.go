// File: internal/usecase/legacy_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"edupay/internal/domain"
	"edupay/internal/domain/model"
	"edupay/internal/domain/ports/adapter"
	"edupay/internal/domain/ports/repository"
	"edupay/internal/gateway"
	"edupay/internal/infra/metrics"
)

// LegacyCallbackUseCase services the pre-ledger callback shape: order payload
// keyed by email, no transaction id. It shares the approval and signature
// gates with the current shape and diverges only in lookup and persistence.
// It must stay dispatchable as long as the processor can deliver in-flight
// transactions created before the cutover.
type LegacyCallbackUseCase interface {
	Handle(ctx context.Context, cb gateway.Callback) (*CallbackResult, error)
}

var _ LegacyCallbackUseCase = (*legacyCallbackUC)(nil)

type legacyCallbackUC struct {
	fulfillments repository.LegacyFulfillmentRepository
	plans        repository.PlanRepository
	products     repository.ProductRepository
	bookUC       BookFulfillmentUseCase
	mailer       adapter.Mailer
	secret       string
	bg           Background
	log          *zerolog.Logger
}

func NewLegacyCallbackUseCase(
	fulfillments repository.LegacyFulfillmentRepository,
	plans repository.PlanRepository,
	products repository.ProductRepository,
	bookUC BookFulfillmentUseCase,
	mailer adapter.Mailer,
	secret string,
	bg Background,
	logger *zerolog.Logger,
) *legacyCallbackUC {
	return &legacyCallbackUC{
		fulfillments: fulfillments,
		plans:        plans,
		products:     products,
		bookUC:       bookUC,
		mailer:       mailer,
		secret:       secret,
		bg:           bg,
		log:          logger,
	}
}

func (u *legacyCallbackUC) Handle(ctx context.Context, cb gateway.Callback) (*CallbackResult, error) {
	if !cb.Approved() {
		return nil, fmt.Errorf("%w: code %s", domain.ErrPaymentDeclined, cb.CCode)
	}
	ok, err := cb.VerifySignature(u.secret)
	if err != nil {
		return nil, err
	}
	if !ok {
		u.log.Warn().Str("processor_id", cb.ID).Msg("legacy callback signature mismatch")
		return nil, domain.ErrSignatureMismatch
	}

	lp, err := gateway.DecodeLegacyOrder(cb.Order)
	if err != nil {
		return nil, err
	}

	began, err := u.fulfillments.TryBegin(ctx, repository.NoTX, &model.LegacyFulfillment{
		Email:       lp.Email,
		PlanID:      lp.PlanID,
		Amount:      lp.Amount,
		StudentName: lp.StudentName,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if !began {
		u.log.Info().Str("email", lp.Email).Msg("legacy callback already processing")
		return &CallbackResult{Legacy: true, AlreadyProcessing: true}, nil
	}

	plan, err := u.plans.FindByID(ctx, repository.NoTX, lp.PlanID)
	if err != nil {
		return nil, err
	}

	// Pre-ledger purchases have no user record; the email is the owner key,
	// which also keeps the derived filename deterministic per purchaser.
	var items []FulfilledItem
	var mails []adapter.DownloadMail
	for _, productID := range plan.ProductIDs {
		prod, err := u.products.FindByID(ctx, repository.NoTX, productID)
		if err != nil {
			return nil, err
		}
		bp, err := u.bookUC.CreateBookPurchase(ctx, BookPurchaseInput{
			Product:     prod,
			StudentName: lp.StudentName,
			Email:       lp.Email,
			UserID:      lp.Email,
			PersonalID:  cb.UserID,
		})
		if err != nil {
			return nil, err
		}
		items = append(items, FulfilledItem{
			ProductID:    prod.ID,
			ProductName:  prod.Name,
			Kind:         ItemKindBook,
			ExpiresAt:    bp.ExpiresAt,
			DownloadLink: bp.DownloadLink,
			Password:     cb.UserID,
		})
		mails = append(mails, adapter.DownloadMail{
			To:           lp.Email,
			StudentName:  lp.StudentName,
			ProductName:  prod.Name,
			DownloadLink: bp.DownloadLink,
			Password:     cb.UserID,
		})
	}

	if err := u.bg.Submit(func(ctx context.Context) error {
		for _, m := range mails {
			if err := u.mailer.SendDownloadReady(ctx, m); err != nil {
				metrics.IncSideEffectFailure("email")
				u.log.Error().Err(err).Str("to", m.To).Msg("legacy download email failed")
			}
		}
		return nil
	}); err != nil {
		u.log.Error().Err(err).Msg("legacy side effects not queued")
	}

	return &CallbackResult{Legacy: true, Items: items}, nil
}
