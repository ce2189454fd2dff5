// File: internal/usecase/bookgen_uc.go
package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"edupay/internal/domain/model"
	"edupay/internal/domain/ports/adapter"
	"edupay/internal/domain/ports/repository"
	"edupay/internal/infra/metrics"
)

// BookFulfillmentUseCase is the bridge between payment fulfillment and the
// external document-rendering pipeline. It persists the purchase record and
// returns the download location immediately; the actual rendering happens
// asynchronously and its failure never blocks payment fulfillment.
type BookFulfillmentUseCase interface {
	CreateBookPurchase(ctx context.Context, in BookPurchaseInput) (*model.BookPurchase, error)
}

type BookPurchaseInput struct {
	Product       *model.Product
	StudentName   string
	Email         string
	TransactionID string
	UserID        string
	Phone         string
	PersonalID    string // document password and receipt identifier, verbatim
}

var _ BookFulfillmentUseCase = (*bookFulfillmentUC)(nil)

type bookFulfillmentUC struct {
	books     repository.BookPurchaseRepository
	linker    adapter.DownloadLinker
	converter adapter.ConverterClient
	bg        Background
	log       *zerolog.Logger
}

func NewBookFulfillmentUseCase(
	books repository.BookPurchaseRepository,
	linker adapter.DownloadLinker,
	converter adapter.ConverterClient,
	bg Background,
	logger *zerolog.Logger,
) *bookFulfillmentUC {
	return &bookFulfillmentUC{books: books, linker: linker, converter: converter, bg: bg, log: logger}
}

// BookFileName derives the deterministic storage key for a user's document.
// Repeated fulfillments of the same user+product land on the same key.
func BookFileName(userID, productType string) string {
	return fmt.Sprintf("%s_%s.pdf", userID, productType)
}

func (u *bookFulfillmentUC) CreateBookPurchase(ctx context.Context, in BookPurchaseInput) (*model.BookPurchase, error) {
	fileName := BookFileName(in.UserID, in.Product.Type)
	link, err := u.linker.Link(fileName)
	if err != nil {
		return nil, fmt.Errorf("build download link: %w", err)
	}

	bp, err := model.NewBookPurchase(uuid.NewString(), in.UserID, in.Product.ID, in.TransactionID, fileName)
	if err != nil {
		return nil, err
	}
	bp.DownloadLink = link
	bp.StudentName = in.StudentName
	bp.PersonalID = in.PersonalID

	stored, err := u.books.SaveIdempotent(ctx, repository.NoTX, bp)
	if err != nil {
		return nil, fmt.Errorf("persist book purchase: %w", err)
	}

	// Kick the converter without waiting for it. The response carries the
	// download link regardless; the page's countdown covers rendering time.
	userID, productID := in.UserID, in.Product.ID
	if err := u.bg.Submit(func(ctx context.Context) error {
		if err := u.converter.TriggerConversion(ctx, userID, productID); err != nil {
			metrics.IncSideEffectFailure("converter")
			u.log.Error().Err(err).Str("user_id", userID).Str("product_id", productID).
				Msg("converter trigger failed")
		}
		return nil
	}); err != nil {
		u.log.Warn().Err(err).Msg("converter trigger not queued")
	}

	return stored, nil
}
