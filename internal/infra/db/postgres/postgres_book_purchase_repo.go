package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"edupay/internal/domain"
	"edupay/internal/domain/model"
	"edupay/internal/domain/ports/repository"
)

var _ repository.BookPurchaseRepository = (*bookPurchaseRepo)(nil)

type bookPurchaseRepo struct{ pool *pgxpool.Pool }

func NewBookPurchaseRepo(pool *pgxpool.Pool) *bookPurchaseRepo {
	return &bookPurchaseRepo{pool: pool}
}

const bookColumns = `id, user_id, product_id, transaction_id, file_name, download_link, student_name, personal_id, generated, expires_at, created_at`

// SaveIdempotent inserts the purchase or, when the (user_id, product_id) pair
// already owns one, returns the existing row untouched. The filename is
// deterministic per user+product, so the returned row always points at the
// same storage key.
func (r *bookPurchaseRepo) SaveIdempotent(ctx context.Context, tx repository.Tx, bp *model.BookPurchase) (*model.BookPurchase, error) {
	const q = `
INSERT INTO book_purchases (` + bookColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (user_id, product_id) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, tx, q,
		bp.ID, bp.UserID, bp.ProductID, bp.TransactionID, bp.FileName, bp.DownloadLink,
		bp.StudentName, bp.PersonalID, bp.Generated, bp.ExpiresAt, bp.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	return r.FindByUserAndProduct(ctx, tx, bp.UserID, bp.ProductID)
}

func (r *bookPurchaseRepo) FindByUserAndProduct(ctx context.Context, tx repository.Tx, userID, productID string) (*model.BookPurchase, error) {
	const q = `SELECT ` + bookColumns + ` FROM book_purchases WHERE user_id=$1 AND product_id=$2 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, productID)
	if err != nil {
		return nil, err
	}
	bp := &model.BookPurchase{}
	if err := row.Scan(&bp.ID, &bp.UserID, &bp.ProductID, &bp.TransactionID, &bp.FileName, &bp.DownloadLink,
		&bp.StudentName, &bp.PersonalID, &bp.Generated, &bp.ExpiresAt, &bp.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return bp, nil
}
