package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"edupay/internal/domain"
	"edupay/internal/domain/model"
	"edupay/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

// SaveIdempotent relies on the unique constraint on
// (user_id, product_id, payment_transaction_id): a retried callback's insert
// conflicts and affects zero rows instead of duplicating the entitlement.
func (r *subscriptionRepo) SaveIdempotent(ctx context.Context, tx repository.Tx, s *model.Subscription) (bool, error) {
	const q = `
INSERT INTO subscriptions (id, user_id, product_id, payment_transaction_id, expires_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (user_id, product_id, payment_transaction_id) DO NOTHING;`

	cmd, err := execSQL(ctx, r.pool, tx, q, s.ID, s.UserID, s.ProductID, s.PaymentTransactionID, s.ExpiresAt, s.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *subscriptionRepo) CountByUserAndProduct(ctx context.Context, tx repository.Tx, userID, productID string) (int, error) {
	const q = `SELECT COUNT(*) FROM subscriptions WHERE user_id=$1 AND product_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, productID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
