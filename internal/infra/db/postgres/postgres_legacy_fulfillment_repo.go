package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"edupay/internal/domain"
	"edupay/internal/domain/model"
	"edupay/internal/domain/ports/repository"
)

var _ repository.LegacyFulfillmentRepository = (*legacyFulfillmentRepo)(nil)

type legacyFulfillmentRepo struct{ pool *pgxpool.Pool }

func NewLegacyFulfillmentRepo(pool *pgxpool.Pool) *legacyFulfillmentRepo {
	return &legacyFulfillmentRepo{pool: pool}
}

// TryBegin is the whole idempotency story for the pre-ledger callback shape:
// email is the primary key, so a second delivery inserts nothing and the
// caller short-circuits to "already processing".
func (r *legacyFulfillmentRepo) TryBegin(ctx context.Context, tx repository.Tx, lf *model.LegacyFulfillment) (bool, error) {
	const q = `
INSERT INTO legacy_fulfillments (email, plan_id, amount, student_name, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (email) DO NOTHING;`

	cmd, err := execSQL(ctx, r.pool, tx, q, lf.Email, lf.PlanID, lf.Amount, lf.StudentName, lf.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}
