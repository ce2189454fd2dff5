package postgres

import (
	"errors"
	"time"

	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"edupay/internal/domain"
	"edupay/internal/domain/model"
	"edupay/internal/domain/ports/repository"
)

var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct{ pool *pgxpool.Pool }

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

const txColumns = `id, user_id, plan_id, status, email, student_name, coupon_id, book_included, total_price, system_step, payer_personal_id, created_at, updated_at, fulfilled_at`

func (r *transactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.PaymentTransaction) error {
	const q = `
INSERT INTO payment_transactions (` + txColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (id) DO UPDATE SET
  status=$4, email=$5, student_name=$6, coupon_id=$7, book_included=$8,
  total_price=$9, system_step=$10, payer_personal_id=$11, updated_at=$13, fulfilled_at=$14;`

	_, err := execSQL(ctx, r.pool, tx, q,
		t.ID, t.UserID, t.PlanID, t.Status, t.Email, t.StudentName, t.CouponID, t.BookIncluded,
		t.TotalPrice, t.SystemStep, t.PayerPersonalID, t.CreatedAt, t.UpdatedAt, t.FulfilledAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// FindByID loads the transaction and eagerly resolves its plan and coupon so
// the orchestrator can recompute the price without extra round trips.
// Missing entities map to distinct not-found errors.
func (r *transactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentTransaction, error) {
	q := `SELECT ` + txColumns + ` FROM payment_transactions WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	t := &model.PaymentTransaction{}
	if err := row.Scan(&t.ID, &t.UserID, &t.PlanID, &t.Status, &t.Email, &t.StudentName, &t.CouponID,
		&t.BookIncluded, &t.TotalPrice, &t.SystemStep, &t.PayerPersonalID,
		&t.CreatedAt, &t.UpdatedAt, &t.FulfilledAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}

	plan, err := r.loadPlan(ctx, tx, t.PlanID)
	if err != nil {
		return nil, err
	}
	t.Plan = plan

	if t.CouponID != nil {
		coupon, err := r.loadCoupon(ctx, tx, *t.CouponID)
		if err != nil {
			return nil, err
		}
		t.Coupon = coupon
	}
	return t, nil
}

func (r *transactionRepo) loadPlan(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	const q = `SELECT id, name, price, duration_days, package_type, product_ids, system_step, addon_product_id, addon_price, created_at FROM plans WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	p := &model.Plan{}
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.DurationDays, &p.PackageType, &p.ProductIDs,
		&p.SystemStep, &p.AddonProductID, &p.AddonPrice, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *transactionRepo) loadCoupon(ctx context.Context, tx repository.Tx, id string) (*model.Coupon, error) {
	const q = `SELECT id, code, discount_type, value, valid_from, valid_to, active, usage_cap, usage_count, plan_id, org_year, created_at FROM coupons WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	c := &model.Coupon{}
	if err := row.Scan(&c.ID, &c.Code, &c.DiscountType, &c.Value, &c.ValidFrom, &c.ValidTo,
		&c.Active, &c.UsageCap, &c.UsageCount, &c.PlanID, &c.OrgYear, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}

// MarkFulfilledIfCreated atomically flips status created -> fulfilled. The
// WHERE clause on status is the replay gate: a retried callback finds zero
// rows to update and skips its one-shot side effects.
func (r *transactionRepo) MarkFulfilledIfCreated(ctx context.Context, tx repository.Tx, id, payerPersonalID string) (bool, error) {
	const q = `
UPDATE payment_transactions
   SET status='fulfilled',
       payer_personal_id=$2,
       fulfilled_at=NOW(),
       updated_at=NOW()
 WHERE id=$1
   AND status='created';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, payerPersonalID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *transactionRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE payment_transactions SET status='failed', updated_at=NOW() WHERE id=$1 AND status='created';`
	_, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) ListCreatedOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.PaymentTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + txColumns + ` FROM payment_transactions WHERE status='created' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.PaymentTransaction
	for rows.Next() {
		t := new(model.PaymentTransaction)
		if err := rows.Scan(&t.ID, &t.UserID, &t.PlanID, &t.Status, &t.Email, &t.StudentName, &t.CouponID,
			&t.BookIncluded, &t.TotalPrice, &t.SystemStep, &t.PayerPersonalID,
			&t.CreatedAt, &t.UpdatedAt, &t.FulfilledAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, t)
	}
	return out, nil
}
