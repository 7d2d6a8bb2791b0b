package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/august-unsainted/payment-bot/internal/domain"
	"github.com/august-unsainted/payment-bot/internal/domain/model"
	"github.com/august-unsainted/payment-bot/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, plan_key, amount, period_days, status, proof_file_id, start_date, end_date, created_at, updated_at`

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (id, user_id, plan_key, amount, period_days, status, proof_file_id, start_date, end_date, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  amount=$4, period_days=$5, status=$6, proof_file_id=$7, start_date=$8, end_date=$9, updated_at=$11;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.UserID, p.PlanKey, p.Amount, p.PeriodDays, p.Status, p.ProofFileID, p.StartDate, p.EndDate, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindAcceptedUnstarted(ctx context.Context, tx repository.Tx, userID int64) (*model.Payment, error) {
	q := `
SELECT ` + paymentColumns + `
  FROM payments
 WHERE user_id=$1 AND status='accepted' AND start_date IS NULL
 ORDER BY created_at DESC
 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", userID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID int64) (*model.Payment, error) {
	q := `
SELECT ` + paymentColumns + `
  FROM payments
 WHERE user_id=$1 AND status='active'
 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", userID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) List(ctx context.Context, tx repository.Tx, status model.PaymentStatus, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	var (
		rows pgx.Rows
		err  error
	)
	if status == "" {
		const q = `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at DESC LIMIT $1;`
		rows, err = queryRows(ctx, r.pool, tx, q, limit)
	} else {
		const q = `SELECT ` + paymentColumns + ` FROM payments WHERE status=$1 ORDER BY created_at DESC LIMIT $2;`
		rows, err = queryRows(ctx, r.pool, tx, q, status, limit)
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	err := row.Scan(&p.ID, &p.UserID, &p.PlanKey, &p.Amount, &p.PeriodDays, &p.Status, &p.ProofFileID, &p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
