package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/august-unsainted/payment-bot/internal/domain"
	"github.com/august-unsainted/payment-bot/internal/domain/model"
	"github.com/august-unsainted/payment-bot/internal/domain/ports/repository"
)

var _ repository.SubmissionRepository = (*submissionRepo)(nil)

type submissionRepo struct{ pool *pgxpool.Pool }

func NewSubmissionRepo(pool *pgxpool.Pool) *submissionRepo {
	return &submissionRepo{pool: pool}
}

func (r *submissionRepo) Set(ctx context.Context, tx repository.Tx, s *model.PendingSubmission) error {
	const q = `
INSERT INTO pending_submissions (user_id, plan_key, expires_at, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (user_id) DO UPDATE SET plan_key=$2, expires_at=$3, created_at=$4;`

	_, err := execSQL(ctx, r.pool, tx, q, s.UserID, s.PlanKey, s.ExpiresAt, s.CreatedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// Get treats expired rows as absent; they are lazily removed.
func (r *submissionRepo) Get(ctx context.Context, tx repository.Tx, userID int64) (*model.PendingSubmission, error) {
	const q = `SELECT user_id, plan_key, expires_at, created_at FROM pending_submissions WHERE user_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}

	s := &model.PendingSubmission{}
	if err := row.Scan(&s.UserID, &s.PlanKey, &s.ExpiresAt, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if s.Expired(time.Now()) {
		_ = r.Clear(ctx, tx, userID)
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (r *submissionRepo) Clear(ctx context.Context, tx repository.Tx, userID int64) error {
	const q = `DELETE FROM pending_submissions WHERE user_id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, userID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
