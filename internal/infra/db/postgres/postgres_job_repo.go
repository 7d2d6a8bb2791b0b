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

var _ repository.JobRepository = (*jobRepo)(nil)

type jobRepo struct{ pool *pgxpool.Pool }

func NewJobRepo(pool *pgxpool.Pool) *jobRepo {
	return &jobRepo{pool: pool}
}

func (r *jobRepo) Upsert(ctx context.Context, tx repository.Tx, job *model.ScheduledJob) error {
	const q = `
INSERT INTO scheduled_jobs (user_id, kind, fire_at, payload, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (user_id, kind) DO UPDATE SET fire_at=$3, payload=$4;`

	_, err := execSQL(ctx, r.pool, tx, q, job.UserID, job.Kind, job.FireAt, job.Payload, job.CreatedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *jobRepo) Delete(ctx context.Context, tx repository.Tx, key model.JobKey) error {
	const q = `DELETE FROM scheduled_jobs WHERE user_id=$1 AND kind=$2;`
	_, err := execSQL(ctx, r.pool, tx, q, key.UserID, key.Kind)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *jobRepo) DeleteFired(ctx context.Context, tx repository.Tx, key model.JobKey, fireAt time.Time) error {
	const q = `DELETE FROM scheduled_jobs WHERE user_id=$1 AND kind=$2 AND fire_at=$3;`
	_, err := execSQL(ctx, r.pool, tx, q, key.UserID, key.Kind, fireAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *jobRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.ScheduledJob, error) {
	const q = `SELECT user_id, kind, fire_at, payload, created_at FROM scheduled_jobs ORDER BY fire_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (r *jobRepo) ListByUser(ctx context.Context, tx repository.Tx, userID int64) ([]*model.ScheduledJob, error) {
	const q = `SELECT user_id, kind, fire_at, payload, created_at FROM scheduled_jobs WHERE user_id=$1 ORDER BY fire_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return collectJobs(rows)
}

func collectJobs(rows pgx.Rows) ([]*model.ScheduledJob, error) {
	var out []*model.ScheduledJob
	for rows.Next() {
		j := &model.ScheduledJob{}
		if err := rows.Scan(&j.UserID, &j.Kind, &j.FireAt, &j.Payload, &j.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, j)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
