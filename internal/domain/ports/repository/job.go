package repository

import (
	"context"
	"time"

	"github.com/august-unsainted/payment-bot/internal/domain/model"
)

// JobRepository persists scheduler jobs so timers survive a restart.
type JobRepository interface {
	// Upsert stores the job, replacing any existing row with the same
	// (user_id, kind) key.
	Upsert(ctx context.Context, tx Tx, job *model.ScheduledJob) error
	Delete(ctx context.Context, tx Tx, key model.JobKey) error
	// DeleteFired removes the row only if its fire time still matches. A
	// replacement upserted under the same key after the given job fired is
	// left untouched.
	DeleteFired(ctx context.Context, tx Tx, key model.JobKey, fireAt time.Time) error
	ListAll(ctx context.Context, tx Tx) ([]*model.ScheduledJob, error)
	ListByUser(ctx context.Context, tx Tx, userID int64) ([]*model.ScheduledJob, error)
}
