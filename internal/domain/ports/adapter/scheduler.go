package adapter

import (
	"context"

	"github.com/august-unsainted/payment-bot/internal/domain/model"
)

// Scheduler is the durable timer surface used by the reconciler. The infra
// implementation persists jobs and re-arms them after a restart.
type Scheduler interface {
	Schedule(ctx context.Context, job *model.ScheduledJob) error
	Cancel(ctx context.Context, key model.JobKey) error
}
