package repository

import (
	"context"

	"github.com/august-unsainted/payment-bot/internal/domain/model"
)

// PaymentRepository is the only writer surface for the payments table.
type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	// FindAcceptedUnstarted returns the latest accepted payment for the user
	// that has no start date yet, or ErrNotFound.
	FindAcceptedUnstarted(ctx context.Context, tx Tx, userID int64) (*model.Payment, error)
	// FindActiveByUser returns the single active payment, or ErrNotFound.
	FindActiveByUser(ctx context.Context, tx Tx, userID int64) (*model.Payment, error)
	List(ctx context.Context, tx Tx, status model.PaymentStatus, limit int) ([]*model.Payment, error)
}

// SubmissionRepository stores the pick-a-plan-then-send-proof intermediate
// state. One row per user; Set replaces.
type SubmissionRepository interface {
	Set(ctx context.Context, tx Tx, s *model.PendingSubmission) error
	// Get returns ErrNotFound for absent and for expired submissions.
	Get(ctx context.Context, tx Tx, userID int64) (*model.PendingSubmission, error)
	Clear(ctx context.Context, tx Tx, userID int64) error
}
