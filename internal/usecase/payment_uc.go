package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/august-unsainted/payment-bot/internal/domain"
	"github.com/august-unsainted/payment-bot/internal/domain/model"
	"github.com/august-unsainted/payment-bot/internal/domain/ports/repository"
	"github.com/august-unsainted/payment-bot/internal/infra/logging"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// PaymentUseCase is the payment/subscription state machine:
// pending -> accepted|rejected, accepted -> active, active -> inactive.
type PaymentUseCase interface {
	// Submit creates a pending payment from a proof-of-payment submission.
	Submit(ctx context.Context, userID int64, plan *model.Plan, proofFileID string) (*model.Payment, error)
	// Decide moves a pending payment to accepted or rejected. Re-deciding an
	// already decided payment returns ErrInvalidTransition.
	Decide(ctx context.Context, paymentID string, accepted bool) (*model.Payment, error)
	// Activate starts the latest accepted payment for the user and returns
	// its end date. A still-active prior payment is retired and its full
	// period is carried over into the new one. Returns (nil, nil) when the
	// user has no accepted payment waiting: the caller must revoke access.
	Activate(ctx context.Context, userID int64, start time.Time) (*time.Time, error)
	// Deactivate retires the user's active payment. No-op when there is none.
	Deactivate(ctx context.Context, userID int64) error
}

type paymentUC struct {
	payments repository.PaymentRepository
	tx       repository.TransactionManager
	log      *zerolog.Logger
}

func NewPaymentUseCase(payments repository.PaymentRepository, tx repository.TransactionManager, logger *zerolog.Logger) *paymentUC {
	ucLog := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{payments: payments, tx: tx, log: &ucLog}
}

func (u *paymentUC) Submit(ctx context.Context, userID int64, plan *model.Plan, proofFileID string) (*model.Payment, error) {
	if plan.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	p, err := model.NewPayment(ulid.Make().String(), userID, plan.Key, plan.Amount, plan.PeriodDays, proofFileID)
	if err != nil {
		return nil, err
	}
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	u.log.Info().Str("payment_id", p.ID).Int64("tg_id", userID).Str("plan", plan.Key).Msg("payment submitted")
	return p, nil
}

func (u *paymentUC) Decide(ctx context.Context, paymentID string, accepted bool) (*model.Payment, error) {
	ctx = logging.WithPaymentID(ctx, paymentID)
	log := logging.With(ctx, u.log)

	var decided *model.Payment
	err := u.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if p.Decided() {
			return domain.ErrInvalidTransition
		}
		if accepted {
			p.Status = model.PaymentStatusAccepted
		} else {
			p.Status = model.PaymentStatusRejected
		}
		p.UpdatedAt = time.Now()
		if err := u.payments.Save(ctx, tx, p); err != nil {
			return err
		}
		decided = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("status", string(decided.Status)).Msg("payment decided")
	return decided, nil
}

func (u *paymentUC) Activate(ctx context.Context, userID int64, start time.Time) (*time.Time, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Activate")()

	var end *time.Time
	err := u.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.tx.LockUser(ctx, tx, userID); err != nil {
			return err
		}

		next, err := u.payments.FindAcceptedUnstarted(ctx, tx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil // no accepted payment waiting; end stays nil
		}
		if err != nil {
			return err
		}

		// A repeat purchase while still a member: retire the running payment
		// and carry its full period over into the new one. Both writes happen
		// in this transaction, so a user paying twice in quick succession
		// cannot lose a period to a concurrent activation.
		period := next.PeriodDays
		prev, err := u.payments.FindActiveByUser(ctx, tx, userID)
		switch {
		case err == nil:
			period += prev.PeriodDays
			prev.Status = model.PaymentStatusInactive
			prev.UpdatedAt = time.Now()
			if err := u.payments.Save(ctx, tx, prev); err != nil {
				return err
			}
		case errors.Is(err, domain.ErrNotFound):
			// first activation for this user
		default:
			return err
		}

		e := start.Add(time.Duration(period) * 24 * time.Hour)
		next.PeriodDays = period
		next.StartDate = &start
		next.EndDate = &e
		next.Status = model.PaymentStatusActive
		next.UpdatedAt = time.Now()
		if err := u.payments.Save(ctx, tx, next); err != nil {
			return err
		}
		end = &e
		u.log.Info().Str("payment_id", next.ID).Int64("tg_id", userID).Time("end_date", e).Msg("payment activated")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return end, nil
}

func (u *paymentUC) Deactivate(ctx context.Context, userID int64) error {
	return u.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.tx.LockUser(ctx, tx, userID); err != nil {
			return err
		}
		p, err := u.payments.FindActiveByUser(ctx, tx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil // already inactive; deactivation is idempotent
		}
		if err != nil {
			return err
		}
		p.Status = model.PaymentStatusInactive
		p.UpdatedAt = time.Now()
		if err := u.payments.Save(ctx, tx, p); err != nil {
			return err
		}
		u.log.Info().Str("payment_id", p.ID).Int64("tg_id", userID).Msg("payment deactivated")
		return nil
	})
}
