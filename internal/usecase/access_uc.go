package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/august-unsainted/payment-bot/internal/domain"
	"github.com/august-unsainted/payment-bot/internal/domain/model"
	"github.com/august-unsainted/payment-bot/internal/domain/ports/adapter"
	"github.com/august-unsainted/payment-bot/internal/infra/metrics"
)

// Compile-time check
var _ AccessUseCase = (*accessUC)(nil)

// AccessUseCase holds the two scheduler-fired handlers. A returned error
// keeps the job record for a retry on next process start, so both handlers
// are written to be safely re-runnable.
type AccessUseCase interface {
	// OnNotify sends the renewal reminder. Payment state is untouched.
	OnNotify(ctx context.Context, payload model.JobPayload) error
	// OnRevoke retires the active payment, removes the user from the channel
	// and notifies both sides. Idempotent: a replay after a crash repeats the
	// same side effects without error.
	OnRevoke(ctx context.Context, payload model.JobPayload) error
}

type accessUC struct {
	payments  PaymentUseCase
	catalog   *PriceCatalog
	transport adapter.Transport
	tr        Translator
	adminChat int64
	log       *zerolog.Logger
}

func NewAccessUseCase(
	payments PaymentUseCase,
	catalog *PriceCatalog,
	transport adapter.Transport,
	tr Translator,
	adminChat int64,
	logger *zerolog.Logger,
) *accessUC {
	ucLog := logger.With().Str("component", "AccessUC").Logger()
	return &accessUC{
		payments:  payments,
		catalog:   catalog,
		transport: transport,
		tr:        tr,
		adminChat: adminChat,
		log:       &ucLog,
	}
}

func (u *accessUC) OnNotify(ctx context.Context, payload model.JobPayload) error {
	msg := RenewalReminderMessage(u.tr, u.catalog.All())
	if err := u.transport.SendMessage(ctx, payload.UserID, msg); err != nil {
		return fmt.Errorf("renewal reminder to %d: %w", payload.UserID, domain.ErrDeliveryFailed)
	}
	u.log.Info().Int64("tg_id", payload.UserID).Msg("renewal reminder sent")
	return nil
}

func (u *accessUC) OnRevoke(ctx context.Context, payload model.JobPayload) error {
	// State first, side effects after: if the ban or a notification fails the
	// job is retried, and a second Deactivate is a no-op.
	if err := u.payments.Deactivate(ctx, payload.UserID); err != nil {
		return err
	}
	if err := u.transport.BanMember(ctx, payload.UserID); err != nil {
		return err
	}
	metrics.IncMembersRevoked()

	if err := u.transport.SendMessage(ctx, payload.UserID, Text(u.tr, "membership_expired")); err != nil {
		u.log.Error().Err(err).Int64("tg_id", payload.UserID).Msg("expiry notice delivery failed")
	}
	name := payload.DisplayName
	if name == "" {
		name = fmt.Sprintf("id%d", payload.UserID)
	}
	if err := u.transport.SendMessage(ctx, u.adminChat, Text(u.tr, "audit_revoked", name, payload.UserID)); err != nil {
		u.log.Error().Err(err).Msg("revoke audit delivery failed")
	}

	u.log.Info().Int64("tg_id", payload.UserID).Msg("membership revoked")
	return nil
}
