package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/august-unsainted/payment-bot/internal/domain/model"
	"github.com/august-unsainted/payment-bot/internal/domain/ports/adapter"
)

// Compile-time check
var _ MembershipUseCase = (*membershipUC)(nil)

// MembershipUseCase reconciles "user joined the channel" events with the
// payment state machine. Joins arrive out of order relative to admin
// decisions; only accept-then-join activates, join-without-accept is revoked.
type MembershipUseCase interface {
	OnUserJoined(ctx context.Context, userID int64, displayName string) error
}

type membershipUC struct {
	payments  PaymentUseCase
	sched     adapter.Scheduler
	transport adapter.Transport
	tr        Translator
	adminChat int64
	leadTime  time.Duration
	now       func() time.Time
	log       *zerolog.Logger
}

func NewMembershipUseCase(
	payments PaymentUseCase,
	sched adapter.Scheduler,
	transport adapter.Transport,
	tr Translator,
	adminChat int64,
	leadTime time.Duration,
	now func() time.Time,
	logger *zerolog.Logger,
) *membershipUC {
	if now == nil {
		now = time.Now
	}
	ucLog := logger.With().Str("component", "MembershipUC").Logger()
	return &membershipUC{
		payments:  payments,
		sched:     sched,
		transport: transport,
		tr:        tr,
		adminChat: adminChat,
		leadTime:  leadTime,
		now:       now,
		log:       &ucLog,
	}
}

func (u *membershipUC) OnUserJoined(ctx context.Context, userID int64, displayName string) error {
	start := u.now()
	end, err := u.payments.Activate(ctx, userID, start)
	if err != nil {
		return err
	}

	if end == nil {
		// Joined through some channel other than the approved payment flow:
		// never silently granted.
		u.log.Warn().Int64("tg_id", userID).Msg("join without accepted payment; revoking")
		if err := u.transport.BanMember(ctx, userID); err != nil {
			return err
		}
		u.audit(ctx, "audit_join_rejected", displayName, userID)
		return nil
	}

	payload := model.JobPayload{UserID: userID, DisplayName: displayName}
	notify := &model.ScheduledJob{
		UserID:    userID,
		Kind:      model.JobKindNotify,
		FireAt:    end.Add(-u.leadTime),
		Payload:   payload,
		CreatedAt: start,
	}
	revoke := &model.ScheduledJob{
		UserID:    userID,
		Kind:      model.JobKindRevoke,
		FireAt:    *end,
		Payload:   payload,
		CreatedAt: start,
	}
	if err := u.sched.Schedule(ctx, notify); err != nil {
		return err
	}
	if err := u.sched.Schedule(ctx, revoke); err != nil {
		return err
	}

	u.log.Info().Int64("tg_id", userID).Time("end_date", *end).Msg("membership activated")
	u.audit(ctx, "audit_join_activated", displayName, userID, formatDate(*end))
	return nil
}

// audit delivers the admin-channel trail; delivery failures are logged and
// never fail the reconciliation itself.
func (u *membershipUC) audit(ctx context.Context, key string, args ...interface{}) {
	if err := u.transport.SendMessage(ctx, u.adminChat, Text(u.tr, key, args...)); err != nil {
		u.log.Error().Err(err).Msg("audit message delivery failed")
	}
}
