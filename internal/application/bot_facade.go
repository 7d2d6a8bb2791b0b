package application

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/august-unsainted/payment-bot/internal/domain"
	"github.com/august-unsainted/payment-bot/internal/domain/model"
	"github.com/august-unsainted/payment-bot/internal/domain/ports/adapter"
	"github.com/august-unsainted/payment-bot/internal/domain/ports/repository"
	"github.com/august-unsainted/payment-bot/internal/infra/metrics"
	"github.com/august-unsainted/payment-bot/internal/usecase"
)

// BotFacade composes the use cases into the three entry points the transport
// layer invokes: SubmitProof, RecordDecision and OnUserJoined. Methods return
// OutboundMessage values so the Telegram adapter only renders and sends.
type BotFacade struct {
	Catalog      *usecase.PriceCatalog
	PayUC        usecase.PaymentUseCase
	MembershipUC usecase.MembershipUseCase
	AccessUC     usecase.AccessUseCase

	submissions   repository.SubmissionRepository
	transport     adapter.Transport
	tr            usecase.Translator
	adminChat     int64
	submissionTTL time.Duration
	now           func() time.Time
	log           *zerolog.Logger
}

func NewBotFacade(
	catalog *usecase.PriceCatalog,
	payUC usecase.PaymentUseCase,
	membershipUC usecase.MembershipUseCase,
	accessUC usecase.AccessUseCase,
	submissions repository.SubmissionRepository,
	transport adapter.Transport,
	tr usecase.Translator,
	adminChat int64,
	submissionTTL time.Duration,
	logger *zerolog.Logger,
) *BotFacade {
	facadeLog := logger.With().Str("component", "BotFacade").Logger()
	return &BotFacade{
		Catalog:       catalog,
		PayUC:         payUC,
		MembershipUC:  membershipUC,
		AccessUC:      accessUC,
		submissions:   submissions,
		transport:     transport,
		tr:            tr,
		adminChat:     adminChat,
		submissionTTL: submissionTTL,
		now:           time.Now,
		log:           &facadeLog,
	}
}

// HandleStart renders the plan keyboard.
func (b *BotFacade) HandleStart(ctx context.Context) model.OutboundMessage {
	msg := usecase.PlanListMessage(b.tr, b.Catalog.All())
	msg.Text = b.tr.T("start_greeting") + "\n\n" + msg.Text
	return msg
}

// HandlePlanPicked renders the plan detail page for a pay_<key> callback.
func (b *BotFacade) HandlePlanPicked(ctx context.Context, planKey string) (model.OutboundMessage, error) {
	plan, err := b.Catalog.Lookup(planKey)
	if err != nil {
		return model.OutboundMessage{}, err
	}
	return usecase.PlanDetailMessage(b.tr, plan), nil
}

// HandleAwaitProof records that the user committed to a plan and the next
// photo they send is its proof.
func (b *BotFacade) HandleAwaitProof(ctx context.Context, userID int64, planKey string) (model.OutboundMessage, error) {
	if _, err := b.Catalog.Lookup(planKey); err != nil {
		return model.OutboundMessage{}, err
	}
	now := b.now()
	sub := &model.PendingSubmission{
		UserID:    userID,
		PlanKey:   planKey,
		ExpiresAt: now.Add(b.submissionTTL),
		CreatedAt: now,
	}
	if err := b.submissions.Set(ctx, repository.NoTX, sub); err != nil {
		return model.OutboundMessage{}, err
	}
	return usecase.Text(b.tr, "send_proof"), nil
}

// SubmitProof turns a proof photo into a pending payment and forwards it to
// the admin chat for review.
func (b *BotFacade) SubmitProof(ctx context.Context, userID int64, displayName, proofFileID string) (model.OutboundMessage, error) {
	sub, err := b.submissions.Get(ctx, repository.NoTX, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return usecase.Text(b.tr, "no_pending_plan"), nil
	}
	if err != nil {
		return model.OutboundMessage{}, err
	}
	plan, err := b.Catalog.Lookup(sub.PlanKey)
	if err != nil {
		return model.OutboundMessage{}, err
	}

	p, err := b.PayUC.Submit(ctx, userID, plan, proofFileID)
	if err != nil {
		return model.OutboundMessage{}, err
	}
	metrics.IncPayment(string(model.PaymentStatusPending))

	review := usecase.ProofReviewMessage(b.tr, p, displayName)
	if _, err := b.transport.ForwardProof(ctx, b.adminChat, proofFileID, review); err != nil {
		b.log.Error().Err(err).Str("payment_id", p.ID).Msg("proof forward failed")
		return model.OutboundMessage{}, domain.ErrDeliveryFailed
	}
	if err := b.submissions.Clear(ctx, repository.NoTX, userID); err != nil {
		b.log.Error().Err(err).Int64("tg_id", userID).Msg("submission clear failed")
	}
	return usecase.Text(b.tr, "proof_received"), nil
}

// RecordDecision applies an admin approve/reject. On approval the user gets
// a single-use invite link; either way the user learns the outcome.
// The returned message is the admin-side acknowledgement.
func (b *BotFacade) RecordDecision(ctx context.Context, paymentID string, accepted bool) (model.OutboundMessage, error) {
	p, err := b.PayUC.Decide(ctx, paymentID, accepted)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return usecase.Text(b.tr, "payment_not_found"), nil
	case errors.Is(err, domain.ErrInvalidTransition):
		return usecase.Text(b.tr, "decision_already_made"), nil
	case err != nil:
		return model.OutboundMessage{}, err
	}
	metrics.IncPayment(string(p.Status))

	if accepted {
		link, err := b.transport.CreateSingleUseInvite(ctx)
		if err != nil {
			return model.OutboundMessage{}, err
		}
		// The ban list would block the link for a previously revoked member.
		if err := b.transport.UnbanMember(ctx, p.UserID); err != nil {
			b.log.Warn().Err(err).Int64("tg_id", p.UserID).Msg("unban before invite failed")
		}
		if err := b.transport.SendMessage(ctx, p.UserID, usecase.InviteMessage(b.tr, link)); err != nil {
			b.log.Error().Err(err).Int64("tg_id", p.UserID).Msg("invite delivery failed")
		}
	} else {
		if err := b.transport.SendMessage(ctx, p.UserID, usecase.Text(b.tr, "payment_rejected")); err != nil {
			b.log.Error().Err(err).Int64("tg_id", p.UserID).Msg("rejection notice delivery failed")
		}
	}
	return usecase.Text(b.tr, "decision_recorded", string(p.Status)), nil
}

// OnUserJoined delegates the join event to the reconciler.
func (b *BotFacade) OnUserJoined(ctx context.Context, userID int64, displayName string) error {
	return b.MembershipUC.OnUserJoined(ctx, userID, displayName)
}
