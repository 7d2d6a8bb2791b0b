package telegram

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/august-unsainted/payment-bot/internal/infra/logging"
	red "github.com/august-unsainted/payment-bot/internal/infra/redis"
	"github.com/august-unsainted/payment-bot/internal/usecase"
)

const (
	submitLimit  = 5
	submitWindow = time.Minute
)

func (r *RealBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.ChatMember != nil:
		return r.handleChatMember(ctx, update.ChatMember)
	case update.CallbackQuery != nil:
		return r.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		return r.handleMessage(ctx, update.Message)
	default:
		return nil
	}
}

// handleChatMember reconciles channel join events with pending approvals.
func (r *RealBotAdapter) handleChatMember(ctx context.Context, upd *tgbotapi.ChatMemberUpdated) error {
	if upd.Chat.ID != r.cfg.ChannelID {
		return nil
	}
	if upd.NewChatMember.Status != "member" {
		return nil
	}
	user := upd.NewChatMember.User
	if user == nil || user.IsBot {
		return nil
	}

	first, err := r.dedupe.FirstSeen(ctx, user.ID)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", user.ID).Msg("join dedupe check failed")
		// fail open: a duplicate reconciliation is harmless, a dropped one is not
	} else if !first {
		return nil
	}

	ctx = logging.WithTgID(ctx, user.ID)
	return r.facade.OnUserJoined(ctx, user.ID, displayName(user))
}

func (r *RealBotAdapter) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	defer func() {
		if _, err := r.bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			r.log.Warn().Err(err).Msg("callback ack failed")
		}
	}()
	return r.dispatchCallback(ctx, cq)
}

// dispatchCallback routes a callback by its data prefix. Telegram omits
// Message for callbacks from old or inaccessible messages; those are acked
// and dropped.
func (r *RealBotAdapter) dispatchCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	if cq.Message == nil {
		return nil
	}

	data := cq.Data
	chatID := cq.Message.Chat.ID
	userID := cq.From.ID
	ctx = logging.WithTgID(ctx, userID)

	switch {
	case strings.HasPrefix(data, "pay_"):
		msg, err := r.facade.HandlePlanPicked(ctx, strings.TrimPrefix(data, "pay_"))
		if err != nil {
			return r.SendMessage(ctx, chatID, usecase.Text(r.tr, "error_generic"))
		}
		return r.EditMessage(ctx, chatID, cq.Message.MessageID, msg)

	case strings.HasPrefix(data, "proof_"):
		msg, err := r.facade.HandleAwaitProof(ctx, userID, strings.TrimPrefix(data, "proof_"))
		if err != nil {
			return r.SendMessage(ctx, chatID, usecase.Text(r.tr, "error_generic"))
		}
		return r.SendMessage(ctx, chatID, msg)

	case strings.HasPrefix(data, "approve_"):
		return r.adminDecision(ctx, cq, strings.TrimPrefix(data, "approve_"), true)

	case strings.HasPrefix(data, "reject_"):
		return r.adminDecision(ctx, cq, strings.TrimPrefix(data, "reject_"), false)
	}
	return nil
}

// adminDecision applies an approve/reject callback and rewrites the review
// card so the decision buttons disappear.
func (r *RealBotAdapter) adminDecision(ctx context.Context, cq *tgbotapi.CallbackQuery, paymentID string, accepted bool) error {
	if _, isAdmin := r.adminIDsMap[cq.From.ID]; !isAdmin {
		return nil
	}
	ack, err := r.facade.RecordDecision(ctx, paymentID, accepted)
	if err != nil {
		return r.SendMessage(ctx, cq.Message.Chat.ID, usecase.Text(r.tr, "error_generic"))
	}
	caption := tgbotapi.NewEditMessageCaption(cq.Message.Chat.ID, cq.Message.MessageID, cq.Message.Caption+"\n\n"+ack.Text)
	if _, err := r.bot.Send(caption); err != nil {
		r.log.Warn().Err(err).Msg("review card edit failed")
	}
	return nil
}

func (r *RealBotAdapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || msg.From.IsBot || !msg.Chat.IsPrivate() {
		return nil
	}
	ctx = logging.WithTgID(ctx, msg.From.ID)

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			return r.SendMessage(ctx, msg.Chat.ID, r.facade.HandleStart(ctx))
		}
		return nil
	}

	// A photo in a private chat is a proof-of-payment submission.
	if len(msg.Photo) > 0 {
		allowed, err := r.rateLimiter.Allow(ctx, red.UserActionKey(msg.From.ID, "submit"), submitLimit, submitWindow)
		if err != nil {
			r.log.Error().Err(err).Msg("rate limiter unavailable")
		} else if !allowed {
			return r.SendMessage(ctx, msg.Chat.ID, usecase.Text(r.tr, "rate_limited"))
		}

		best := msg.Photo[len(msg.Photo)-1]
		reply, err := r.facade.SubmitProof(ctx, msg.From.ID, displayName(msg.From), best.FileID)
		if err != nil {
			return r.SendMessage(ctx, msg.Chat.ID, usecase.Text(r.tr, "error_generic"))
		}
		return r.SendMessage(ctx, msg.Chat.ID, reply)
	}
	return nil
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}
