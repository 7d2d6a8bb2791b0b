package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/august-unsainted/payment-bot/internal/application"
	"github.com/august-unsainted/payment-bot/internal/config"
	"github.com/august-unsainted/payment-bot/internal/domain/model"
	"github.com/august-unsainted/payment-bot/internal/domain/ports/adapter"
	red "github.com/august-unsainted/payment-bot/internal/infra/redis"
	"github.com/august-unsainted/payment-bot/internal/usecase"
)

// Compile-time check
var _ adapter.Transport = (*RealBotAdapter)(nil)

// RealBotAdapter polls Telegram updates, fans them out to workers and
// delegates to BotFacade. It is also the Transport implementation the core
// uses for outbound side effects (messages, bans, invite links).
type RealBotAdapter struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	facade      *application.BotFacade
	rateLimiter *red.RateLimiter
	dedupe      *red.JoinDedupe
	tr          usecase.Translator
	log         *zerolog.Logger

	adminIDsMap   map[int64]struct{}
	cancelPolling context.CancelFunc
}

func NewRealBotAdapter(
	cfg *config.BotConfig,
	rateLimiter *red.RateLimiter,
	dedupe *red.JoinDedupe,
	tr usecase.Translator,
	logger *zerolog.Logger,
) (*RealBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	adminMap := map[int64]struct{}{}
	for _, id := range cfg.AdminIDs {
		adminMap[id] = struct{}{}
	}

	botLog := logger.With().Str("component", "TelegramBot").Logger()
	return &RealBotAdapter{
		bot:         bot,
		cfg:         cfg,
		rateLimiter: rateLimiter,
		dedupe:      dedupe,
		tr:          tr,
		log:         &botLog,
		adminIDsMap: adminMap,
	}, nil
}

// AttachFacade wires the inbound side. The adapter is constructed before the
// facade because the use cases behind the facade need it as their Transport.
func (r *RealBotAdapter) AttachFacade(facade *application.BotFacade) {
	r.facade = facade
}

// StartPolling blocks until ctx is cancelled, fanning updates out to
// cfg.Workers goroutines. chat_member updates must be requested explicitly
// or Telegram never delivers join events.
func (r *RealBotAdapter) StartPolling(ctx context.Context) error {
	if r.facade == nil {
		return errors.New("bot facade is not attached")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query", "chat_member"}
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	workers := r.cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := r.handleUpdate(ctx, up); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (r *RealBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// ---- adapter.Transport ----

func (r *RealBotAdapter) SendMessage(ctx context.Context, recipient int64, msg model.OutboundMessage) error {
	out := tgbotapi.NewMessage(recipient, msg.Text)
	if kb, ok := buildKeyboard(msg.Buttons); ok {
		out.ReplyMarkup = kb
	}
	_, err := r.bot.Send(out)
	return err
}

func (r *RealBotAdapter) EditMessage(ctx context.Context, recipient int64, messageID int, msg model.OutboundMessage) error {
	var err error
	if kb, ok := buildKeyboard(msg.Buttons); ok {
		_, err = r.bot.Send(tgbotapi.NewEditMessageTextAndMarkup(recipient, messageID, msg.Text, kb))
	} else {
		_, err = r.bot.Send(tgbotapi.NewEditMessageText(recipient, messageID, msg.Text))
	}
	return err
}

func (r *RealBotAdapter) ForwardProof(ctx context.Context, adminChat int64, fileID string, msg model.OutboundMessage) (int, error) {
	photo := tgbotapi.NewPhoto(adminChat, tgbotapi.FileID(fileID))
	photo.Caption = msg.Text
	if kb, ok := buildKeyboard(msg.Buttons); ok {
		photo.ReplyMarkup = kb
	}
	sent, err := r.bot.Send(photo)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (r *RealBotAdapter) BanMember(ctx context.Context, userID int64) error {
	_, err := r.bot.Request(tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: r.cfg.ChannelID,
			UserID: userID,
		},
	})
	return err
}

func (r *RealBotAdapter) UnbanMember(ctx context.Context, userID int64) error {
	_, err := r.bot.Request(tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: r.cfg.ChannelID,
			UserID: userID,
		},
		OnlyIfBanned: true,
	})
	return err
}

func (r *RealBotAdapter) CreateSingleUseInvite(ctx context.Context) (string, error) {
	resp, err := r.bot.Request(tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: r.cfg.ChannelID},
		MemberLimit: 1,
	})
	if err != nil {
		return "", err
	}
	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", err
	}
	return link.InviteLink, nil
}

func buildKeyboard(rows [][]model.Button) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kbRow := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			if btn.URL != "" {
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonURL(btn.Label, btn.URL))
			} else {
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Data))
			}
		}
		kbRows = append(kbRows, kbRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...), true
}
