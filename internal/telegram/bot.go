package telegram

import (
	"context"
	"strings"
	"time"

	"civicdesk/backend/internal/config"
	"civicdesk/backend/internal/localization"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LinkCodeWriter stores the one-time codes handed out by /start.
type LinkCodeWriter interface {
	SaveTelegramLinkCode(ctx context.Context, code string, chatID int64, ttl time.Duration) error
}

// Bot answers /start with a one-time code. The user enters the code in their
// profile through the authenticated API, which proves they own the chat.
type Bot struct {
	API       *tgbotapi.BotAPI
	Sender    Sender
	Links     LinkCodeWriter
	Localizer *localization.Localizer
	Logger    *zap.Logger
	// CodeTTL is how long a link code stays valid.
	CodeTTL time.Duration
}

// NewBot authorizes against the Bot API.
func NewBot(token string, links LinkCodeWriter, loc *localization.Localizer, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = false
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("telegram bot authorized", zap.String("account", api.Self.UserName))
	return &Bot{
		API:       api,
		Sender:    api,
		Links:     links,
		Localizer: loc,
		Logger:    logger,
		CodeTTL:   config.TelegramLinkCodeTTL,
	}, nil
}

// Run is the main loop for receiving Telegram updates. It returns when ctx
// is canceled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.API.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.API.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate replies to commands. Other updates are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	lang := b.language(msg)
	chatID := msg.Chat.ID

	var text string
	switch msg.Command() {
	case "start", "link":
		code := NewLinkCode()
		if err := b.Links.SaveTelegramLinkCode(ctx, code, chatID, b.CodeTTL); err != nil {
			b.Logger.Error("save telegram link code", zap.Int64("chat_id", chatID), zap.Error(err))
			text = b.Localizer.GetString(lang, "bot_link_failed")
			break
		}
		text = b.Localizer.Format(lang, "bot_start", code, int(b.CodeTTL.Minutes()))
	case "help":
		text = b.Localizer.GetString(lang, "bot_help")
	default:
		text = b.Localizer.GetString(lang, "bot_unknown")
	}

	if _, err := b.Sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.Logger.Warn("telegram reply failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) language(msg *tgbotapi.Message) string {
	if msg.From != nil && b.Localizer.Has(msg.From.LanguageCode) {
		return msg.From.LanguageCode
	}
	return localization.DefaultLanguage
}

// NewLinkCode returns an eight character code for linking a chat.
func NewLinkCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// NormalizeLinkCode accepts codes typed in any case and with stray spaces.
func NormalizeLinkCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
