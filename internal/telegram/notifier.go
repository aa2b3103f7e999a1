// Package telegram sends complaint status updates to reporters who linked a
// Telegram chat, and runs the bot that hands out chat link codes.
package telegram

import (
	"context"
	"fmt"

	"civicdesk/backend/internal/localization"
	"civicdesk/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of *tgbotapi.BotAPI used for outgoing messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ProfileReader defines the storage methods required by the notifier.
type ProfileReader interface {
	GetProfileByUserID(ctx context.Context, userID string) (*models.Profile, error)
}

// Notifier implements complaint.Notifier.
type Notifier struct {
	Sender    Sender
	Profiles  ProfileReader
	Localizer *localization.Localizer
	Logger    *zap.Logger
}

func NewNotifier(sender Sender, profiles ProfileReader, loc *localization.Localizer, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{Sender: sender, Profiles: profiles, Localizer: loc, Logger: logger}
}

// Notify messages the reporter about a status change. Reporters without a
// linked chat are skipped.
func (n *Notifier) Notify(ctx context.Context, ev models.ComplaintEvent) error {
	if ev.Type != models.EventStatusChanged || ev.ReporterID == "" {
		return nil
	}
	p, err := n.Profiles.GetProfileByUserID(ctx, ev.ReporterID)
	if err != nil {
		return fmt.Errorf("telegram: load reporter: %w", err)
	}
	if p.TelegramChatID == nil {
		return nil
	}

	msg := tgbotapi.NewMessage(*p.TelegramChatID, StatusMessage(n.Localizer, p.Language, ev))
	if _, err := n.Sender.Send(msg); err != nil {
		return fmt.Errorf("telegram: send to chat %d: %w", *p.TelegramChatID, err)
	}
	n.Logger.Debug("status notification sent", zap.String("complaint_id", ev.ComplaintID))
	return nil
}

// StatusMessage renders the notification text for ev in lang.
func StatusMessage(l *localization.Localizer, lang string, ev models.ComplaintEvent) string {
	return l.Format(lang, "notify_status_changed",
		l.GetString(lang, "category_"+string(ev.Category)),
		ev.ComplaintID,
		l.GetString(lang, "status_"+string(ev.Status)),
	)
}
