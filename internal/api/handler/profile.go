package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"civicdesk/backend/internal/storage"
	"civicdesk/backend/internal/telegram"

	"github.com/gin-gonic/gin"
)

// patchMeRequest lists the editable fields. Absent fields are left alone.
type patchMeRequest struct {
	FullName *string `json:"full_name"`
	Language *string `json:"language"`
	// TelegramLinkCode is the code the bot sends in reply to /start.
	TelegramLinkCode *string `json:"telegram_link_code"`
	UnlinkTelegram   bool    `json:"unlink_telegram"`
}

func (h *Handler) GetMe(c *gin.Context) {
	p, err := h.Storage.GetProfileByUserID(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PatchMe edits the caller's own profile in one update. Role and department
// cannot change.
func (h *Handler) PatchMe(c *gin.Context) {
	var req patchMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	ctx := c.Request.Context()

	var u storage.ProfileUpdate
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			h.fail(c, fmt.Errorf("%w: full_name must not be empty", errBadRequest))
			return
		}
		u.FullName = &name
	}
	if req.Language != nil {
		lang := strings.ToLower(strings.TrimSpace(*req.Language))
		if !h.supportsLanguage(lang) {
			h.fail(c, fmt.Errorf("%w: unsupported language %q", errBadRequest, lang))
			return
		}
		u.Language = &lang
	}
	u.UnlinkTelegram = req.UnlinkTelegram
	if req.TelegramLinkCode != nil && !req.UnlinkTelegram {
		chatID, err := h.Storage.ConsumeTelegramLinkCode(ctx, telegram.NormalizeLinkCode(*req.TelegramLinkCode))
		if errors.Is(err, storage.ErrNotFound) {
			h.fail(c, fmt.Errorf("%w: telegram link code is invalid or expired", errBadRequest))
			return
		}
		if err != nil {
			h.fail(c, err)
			return
		}
		u.TelegramChatID = &chatID
	}

	if err := h.Storage.UpdateProfile(ctx, actorFrom(c).UserID, u); err != nil {
		h.fail(c, err)
		return
	}
	h.GetMe(c)
}

// supportsLanguage accepts any non-empty code when no language list is set.
func (h *Handler) supportsLanguage(lang string) bool {
	if lang == "" {
		return false
	}
	if len(h.Languages) == 0 {
		return true
	}
	for _, l := range h.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Heartbeat marks the caller as online.
func (h *Handler) Heartbeat(c *gin.Context) {
	at, err := h.Roster.Heartbeat(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"last_seen":             at,
		"poll_interval_seconds": int(h.Roster.PollInterval.Seconds()),
	})
}
