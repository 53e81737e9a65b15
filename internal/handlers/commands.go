package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"github.com/simplelearn-uz/convertbot/internal/contextkeys"
	"github.com/simplelearn-uz/convertbot/internal/formats"
	"github.com/simplelearn-uz/convertbot/internal/messages"
	"github.com/simplelearn-uz/convertbot/internal/session"
	"github.com/simplelearn-uz/convertbot/internal/ui"
	"github.com/simplelearn-uz/convertbot/types"
)

func (h *Handlers) HandleCommand(ctx context.Context, b *bot.Bot, update *models.Update, sess *session.Session) {
	r := respondableFor(b, update)
	text := strings.TrimSpace(update.Message.Text)
	command := text
	args := ""
	if idx := strings.IndexByte(text, ' '); idx > 0 {
		command = text[:idx]
		args = strings.TrimSpace(text[idx+1:])
	}
	if idx := strings.IndexByte(command, '@'); idx > 0 {
		command = command[:idx]
	}

	var err error
	switch command {
	case "/start":
		// First contact opens the language picker; the welcome waits.
		if contextkeys.IsNewUser(ctx) {
			err = r.UpdateOrReply(ctx, messages.ChooseLanguage(), languageKeyboard())
			break
		}
		err = r.UpdateOrReply(ctx, messages.StartWelcome(sess.Lang), nil)
	case "/help":
		err = r.UpdateOrReply(ctx, messages.Help(sess.Lang), nil)
	case "/formats":
		err = r.UpdateOrReply(ctx, formatsCatalogue(sess), categoryKeyboard())
	case "/language":
		err = r.UpdateOrReply(ctx, messages.ChooseLanguage(), languageKeyboard())
	case "/subscribe":
		h.handleSubscribe(ctx, r, sess)
	case "/cancel":
		if err = h.sessions.Cancel(ctx, sess.UserID); err == nil {
			err = r.UpdateOrReply(ctx, messages.Cancelled(sess.Lang), nil)
		}
	case "/stats":
		h.handleStats(ctx, r, sess)
	case "/broadcast":
		h.handleBroadcast(ctx, r, sess, args)
	default:
		err = r.UpdateOrReply(ctx, messages.ErrorUnknownCommand(sess.Lang), nil)
	}
	if err != nil {
		logrus.WithError(err).WithField("command", command).Warn("command reply failed")
	}
}

func formatsCatalogue(sess *session.Session) string {
	var sb strings.Builder
	sb.WriteString(messages.FormatsHeader(sess.Lang))
	for _, cat := range formats.Categories {
		sb.WriteString(fmt.Sprintf("\n%s %s", cat.Icon, strings.Join(cat.Formats, ", ")))
	}
	return sb.String()
}

func categoryKeyboard() *models.InlineKeyboardMarkup {
	buttons := make([]ui.Button, 0, len(formats.Categories))
	for _, cat := range formats.Categories {
		buttons = append(buttons, ui.Button{
			Text:         cat.Icon + " " + cat.Key,
			CallbackData: "menu_" + cat.Key,
		})
	}
	kb := ui.BuildInlineKeyboard(buttons)
	return &kb
}

func languageKeyboard() *models.InlineKeyboardMarkup {
	kb := ui.SingleColumn([]ui.Button{
		{Text: "🇺🇿 O'zbekcha", CallbackData: "lang_uz"},
		{Text: "🇷🇺 Русский", CallbackData: "lang_ru"},
		{Text: "🇬🇧 English", CallbackData: "lang_en"},
	})
	return &kb
}

func (h *Handlers) handleSubscribe(ctx context.Context, r Respondable, sess *session.Session) {
	// Already-premium users get their status instead of the plan menu.
	if tier, err := h.subs.TierOf(ctx, sess.UserID); err == nil && tier == types.TierPremium {
		if user, err := h.users.GetUser(ctx, sess.UserID); err == nil && user.SubscriptionExpiresAt != nil {
			respondOrLog(ctx, r, messages.SubscriptionStatus(sess.Lang, *user.SubscriptionExpiresAt))
			return
		}
	}

	plans, err := h.plans.ListActivePlans(ctx)
	if err != nil || len(plans) == 0 {
		logrus.WithError(err).Error("list plans")
		respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
		return
	}
	if err := h.sessions.StartSubscribe(ctx, sess.UserID); err != nil {
		respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
		return
	}

	buttons := make([]ui.Button, 0, len(plans))
	for _, p := range plans {
		buttons = append(buttons, ui.Button{
			Text:         fmt.Sprintf("%s — %d", p.Name, p.Price),
			CallbackData: fmt.Sprintf("plan_%d", p.ID),
		})
	}
	kb := ui.SingleColumn(buttons)
	respondOrLog(ctx, r, messages.SubscribeIntro(sess.Lang), &kb)
}

func (h *Handlers) handleStats(ctx context.Context, r Respondable, sess *session.Session) {
	if !h.cfg.IsAdmin(sess.UserID) {
		respondOrLog(ctx, r, messages.NotAdmin(sess.Lang))
		return
	}
	stats, err := h.stats.Stats(ctx)
	if err != nil {
		logrus.WithError(err).Error("load stats")
		respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
		return
	}
	respondOrLog(ctx, r, messages.AdminStats(stats))
}

func (h *Handlers) handleBroadcast(ctx context.Context, r Respondable, sess *session.Session, text string) {
	if !h.cfg.IsAdmin(sess.UserID) {
		respondOrLog(ctx, r, messages.NotAdmin(sess.Lang))
		return
	}
	if text == "" {
		respondOrLog(ctx, r, messages.BroadcastUsage())
		return
	}
	report, err := h.broadcaster.Send(ctx, text)
	if err != nil {
		logrus.WithError(err).Error("broadcast")
	}
	respondOrLog(ctx, r, messages.BroadcastReport(report.Sent, report.Failed))
}

func respondOrLog(ctx context.Context, r Respondable, text string, kb ...*models.InlineKeyboardMarkup) {
	var markup *models.InlineKeyboardMarkup
	if len(kb) > 0 {
		markup = kb[0]
	}
	if err := r.UpdateOrReply(ctx, text, markup); err != nil {
		logrus.WithError(err).Warn("send reply")
	}
}
