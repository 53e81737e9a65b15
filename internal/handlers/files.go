package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/simplelearn-uz/convertbot/internal/config"
	"github.com/simplelearn-uz/convertbot/internal/contextkeys"
	"github.com/simplelearn-uz/convertbot/internal/formats"
	"github.com/simplelearn-uz/convertbot/internal/messages"
	"github.com/simplelearn-uz/convertbot/internal/metrics"
	"github.com/simplelearn-uz/convertbot/internal/session"
	"github.com/simplelearn-uz/convertbot/internal/ui"
	"github.com/simplelearn-uz/convertbot/types"
)

func (h *Handlers) HandleFile(ctx context.Context, b *bot.Bot, update *models.Update, sess *session.Session) {
	r := respondableFor(b, update)

	file, ok := contextkeys.GetFileInfo(ctx)
	if !ok || file == nil {
		respondOrLog(ctx, r, messages.ErrorUnsupportedMessageType(sess.Lang))
		return
	}

	// A photo arriving while a payment proof is expected is the receipt
	// screenshot, not a conversion request.
	if sess.State == session.StateAwaitingProof {
		h.handleProof(ctx, b, r, sess, file)
		return
	}

	if file.Extension == "" {
		file.Extension = formats.Extension(file.FileName)
	}
	targets := formats.SupportedTargets(file.Extension)
	if len(targets) == 0 {
		respondOrLog(ctx, r, messages.ErrorUnsupportedFormat(sess.Lang, file.Extension))
		return
	}

	tier, err := h.subs.TierOf(ctx, sess.UserID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", sess.UserID).Error("resolve tier")
		respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
		return
	}
	limits := h.cfg.LimitsFor(tier)

	if err := h.quota.CanConvert(ctx, sess.UserID, limits, file.FileSize); err != nil {
		h.replyQuotaError(ctx, r, sess, err, limits)
		return
	}

	if err := h.sessions.FileUploaded(ctx, sess.UserID, *file); err != nil {
		if errors.Is(err, session.ErrInvalidTransition) {
			respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
			return
		}
		logrus.WithError(err).Error("store pending file")
		respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
		return
	}

	buttons := make([]ui.Button, 0, len(targets))
	for _, target := range targets {
		buttons = append(buttons, ui.Button{
			Text:         "." + strings.ToUpper(target),
			CallbackData: "convert_" + target,
		})
	}
	kb := ui.BuildInlineKeyboard(buttons)
	respondOrLog(ctx, r, messages.FileReceivedChooseFormat(sess.Lang, file.FileName), &kb)
}

func (h *Handlers) replyQuotaError(ctx context.Context, r Respondable, sess *session.Session, err error, limits config.TierLimits) {
	switch {
	case errors.Is(err, types.ErrFileTooLarge):
		metrics.QuotaRejectionsTotal.WithLabelValues("file_too_large").Inc()
		respondOrLog(ctx, r, messages.ErrorFileTooLarge(sess.Lang, limits.MaxFileBytes>>20))
	case errors.Is(err, types.ErrQuotaExceeded):
		metrics.QuotaRejectionsTotal.WithLabelValues("daily_limit").Inc()
		respondOrLog(ctx, r, messages.ErrorQuotaExceeded(sess.Lang, limits.DailyConversions))
	default:
		logrus.WithError(err).Error("quota check")
		respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
	}
}

// handleProof turns a receipt screenshot into a pending payment request and
// pings every admin with approve/reject buttons.
func (h *Handlers) handleProof(ctx context.Context, b *bot.Bot, r Respondable, sess *session.Session, file *types.PendingFile) {
	planID, err := h.sessions.TakeProof(ctx, sess.UserID)
	if err != nil {
		respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
		return
	}

	req, err := h.payments.Create(ctx, sess.UserID, planID, file.FileID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", sess.UserID).Error("create payment request")
		respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
		return
	}

	respondOrLog(ctx, r, messages.ProofReceived(sess.Lang))

	plan, err := h.plans.GetPlan(ctx, planID)
	if err != nil {
		logrus.WithError(err).WithField("plan_id", planID).Error("load plan for admin notice")
		return
	}

	user, _ := h.users.GetUser(ctx, sess.UserID)
	username := ""
	if user != nil {
		username = user.Username
	}

	kb := ui.SingleColumn([]ui.Button{
		{Text: "✅ Подтвердить", CallbackData: "approve_" + req.ID},
		{Text: "❌ Отклонить", CallbackData: "reject_" + req.ID},
	})
	notice := messages.AdminPaymentRequest(req.ID, sess.UserID, username, plan.Name, req.Amount)

	for _, adminID := range h.cfg.AdminIDs {
		if _, err := b.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:      adminID,
			Photo:       &models.InputFileString{Data: file.FileID},
			Caption:     notice,
			ParseMode:   messages.ParseModeHTML,
			ReplyMarkup: kb,
		}); err != nil {
			logrus.WithError(err).WithField("admin_id", adminID).Warn("notify admin")
		}
	}
}
