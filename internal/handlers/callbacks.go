package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/simplelearn-uz/convertbot/internal/contextkeys"
	"github.com/simplelearn-uz/convertbot/internal/formats"
	"github.com/simplelearn-uz/convertbot/internal/i18n"
	"github.com/simplelearn-uz/convertbot/internal/messages"
	"github.com/simplelearn-uz/convertbot/internal/session"
	"github.com/simplelearn-uz/convertbot/internal/worker"
	"github.com/simplelearn-uz/convertbot/types"
)

func (h *Handlers) HandleCallback(ctx context.Context, b *bot.Bot, update *models.Update, sess *session.Session) {
	r := respondableFor(b, update)
	data, _ := contextkeys.GetCallbackData(ctx)
	if data == "" && update.CallbackQuery != nil {
		data = update.CallbackQuery.Data
	}
	data = strings.TrimSpace(data)

	if err := r.Acknowledge(ctx); err != nil {
		logrus.WithError(err).Warn("answer callback query")
	}

	switch {
	case strings.HasPrefix(data, "lang_"):
		h.handleLanguagePick(ctx, r, sess, strings.TrimPrefix(data, "lang_"))
	case strings.HasPrefix(data, "menu_"):
		h.handleCategoryPick(ctx, r, sess, strings.TrimPrefix(data, "menu_"))
	case strings.HasPrefix(data, "convert_"):
		h.handleTargetPick(ctx, r, sess, chatIDFromUpdate(update), strings.TrimPrefix(data, "convert_"))
	case strings.HasPrefix(data, "plan_"):
		h.handlePlanPick(ctx, r, sess, strings.TrimPrefix(data, "plan_"))
	case strings.HasPrefix(data, "approve_"):
		h.handleDecision(ctx, r, sess, strings.TrimPrefix(data, "approve_"), true)
	case strings.HasPrefix(data, "reject_"):
		h.handleDecision(ctx, r, sess, strings.TrimPrefix(data, "reject_"), false)
	default:
		respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
	}
}

func (h *Handlers) handleLanguagePick(ctx context.Context, r Respondable, sess *session.Session, code string) {
	lang := i18n.Parse(code)
	if err := h.sessions.SetLanguage(ctx, sess.UserID, lang); err != nil {
		logrus.WithError(err).Error("set session language")
		respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
		return
	}
	if err := h.users.UpdateLanguage(ctx, sess.UserID, string(lang)); err != nil {
		logrus.WithError(err).Warn("persist language")
	}
	respondOrLog(ctx, r, messages.LanguageSet(lang))
}

func (h *Handlers) handleCategoryPick(ctx context.Context, r Respondable, sess *session.Session, key string) {
	for _, cat := range formats.Categories {
		if cat.Key != key {
			continue
		}
		if err := h.sessions.ChooseCategory(ctx, sess.UserID, key); err != nil {
			respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
			return
		}
		respondOrLog(ctx, r, messages.CategoryFormats(sess.Lang, cat.Icon, cat.Formats))
		return
	}
	respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
}

// handleTargetPick is the point where a conversion actually starts: the
// quota gate runs here, before any adapter is touched.
func (h *Handlers) handleTargetPick(ctx context.Context, r Respondable, sess *session.Session, chatID int64, target string) {
	target = formats.Normalize(target)

	if sess.Pending == nil {
		respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
		return
	}
	if !formats.IsLegalPair(sess.Pending.Extension, target) {
		respondOrLog(ctx, r, messages.ErrorUnsupportedFormat(sess.Lang, target))
		return
	}

	tier, err := h.subs.TierOf(ctx, sess.UserID)
	if err != nil {
		logrus.WithError(err).Error("resolve tier")
		respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
		return
	}
	limits := h.cfg.LimitsFor(tier)

	if err := h.quota.CanConvert(ctx, sess.UserID, limits, sess.Pending.FileSize); err != nil {
		h.replyQuotaError(ctx, r, sess, err, limits)
		return
	}

	file, err := h.sessions.BeginConversion(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, session.ErrInvalidTransition) {
			// Stale button, the file was already taken.
			return
		}
		logrus.WithError(err).Error("begin conversion")
		respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
		return
	}

	if chatID == 0 {
		chatID = sess.UserID
	}
	job := worker.Job{
		UserID:    sess.UserID,
		ChatID:    chatID,
		Lang:      sess.Lang,
		File:      *file,
		TargetExt: target,
		Limits:    limits,
	}
	if !h.pool.Enqueue(job) {
		logrus.WithField("user_id", sess.UserID).Warn("conversion queue full")
		_ = h.sessions.FinishConversion(ctx, sess.UserID)
		respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
		return
	}
	respondOrLog(ctx, r, messages.ConversionStarted(sess.Lang, file.FileName, target))
}

func (h *Handlers) handlePlanPick(ctx context.Context, r Respondable, sess *session.Session, rawID string) {
	planID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
		return
	}
	plan, err := h.plans.GetPlan(ctx, planID)
	if err != nil {
		logrus.WithError(err).WithField("plan_id", planID).Error("load plan")
		respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
		return
	}
	if err := h.sessions.ChoosePlan(ctx, sess.UserID, planID); err != nil {
		respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
		return
	}
	respondOrLog(ctx, r, messages.PaymentInstructions(sess.Lang, plan.Name, plan.Price, h.cfg.CardNumber))
}

func (h *Handlers) handleDecision(ctx context.Context, r Respondable, sess *session.Session, paymentID string, approve bool) {
	var err error
	if approve {
		err = h.payments.Approve(ctx, paymentID, sess.UserID)
	} else {
		err = h.payments.Reject(ctx, paymentID, sess.UserID, "")
	}

	switch {
	case err == nil:
		if approve {
			respondOrLog(ctx, r, messages.AdminApproved(paymentID))
		} else {
			respondOrLog(ctx, r, messages.AdminRejected(paymentID))
		}
	case errors.Is(err, types.ErrAlreadyResolved):
		respondOrLog(ctx, r, messages.AdminAlreadyProcessed(paymentID))
	case errors.Is(err, types.ErrUnauthorized):
		respondOrLog(ctx, r, messages.NotAdmin(sess.Lang))
	default:
		logrus.WithError(err).WithField("payment_id", paymentID).Error("resolve payment")
		respondOrLog(ctx, r, messages.ErrorDefault(sess.Lang))
	}
}
