package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"github.com/simplelearn-uz/convertbot/internal/broadcast"
	"github.com/simplelearn-uz/convertbot/internal/config"
	"github.com/simplelearn-uz/convertbot/internal/contextkeys"
	"github.com/simplelearn-uz/convertbot/internal/messages"
	"github.com/simplelearn-uz/convertbot/internal/payment"
	"github.com/simplelearn-uz/convertbot/internal/quota"
	"github.com/simplelearn-uz/convertbot/internal/session"
	"github.com/simplelearn-uz/convertbot/internal/subscription"
	"github.com/simplelearn-uz/convertbot/internal/worker"
	"github.com/simplelearn-uz/convertbot/types"
)

type Handlers struct {
	cfg         *config.Config
	sessions    *session.Manager
	users       types.UserStore
	plans       types.PlanStore
	payments    *payment.Workflow
	subs        *subscription.Service
	quota       *quota.Engine
	pool        *worker.Pool
	broadcaster *broadcast.Broadcaster
	stats       types.StatsReader
}

func New(cfg *config.Config, sessions *session.Manager, users types.UserStore, plans types.PlanStore, payments *payment.Workflow, subs *subscription.Service, quotaEngine *quota.Engine, pool *worker.Pool, broadcaster *broadcast.Broadcaster, stats types.StatsReader) *Handlers {
	return &Handlers{
		cfg:         cfg,
		sessions:    sessions,
		users:       users,
		plans:       plans,
		payments:    payments,
		subs:        subs,
		quota:       quotaEngine,
		pool:        pool,
		broadcaster: broadcaster,
		stats:       stats,
	}
}

func chatIDFromUpdate(update *models.Update) int64 {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil:
		return update.CallbackQuery.Message.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message.InaccessibleMessage != nil:
		return update.CallbackQuery.Message.InaccessibleMessage.Chat.ID
	}
	return 0
}

// MainHandler routes every update after the middleware chain classified it.
func (h *Handlers) MainHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	sess, ok := contextkeys.GetSession(ctx)
	if !ok {
		logrus.Error("session missing from context")
		return
	}
	r := respondableFor(b, update)
	messageType, _ := contextkeys.GetMessageType(ctx)

	switch messageType {
	case contextkeys.MessageTypeCommand:
		h.HandleCommand(ctx, b, update, sess)
	case contextkeys.MessageTypeDocument, contextkeys.MessageTypePhoto, contextkeys.MessageTypeVideo,
		contextkeys.MessageTypeAudio, contextkeys.MessageTypeVoice:
		h.HandleFile(ctx, b, update, sess)
	case contextkeys.MessageTypeClickButton:
		h.HandleCallback(ctx, b, update, sess)
	case contextkeys.MessageTypeText:
		// Plain text has no conversion meaning; nudge toward sending a file.
		if err := r.UpdateOrReply(ctx, messages.ErrorUnsupportedMessageType(sess.Lang), nil); err != nil {
			logrus.WithError(err).Warn("reply to text message")
		}
	default:
		if err := r.UpdateOrReply(ctx, messages.ErrorUnsupportedMessageType(sess.Lang), nil); err != nil {
			logrus.WithError(err).Warn("reply to unsupported message")
		}
	}
}
