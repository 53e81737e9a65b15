package middleware

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"github.com/simplelearn-uz/convertbot/internal/contextkeys"
	"github.com/simplelearn-uz/convertbot/internal/i18n"
	"github.com/simplelearn-uz/convertbot/internal/messages"
	"github.com/simplelearn-uz/convertbot/internal/session"
	"github.com/simplelearn-uz/convertbot/types"
)

type Middlewares struct {
	sessions *session.Manager
	users    types.UserStore
}

func New(sessions *session.Manager, users types.UserStore) *Middlewares {
	return &Middlewares{sessions: sessions, users: users}
}

// SessionMiddleware resolves the sender, registers the user on first
// contact, loads the conversation session and stashes it in the context.
func (m *Middlewares) SessionMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		var from *models.User
		var chatID int64

		switch {
		case update.Message != nil && update.Message.From != nil:
			from = update.Message.From
			chatID = update.Message.Chat.ID
		case update.CallbackQuery != nil:
			from = &update.CallbackQuery.From
			chatID = getChatIDFromMaybeInaccessibleMessage(update.CallbackQuery.Message)
			if chatID == 0 {
				return
			}
		default:
			return
		}
		if from == nil || from.ID == 0 {
			return
		}

		created, err := m.users.UpsertUser(ctx, types.User{
			UserID:       from.ID,
			ChatID:       chatID,
			Username:     from.Username,
			FirstName:    from.FirstName,
			LastName:     from.LastName,
			LanguageCode: from.LanguageCode,
		})
		if err != nil {
			logrus.WithError(err).WithField("user_id", from.ID).Error("upsert user")
		}
		ctx = contextkeys.WithNewUser(ctx, created)

		sess, err := m.sessions.Get(ctx, from.ID)
		if err != nil {
			logrus.WithError(err).WithField("user_id", from.ID).Error("load session")
			b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID:    chatID,
				Text:      messages.ErrorDefault(i18n.FromLanguageCode(from.LanguageCode)),
				ParseMode: messages.ParseModeHTML,
			})
			return
		}
		if sess.Lang == "" {
			sess.Lang = i18n.FromLanguageCode(from.LanguageCode)
		}

		next(contextkeys.WithSession(ctx, sess), b, update)
	}
}

func getChatIDFromMaybeInaccessibleMessage(m models.MaybeInaccessibleMessage) int64 {
	if m.Message != nil {
		return m.Message.Chat.ID
	}
	if m.InaccessibleMessage != nil {
		return m.InaccessibleMessage.Chat.ID
	}
	return 0
}

// AnalyzeMessageMiddleware classifies the update and extracts its
// convertible file, if any, before the router runs.
func (m *Middlewares) AnalyzeMessageMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.CallbackQuery != nil && update.CallbackQuery.Data != "" {
			ctx = contextkeys.WithMessageType(ctx, contextkeys.MessageTypeClickButton)
			ctx = contextkeys.WithCallbackData(ctx, update.CallbackQuery.Data)
			next(ctx, b, update)
			return
		}

		if update.Message != nil && strings.HasPrefix(update.Message.Text, "/") {
			next(contextkeys.WithMessageType(ctx, contextkeys.MessageTypeCommand), b, update)
			return
		}

		next(m.analyzeMessage(ctx, update), b, update)
	}
}

func (m *Middlewares) analyzeMessage(ctx context.Context, update *models.Update) context.Context {
	if update.Message == nil {
		return contextkeys.WithMessageType(ctx, contextkeys.MessageTypeUnknown)
	}

	msg := update.Message
	msgType, file := extractFile(msg)
	ctx = contextkeys.WithMessageType(ctx, msgType)
	if file != nil {
		ctx = contextkeys.WithFileInfo(ctx, file)
	}
	return ctx
}

// extractFile maps the message to at most one convertible file. Telegram
// sends photos without a filename, so those are treated as jpg uploads.
func extractFile(msg *models.Message) (contextkeys.MessageType, *types.PendingFile) {
	switch {
	case len(msg.Photo) > 0:
		best := msg.Photo[0]
		for i := 1; i < len(msg.Photo); i++ {
			if msg.Photo[i].FileSize > best.FileSize {
				best = msg.Photo[i]
			}
		}
		return contextkeys.MessageTypePhoto, &types.PendingFile{
			FileID:    best.FileID,
			FileName:  "photo.jpg",
			FileSize:  int64(best.FileSize),
			Extension: "jpg",
		}
	case msg.Document != nil:
		return contextkeys.MessageTypeDocument, &types.PendingFile{
			FileID:   msg.Document.FileID,
			FileName: msg.Document.FileName,
			FileSize: msg.Document.FileSize,
		}
	case msg.Audio != nil:
		return contextkeys.MessageTypeAudio, &types.PendingFile{
			FileID:   msg.Audio.FileID,
			FileName: msg.Audio.FileName,
			FileSize: msg.Audio.FileSize,
		}
	case msg.Video != nil:
		return contextkeys.MessageTypeVideo, &types.PendingFile{
			FileID:   msg.Video.FileID,
			FileName: msg.Video.FileName,
			FileSize: msg.Video.FileSize,
		}
	case msg.Voice != nil:
		return contextkeys.MessageTypeVoice, &types.PendingFile{
			FileID:    msg.Voice.FileID,
			FileName:  "voice.ogg",
			FileSize:  msg.Voice.FileSize,
			Extension: "ogg",
		}
	case msg.Text != "":
		return contextkeys.MessageTypeText, nil
	default:
		return contextkeys.MessageTypeUnknown, nil
	}
}
