package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/simplelearn-uz/convertbot/internal/messages"
)

// Respondable abstracts where a reply goes, so command and button paths
// share one code path. The callback variant answers the query and edits the
// originating message in place; the message variant just replies.
type Respondable interface {
	Acknowledge(ctx context.Context) error
	UpdateOrReply(ctx context.Context, text string, kb *models.InlineKeyboardMarkup) error
}

type messageResponder struct {
	b      *bot.Bot
	chatID int64
}

func (r *messageResponder) Acknowledge(context.Context) error { return nil }

func (r *messageResponder) UpdateOrReply(ctx context.Context, text string, kb *models.InlineKeyboardMarkup) error {
	params := &bot.SendMessageParams{
		ChatID:    r.chatID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	}
	if kb != nil {
		params.ReplyMarkup = *kb
	}
	_, err := r.b.SendMessage(ctx, params)
	return err
}

type callbackResponder struct {
	b          *bot.Bot
	callbackID string
	chatID     int64
	messageID  int
	hasMedia   bool
}

func (r *callbackResponder) Acknowledge(ctx context.Context) error {
	_, err := r.b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: r.callbackID,
	})
	return err
}

func (r *callbackResponder) UpdateOrReply(ctx context.Context, text string, kb *models.InlineKeyboardMarkup) error {
	if r.messageID == 0 {
		fallback := &messageResponder{b: r.b, chatID: r.chatID}
		return fallback.UpdateOrReply(ctx, text, kb)
	}
	if r.hasMedia {
		// Media messages (payment proofs) have captions, not text.
		params := &bot.EditMessageCaptionParams{
			ChatID:    r.chatID,
			MessageID: r.messageID,
			Caption:   text,
			ParseMode: messages.ParseModeHTML,
		}
		if kb != nil {
			params.ReplyMarkup = *kb
		}
		_, err := r.b.EditMessageCaption(ctx, params)
		return err
	}
	params := &bot.EditMessageTextParams{
		ChatID:    r.chatID,
		MessageID: r.messageID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	}
	if kb != nil {
		params.ReplyMarkup = *kb
	}
	_, err := r.b.EditMessageText(ctx, params)
	return err
}

// respondableFor builds the right adapter for the update.
func respondableFor(b *bot.Bot, update *models.Update) Respondable {
	if update.CallbackQuery != nil {
		chatID := int64(0)
		messageID := 0
		hasMedia := false
		if msg := update.CallbackQuery.Message.Message; msg != nil {
			chatID = msg.Chat.ID
			messageID = msg.ID
			hasMedia = len(msg.Photo) > 0 || msg.Document != nil
		} else if update.CallbackQuery.Message.InaccessibleMessage != nil {
			chatID = update.CallbackQuery.Message.InaccessibleMessage.Chat.ID
		}
		return &callbackResponder{
			b:          b,
			callbackID: update.CallbackQuery.ID,
			chatID:     chatID,
			messageID:  messageID,
			hasMedia:   hasMedia,
		}
	}
	chatID := int64(0)
	if update.Message != nil {
		chatID = update.Message.Chat.ID
	}
	return &messageResponder{b: b, chatID: chatID}
}
