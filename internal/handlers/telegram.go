package handlers

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/pkg/errors"

	"github.com/simplelearn-uz/convertbot/internal/i18n"
	"github.com/simplelearn-uz/convertbot/internal/messages"
	"github.com/simplelearn-uz/convertbot/types"
)

// BotAdapter backs the worker pool, the broadcaster and the payment
// notifier with the live bot client.
type BotAdapter struct {
	b     *bot.Bot
	users types.UserStore
	http  *http.Client
}

func NewBotAdapter(b *bot.Bot, users types.UserStore) *BotAdapter {
	return &BotAdapter{
		b:     b,
		users: users,
		http:  &http.Client{Timeout: 5 * time.Minute},
	}
}

// Download fetches a Telegram file to destPath.
func (a *BotAdapter) Download(ctx context.Context, fileID, destPath string) error {
	f, err := a.b.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return errors.Wrapf(err, "get file %s", fileID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.b.FileDownloadLink(f), nil)
	if err != nil {
		return err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "download file")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("download file: status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(destPath)
		return errors.Wrap(err, "write downloaded file")
	}
	return nil
}

func (a *BotAdapter) SendDocument(ctx context.Context, chatID int64, path, caption string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = a.b.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: filepath.Base(path),
			Data:     f,
		},
		Caption:   caption,
		ParseMode: messages.ParseModeHTML,
	})
	return err
}

func (a *BotAdapter) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := a.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	})
	return err
}

func (a *BotAdapter) userChatAndLang(ctx context.Context, userID int64) (int64, i18n.Lang) {
	user, err := a.users.GetUser(ctx, userID)
	if err != nil || user == nil {
		return userID, i18n.UZ
	}
	chatID := user.ChatID
	if chatID == 0 {
		chatID = userID
	}
	return chatID, i18n.FromLanguageCode(user.LanguageCode)
}

func (a *BotAdapter) NotifyApproved(ctx context.Context, userID int64, plan types.Plan, expiresAt time.Time) error {
	chatID, lang := a.userChatAndLang(ctx, userID)
	return a.SendText(ctx, chatID, messages.PaymentApproved(lang, plan.Name, expiresAt))
}

func (a *BotAdapter) NotifyRejected(ctx context.Context, userID int64, note string) error {
	chatID, lang := a.userChatAndLang(ctx, userID)
	return a.SendText(ctx, chatID, messages.PaymentRejected(lang, note))
}
