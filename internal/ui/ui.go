package ui

import (
	"github.com/go-telegram/bot/models"
)

type Button struct {
	Text         string
	CallbackData string
}

// BuildInlineKeyboard packs buttons three per row.
func BuildInlineKeyboard(buttons []Button) models.InlineKeyboardMarkup {
	pad := func(s string) string { return " " + s + " " }
	rows := make([][]models.InlineKeyboardButton, 0)
	row := make([]models.InlineKeyboardButton, 0, 3)
	for i, button := range buttons {
		if i > 0 && i%3 == 0 {
			rows = append(rows, row)
			row = make([]models.InlineKeyboardButton, 0, 3)
		}
		row = append(row, models.InlineKeyboardButton{
			Text:         pad(button.Text),
			CallbackData: button.CallbackData,
		})
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// SingleColumn puts every button on its own row, for plan menus and
// approve/reject pairs where the labels are long.
func SingleColumn(buttons []Button) models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(buttons))
	for _, button := range buttons {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         button.Text,
			CallbackData: button.CallbackData,
		}})
	}
	return models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
