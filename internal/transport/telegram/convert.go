package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pizza-nz/lunch-bot/internal/bot"
)

// toUpdate converts a Telegram update into a controller event. ok is false
// for updates the bot does not handle (edits, channel posts, anonymous
// senders).
func toUpdate(u tgbotapi.Update) (bot.Update, bool) {
	switch {
	case u.Message != nil:
		m := u.Message
		if m.From == nil || m.Chat == nil {
			return bot.Update{}, false
		}
		upd := bot.Update{
			UserID:   m.From.ID,
			ChatID:   m.Chat.ID,
			FullName: fullName(m.From),
		}
		if m.IsCommand() {
			upd.Kind = bot.KindCommand
			upd.Payload = m.Command()
			upd.Args = m.CommandArguments()
		} else {
			upd.Kind = bot.KindText
			upd.Payload = m.Text
		}
		return upd, true

	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		if cq.From == nil {
			return bot.Update{}, false
		}
		upd := bot.Update{
			Kind:     bot.KindCallback,
			UserID:   cq.From.ID,
			ChatID:   cq.From.ID,
			FullName: fullName(cq.From),
			Payload:  cq.Data,
		}
		if cq.Message != nil {
			if cq.Message.Chat != nil {
				upd.ChatID = cq.Message.Chat.ID
			}
			upd.Current = toScreen(cq.Message)
		}
		return upd, true
	}
	return bot.Update{}, false
}

func fullName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return name
}

// toScreen reconstructs the screen a message currently shows
func toScreen(m *tgbotapi.Message) *bot.Screen {
	s := &bot.Screen{Text: m.Text}
	if m.ReplyMarkup == nil {
		return s
	}
	for _, row := range m.ReplyMarkup.InlineKeyboard {
		buttons := make([]bot.Button, 0, len(row))
		for _, b := range row {
			data := ""
			if b.CallbackData != nil {
				data = *b.CallbackData
			}
			buttons = append(buttons, bot.Button{Label: b.Text, Data: data})
		}
		s.Keyboard = append(s.Keyboard, buttons)
	}
	return s
}

// toMarkup converts a keyboard, returning nil for an empty one
func toMarkup(keyboard [][]bot.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(keyboard) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		if len(row) == 0 {
			continue
		}
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		rows = append(rows, buttons)
	}
	if len(rows) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}
