package telegram

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smartquiz/internal/domain"
)

// send renders engine payloads into Telegram API calls. Send failures are
// logged and the rest of the batch still goes out.
func (b *Bot) send(payloads []domain.Outbound) {
	for _, payload := range payloads {
		switch v := payload.(type) {
		case domain.Message:
			msg := tgbotapi.NewMessage(v.ChatID, v.Text)
			if v.ReplyButton != "" {
				msg.ReplyMarkup = tgbotapi.NewOneTimeReplyKeyboard(
					tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(v.ReplyButton)),
				)
			}
			if _, err := b.api.Send(msg); err != nil {
				log.Printf("send message to %d: %v", v.ChatID, err)
			}
		case domain.QuestionPoll:
			poll := tgbotapi.NewPoll(v.ChatID, v.Question, v.Options...)
			poll.Type = "quiz"
			poll.CorrectOptionID = int64(v.CorrectIndex)
			poll.IsAnonymous = false
			if _, err := b.api.Send(poll); err != nil {
				log.Printf("send poll to %d: %v", v.ChatID, err)
			}
		case domain.InlineKeyboard:
			msg := tgbotapi.NewMessage(v.ChatID, v.Text)
			rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(v.Buttons))
			for _, row := range v.Buttons {
				buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
				for _, btn := range row {
					buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Data))
				}
				rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
			}
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
			if _, err := b.api.Send(msg); err != nil {
				log.Printf("send keyboard to %d: %v", v.ChatID, err)
			}
		}
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	b.send([]domain.Outbound{domain.Message{ChatID: chatID, Text: text}})
}
