package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sun1tar/tasktracker/services/tasks/internal/models"
)

// TelegramNotifier отправляет напоминания в один чат
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier проверяет токен (getMe) и возвращает notifier
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return newTelegramNotifier(api, chatID), nil
}

func newTelegramNotifier(api *tgbotapi.BotAPI, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{api: api, chatID: chatID}
}

func (n *TelegramNotifier) Notify(ctx context.Context, task *models.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, telegramText(task))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func telegramText(task *models.Task) string {
	var b strings.Builder
	b.WriteString("⏳ <b>")
	b.WriteString(html.EscapeString(task.Title))
	b.WriteString("</b>\nThe task is close to the deadline. Finish on time!")
	if task.DueDate != nil {
		b.WriteString("\n\nDeadline: ")
		b.WriteString(models.FormatDueDate(*task.DueDate))
	}
	return b.String()
}
