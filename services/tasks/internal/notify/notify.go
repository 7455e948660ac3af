// Package notify отправляет напоминания о приближающемся сроке задачи.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/sun1tar/tasktracker/services/tasks/internal/models"
)

type Notifier interface {
	Notify(ctx context.Context, task *models.Task) error
}

// LogNotifier пишет напоминание в лог. Используется, если Telegram не настроен.
type LogNotifier struct {
	Logger *logrus.Logger
}

func (n LogNotifier) Notify(_ context.Context, task *models.Task) error {
	entry := n.Logger.WithFields(logrus.Fields{
		"component": "reminder",
		"task_id":   task.ID,
		"title":     task.Title,
	})
	if task.DueDate != nil {
		entry = entry.WithField("due_date", models.FormatDueDate(*task.DueDate))
	}
	entry.Info("task deadline is close")
	return nil
}
