package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/sun1tar/tasktracker/services/tasks/internal/notify"
	"github.com/sun1tar/tasktracker/services/tasks/internal/repository"
)

// ReminderService периодически ищет невыполненные задачи, срок которых
// наступит в ближайшие lead, и отправляет по ним одно напоминание.
// Отправленные напоминания помнятся только в памяти процесса.
type ReminderService struct {
	repo     repository.TaskRepository
	notifier notify.Notifier
	lead     time.Duration
	logger   *logrus.Logger
	now      func() time.Time
	cron     *cron.Cron

	mu   sync.Mutex
	sent map[int64]time.Time // id -> due_date, по которому уже напомнили
}

func NewReminderService(repo repository.TaskRepository, notifier notify.Notifier, lead time.Duration, logger *logrus.Logger, opts ...Option) *ReminderService {
	return &ReminderService{
		repo:     repo,
		notifier: notifier,
		lead:     lead,
		logger:   logger,
		now:      buildOptions(opts).now,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		sent:     make(map[int64]time.Time),
	}
}

// Check выполняет один проход и возвращает число отправленных напоминаний
func (s *ReminderService) Check(ctx context.Context) (int, error) {
	now := s.now().UTC()
	tasks, err := normalized(s.repo.ListDueBetween(ctx, now, now.Add(s.lead)))
	if err != nil {
		return 0, fmt.Errorf("list upcoming tasks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, due := range s.sent {
		if due.Before(now) {
			delete(s.sent, id)
		}
	}

	sent := 0
	for _, task := range tasks {
		if task.IsComplete || task.DueDate == nil {
			continue
		}
		if due, ok := s.sent[task.ID]; ok && due.Equal(*task.DueDate) {
			continue
		}
		if err := s.notifier.Notify(ctx, task); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"component": "reminder",
				"task_id":   task.ID,
			}).Warn("failed to send reminder")
			continue
		}
		s.sent[task.ID] = *task.DueDate
		sent++
	}
	return sent, nil
}

// Start запускает проверку каждые interval
func (s *ReminderService) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	_, err := s.cron.AddFunc("@every "+interval.String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := s.Check(ctx)
		if err != nil {
			s.logger.WithError(err).WithField("component", "reminder").Error("reminder check failed")
			return
		}
		if n > 0 {
			s.logger.WithFields(logrus.Fields{"component": "reminder", "sent": n}).Info("reminders sent")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop останавливает планировщик и ждёт завершения текущей проверки
func (s *ReminderService) Stop() {
	<-s.cron.Stop().Done()
}
