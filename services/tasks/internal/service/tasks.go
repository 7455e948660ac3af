package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sun1tar/tasktracker/services/tasks/internal/models"
	"github.com/sun1tar/tasktracker/services/tasks/internal/repository"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidPeriod   = errors.New("invalid period")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidTask     = errors.New("invalid task")
)

// TaskInput - полный набор полей задачи для создания и замены
type TaskInput struct {
	Title       string
	Description *string
	IsComplete  bool
	DueDate     *time.Time
	Priority    models.Priority
	Category    *string
}

type TaskService struct {
	repo repository.TaskRepository
	now  func() time.Time
}

type options struct {
	now func() time.Time
}

type Option func(*options)

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewTaskService(repo repository.TaskRepository, opts ...Option) *TaskService {
	return &TaskService{
		repo: repo,
		now:  buildOptions(opts).now,
	}
}

func (s *TaskService) List(ctx context.Context) ([]*models.Task, error) {
	return normalized(s.repo.List(ctx))
}

// ListOverdue - срок прошёл и задача не выполнена
func (s *TaskService) ListOverdue(ctx context.Context) ([]*models.Task, error) {
	return normalized(s.repo.ListOverdue(ctx, s.now().UTC()))
}

// ListByPeriod возвращает задачи со сроком в [now, now+period]
func (s *TaskService) ListByPeriod(ctx context.Context, period string) ([]*models.Task, error) {
	p, err := models.ParsePeriod(period)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPeriod, err)
	}
	from, to := p.Window(s.now().UTC())
	return normalized(s.repo.ListDueBetween(ctx, from, to))
}

func (s *TaskService) ListByCategory(ctx context.Context, category string) ([]*models.Task, error) {
	return normalized(s.repo.ListByCategory(ctx, category))
}

func (s *TaskService) ListByPriority(ctx context.Context, priority models.Priority) ([]*models.Task, error) {
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPriority, priority)
	}
	return normalized(s.repo.ListByPriority(ctx, priority))
}

func (s *TaskService) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	task.NormalizeDueDate()
	return task, nil
}

// Create сохраняет новую задачу. Срок приводится к UTC до записи.
func (s *TaskService) Create(ctx context.Context, in TaskInput) (*models.Task, error) {
	if in.Priority == 0 {
		in.Priority = models.DefaultPriority
	}
	task, err := in.toTask(0)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Update полностью заменяет задачу. Сначала проверяется, что она существует,
// поэтому для неизвестного id хранилище не меняется.
// Срок нормализуется так же, как при создании.
func (s *TaskService) Update(ctx context.Context, id int64, in TaskInput) (*models.Task, error) {
	task, err := in.toTask(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, translate(err)
	}
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, translate(err)
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	return translate(s.repo.Delete(ctx, id))
}

// Ping проверяет доступность хранилища
func (s *TaskService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (in TaskInput) toTask(id int64) (*models.Task, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if !in.Priority.Valid() {
		return nil, fmt.Errorf("%w: priority must be 1, 2 or 3", ErrInvalidTask)
	}
	task := &models.Task{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		IsComplete:  in.IsComplete,
		DueDate:     in.DueDate,
		Priority:    in.Priority,
		Category:    in.Category,
	}
	task.NormalizeDueDate()
	return task, nil
}

func translate(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTaskNotFound
	}
	return err
}

// normalized приводит due_date всех задач к UTC. В хранилище ничего не пишется.
func normalized(tasks []*models.Task, err error) ([]*models.Task, error) {
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	for _, t := range tasks {
		t.NormalizeDueDate()
	}
	return tasks, nil
}
